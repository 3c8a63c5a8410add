//go:build !tinygo

package core

import "sync"

// State records the previous interrupt-enable state.
type State uintptr

// On hosted builds there is no interrupt controller; a mutex stands in
// for it. The simulated bus pump delivers "interrupts" through
// ServiceTwiInterrupt, which takes the same lock, so main-thread critical
// sections exclude the handler exactly as disabling the interrupt source
// does on silicon.
var twiExclusion sync.Mutex

func disableInterrupts() State {
	twiExclusion.Lock()
	return 0
}

func restoreInterrupts(State) {
	twiExclusion.Unlock()
}
