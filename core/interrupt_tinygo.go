//go:build tinygo

package core

import "runtime/interrupt"

// State records the previous interrupt-enable state.
type State = interrupt.State

func disableInterrupts() State {
	return interrupt.Disable()
}

func restoreInterrupts(state State) {
	interrupt.Restore(state)
}
