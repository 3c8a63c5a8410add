// Package sim provides software implementations of the TWI hardware
// interfaces: a simulated master-side bus with attachable devices, a
// slave-side bus driven directly by tests, and fake pins. Host builds
// and tests run the real interrupt state machines against these instead
// of silicon.
package sim

import (
	"sync"

	"avrhal/core"
)

// Pins is a fake pullup controller that records the state of each line.
type Pins struct {
	mu sync.Mutex
	up map[core.Line]bool
}

// NewPins returns fake pins with all pullups off.
func NewPins() *Pins {
	return &Pins{up: make(map[core.Line]bool)}
}

func (p *Pins) EnablePullup(line core.Line) {
	p.mu.Lock()
	p.up[line] = true
	p.mu.Unlock()
}

func (p *Pins) DisablePullup(line core.Line) {
	p.mu.Lock()
	p.up[line] = false
	p.mu.Unlock()
}

// PullupEnabled reports whether the pullup on line is currently on.
func (p *Pins) PullupEnabled(line core.Line) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.up[line]
}
