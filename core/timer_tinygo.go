//go:build tinygo

package core

// delaySink defeats the optimizer in delayShort.
var delaySink uint8

// delayShort spins for roughly two bus clock periods at 400 kHz. A
// calibrated loop rather than the scheduler: it is also called from
// interrupt context, where sleeping is not an option.
func delayShort() {
	for i := uint8(0); i < 20; i++ {
		delaySink = i
	}
}
