package core

import "golang.org/x/exp/constraints"

// DefaultCPUClock is the CPU frequency assumed when a config leaves it
// zero: the 16 MHz the supported boards run at.
const DefaultCPUClock = 16_000_000

// Frequency returns the bus clock in Hz for a speed setting.
func (s BusSpeed) Frequency() uint32 {
	if s == BusSlow {
		return 100_000
	}
	return 400_000
}

// DivisorForSpeed computes the TWI bit-rate divisor for the requested bus
// speed given the CPU clock. With the prescaler cleared the hardware
// generates SCL = cpu / (16 + 2*div), so div = (cpu/freq - 16) / 2.
func DivisorForSpeed(cpuHz uint32, speed BusSpeed) uint8 {
	if cpuHz == 0 {
		cpuHz = DefaultCPUClock
	}
	freq := speed.Frequency()
	div := cpuHz / freq
	if div < 16 {
		div = 16
	}
	return uint8(clamp((div-16)/2, 0, 255))
}

// clamp bounds v to [lo, hi].
func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
