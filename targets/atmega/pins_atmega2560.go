//go:build tinygo && avr && atmega2560

package main

import (
	"device/avr"

	"avrhal/core"
)

// On the ATmega2560 the TWI pins are PD1 (SDA) and PD0 (SCL).
const (
	sdaBit = 1 << 1
	sclBit = 1 << 0
)

type busPins struct{}

func (busPins) EnablePullup(line core.Line) {
	switch line {
	case core.LineSDA:
		avr.PORTD.SetBits(sdaBit)
	case core.LineSCL:
		avr.PORTD.SetBits(sclBit)
	}
}

func (busPins) DisablePullup(line core.Line) {
	switch line {
	case core.LineSDA:
		avr.PORTD.ClearBits(sdaBit)
	case core.LineSCL:
		avr.PORTD.ClearBits(sclBit)
	}
}
