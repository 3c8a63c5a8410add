//go:build tinygo && avr && atmega328p

package main

import (
	"device/avr"

	"avrhal/core"
)

// On the ATmega328P the TWI pins are PC4 (SDA) and PC5 (SCL). Writing
// the port bit while the pin is an input switches its pullup.
const (
	sdaBit = 1 << 4
	sclBit = 1 << 5
)

type busPins struct{}

func (busPins) EnablePullup(line core.Line) {
	switch line {
	case core.LineSDA:
		avr.PORTC.SetBits(sdaBit)
	case core.LineSCL:
		avr.PORTC.SetBits(sclBit)
	}
}

func (busPins) DisablePullup(line core.Line) {
	switch line {
	case core.LineSDA:
		avr.PORTC.ClearBits(sdaBit)
	case core.LineSCL:
		avr.PORTC.ClearBits(sclBit)
	}
}
