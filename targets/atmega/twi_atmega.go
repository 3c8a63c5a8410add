//go:build tinygo && avr

package main

import (
	"device/avr"
	"runtime/interrupt"

	"avrhal/core"
)

// twiHardware binds the abstract TWI registers to the AVR peripheral.
// The control and condition encodings match the hardware registers
// directly, so every method is a register access.
type twiHardware struct{}

func (twiHardware) WriteControl(c core.Control) { avr.TWCR.Set(uint8(c)) }
func (twiHardware) Control() core.Control       { return core.Control(avr.TWCR.Get()) }

func (twiHardware) WriteData(b byte) { avr.TWDR.Set(b) }
func (twiHardware) ReadData() byte   { return avr.TWDR.Get() }

// ReadCondition masks off the prescaler bits sharing the status
// register.
func (twiHardware) ReadCondition() core.Condition {
	return core.Condition(avr.TWSR.Get() & 0xF8)
}

func (twiHardware) SetOwnAddress(address uint8, generalCall bool) {
	v := address << 1
	if generalCall {
		v |= 1
	}
	avr.TWAR.Set(v)
}

func (twiHardware) SetClockDivisor(d uint8) {
	// Prescaler fixed at 1; the divisor alone sets the bus clock.
	avr.TWSR.ClearBits(0x03)
	avr.TWBR.Set(d)
}

func initTwiInterrupt() {
	interrupt.New(avr.IRQ_TWI, func(interrupt.Interrupt) {
		core.ServiceTwiInterrupt()
	})
}
