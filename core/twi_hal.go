package core

// Control is the TWI control register image. The bit layout mirrors the
// AVR TWCR register so target bindings can pass it through unchanged.
type Control uint8

const (
	CtlInterruptEnable Control = 1 << 0 // raise the TWI interrupt on events
	CtlEnable          Control = 1 << 2 // enable the TWI unit, claim the pins
	CtlStop            Control = 1 << 4 // transmit STOP; hardware clears when done
	CtlStart           Control = 1 << 5 // transmit START when the bus frees
	CtlAck             Control = 1 << 6 // respond ACK to the next received byte
	CtlClearFlag       Control = 1 << 7 // acknowledge the pending event, resume
)

// Condition is a bus event code as reported by the hardware after each
// interrupt, the prescaler bits already masked off. Values are the
// standard TWI status codes.
type Condition uint8

const (
	CondStart    Condition = 0x08 // START transmitted
	CondRepStart Condition = 0x10 // repeated START transmitted

	// Master transmitter.
	CondMTSlaACK   Condition = 0x18 // SLA+W sent, ACK received
	CondMTSlaNACK  Condition = 0x20 // SLA+W sent, NACK received
	CondMTDataACK  Condition = 0x28 // data sent, ACK received
	CondMTDataNACK Condition = 0x30 // data sent, NACK received
	CondArbLost    Condition = 0x38 // arbitration lost to another master

	// Master receiver.
	CondMRSlaACK   Condition = 0x40 // SLA+R sent, ACK received
	CondMRSlaNACK  Condition = 0x48 // SLA+R sent, NACK received
	CondMRDataACK  Condition = 0x50 // data received, ACK returned
	CondMRDataNACK Condition = 0x58 // data received, NACK returned

	// Slave receiver.
	CondSRSlaACK          Condition = 0x60 // own SLA+W received, ACK returned
	CondSRArbLostSlaACK   Condition = 0x68 // lost arbitration, then own SLA+W
	CondSRGCallACK        Condition = 0x70 // general call received, ACK returned
	CondSRArbLostGCallACK Condition = 0x78 // lost arbitration, then general call
	CondSRDataACK         Condition = 0x80 // addressed data received, ACK returned
	CondSRDataNACK        Condition = 0x88 // addressed data received, NACK returned
	CondSRGCallDataACK    Condition = 0x90 // general call data received, ACK returned
	CondSRGCallDataNACK   Condition = 0x98 // general call data received, NACK returned
	CondSRStop            Condition = 0xa0 // STOP or repeated START while addressed

	// Slave transmitter.
	CondSTSlaACK        Condition = 0xa8 // own SLA+R received, ACK returned
	CondSTArbLostSlaACK Condition = 0xb0 // lost arbitration, then own SLA+R
	CondSTDataACK       Condition = 0xb8 // data sent, ACK received
	CondSTDataNACK      Condition = 0xc0 // data sent, NACK received
	CondSTLastData      Condition = 0xc8 // last data sent, ACK received

	CondNoInfo   Condition = 0xf8 // no relevant state available
	CondBusError Condition = 0x00 // illegal START or STOP seen on the bus
)

// TwiHardware is the register-level interface the engine drives. Target
// packages bind it to the real TWI peripheral; the sim package provides
// software implementations for host builds and tests.
//
// Implementations only move bytes between the abstract registers and
// whatever sits behind them. All protocol sequencing lives in the
// handlers above this interface.
type TwiHardware interface {
	// WriteControl replaces the control register. Writing CtlClearFlag
	// acknowledges the pending event and lets the bus advance.
	WriteControl(c Control)
	// Control returns the current control register content, including
	// bits the hardware has cleared on its own (CtlStop in particular).
	Control() Control

	// WriteData loads the outbound data register.
	WriteData(b byte)
	// ReadData returns the last received byte.
	ReadData() byte

	// ReadCondition returns the current bus event code.
	ReadCondition() Condition

	// SetOwnAddress programs the address the hardware answers to in the
	// slave role, and whether the general call address is recognized.
	SetOwnAddress(address uint8, generalCall bool)

	// SetClockDivisor programs the bus clock divisor for master
	// operation.
	SetClockDivisor(d uint8)
}

// The TWI interrupt dispatches to exactly one bound role. Master.Start
// and Slave.Start claim the slot; binding both at once is refused.
var (
	activeMaster *Master
	activeSlave  *Slave
)

// ServiceTwiInterrupt is the TWI interrupt entry point. Target packages
// register it as the interrupt handler; the sim package calls it when a
// simulated bus event fires. It runs the bound role's state machine with
// the interrupt source excluded.
func ServiceTwiInterrupt() {
	state := disableInterrupts()
	if m := activeMaster; m != nil {
		m.serviceInterrupt(m.hw)
	} else if s := activeSlave; s != nil {
		s.serviceInterrupt(s.hw)
	}
	restoreInterrupts(state)
}
