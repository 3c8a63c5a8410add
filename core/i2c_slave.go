package core

// SlaveBufferSize is the capacity of the slave's shared message buffer.
// Incoming writes land in it and the handler's response is read back out
// of it, so one buffer serves both directions of a register-style
// exchange.
const SlaveBufferSize = 32

// MessageHandler processes a received message at interrupt time. buf
// holds the n received bytes; the handler may overwrite buf with a
// response and return how many bytes of it a subsequent read should see.
// Return 0 when there is nothing to answer.
//
// The handler runs in interrupt context: no blocking, no allocation, and
// it must not call back into the engine.
type MessageHandler func(buf []byte, n int) int

// SlaveConfig configures the bus for slave operation.
type SlaveConfig struct {
	// OwnAddress is the 7-bit address the hardware answers to.
	OwnAddress uint8
	// Speed selects the bus clock the master is expected to use.
	Speed BusSpeed
	// CPUClock is the CPU frequency used to derive the clock divisor;
	// zero means DefaultCPUClock.
	CPUClock uint32
	// AnswerGeneralCall additionally matches the general call address.
	AnswerGeneralCall bool
	// Process handles each completed incoming message.
	Process MessageHandler
}

// Slave answers the bus in the I2C slave role. The master frames every
// exchange; the slave's state machine stores inbound bytes, hands each
// completed message to the configured handler, and feeds the handler's
// response back when the master turns the bus around to read.
type Slave struct {
	hw      TwiHardware
	pull    PullupControl
	handler MessageHandler

	buf     [SlaveBufferSize]byte
	index   uint8 // rx store / tx fetch position
	msgSize uint8 // response length left behind by the handler

	// generalCall marks the current exchange as addressed to the
	// general call address rather than our own.
	generalCall bool

	status TxStatus
}

// NewSlave returns a slave bound to the given hardware. Call Start to
// begin answering the bus.
func NewSlave(hw TwiHardware, pull PullupControl) *Slave {
	return &Slave{hw: hw, pull: pull}
}

// Start programs the own address and puts the hardware in addressable
// state. The slave then runs entirely from interrupts; there is nothing
// to poll.
func (s *Slave) Start(cfg SlaveConfig) error {
	var err error
	critical(func() {
		if activeMaster != nil || (activeSlave != nil && activeSlave != s) {
			err = ErrRoleActive
			return
		}
		activeSlave = s

		s.handler = cfg.Process
		s.index = 0
		s.msgSize = 0
		s.generalCall = false
		s.status.set(StatusNotStarted)

		s.pull.EnablePullup(LineSDA)
		s.pull.EnablePullup(LineSCL)

		s.hw.SetOwnAddress(cfg.OwnAddress, cfg.AnswerGeneralCall)
		s.hw.SetClockDivisor(DivisorForSpeed(cfg.CPUClock, cfg.Speed))
		s.hw.WriteControl(CtlEnable | CtlInterruptEnable | CtlClearFlag | CtlAck)
	})
	return err
}

// Stop disables the TWI hardware; the slave no longer answers its
// address.
func (s *Slave) Stop() {
	critical(func() {
		s.hw.WriteControl(0)
		if activeSlave == s {
			activeSlave = nil
		}
	})
}

// Pullups switches the SDA/SCL pullups, as for the master role.
func (s *Slave) Pullups(on bool) {
	if on {
		s.pull.EnablePullup(LineSDA)
		s.pull.EnablePullup(LineSCL)
	} else {
		s.pull.DisablePullup(LineSDA)
		s.pull.DisablePullup(LineSCL)
	}
}

// Busy reports whether an exchange is currently in flight.
func (s *Slave) Busy() bool {
	return s.status.Load() == StatusInProgress
}

// LastExchange returns the status of the most recent exchange and
// whether it was addressed via general call.
func (s *Slave) LastExchange() (StatusCode, bool) {
	var gc bool
	var st StatusCode
	critical(func() {
		st = s.status.Load()
		gc = s.generalCall
	})
	return st, gc
}

// ctlArm acknowledges the pending event and arms the response to the
// next address or data byte.
func (s *Slave) ctlArm(ack bool) {
	c := CtlEnable | CtlInterruptEnable | CtlClearFlag
	if ack {
		c |= CtlAck
	}
	s.hw.WriteControl(c)
}

// deliver hands the received bytes to the handler and records its
// response length for a subsequent read phase.
func (s *Slave) deliver() {
	n := 0
	if s.handler != nil {
		n = s.handler(s.buf[:], int(s.index))
	}
	if n < 0 {
		n = 0
	}
	if n > SlaveBufferSize {
		n = SlaveBufferSize
	}
	s.msgSize = uint8(n)
}

// sendNext loads the next response byte, padding with 0xFF once the
// handler's response is exhausted. The master decides how many bytes to
// clock out; we never get to refuse.
func (s *Slave) sendNext(cond Condition) {
	if s.index < s.msgSize {
		b := s.buf[s.index]
		s.index++
		diaryRecord(cond, ActSlaveSendByte, b)
		s.hw.WriteData(b)
	} else {
		diaryRecord(cond, ActSlaveSendFiller, 0xFF)
		s.hw.WriteData(0xFF)
	}
	s.ctlArm(true)
}

// serviceInterrupt is the slave interrupt state machine. Runs with the
// interrupt source excluded.
func (s *Slave) serviceInterrupt(hw TwiHardware) {
	cond := hw.ReadCondition()
	switch cond {
	case CondSRSlaACK, CondSRArbLostSlaACK,
		CondSRGCallACK, CondSRArbLostGCallACK:
		// Addressed for write; a fresh message begins.
		s.generalCall = cond == CondSRGCallACK || cond == CondSRArbLostGCallACK
		s.index = 0
		s.status.set(StatusInProgress)
		s.ctlArm(true)

	case CondSRDataACK, CondSRGCallDataACK:
		s.buf[s.index] = hw.ReadData()
		s.index++
		if s.index < SlaveBufferSize-1 {
			diaryRecord(cond, ActSlaveReceive, s.buf[s.index-1])
			s.ctlArm(true)
		} else {
			// One slot left: accept exactly one more byte, then NACK.
			diaryRecord(cond, ActSlaveLastByte, s.buf[s.index-1])
			s.ctlArm(false)
		}

	case CondSRDataNACK, CondSRGCallDataNACK:
		// The byte we NACKed still arrived; keep it if it fits, then
		// deliver what we have as a truncated message. The master may
		// keep clocking bytes at us, but without ACKs it will normally
		// give up and STOP.
		if s.index < SlaveBufferSize {
			s.buf[s.index] = hw.ReadData()
			s.index++
		}
		diaryRecord(cond, ActSlaveOverflow, s.index)
		s.deliver()
		s.status.set(StatusRxOverflow)
		s.ctlArm(true)

	case CondSRStop:
		// Message framed by STOP or repeated START; deliver it intact.
		diaryRecord(cond, ActSlaveFramed, s.index)
		s.deliver()
		if s.status.Load() == StatusInProgress {
			s.status.set(StatusCompletedOk)
		}
		s.ctlArm(true)

	case CondSTSlaACK, CondSTArbLostSlaACK:
		// Addressed for read; stream the pending response from the top.
		s.generalCall = false
		s.index = 0
		s.status.set(StatusInProgress)
		s.sendNext(cond)

	case CondSTDataACK:
		s.sendNext(cond)

	case CondSTDataNACK:
		// Master NACKed: it has read all it wants. If it stopped short
		// of our response, that is a partial transmission from our side.
		if s.index < s.msgSize {
			s.status.set(StatusTxPartial)
		} else {
			s.status.set(StatusCompletedOk)
		}
		s.ctlArm(true)

	case CondSTLastData:
		// Sent our final byte but the master ACKed, expecting more; it
		// will see 0xFF filler on subsequent reads after re-addressing.
		s.status.set(StatusCompletedOk)
		s.ctlArm(true)

	default:
		// Bus error or unexpected condition: abandon the exchange and
		// return to address match.
		diaryRecord(cond, ActSlaveStandby, 0)
		s.status.set(StatusCode(cond) | StatusError)
		s.ctlArm(true)
	}
}
