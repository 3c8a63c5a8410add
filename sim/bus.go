package sim

import (
	"sync"

	"avrhal/core"
)

type busPhase uint8

const (
	phaseIdle    busPhase = iota
	phaseStarted          // START queued, address not yet transmitted
	phaseWrite            // addressed for write, clocking bytes out
	phaseRead             // addressed for read, clocking bytes in
)

// MasterBus is a simulated TWI peripheral for the master role. Attached
// Devices play the slave side. Writing a control value advances the bus
// protocol immediately and queues the resulting condition; a pump
// goroutine then delivers it through the interrupt entry point, so
// events reach the state machine the same way a real interrupt would:
// asynchronously, one at a time, bus stalled until answered.
type MasterBus struct {
	mu   sync.Mutex
	ctrl core.Control
	data byte
	cond core.Condition

	ownAddr uint8
	gcall   bool
	divisor uint8

	devices map[uint8]Device
	phase   busPhase
	owned   bool
	active  Device

	// Fault injection.
	failAddr      int // NACK the next n address transmissions
	failDataAfter int // NACK write data once this many bytes ACKed, -1 off
	loseArb       int // lose arbitration on the next n acquisitions
	dataCount     int

	events  chan core.Condition
	done    chan struct{}
	handler func()
}

var _ core.TwiHardware = (*MasterBus)(nil)

// NewMasterBus returns a running simulated bus with no devices attached.
// Call Close when done to stop the delivery goroutine.
func NewMasterBus() *MasterBus {
	b := &MasterBus{
		devices:       make(map[uint8]Device),
		failDataAfter: -1,
		events:        make(chan core.Condition, 64),
		done:          make(chan struct{}),
		handler:       core.ServiceTwiInterrupt,
	}
	go b.pump()
	return b
}

func (b *MasterBus) pump() {
	defer close(b.done)
	for cond := range b.events {
		b.mu.Lock()
		b.cond = cond
		b.mu.Unlock()
		b.handler()
	}
}

// Close stops event delivery. The bus must be idle.
func (b *MasterBus) Close() {
	close(b.events)
	<-b.done
}

// Attach connects a device at the given 7-bit address.
func (b *MasterBus) Attach(address uint8, dev Device) {
	b.mu.Lock()
	b.devices[address] = dev
	b.mu.Unlock()
}

// FailAddress makes the next n address transmissions come back NACKed,
// as from an absent or busy device.
func (b *MasterBus) FailAddress(n int) {
	b.mu.Lock()
	b.failAddr = n
	b.mu.Unlock()
}

// FailDataAfter makes write data come back NACKed once n bytes of the
// current message have been ACKed. One-shot: the fault clears after it
// triggers.
func (b *MasterBus) FailDataAfter(n int) {
	b.mu.Lock()
	b.failDataAfter = n
	b.mu.Unlock()
}

// LoseArbitration makes the next n bus acquisitions lose arbitration to
// a phantom competing master.
func (b *MasterBus) LoseArbitration(n int) {
	b.mu.Lock()
	b.loseArb = n
	b.mu.Unlock()
}

// Divisor returns the last programmed clock divisor.
func (b *MasterBus) Divisor() uint8 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.divisor
}

func (b *MasterBus) fire(cond core.Condition) {
	b.events <- cond
}

// releaseLocked drops bus ownership: STOP, disable, or arbitration loss.
func (b *MasterBus) releaseLocked() {
	if b.active != nil {
		b.active.End()
		b.active = nil
	}
	b.owned = false
	b.phase = phaseIdle
	b.dataCount = 0
}

// WriteControl advances the bus according to the written control bits.
// STOP is honored before START so a combined stop-and-start releases the
// bus and reacquires it in order.
func (b *MasterBus) WriteControl(c core.Control) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ctrl = c

	if c&core.CtlEnable == 0 {
		b.releaseLocked()
		return
	}
	if c&core.CtlStop != 0 {
		b.releaseLocked()
		// Hardware clears the stop bit once the STOP goes out.
		b.ctrl &^= core.CtlStop
	}
	if c&core.CtlStart != 0 {
		if b.owned {
			b.fire(core.CondRepStart)
		} else {
			b.fire(core.CondStart)
		}
		b.owned = true
		b.phase = phaseStarted
		return
	}
	if c&core.CtlClearFlag == 0 {
		return
	}
	switch b.phase {
	case phaseStarted:
		b.addressLocked()
	case phaseWrite:
		b.writeLocked()
	case phaseRead:
		b.readLocked(c&core.CtlAck != 0)
	}
}

// addressLocked transmits the SLA byte sitting in the data register.
func (b *MasterBus) addressLocked() {
	if b.loseArb > 0 {
		b.loseArb--
		b.releaseLocked()
		b.fire(core.CondArbLost)
		return
	}

	addr := b.data >> 1
	read := b.data&1 != 0
	dev, ok := b.devices[addr]
	if b.failAddr > 0 {
		b.failAddr--
		ok = false
	}
	if !ok {
		b.phase = phaseIdle
		if read {
			b.fire(core.CondMRSlaNACK)
		} else {
			b.fire(core.CondMTSlaNACK)
		}
		return
	}

	if b.active != nil && b.active != dev {
		b.active.End()
	}
	b.active = dev
	b.dataCount = 0
	dev.Begin(read)
	if read {
		b.phase = phaseRead
		b.fire(core.CondMRSlaACK)
	} else {
		b.phase = phaseWrite
		b.fire(core.CondMTSlaACK)
	}
}

// writeLocked clocks the data register out to the addressed device.
func (b *MasterBus) writeLocked() {
	ack := b.active.WriteByte(b.data)
	b.dataCount++
	if b.failDataAfter >= 0 && b.dataCount > b.failDataAfter {
		ack = false
		b.failDataAfter = -1
	}
	if ack {
		b.fire(core.CondMTDataACK)
	} else {
		b.fire(core.CondMTDataNACK)
	}
}

// readLocked clocks one byte in from the addressed device. ack is the
// response the state machine armed for this byte.
func (b *MasterBus) readLocked(ack bool) {
	b.data = b.active.ReadByte(!ack)
	b.dataCount++
	if ack {
		b.fire(core.CondMRDataACK)
	} else {
		b.fire(core.CondMRDataNACK)
	}
}

func (b *MasterBus) Control() core.Control {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ctrl
}

func (b *MasterBus) WriteData(v byte) {
	b.mu.Lock()
	b.data = v
	b.mu.Unlock()
}

func (b *MasterBus) ReadData() byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data
}

func (b *MasterBus) ReadCondition() core.Condition {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cond
}

func (b *MasterBus) SetOwnAddress(address uint8, generalCall bool) {
	b.mu.Lock()
	b.ownAddr = address
	b.gcall = generalCall
	b.mu.Unlock()
}

func (b *MasterBus) SetClockDivisor(d uint8) {
	b.mu.Lock()
	b.divisor = d
	b.mu.Unlock()
}
