package sim

import (
	"sync"

	"avrhal/core"
)

// SlaveBus is a simulated TWI peripheral for the slave role. Tests play
// the remote bus master: MasterWrite and MasterRead synthesize complete
// exchanges, delivering each bus condition synchronously through the
// interrupt entry point and honoring the ACK bit the slave's state
// machine arms between bytes.
type SlaveBus struct {
	mu   sync.Mutex
	ctrl core.Control
	data byte
	cond core.Condition

	ownAddr uint8
	gcall   bool
	divisor uint8
}

var _ core.TwiHardware = (*SlaveBus)(nil)

// NewSlaveBus returns an idle simulated slave peripheral.
func NewSlaveBus() *SlaveBus {
	return &SlaveBus{}
}

// Deliver synthesizes one bus event and runs the interrupt handler for
// it. MasterWrite and MasterRead cover whole exchanges; Deliver is for
// edge cases like bus errors and arbitration loss.
func (b *SlaveBus) Deliver(cond core.Condition) {
	b.mu.Lock()
	b.cond = cond
	b.mu.Unlock()
	core.ServiceTwiInterrupt()
}

// armedAck reports the ACK response the slave has armed for the next
// byte.
func (b *SlaveBus) armedAck() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ctrl&core.CtlAck != 0
}

// Enabled reports whether the slave has the peripheral switched on and
// answering.
func (b *SlaveBus) Enabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ctrl&core.CtlEnable != 0
}

// MasterWrite plays a remote master writing data to addr, with a STOP
// afterwards unless the slave NACKs first. Address zero is the general
// call. It returns how many bytes the slave ACKed and whether the
// address was answered at all.
func (b *SlaveBus) MasterWrite(addr uint8, data []byte, stop bool) (int, bool) {
	if !b.Enabled() {
		return 0, false
	}
	gcall := addr == 0
	b.mu.Lock()
	match := (gcall && b.gcall) || (!gcall && addr == b.ownAddr)
	b.mu.Unlock()
	if !match {
		return 0, false
	}
	if gcall {
		b.Deliver(core.CondSRGCallACK)
	} else {
		b.Deliver(core.CondSRSlaACK)
	}

	acked := 0
	for _, v := range data {
		willAck := b.armedAck()
		b.mu.Lock()
		b.data = v
		b.mu.Unlock()
		switch {
		case willAck && gcall:
			b.Deliver(core.CondSRGCallDataACK)
		case willAck:
			b.Deliver(core.CondSRDataACK)
		case gcall:
			b.Deliver(core.CondSRGCallDataNACK)
			return acked, true
		default:
			// A NACKed byte ends the exchange; a real master gives up
			// without a further STOP event reaching the slave.
			b.Deliver(core.CondSRDataNACK)
			return acked, true
		}
		acked++
	}
	if stop {
		b.Deliver(core.CondSRStop)
	}
	return acked, true
}

// MasterRead plays a remote master reading n bytes from addr, NACKing
// the last one as the protocol requires. It returns the bytes read and
// whether the address was answered.
func (b *SlaveBus) MasterRead(addr uint8, n int) ([]byte, bool) {
	if !b.Enabled() {
		return nil, false
	}
	b.mu.Lock()
	match := addr == b.ownAddr
	b.mu.Unlock()
	if !match || n <= 0 {
		return nil, match
	}
	// The handler loads the first byte in response to being addressed,
	// and each further byte in response to the ACK.
	b.Deliver(core.CondSTSlaACK)
	out := make([]byte, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, b.ReadData())
		if i < n-1 {
			b.Deliver(core.CondSTDataACK)
		} else {
			b.Deliver(core.CondSTDataNACK)
		}
	}
	return out, true
}

func (b *SlaveBus) WriteControl(c core.Control) {
	b.mu.Lock()
	b.ctrl = c
	b.mu.Unlock()
}

func (b *SlaveBus) Control() core.Control {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ctrl
}

func (b *SlaveBus) WriteData(v byte) {
	b.mu.Lock()
	b.data = v
	b.mu.Unlock()
}

func (b *SlaveBus) ReadData() byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data
}

func (b *SlaveBus) ReadCondition() core.Condition {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cond
}

func (b *SlaveBus) SetOwnAddress(address uint8, generalCall bool) {
	b.mu.Lock()
	b.ownAddr = address
	b.gcall = generalCall
	b.mu.Unlock()
}

func (b *SlaveBus) SetClockDivisor(d uint8) {
	b.mu.Lock()
	b.divisor = d
	b.mu.Unlock()
}
