package core

import (
	"errors"

	"tinygo.org/x/drivers"
)

var (
	errAdapterAddress = errors.New("i2c: address out of 7-bit range")
	errAdapterLength  = errors.New("i2c: transfer length out of range")
	errAdapterEmpty   = errors.New("i2c: empty transfer")
)

// I2CBus adapts a Master to the drivers bus interface, so existing
// device drivers can talk through the transaction engine unchanged. Each
// Tx call blocks until its transactions complete.
type I2CBus struct {
	m *Master
}

// Bus wraps the master for use with device driver packages.
func Bus(m *Master) *I2CBus { return &I2CBus{m: m} }

var _ drivers.I2C = (*I2CBus)(nil)

// busResult maps the integer result of a synchronous call onto the error
// interface.
func busResult(rc int) error {
	switch {
	case rc == 0:
		return nil
	case rc > 0:
		return SendError(rc)
	default:
		return BusStatusError(StatusCode(-rc))
	}
}

// Tx performs a write, a read, or a write-then-read against the device
// at addr. A one-byte write followed by a read uses a repeated START, as
// register reads expect; longer writes release the bus before the read.
func (b *I2CBus) Tx(addr uint16, w, r []byte) error {
	if addr > 0x7F {
		return errAdapterAddress
	}
	if len(w) > MaxMessageLen || len(r) > 255 {
		return errAdapterLength
	}
	a := uint8(addr)

	switch {
	case len(w) > 0 && len(r) > 0:
		if len(w) == 1 {
			return busResult(b.m.ReadSyncReg(a, w[0], uint8(len(r)), r))
		}
		if rc := b.m.WriteSyncBuffer(a, w[0], w[1:]); rc != 0 {
			return busResult(rc)
		}
		return busResult(b.m.ReadSync(a, uint8(len(r)), r))

	case len(w) > 0:
		if len(w) == 1 {
			return busResult(b.m.WriteSync(a, w[0]))
		}
		return busResult(b.m.WriteSyncBuffer(a, w[0], w[1:]))

	case len(r) > 0:
		return busResult(b.m.ReadSync(a, uint8(len(r)), r))
	}
	return errAdapterEmpty
}
