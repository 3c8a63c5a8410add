package sim

import (
	"fmt"
	"sync"
)

// Device is a simulated peripheral attached to a MasterBus. The bus
// calls Begin when the device's address is ACKed for a transfer phase,
// one WriteByte or ReadByte per clocked byte, and End when the bus
// master issues STOP or loses the device.
type Device interface {
	Begin(read bool)
	End()
	// WriteByte receives one byte from the bus master; returning false
	// NACKs it.
	WriteByte(b byte) bool
	// ReadByte supplies one byte to the bus master. last reports that
	// the master will NACK this byte and end the read.
	ReadByte(last bool) byte
}

// RegisterDevice simulates the common register-file peripheral: the
// first written byte sets a register pointer, further writes store at
// the pointer, and reads stream from it. The pointer auto-increments and
// wraps at 256, as real parts do.
type RegisterDevice struct {
	mu    sync.Mutex
	regs  [256]byte
	ptr   uint8
	fresh bool
}

// NewRegisterDevice returns a register device with all registers zero.
func NewRegisterDevice() *RegisterDevice {
	return &RegisterDevice{}
}

// Poke sets a register directly, bypassing the bus.
func (d *RegisterDevice) Poke(reg, value uint8) {
	d.mu.Lock()
	d.regs[reg] = value
	d.mu.Unlock()
}

// Peek reads a register directly, bypassing the bus.
func (d *RegisterDevice) Peek(reg uint8) uint8 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.regs[reg]
}

func (d *RegisterDevice) Begin(read bool) {
	d.mu.Lock()
	if !read {
		d.fresh = true
	}
	d.mu.Unlock()
}

func (d *RegisterDevice) End() {}

func (d *RegisterDevice) WriteByte(b byte) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fresh {
		d.ptr = b
		d.fresh = false
		return true
	}
	d.regs[d.ptr] = b
	d.ptr++
	return true
}

func (d *RegisterDevice) ReadByte(bool) byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	v := d.regs[d.ptr]
	d.ptr++
	return v
}

// Recorder wraps a Device and logs every bus interaction as a readable
// line, for asserting exact transfer sequences in tests.
type Recorder struct {
	Inner Device

	mu  sync.Mutex
	ops []string
}

// NewRecorder returns a recorder around inner.
func NewRecorder(inner Device) *Recorder {
	return &Recorder{Inner: inner}
}

// Ops returns a snapshot of the recorded interaction log.
func (r *Recorder) Ops() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ops...)
}

func (r *Recorder) log(s string) {
	r.mu.Lock()
	r.ops = append(r.ops, s)
	r.mu.Unlock()
}

func (r *Recorder) Begin(read bool) {
	if read {
		r.log("begin read")
	} else {
		r.log("begin write")
	}
	r.Inner.Begin(read)
}

func (r *Recorder) End() {
	r.log("end")
	r.Inner.End()
}

func (r *Recorder) WriteByte(b byte) bool {
	ack := r.Inner.WriteByte(b)
	r.log(fmt.Sprintf("write 0x%02x ack=%v", b, ack))
	return ack
}

func (r *Recorder) ReadByte(last bool) byte {
	b := r.Inner.ReadByte(last)
	r.log(fmt.Sprintf("read 0x%02x last=%v", b, last))
	return b
}
