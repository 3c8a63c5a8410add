package core

import "sync/atomic"

// TxStatus is a caller-owned status cell. The interrupt handler stores
// into it asynchronously while the caller polls Load; the atomic access
// stands in for the volatile byte the hardware convention requires.
//
// A cell must not be reused for a new message until the previous terminal
// status has been observed.
type TxStatus struct {
	v atomic.Uint32
}

// Load returns the current status of the message bound to this cell.
func (s *TxStatus) Load() StatusCode {
	return StatusCode(s.v.Load())
}

func (s *TxStatus) set(c StatusCode) {
	s.v.Store(uint32(c))
}

// RxCounter is a caller-owned count of bytes received so far, updated
// live by the interrupt handler as bytes arrive.
type RxCounter struct {
	v atomic.Uint32
}

// Load returns the number of bytes received so far.
func (c *RxCounter) Load() int {
	return int(c.v.Load())
}

func (c *RxCounter) reset() { c.v.Store(0) }
func (c *RxCounter) add1()  { c.v.Add(1) }
