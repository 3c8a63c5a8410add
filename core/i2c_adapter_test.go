package core_test

import (
	"bytes"
	"testing"

	"avrhal/core"
	"avrhal/sim"
)

func TestAdapterWriteThenReadRegister(t *testing.T) {
	m, bus := newTestMaster(t)
	dev := sim.NewRegisterDevice()
	bus.Attach(0x20, dev)
	i2c := core.Bus(m)

	// Register write: pointer byte plus data.
	if err := i2c.Tx(0x20, []byte{0x02, 0xAB, 0xCD}, nil); err != nil {
		t.Fatalf("Write Tx failed: %v", err)
	}
	if dev.Peek(0x02) != 0xAB || dev.Peek(0x03) != 0xCD {
		t.Errorf("Expected registers written, got %#02x %#02x",
			dev.Peek(0x02), dev.Peek(0x03))
	}

	// Register read: one-byte write selects, read clocks data back.
	var buf [2]byte
	if err := i2c.Tx(0x20, []byte{0x02}, buf[:]); err != nil {
		t.Fatalf("Read Tx failed: %v", err)
	}
	if !bytes.Equal(buf[:], []byte{0xAB, 0xCD}) {
		t.Errorf("Expected AB CD, got % 02x", buf[:])
	}
}

func TestAdapterPlainRead(t *testing.T) {
	m, bus := newTestMaster(t)
	dev := sim.NewRegisterDevice()
	bus.Attach(0x50, dev)
	dev.Poke(0, 0x99)

	var buf [1]byte
	if err := core.Bus(m).Tx(0x50, nil, buf[:]); err != nil {
		t.Fatalf("Tx failed: %v", err)
	}
	if buf[0] != 0x99 {
		t.Errorf("Expected 0x99, got %#02x", buf[0])
	}
}

func TestAdapterErrors(t *testing.T) {
	m, _ := newTestMaster(t)
	i2c := core.Bus(m)

	if err := i2c.Tx(0x80, []byte{1}, nil); err == nil {
		t.Error("Expected error for 8-bit address")
	}
	if err := i2c.Tx(0x20, nil, nil); err == nil {
		t.Error("Expected error for empty transfer")
	}
	if err := i2c.Tx(0x20, make([]byte, core.MaxMessageLen+1), nil); err == nil {
		t.Error("Expected error for oversized write")
	}

	// Absent device surfaces the bus status as an error.
	err := i2c.Tx(0x35, []byte{0x00, 0x01}, nil)
	if err == nil {
		t.Fatal("Expected error for absent device")
	}
	var busErr core.BusStatusError
	if !asBusStatus(err, &busErr) {
		t.Fatalf("Expected BusStatusError, got %T", err)
	}
}

func asBusStatus(err error, out *core.BusStatusError) bool {
	if e, ok := err.(core.BusStatusError); ok {
		*out = e
		return true
	}
	return false
}
