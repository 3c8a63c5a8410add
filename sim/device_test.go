package sim

import "testing"

func TestRegisterDevicePointerSemantics(t *testing.T) {
	d := NewRegisterDevice()

	// A write phase: first byte is the pointer, the rest store.
	d.Begin(false)
	d.WriteByte(0x10)
	d.WriteByte(0xAA)
	d.WriteByte(0xBB)
	d.End()

	if d.Peek(0x10) != 0xAA || d.Peek(0x11) != 0xBB {
		t.Errorf("Expected 0xAA 0xBB at 0x10, got %#02x %#02x",
			d.Peek(0x10), d.Peek(0x11))
	}

	// A read phase continues from the pointer.
	d.Begin(true)
	if got := d.ReadByte(false); got != d.Peek(0x12) {
		t.Errorf("Expected read at the pointer, got %#02x", got)
	}
}

func TestRegisterDevicePointerWraps(t *testing.T) {
	d := NewRegisterDevice()
	d.Begin(false)
	d.WriteByte(0xFF)
	d.WriteByte(1)
	d.WriteByte(2) // wraps to register 0x00
	d.End()

	if d.Peek(0xFF) != 1 || d.Peek(0x00) != 2 {
		t.Errorf("Expected wrap to register 0, got %#02x %#02x",
			d.Peek(0xFF), d.Peek(0x00))
	}
}

func TestRecorderLogsInteractions(t *testing.T) {
	r := NewRecorder(NewRegisterDevice())

	r.Begin(false)
	r.WriteByte(0x05)
	r.End()

	want := []string{"begin write", "write 0x05 ack=true", "end"}
	got := r.Ops()
	if len(got) != len(want) {
		t.Fatalf("Expected %d ops, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Op %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}
