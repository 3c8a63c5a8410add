package bridge

import (
	"bytes"
	"errors"
	"testing"

	"avrhal/core"
	"avrhal/host/serial"
	"avrhal/protocol"
	"avrhal/sim"
)

// startStack brings up the whole chain: simulated bus, transaction
// engine, responder on one end of an in-memory serial link, client on
// the other. What the client does here is exactly what twihost does
// against real hardware.
func startStack(t *testing.T) (*Client, *sim.MasterBus) {
	t.Helper()

	bus := sim.NewMasterBus()
	master := core.NewMaster(bus, sim.NewPins())
	if err := master.Start(core.DefaultMasterConfig()); err != nil {
		bus.Close()
		t.Fatalf("Start failed: %v", err)
	}

	hostPort, devicePort := serial.Pipe()
	responder := protocol.NewResponder(master)
	done := make(chan struct{})
	go func() {
		defer close(done)
		responder.Serve(devicePort, devicePort)
	}()

	t.Cleanup(func() {
		hostPort.Close()
		devicePort.Close()
		<-done
		master.Stop()
		bus.Close()
	})
	return New(hostPort, nil), bus
}

func TestBridgeWriteAndReadBack(t *testing.T) {
	client, bus := startStack(t)
	dev := sim.NewRegisterDevice()
	bus.Attach(0x20, dev)

	if err := client.WriteReg(0x20, 0x00, 0x3F); err != nil {
		t.Fatalf("WriteReg failed: %v", err)
	}
	if got := dev.Peek(0x00); got != 0x3F {
		t.Errorf("Expected register write to land, got %#02x", got)
	}

	data, err := client.ReadReg(0x20, 0x00, 1)
	if err != nil {
		t.Fatalf("ReadReg failed: %v", err)
	}
	if !bytes.Equal(data, []byte{0x3F}) {
		t.Errorf("Expected 0x3f back, got % 02x", data)
	}
}

func TestBridgeReportsBusFailure(t *testing.T) {
	client, _ := startStack(t)

	err := client.WriteReg(0x35, 0x00, 1)
	var busErr BusError
	if !errors.As(err, &busErr) {
		t.Fatalf("Expected BusError for absent device, got %v", err)
	}
	want := int8(-int(core.StatusCode(core.CondMTSlaNACK) | core.StatusError))
	if busErr.Code != want {
		t.Errorf("Expected code %d, got %d", want, busErr.Code)
	}
}

func TestBridgeScan(t *testing.T) {
	client, bus := startStack(t)
	bus.Attach(0x20, sim.NewRegisterDevice())
	bus.Attach(0x68, sim.NewRegisterDevice())

	found, err := client.Scan()
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if !bytes.Equal(found, []byte{0x20, 0x68}) {
		t.Errorf("Expected devices at 0x20 and 0x68, got % 02x", found)
	}
}

func TestBridgeTimeoutWhenDeviceSilent(t *testing.T) {
	// A port that swallows writes and reads nothing back is what a real
	// serial port with a read timeout looks like when the board is gone.
	client := New(serial.Idle(), nil)

	err := client.WriteReg(0x20, 0x00, 0x3F)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Expected ErrTimeout from a silent device, got %v", err)
	}
}

func TestBridgeMultiByteRead(t *testing.T) {
	client, bus := startStack(t)
	dev := sim.NewRegisterDevice()
	bus.Attach(0x68, dev)
	for i := uint8(0); i < 6; i++ {
		dev.Poke(0x10+i, 0xC0+i)
	}

	data, err := client.ReadReg(0x68, 0x10, 6)
	if err != nil {
		t.Fatalf("ReadReg failed: %v", err)
	}
	for i, b := range data {
		if b != 0xC0+uint8(i) {
			t.Errorf("Byte %d: expected %#02x, got %#02x", i, 0xC0+i, b)
		}
	}
}
