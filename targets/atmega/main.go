//go:build tinygo && avr

// Firmware exposing the board's I2C bus over the UART using the framed
// bridge protocol. Flash it, connect twihost to the serial port, and
// the bus behind the board becomes scriptable from the host.
package main

import (
	"machine"

	"avrhal/core"
	"avrhal/protocol"
)

func main() {
	machine.Serial.Configure(machine.UARTConfig{BaudRate: 115200})

	initTwiInterrupt()

	master := core.NewMaster(twiHardware{}, busPins{})
	cfg := core.DefaultMasterConfig()
	if err := master.Start(cfg); err != nil {
		for {
		}
	}

	responder := protocol.NewResponder(master)
	responder.Reset = func() {
		master.Stop()
		if err := master.Start(cfg); err != nil {
			// Same dead end as a failed boot: the bus is unusable.
			for {
			}
		}
	}

	responder.Serve(machine.Serial, machine.Serial)
}
