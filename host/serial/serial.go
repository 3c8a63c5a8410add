// Package serial abstracts the serial link between the host tools and a
// device bridging its I2C bus.
package serial

import "io"

// Port is a serial connection. Implementations: native ports via
// tarm/serial, and an in-memory pipe for tests.
type Port interface {
	io.ReadWriteCloser

	// Flush drops any buffered unread input.
	Flush() error
}

// Config holds serial port configuration.
type Config struct {
	// Device path, e.g. "/dev/ttyUSB0" or "COM3".
	Device string

	// Baud rate. USB CDC adapters ignore it.
	Baud int

	// ReadTimeout in milliseconds; 0 blocks.
	ReadTimeout int
}

// DefaultConfig returns the standard configuration for a device bridge.
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100,
	}
}
