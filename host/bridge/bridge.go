// Package bridge is the host-side client for a device exposing its I2C
// bus over a serial link with the framed command protocol.
package bridge

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"avrhal/protocol"
)

// ErrTimeout is returned when the device stops answering.
var ErrTimeout = errors.New("bridge: no response from device")

// BusError is a failure reported by the device for one command. Positive
// codes mean the message never reached the bus; negative codes carry the
// bus status the transaction ended with.
type BusError struct {
	Code int8
}

func (e BusError) Error() string {
	if e.Code > 0 {
		return fmt.Sprintf("bridge: message rejected, code %d", e.Code)
	}
	return fmt.Sprintf("bridge: transaction failed, status %#02x", uint8(-e.Code))
}

// emptyReadLimit bounds how many empty reads in a row we tolerate before
// declaring the device gone. Ports with a read timeout return zero-byte
// reads while idle.
const emptyReadLimit = 50

// Client issues bus commands to a remote device. Safe for concurrent
// use; commands are serialized over the link.
type Client struct {
	mu   sync.Mutex
	port io.ReadWriter
	dec  *protocol.Decoder
	seq  uint8
	log  *slog.Logger
}

// New returns a client speaking over port. A nil logger discards logs.
func New(port io.ReadWriter, log *slog.Logger) *Client {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{port: port, dec: protocol.NewDecoder(), log: log}
}

// roundTrip sends one command and waits for its response frame.
func (c *Client) roundTrip(cmd uint8, payload []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	frame, err := protocol.Encode(nil, c.seq, cmd, payload)
	if err != nil {
		return nil, err
	}
	c.log.Debug("send", "cmd", cmd, "seq", c.seq, "len", len(payload))
	if _, err := c.port.Write(frame); err != nil {
		return nil, fmt.Errorf("bridge: write: %w", err)
	}

	buf := make([]byte, 256)
	empty := 0
	for {
		if f, ok := c.dec.Next(); ok {
			if f.Seq != c.seq {
				c.log.Warn("stale response", "seq", f.Seq, "want", c.seq)
				continue
			}
			switch f.Cmd {
			case protocol.RespOK:
				return f.Payload, nil
			case protocol.RespErr:
				if len(f.Payload) != 1 {
					return nil, fmt.Errorf("bridge: malformed error response")
				}
				err := BusError{Code: int8(f.Payload[0])}
				c.log.Debug("device error", "code", err.Code)
				return nil, err
			default:
				return nil, fmt.Errorf("bridge: unexpected response %#02x", f.Cmd)
			}
		}

		n, err := c.port.Read(buf)
		if n > 0 {
			empty = 0
			c.dec.Feed(buf[:n])
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("bridge: read: %w", err)
		}
		if empty++; empty >= emptyReadLimit {
			return nil, ErrTimeout
		}
	}
}

// WriteReg writes data to a device register over the remote bus.
func (c *Client) WriteReg(addr, reg uint8, data ...byte) error {
	payload := append([]byte{addr, reg}, data...)
	_, err := c.roundTrip(protocol.CmdWrite, payload)
	return err
}

// Read reads n bytes from a device without addressing a register.
func (c *Client) Read(addr uint8, n uint8) ([]byte, error) {
	return c.roundTrip(protocol.CmdRead, []byte{addr, n})
}

// ReadReg writes a register address then reads n bytes back.
func (c *Client) ReadReg(addr, reg uint8, n uint8) ([]byte, error) {
	return c.roundTrip(protocol.CmdReadReg, []byte{addr, reg, n})
}

// Scan probes the remote bus and returns the addresses that answered.
func (c *Client) Scan() ([]uint8, error) {
	return c.roundTrip(protocol.CmdScan, nil)
}

// ResetBus restarts the remote bus engine.
func (c *Client) ResetBus() error {
	_, err := c.roundTrip(protocol.CmdBusReset, nil)
	return err
}
