// Package protocol implements the framed command protocol spoken
// between a host and a device exposing its I2C bus over a serial link.
//
// Each frame is:
//
//	len seq cmd payload... crcHi crcLo sync
//
// len counts the whole frame including itself and the trailer. The CRC
// covers len through the end of the payload. The trailing sync byte
// bounds every frame so a receiver that loses its place can scan forward
// to the next 0x7E and resynchronize.
package protocol

import "errors"

const (
	FrameSync   = 0x7E
	headerSize  = 3 // len, seq, cmd
	trailerSize = 3 // crc hi, crc lo, sync
	FrameMin    = headerSize + trailerSize
	FrameMax    = 64
	// PayloadMax is the largest payload a single frame can carry.
	PayloadMax = FrameMax - headerSize - trailerSize
)

// Commands the device executes against its bus.
const (
	CmdWrite    uint8 = 0x01 // addr reg [data...]: write a message
	CmdRead     uint8 = 0x02 // addr n: plain read of n bytes
	CmdReadReg  uint8 = 0x03 // addr reg n: write register, read n bytes
	CmdScan     uint8 = 0x04 // probe the address range for devices
	CmdBusReset uint8 = 0x05 // restart the bus engine
)

// Responses.
const (
	RespOK  uint8 = 0x80 // payload: read data, if any
	RespErr uint8 = 0x81 // payload: one signed result code byte
)

var ErrFrameTooLarge = errors.New("protocol: payload exceeds frame capacity")

// Frame is one decoded message.
type Frame struct {
	Seq     uint8
	Cmd     uint8
	Payload []byte
}

// Encode appends the framed message to dst and returns the result.
func Encode(dst []byte, seq, cmd uint8, payload []byte) ([]byte, error) {
	if len(payload) > PayloadMax {
		return dst, ErrFrameTooLarge
	}
	n := len(payload) + FrameMin
	start := len(dst)
	dst = append(dst, uint8(n), seq, cmd)
	dst = append(dst, payload...)
	crc := CRC16(dst[start : start+n-trailerSize])
	dst = append(dst, uint8(crc>>8), uint8(crc), FrameSync)
	return dst, nil
}

// Decoder extracts frames from a byte stream, tolerating garbage between
// them. Feed it raw reads; it returns each complete valid frame once.
type Decoder struct {
	buf    []byte
	synced bool
}

// NewDecoder returns a decoder that assumes the stream starts aligned.
func NewDecoder() *Decoder {
	return &Decoder{synced: true}
}

// Feed appends raw bytes from the stream.
func (d *Decoder) Feed(p []byte) {
	d.buf = append(d.buf, p...)
}

// resync discards input up to and including the next sync byte.
func (d *Decoder) resync() {
	for i, b := range d.buf {
		if b == FrameSync {
			d.buf = d.buf[i+1:]
			d.synced = true
			return
		}
	}
	d.buf = nil
	d.synced = false
}

// Next returns the next complete frame, or false when more input is
// needed. Corrupt frames are skipped via resynchronization.
func (d *Decoder) Next() (Frame, bool) {
	for {
		if !d.synced {
			d.resync()
			if !d.synced {
				return Frame{}, false
			}
		}
		// Skip idle sync bytes between frames.
		for len(d.buf) > 0 && d.buf[0] == FrameSync {
			d.buf = d.buf[1:]
		}
		if len(d.buf) < FrameMin {
			return Frame{}, false
		}
		n := int(d.buf[0])
		if n < FrameMin || n > FrameMax {
			d.synced = false
			continue
		}
		if len(d.buf) < n {
			return Frame{}, false
		}
		if d.buf[n-1] != FrameSync {
			d.synced = false
			continue
		}
		crc := uint16(d.buf[n-trailerSize])<<8 | uint16(d.buf[n-trailerSize+1])
		if crc != CRC16(d.buf[:n-trailerSize]) {
			d.synced = false
			continue
		}
		f := Frame{
			Seq:     d.buf[1],
			Cmd:     d.buf[2],
			Payload: append([]byte(nil), d.buf[headerSize:n-trailerSize]...),
		}
		d.buf = d.buf[n:]
		return f, true
	}
}
