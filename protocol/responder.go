package protocol

import "io"

// BusMaster is the slice of the transaction engine the responder drives.
type BusMaster interface {
	WriteSync(address, register uint8) int
	WriteSyncBuffer(address, register uint8, data []byte) int
	ReadSync(address uint8, n uint8, dest []byte) int
	ReadSyncReg(address, register uint8, n uint8, dest []byte) int
}

// Responder is the device side of the bridge: it decodes command frames,
// executes them against the bus, and emits a response frame per command.
type Responder struct {
	bus BusMaster
	dec *Decoder

	// Reset restarts the bus engine for CmdBusReset; optional.
	Reset func()
}

// NewResponder returns a responder executing commands against bus.
func NewResponder(bus BusMaster) *Responder {
	return &Responder{bus: bus, dec: NewDecoder()}
}

// respErr encodes a failed bus result. The result code is the integer
// form the synchronous bus calls return, truncated to a byte with its
// sign preserved.
func respErr(dst []byte, seq uint8, rc int) []byte {
	out, _ := Encode(dst, seq, RespErr, []byte{uint8(int8(rc))})
	return out
}

func respOK(dst []byte, seq uint8, payload []byte) []byte {
	out, err := Encode(dst, seq, RespOK, payload)
	if err != nil {
		return respErr(dst, seq, -int(ErrFrameResult))
	}
	return out
}

// ErrFrameResult is the result code reported when a response cannot be
// framed, e.g. a read longer than a frame can carry.
const ErrFrameResult = 0x7F

// Execute runs one decoded frame and appends the response frame to dst.
func (r *Responder) Execute(dst []byte, f Frame) []byte {
	p := f.Payload
	switch f.Cmd {
	case CmdWrite:
		if len(p) < 2 {
			return respErr(dst, f.Seq, -ErrFrameResult)
		}
		var rc int
		if len(p) == 2 {
			rc = r.bus.WriteSync(p[0], p[1])
		} else {
			rc = r.bus.WriteSyncBuffer(p[0], p[1], p[2:])
		}
		if rc != 0 {
			return respErr(dst, f.Seq, rc)
		}
		return respOK(dst, f.Seq, nil)

	case CmdRead:
		if len(p) != 2 || int(p[1]) > PayloadMax {
			return respErr(dst, f.Seq, -ErrFrameResult)
		}
		buf := make([]byte, p[1])
		if rc := r.bus.ReadSync(p[0], p[1], buf); rc != 0 {
			return respErr(dst, f.Seq, rc)
		}
		return respOK(dst, f.Seq, buf)

	case CmdReadReg:
		if len(p) != 3 || int(p[2]) > PayloadMax {
			return respErr(dst, f.Seq, -ErrFrameResult)
		}
		buf := make([]byte, p[2])
		if rc := r.bus.ReadSyncReg(p[0], p[1], p[2], buf); rc != 0 {
			return respErr(dst, f.Seq, rc)
		}
		return respOK(dst, f.Seq, buf)

	case CmdScan:
		// Probe the valid 7-bit range with a bare register-zero write;
		// devices that ACK their address are reported. Reserved
		// addresses below 0x08 and above 0x77 are skipped.
		var found []byte
		for addr := uint8(0x08); addr <= 0x77; addr++ {
			if r.bus.WriteSync(addr, 0) == 0 {
				found = append(found, addr)
			}
		}
		return respOK(dst, f.Seq, found)

	case CmdBusReset:
		if r.Reset != nil {
			r.Reset()
		}
		return respOK(dst, f.Seq, nil)
	}
	return respErr(dst, f.Seq, -ErrFrameResult)
}

// Serve pumps frames from rd and writes responses to wr until rd ends.
// This is the device main loop when bridging the bus over a serial link.
func (r *Responder) Serve(rd io.Reader, wr io.Writer) error {
	buf := make([]byte, 256)
	for {
		n, err := rd.Read(buf)
		if n > 0 {
			r.dec.Feed(buf[:n])
			for {
				f, ok := r.dec.Next()
				if !ok {
					break
				}
				resp := r.Execute(nil, f)
				if _, werr := wr.Write(resp); werr != nil {
					return werr
				}
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}
