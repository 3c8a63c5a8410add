package serial

import "io"

// mockPort is one end of an in-memory serial link.
type mockPort struct {
	r *io.PipeReader
	w *io.PipeWriter
}

// Pipe returns two connected in-memory Ports: what is written to one is
// read from the other. Used to exercise the bridge without hardware.
func Pipe() (Port, Port) {
	ar, bw := io.Pipe()
	br, aw := io.Pipe()
	return &mockPort{r: ar, w: aw}, &mockPort{r: br, w: bw}
}

func (p *mockPort) Read(b []byte) (int, error)  { return p.r.Read(b) }
func (p *mockPort) Write(b []byte) (int, error) { return p.w.Write(b) }

func (p *mockPort) Close() error {
	p.w.Close()
	return p.r.Close()
}

func (p *mockPort) Flush() error { return nil }

// idlePort accepts writes and returns zero-byte reads, the way a real
// port with a read timeout behaves when the device never answers.
type idlePort struct{}

// Idle returns a Port with nothing on the other end.
func Idle() Port {
	return idlePort{}
}

func (idlePort) Read(b []byte) (int, error)  { return 0, nil }
func (idlePort) Write(b []byte) (int, error) { return len(b), nil }
func (idlePort) Close() error                { return nil }
func (idlePort) Flush() error                { return nil }
