package core

import "strconv"

// BusSpeed selects the I2C bus clock rate.
type BusSpeed uint8

const (
	BusSlow BusSpeed = iota // standard mode, 100 kHz
	BusFast                 // fast mode, 400 kHz
)

// StatusCode is the per-message communication status reported through a
// caller-owned status cell. The handler stores a terminal code exactly
// once, after all data movement for the message is complete.
//
// Bus-time failures are encoded as the raw bus Condition OR'd with
// StatusError; Cause splits the two back apart. The named codes below
// occupy values no masked condition can produce.
type StatusCode uint8

const (
	StatusCompletedOk StatusCode = 0x00 // message completed with no error
	StatusError       StatusCode = 0x01 // error flag, OR'd with the bus condition
	StatusNotStarted  StatusCode = 0x02 // message queued, bus not yet acquired
	StatusRxOverflow  StatusCode = 0x03 // incoming message truncated (slave)
	StatusInProgress  StatusCode = 0x04 // message actively driving the bus
	StatusTxPartial   StatusCode = 0x06 // remote side NACKed before all data sent
)

// Terminal reports whether s is a final status: the handler will not
// touch the cell again and all data for the message has been published.
func (s StatusCode) Terminal() bool {
	return s != StatusNotStarted && s != StatusInProgress
}

// Failed reports whether s is a terminal failure.
func (s StatusCode) Failed() bool {
	return s.Terminal() && s != StatusCompletedOk
}

// Cause returns the bus condition embedded in an error-flagged status and
// true, or 0 and false for every other code.
func (s StatusCode) Cause() (Condition, bool) {
	if s&StatusError == 0 || s == StatusRxOverflow {
		return 0, false
	}
	return Condition(s &^ StatusError), true
}

func (s StatusCode) String() string {
	switch s {
	case StatusCompletedOk:
		return "completed"
	case StatusNotStarted:
		return "not started"
	case StatusInProgress:
		return "in progress"
	case StatusTxPartial:
		return "partial transmission"
	case StatusRxOverflow:
		return "receive overflow"
	}
	if cond, ok := s.Cause(); ok {
		return "bus error (condition 0x" + strconv.FormatUint(uint64(cond), 16) + ")"
	}
	return "status 0x" + strconv.FormatUint(uint64(s), 16)
}

// SendError is an enqueue-time failure: the message was rejected before
// any bus activity occurred. The zero value means no error and is never
// returned through the error interface.
type SendError uint8

const (
	sendOK                SendError = 0
	ErrTxBufferFull       SendError = 1 // transaction buffer is full, try again
	ErrMsgTooLong         SendError = 2 // outbound payload exceeds MaxMessageLen
	ErrNilStatus          SendError = 3 // no status cell provided
	ErrWriteWithoutData   SendError = 4 // write requested with nothing to send
	ErrReadWithoutStorage SendError = 5 // read requested without buffer or counter
)

func (e SendError) Error() string {
	switch e {
	case ErrTxBufferFull:
		return "i2c: transaction buffer full"
	case ErrMsgTooLong:
		return "i2c: message too long"
	case ErrNilStatus:
		return "i2c: nil status cell"
	case ErrWriteWithoutData:
		return "i2c: write without data"
	case ErrReadWithoutStorage:
		return "i2c: read without storage"
	}
	return "i2c: send error " + strconv.Itoa(int(e))
}

// errOrNil converts an internal code to the error interface without
// wrapping the zero value in a non-nil error.
func (e SendError) errOrNil() error {
	if e == sendOK {
		return nil
	}
	return e
}

// BusStatusError wraps a terminal failure status so synchronous results
// can travel through the error interface (used by the drivers adapter).
type BusStatusError StatusCode

func (e BusStatusError) Error() string {
	return "i2c: " + StatusCode(e).String()
}
