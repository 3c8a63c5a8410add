package core

import "testing"

func TestBufferPushValidation(t *testing.T) {
	var b txBuffer
	var st TxStatus
	var cnt RxCounter
	rx := make([]byte, 4)

	if code := b.push(0x20, modeWrite, []byte{1}, nil, 0, nil, nil); code != ErrNilStatus {
		t.Errorf("Expected ErrNilStatus, got %v", code)
	}
	if code := b.push(0x20, modeWrite, nil, nil, 0, nil, &st); code != ErrWriteWithoutData {
		t.Errorf("Expected ErrWriteWithoutData, got %v", code)
	}
	if code := b.push(0x20, modeRead, nil, nil, 0, nil, &st); code != ErrReadWithoutStorage {
		t.Errorf("Expected ErrReadWithoutStorage, got %v", code)
	}
	if code := b.push(0x20, modeRead, nil, rx, 4, nil, &st); code != ErrReadWithoutStorage {
		t.Errorf("Expected ErrReadWithoutStorage without counter, got %v", code)
	}
	long := make([]byte, MaxMessageLen+1)
	if code := b.push(0x20, modeWrite, long, nil, 0, nil, &st); code != ErrMsgTooLong {
		t.Errorf("Expected ErrMsgTooLong, got %v", code)
	}
	if b.pending() {
		t.Error("Rejected pushes must not leave messages queued")
	}
	if code := b.push(0x20, modeRead, nil, rx, 4, &cnt, &st); code != sendOK {
		t.Errorf("Expected valid read to queue, got %v", code)
	}
	if st.Load() != StatusNotStarted {
		t.Errorf("Expected queued status NotStarted, got %v", st.Load())
	}
}

func TestBufferFIFOOrder(t *testing.T) {
	var b txBuffer
	var sts [MaxPendingMessages]TxStatus

	for i := 0; i < MaxPendingMessages; i++ {
		code := b.push(uint8(0x10+i), modeWrite, []byte{uint8(i)}, nil, 0, nil, &sts[i])
		if code != sendOK {
			t.Fatalf("Push %d failed: %v", i, code)
		}
	}

	var extra TxStatus
	if code := b.push(0x77, modeWrite, []byte{9}, nil, 0, nil, &extra); code != ErrTxBufferFull {
		t.Fatalf("Expected ErrTxBufferFull, got %v", code)
	}

	for i := 0; i < MaxPendingMessages; i++ {
		if got := b.currentAddress(); got != uint8(0x10+i) {
			t.Errorf("Message %d: expected address %#02x, got %#02x", i, 0x10+i, got)
		}
		more := b.doneWithCurrentMessage()
		if want := i < MaxPendingMessages-1; more != want {
			t.Errorf("Message %d: expected more=%v, got %v", i, want, more)
		}
	}
	if b.pending() {
		t.Error("Expected buffer drained")
	}
}

func TestBufferFullRejectionLeavesContents(t *testing.T) {
	var b txBuffer
	var sts [MaxPendingMessages + 1]TxStatus
	for i := 0; i < MaxPendingMessages; i++ {
		b.push(uint8(i+1), modeWrite, []byte{uint8(i + 1)}, nil, 0, nil, &sts[i])
	}
	b.push(0x55, modeWrite, []byte{0x55}, nil, 0, nil, &sts[MaxPendingMessages])

	for i := 0; i < MaxPendingMessages; i++ {
		if got := b.currentAddress(); got != uint8(i+1) {
			t.Errorf("Slot %d: expected address %d, got %d", i, i+1, got)
		}
		if got := b.nextByte(); got != i+1 {
			t.Errorf("Slot %d: expected payload %d, got %d", i, i+1, got)
		}
		b.doneWithCurrentMessage()
	}
}

func TestBufferNextByteAndRemaining(t *testing.T) {
	var b txBuffer
	var st TxStatus
	b.push(0x20, modeWrite, []byte{10, 20, 30}, nil, 0, nil, &st)

	if r := b.txRemaining(); r != 3 {
		t.Errorf("Expected 3 remaining, got %d", r)
	}
	for i, want := range []int{10, 20, 30} {
		if got := b.nextByte(); got != want {
			t.Errorf("Byte %d: expected %d, got %d", i, want, got)
		}
	}
	if got := b.nextByte(); got != -1 {
		t.Errorf("Expected -1 after payload exhausted, got %d", got)
	}
	if r := b.txRemaining(); r != 0 {
		t.Errorf("Expected 0 remaining, got %d", r)
	}
}

func TestBufferCursorResetBetweenMessages(t *testing.T) {
	var b txBuffer
	var st1, st2 TxStatus
	b.push(0x20, modeWrite, []byte{1, 2}, nil, 0, nil, &st1)
	b.push(0x21, modeWrite, []byte{7}, nil, 0, nil, &st2)

	b.nextByte()
	b.nextByte()
	b.doneWithCurrentMessage()

	if got := b.nextByte(); got != 7 {
		t.Errorf("Expected next message to start at its first byte, got %d", got)
	}
}

func TestBufferClearIdempotent(t *testing.T) {
	var b txBuffer
	var st TxStatus
	b.push(0x20, modeWrite, []byte{1}, nil, 0, nil, &st)

	b.clear()
	if b.pending() {
		t.Error("Expected no pending messages after clear")
	}
	b.clear()
	if b.pending() || b.isFull() {
		t.Error("Second clear changed buffer state")
	}

	if code := b.push(0x20, modeWrite, []byte{2}, nil, 0, nil, &st); code != sendOK {
		t.Errorf("Expected push after clear to succeed, got %v", code)
	}
}

func TestDoneWithCurrentOnEmptyBuffer(t *testing.T) {
	var b txBuffer
	if b.doneWithCurrentMessage() {
		t.Error("Expected done on empty buffer to report no more messages")
	}
}
