package core

// Compile-time capacity of the master transaction buffer: up to
// MaxPendingMessages queued messages of at most MaxMessageLen outbound
// bytes each. Fixed arrays keep the engine allocation-free after startup.
const (
	MaxMessageLen      = 24
	MaxPendingMessages = 3
)

// txMode records which directions a message uses on the bus.
type txMode uint8

const (
	modeWrite            txMode = 0x01
	modeRead             txMode = 0x02
	modeWriteRestartRead txMode = modeWrite | modeRead

	modeWriteMask txMode = 0x01
)

// txMessage is one queued bus transaction. Outbound bytes are copied in
// at enqueue time; the inbound buffer, counter and status cell stay
// caller-owned and are only referenced, so they must outlive the
// transaction.
type txMessage struct {
	address uint8
	mode    txMode
	data    [MaxMessageLen]byte
	dataLen uint8
	rx      []byte
	rxLen   uint8
	rxCount *RxCounter
	status  *TxStatus
}

// txBuffer is a fixed-capacity circular queue of transactions. The
// interrupt handler consumes exclusively from the head; main-thread code
// touches the buffer only inside critical sections. Methods other than
// push and clear are meant for interrupt-excluded context: they read
// multi-byte shared state and are unsafe anywhere else.
type txBuffer struct {
	msgs    [MaxPendingMessages]txMessage
	current uint8 // head slot index
	count   uint8 // queued messages, including the current one
	cursor  uint8 // next outbound byte offset within the current message
}

// push validates and appends a transaction, copying txData into the
// slot's private storage. It rejects rather than blocks: on any failure
// it returns a nonzero code without mutating the buffer, and the caller
// decides whether to retry.
func (b *txBuffer) push(address uint8, mode txMode, txData []byte,
	rx []byte, rxLen uint8, rxCount *RxCounter, status *TxStatus) SendError {
	if b.count >= MaxPendingMessages {
		return ErrTxBufferFull
	}
	if len(txData) > MaxMessageLen {
		return ErrMsgTooLong
	}
	if status == nil {
		return ErrNilStatus
	}
	if mode&modeWriteMask != 0 && len(txData) == 0 {
		return ErrWriteWithoutData
	}
	if mode&modeRead != 0 && (rx == nil || rxLen == 0 || rxCount == nil) {
		return ErrReadWithoutStorage
	}

	slot := &b.msgs[(b.current+b.count)%MaxPendingMessages]
	slot.address = address
	slot.mode = mode
	slot.dataLen = uint8(copy(slot.data[:], txData))

	slot.rx = rx
	slot.rxLen = rxLen
	slot.rxCount = rxCount
	if rx == nil || rxLen == 0 || rxCount == nil {
		slot.rx = nil
		slot.rxLen = 0
		slot.rxCount = nil
	} else {
		rxCount.reset()
	}
	status.set(StatusNotStarted)
	slot.status = status

	b.count++
	return sendOK
}

// doneWithCurrentMessage retires the head transaction. It returns true
// when another message is queued, signalling the handler to restart the
// bus for it; false means the bus should be released.
func (b *txBuffer) doneWithCurrentMessage() bool {
	more := false
	if b.count > 0 {
		b.count--
		if b.count > 0 {
			b.current = (b.current + 1) % MaxPendingMessages
			more = true
		}
	}
	// Point at the start of whichever message is (or becomes) current.
	b.cursor = 0
	return more
}

// clear drops all queued messages. Idempotent.
func (b *txBuffer) clear() {
	b.count = 0
	b.cursor = 0
}

func (b *txBuffer) isFull() bool  { return b.count >= MaxPendingMessages }
func (b *txBuffer) pending() bool { return b.count > 0 }

func (b *txBuffer) currentAddress() uint8 { return b.msgs[b.current].address }
func (b *txBuffer) currentMode() txMode   { return b.msgs[b.current].mode }

func (b *txBuffer) setCurrentMode(m txMode) { b.msgs[b.current].mode = m }

func (b *txBuffer) currentStatus() *TxStatus   { return b.msgs[b.current].status }
func (b *txBuffer) currentRx() []byte          { return b.msgs[b.current].rx }
func (b *txBuffer) currentRxLen() uint8        { return b.msgs[b.current].rxLen }
func (b *txBuffer) currentRxCount() *RxCounter { return b.msgs[b.current].rxCount }

// nextByte returns the next outbound byte of the current message and
// advances the cursor, or -1 once the payload is exhausted.
func (b *txBuffer) nextByte() int {
	m := &b.msgs[b.current]
	if b.cursor >= m.dataLen {
		return -1
	}
	v := m.data[b.cursor]
	b.cursor++
	return int(v)
}

// txRemaining reports how many outbound bytes of the current message
// have not yet been handed to the hardware.
func (b *txBuffer) txRemaining() uint8 {
	m := &b.msgs[b.current]
	if b.cursor >= m.dataLen {
		return 0
	}
	return m.dataLen - b.cursor
}
