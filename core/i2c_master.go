package core

import (
	"errors"
	"runtime"
)

var (
	// ErrRoleActive is returned by Start when the other bus role already
	// owns the TWI interrupt. One build runs exactly one role.
	ErrRoleActive = errors.New("i2c: another bus role is already started")
)

// MasterConfig configures the bus for master operation.
type MasterConfig struct {
	// Speed selects the bus clock, BusFast by default.
	Speed BusSpeed
	// CPUClock is the CPU frequency used to derive the clock divisor;
	// zero means DefaultCPUClock.
	CPUClock uint32
	// AddressRetries is how many times a NACKed address is retried with a
	// fresh START before the message is failed. Whether three is tuned or
	// arbitrary is lost to history; it is what the bus has always used.
	AddressRetries uint8
}

// DefaultMasterConfig returns the standard fast-mode configuration.
func DefaultMasterConfig() MasterConfig {
	return MasterConfig{
		Speed:          BusFast,
		CPUClock:       DefaultCPUClock,
		AddressRetries: 3,
	}
}

// Master drives the bus in the I2C master role. Callers enqueue
// transactions through the async functions (or their sync wrappers); the
// interrupt state machine owns all bus activity from the START on,
// consuming the transaction buffer until it drains.
type Master struct {
	hw   TwiHardware
	pull PullupControl
	buf  txBuffer

	// busy covers the window between acquiring the bus and the final
	// interrupt; Busy also checks the hardware interrupt-enable bit.
	busy       bool
	retries    uint8
	maxRetries uint8
}

// NewMaster returns a master bound to the given hardware. Call Start
// before queuing transactions.
func NewMaster(hw TwiHardware, pull PullupControl) *Master {
	return &Master{hw: hw, pull: pull}
}

// Start configures the TWI hardware for master operation: bus clock,
// pullups enabled, interrupt disabled until a transaction needs the bus.
func (m *Master) Start(cfg MasterConfig) error {
	var err error
	critical(func() {
		if activeSlave != nil || (activeMaster != nil && activeMaster != m) {
			err = ErrRoleActive
			return
		}
		activeMaster = m

		m.busy = false
		m.retries = 0
		m.maxRetries = cfg.AddressRetries
		m.buf.clear()

		m.pull.EnablePullup(LineSDA)
		m.pull.EnablePullup(LineSCL)

		// Default content: SDA released.
		m.hw.WriteData(0xFF)
		m.hw.SetClockDivisor(DivisorForSpeed(cfg.CPUClock, cfg.Speed))
		m.hw.WriteControl(CtlEnable | CtlClearFlag)
	})
	return err
}

// Stop disables the TWI hardware. No further transactions are possible
// until Start is called again; queued messages are dropped.
func (m *Master) Stop() {
	critical(func() {
		m.hw.WriteControl(0)
		m.buf.clear()
		m.busy = false
		if activeMaster == m {
			activeMaster = nil
		}
	})
}

// Pullups switches the SDA/SCL pullups. Start enables them; this is only
// needed to turn them off, e.g. when the bus has external pullups.
func (m *Master) Pullups(on bool) {
	if on {
		m.pull.EnablePullup(LineSDA)
		m.pull.EnablePullup(LineSCL)
	} else {
		m.pull.DisablePullup(LineSDA)
		m.pull.DisablePullup(LineSCL)
	}
}

// Busy reports whether the bus is mid-communication: transactions queued
// or the final interrupt not yet fired.
func (m *Master) Busy() bool {
	var busy bool
	critical(func() {
		busy = m.busy || m.hw.Control()&CtlInterruptEnable != 0
	})
	return busy
}

// startBus acquires the bus with a START condition if it is idle.
// Interrupt-excluded context only.
func (m *Master) startBus() {
	if m.busy || m.hw.Control()&CtlInterruptEnable != 0 {
		return
	}
	// Wait out a STOP still being transmitted.
	for m.hw.Control()&CtlStop != 0 {
	}
	m.busy = true
	m.retries = 0
	m.hw.WriteControl(CtlEnable | CtlInterruptEnable | CtlClearFlag | CtlStart)
}

// enqueue pushes a message, busy-waiting while the buffer is full. The
// wait is bounded by the hardware draining one transaction; every other
// rejection is returned to the caller immediately.
func (m *Master) enqueue(address uint8, mode txMode, txData []byte,
	rx []byte, rxLen uint8, rxCount *RxCounter, status *TxStatus) error {
	for {
		var code SendError
		critical(func() {
			code = m.buf.push(address, mode, txData, rx, rxLen, rxCount, status)
			if code == sendOK {
				m.startBus()
			}
		})
		if code != ErrTxBufferFull {
			return code.errOrNil()
		}
		delayShort()
	}
}

// WriteAsync queues a one-byte message: just a register address, the
// usual "do something" instruction to a device. The message status is
// reported asynchronously through the caller-owned status cell.
func (m *Master) WriteAsync(address, register uint8, status *TxStatus) error {
	payload := [1]byte{register}
	return m.enqueue(address, modeWrite, payload[:], nil, 0, nil, status)
}

// WriteAsyncByte queues a register address and one data byte.
func (m *Master) WriteAsyncByte(address, register, data uint8, status *TxStatus) error {
	payload := [2]byte{register, data}
	return m.enqueue(address, modeWrite, payload[:], nil, 0, nil, status)
}

// WriteAsyncString queues a register address followed by the bytes of s.
func (m *Master) WriteAsyncString(address, register uint8, s string, status *TxStatus) error {
	if len(s)+1 > MaxMessageLen {
		return ErrMsgTooLong
	}
	var payload [MaxMessageLen]byte
	payload[0] = register
	n := copy(payload[1:], s)
	return m.enqueue(address, modeWrite, payload[:1+n], nil, 0, nil, status)
}

// WriteAsyncBuffer queues a register address followed by data.
func (m *Master) WriteAsyncBuffer(address, register uint8, data []byte, status *TxStatus) error {
	if len(data)+1 > MaxMessageLen {
		return ErrMsgTooLong
	}
	var payload [MaxMessageLen]byte
	payload[0] = register
	n := copy(payload[1:], data)
	return m.enqueue(address, modeWrite, payload[:1+n], nil, 0, nil, status)
}

// ReadAsync queues a read of n bytes into dest. dest, counter and status
// are referenced for the lifetime of the transaction: the handler fills
// dest and advances counter live as bytes arrive. n must be the exact
// expected length; the last byte is NACKed by count, so there are no
// variable-length reads.
func (m *Master) ReadAsync(address uint8, n uint8, dest []byte, counter *RxCounter, status *TxStatus) error {
	return m.enqueue(address, modeRead, nil, dest, n, counter, status)
}

// ReadAsyncReg queues a register write followed, via repeated START, by a
// read of n bytes: the "send register pointer, read response" idiom. The
// bus stays owned across the turnaround so no other master can
// interleave.
func (m *Master) ReadAsyncReg(address, register uint8, n uint8, dest []byte, counter *RxCounter, status *TxStatus) error {
	payload := [1]byte{register}
	return m.enqueue(address, modeWriteRestartRead, payload[:], dest, n, counter, status)
}

// waitForCompletion spins until the status cell reaches a terminal
// value. Bounded by bus transfer time, milliseconds at worst; a wedged
// slave device is the caller's timeout problem, not ours.
func waitForCompletion(status *TxStatus) StatusCode {
	for {
		s := status.Load()
		if s.Terminal() {
			return s
		}
		runtime.Gosched()
	}
}

// syncResult folds an enqueue error and a terminal status into the
// one-integer encoding the sync calls return: 0 on success, a positive
// SendError code when the message never reached the bus, or the negated
// status code when the bus reported a failure.
func syncResult(err error, status *TxStatus) int {
	if err != nil {
		return int(err.(SendError))
	}
	return -int(waitForCompletion(status))
}

// WriteSync transmits a one-byte message and blocks until it completes.
func (m *Master) WriteSync(address, register uint8) int {
	var status TxStatus
	return syncResult(m.WriteAsync(address, register, &status), &status)
}

// WriteSyncByte transmits a register address and one data byte, blocking
// until the exchange completes.
func (m *Master) WriteSyncByte(address, register, data uint8) int {
	var status TxStatus
	return syncResult(m.WriteAsyncByte(address, register, data, &status), &status)
}

// WriteSyncString transmits a register address and string, blocking
// until the exchange completes.
func (m *Master) WriteSyncString(address, register uint8, s string) int {
	var status TxStatus
	return syncResult(m.WriteAsyncString(address, register, s, &status), &status)
}

// WriteSyncBuffer transmits a register address and buffer, blocking
// until the exchange completes.
func (m *Master) WriteSyncBuffer(address, register uint8, data []byte) int {
	var status TxStatus
	return syncResult(m.WriteAsyncBuffer(address, register, data, &status), &status)
}

// ReadSync reads n bytes into dest, blocking until the exchange
// completes.
func (m *Master) ReadSync(address uint8, n uint8, dest []byte) int {
	var status TxStatus
	var counter RxCounter
	return syncResult(m.ReadAsync(address, n, dest, &counter, &status), &status)
}

// ReadSyncReg writes a register address then reads n bytes into dest,
// blocking until the exchange completes.
func (m *Master) ReadSyncReg(address, register uint8, n uint8, dest []byte) int {
	var status TxStatus
	var counter RxCounter
	return syncResult(m.ReadAsyncReg(address, register, n, dest, &counter, &status), &status)
}

// Control writes the handler issues in response to bus conditions. Each
// includes CtlClearFlag: the hardware stalls the bus until the flag is
// answered.
func (m *Master) ctlNextByte() {
	m.hw.WriteControl(CtlEnable | CtlInterruptEnable | CtlClearFlag | CtlAck)
}

func (m *Master) ctlStop() {
	m.hw.WriteControl(CtlEnable | CtlClearFlag | CtlStop)
}

func (m *Master) ctlStart() {
	m.hw.WriteControl(CtlEnable | CtlInterruptEnable | CtlClearFlag | CtlStart)
}

func (m *Master) ctlStopStart() {
	m.hw.WriteControl(CtlEnable | CtlInterruptEnable | CtlClearFlag | CtlStop | CtlStart)
}

func (m *Master) ctlReceive(ack bool) {
	c := CtlEnable | CtlInterruptEnable | CtlClearFlag
	if ack {
		c |= CtlAck
	}
	m.hw.WriteControl(c)
}

// retire finishes the current message with the given status, then either
// keeps the bus for the next queued message or releases it. Error paths
// issue STOP+START rather than a bare repeated START so a confused slave
// sees a clean bus boundary.
func (m *Master) retire(cond Condition, status StatusCode) {
	m.buf.currentStatus().set(status)
	m.retries = 0
	failed := status != StatusCompletedOk
	if m.buf.doneWithCurrentMessage() {
		if failed {
			diaryRecord(cond, ActErrorStopStart, 0)
			m.ctlStopStart()
		} else {
			diaryRecord(cond, ActRestartNextMsg, 0)
			m.ctlStart()
		}
		return
	}
	if failed {
		diaryRecord(cond, ActErrorStop, 0)
	} else {
		diaryRecord(cond, ActFinished, 0)
	}
	m.busy = false
	m.ctlStop()
}

// sendOrFinish transmits the next outbound byte, or wraps up the write
// phase: flip to read via repeated START for write-then-read messages,
// otherwise complete the message.
func (m *Master) sendOrFinish(cond Condition) {
	if b := m.buf.nextByte(); b >= 0 {
		diaryRecord(cond, ActSendByte, uint8(b))
		m.hw.WriteData(uint8(b))
		m.ctlNextByte()
		return
	}
	if m.buf.currentMode() == modeWriteRestartRead {
		diaryRecord(cond, ActRestartSameMsg, 0)
		m.buf.setCurrentMode(modeRead)
		m.ctlStart()
		return
	}
	m.retire(cond, StatusCompletedOk)
}

// storeReceived files a just-received byte into the caller's buffer and
// advances the live counter.
func (m *Master) storeReceived(b byte) {
	rx := m.buf.currentRx()
	n := m.buf.currentRxCount()
	if i := n.Load(); i < len(rx) {
		rx[i] = b
	}
	n.add1()
}

// serviceInterrupt is the master interrupt state machine. One call per
// bus event; the condition code selects the transition. Runs with the
// interrupt source excluded.
func (m *Master) serviceInterrupt(hw TwiHardware) {
	cond := hw.ReadCondition()
	if !m.buf.pending() {
		// Spurious event with nothing queued; release the bus.
		m.busy = false
		m.ctlStop()
		return
	}
	switch cond {
	case CondStart, CondRepStart:
		// Bus acquired; send the address with the direction bit for the
		// current message's phase. The retry counter is NOT reset here:
		// the SLA-NACK retry path reissues this very condition, and the
		// budget must span all of a message's START attempts.
		addr := m.buf.currentAddress()
		if m.buf.currentMode()&modeWriteMask != 0 {
			diaryRecord(cond, ActSendAddressW, addr<<1)
			hw.WriteData(addr << 1)
		} else {
			diaryRecord(cond, ActSendAddressR, addr<<1|1)
			hw.WriteData(addr<<1 | 1)
		}
		m.buf.currentStatus().set(StatusInProgress)
		m.busy = true
		m.ctlNextByte()

	case CondMTSlaACK, CondMTDataACK:
		m.sendOrFinish(cond)

	case CondMRSlaACK:
		// Arm the response to the first byte: ACK unless it is also the
		// last one expected.
		if m.buf.currentRxLen() > 1 {
			diaryRecord(cond, ActReceiveACK, 0)
			m.ctlReceive(true)
		} else {
			diaryRecord(cond, ActReceiveNACK, 0)
			m.ctlReceive(false)
		}

	case CondMRDataACK:
		b := hw.ReadData()
		m.storeReceived(b)
		// The last expected byte is flagged by count, so NACK when the
		// next byte will be the final one.
		if m.buf.currentRxCount().Load() < int(m.buf.currentRxLen())-1 {
			diaryRecord(cond, ActReceiveACK, b)
			m.ctlReceive(true)
		} else {
			diaryRecord(cond, ActReceiveNACK, b)
			m.ctlReceive(false)
		}

	case CondMRDataNACK:
		// Final byte received and NACKed per protocol; the read is done.
		m.storeReceived(hw.ReadData())
		m.retire(cond, StatusCompletedOk)

	case CondArbLost:
		// Another master won the bus. Retry transparently: the START is
		// reissued and the caller's status is left untouched.
		diaryRecord(cond, ActArbLostRestart, 0)
		m.ctlStart()

	case CondMTSlaNACK, CondMRSlaNACK:
		// The slave may still be resetting; retry the whole START a
		// bounded number of times before failing the message.
		if m.retries < m.maxRetries {
			m.retries++
			diaryRecord(cond, ActRetryStart, m.retries)
			delayShort()
			m.ctlStart()
			return
		}
		diaryRecord(cond, ActRetryExhausted, m.retries)
		m.retire(cond, StatusCode(cond)|StatusError)

	case CondMTDataNACK:
		// NACK mid-payload is a partial transmission; NACK on the final
		// byte just means the slave had nothing more to say. Except for
		// a write-then-read message: there the final outbound byte is
		// the register pointer, and a NACK kills the read phase before
		// any data moved, so the message must fail.
		switch {
		case m.buf.txRemaining() > 0:
			diaryRecord(cond, ActPartialComplete, m.buf.txRemaining())
			m.retire(cond, StatusTxPartial)
		case m.buf.currentMode() == modeWriteRestartRead:
			m.retire(cond, StatusCode(cond)|StatusError)
		default:
			m.retire(cond, StatusCompletedOk)
		}

	default:
		// Bus error, no-info, or anything unrecognized: fail the message
		// with the condition embedded and move on. One bad transaction
		// never stalls the queue behind it.
		m.retire(cond, StatusCode(cond)|StatusError)
	}
}
