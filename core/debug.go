package core

import "strconv"

// DebugWriter is a function type for writing debug messages.
type DebugWriter func(string)

// debugPrintln is the global debug print function (can be set by platform code)
var debugPrintln DebugWriter = func(s string) {}

// SetDebugWriter sets the platform-specific debug output function, e.g.
// a UART writer on hardware or testing.T.Log on the host.
func SetDebugWriter(w DebugWriter) {
	debugPrintln = w
}

// DiaryAction classifies what the interrupt handler did in response to a
// bus condition.
type DiaryAction uint8

// Master handler actions.
const (
	ActSendByte        DiaryAction = 1  // next outbound byte loaded
	ActRestartSameMsg  DiaryAction = 2  // repeated START, write-then-read flip
	ActRestartNextMsg  DiaryAction = 3  // repeated START for next queued message
	ActFinished        DiaryAction = 4  // STOP, buffer drained
	ActSendAddressW    DiaryAction = 8  // SLA+W loaded after START
	ActSendAddressR    DiaryAction = 9  // SLA+R loaded after START
	ActReceiveACK      DiaryAction = 13 // will ACK the next received byte
	ActReceiveNACK     DiaryAction = 14 // will NACK the next received byte
	ActRetryStart      DiaryAction = 17 // SLA NACKed, retrying START
	ActRetryExhausted  DiaryAction = 18 // SLA NACKed, retry budget spent
	ActArbLostRestart  DiaryAction = 90 // arbitration lost, restarting
	ActErrorStop       DiaryAction = 91 // error, releasing bus
	ActErrorStopStart  DiaryAction = 92 // error, STOP then START for next message
	ActPartialComplete DiaryAction = 93 // data NACKed with bytes remaining
)

// Slave handler actions.
const (
	ActSlaveSendByte   DiaryAction = 101 // outbound response byte loaded
	ActSlaveSendFiller DiaryAction = 102 // no response data left, 0xFF loaded
	ActSlaveReceive    DiaryAction = 103 // inbound byte stored, will ACK
	ActSlaveLastByte   DiaryAction = 104 // buffer nearly full, will NACK
	ActSlaveFramed     DiaryAction = 105 // STOP seen, callback invoked
	ActSlaveOverflow   DiaryAction = 106 // truncated message delivered
	ActSlaveStandby    DiaryAction = 107 // error, back to address match
)

// DiaryEntry is one record of the bus diary: the condition the hardware
// reported, what the handler did about it, and the byte involved (sent
// byte, received byte, or address), when one applies.
type DiaryEntry struct {
	Condition Condition
	Action    DiaryAction
	Value     uint8
}

// DiarySize is the capacity of the bus diary ring; older entries are
// overwritten once it fills.
const DiarySize = 32

// The diary captures handler activity at interrupt time for post-mortem
// analysis. Off by default: each entry costs a few stores inside the
// handler. All diary state is guarded by the interrupt exclusion.
var (
	diary        [DiarySize]DiaryEntry
	diaryHead    uint8
	diaryCount   uint8
	diaryEnabled bool
)

// EnableDiary switches diary capture on or off.
func EnableDiary(on bool) {
	critical(func() {
		diaryEnabled = on
	})
}

// ClearDiary discards all recorded entries.
func ClearDiary() {
	critical(func() {
		diaryHead = 0
		diaryCount = 0
	})
}

// DiaryEntries returns a snapshot of the recorded entries, oldest first.
func DiaryEntries() []DiaryEntry {
	var out []DiaryEntry
	critical(func() {
		out = make([]DiaryEntry, diaryCount)
		start := (diaryHead + DiarySize - diaryCount) % DiarySize
		for i := uint8(0); i < diaryCount; i++ {
			out[i] = diary[(start+i)%DiarySize]
		}
	})
	return out
}

// DumpDiary prints the recorded entries, oldest first, through the debug
// writer, one line per entry as "cond=0xNN act=N val=0xNN". fmt is avoided
// so the dump stays usable from MCU builds.
func DumpDiary() {
	for _, e := range DiaryEntries() {
		line := "cond=0x" + hex8(uint8(e.Condition)) +
			" act=" + strconv.Itoa(int(e.Action)) +
			" val=0x" + hex8(e.Value)
		debugPrintln(line)
	}
}

func hex8(v uint8) string {
	const digits = "0123456789abcdef"
	return string([]byte{digits[v>>4], digits[v&0x0F]})
}

// diaryRecord appends an entry. Interrupt-excluded context only.
func diaryRecord(cond Condition, action DiaryAction, value uint8) {
	if !diaryEnabled {
		return
	}
	diary[diaryHead] = DiaryEntry{Condition: cond, Action: action, Value: value}
	diaryHead = (diaryHead + 1) % DiarySize
	if diaryCount < DiarySize {
		diaryCount++
	}
}
