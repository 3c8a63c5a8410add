//go:build !tinygo

package core

import "time"

// delayShort pauses for roughly two bus clock periods at 400 kHz. It is
// used only inside the bounded busy-waits: full transaction buffer and
// address retry.
func delayShort() {
	time.Sleep(5 * time.Microsecond)
}
