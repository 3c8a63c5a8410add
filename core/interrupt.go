package core

// critical runs fn with the TWI interrupt source excluded, restoring the
// prior interrupt-enable state afterwards. Critical sections are kept
// short: a handful of word reads or writes on buffer state.
func critical(fn func()) {
	st := disableInterrupts()
	fn()
	restoreInterrupts(st)
}
