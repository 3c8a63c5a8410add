package core

// Line names a bus signal whose pullup the engine controls.
type Line uint8

const (
	LineSDA Line = iota
	LineSCL
)

// PullupControl is the abstract pin interface the engine uses to switch
// the SDA/SCL pullups. Platform code binds it to the pins the TWI
// hardware owns; sim provides an in-memory implementation.
type PullupControl interface {
	EnablePullup(line Line)
	DisablePullup(line Line)
}
