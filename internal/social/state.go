package social

import "fmt"

// State is a step of a single login attempt.
type State string

const (
	StateReceived     State = "received"
	StateValidating   State = "validating"
	StateMapping      State = "mapping"
	StateProvisioning State = "provisioning"
	StateEstablishing State = "establishing"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

// transitions lists the legal successors of each state. Failed is reachable from every
// non-terminal state and is handled separately.
var transitions = map[State][]State{
	StateReceived:     {StateValidating},
	StateValidating:   {StateMapping},
	StateMapping:      {StateEstablishing, StateProvisioning},
	StateProvisioning: {StateEstablishing},
	StateEstablishing: {StateDone},
}

// attempt tracks the path of one login through the state machine.
type attempt struct {
	current State
	trail   []State
}

func newAttempt() *attempt {
	return &attempt{current: StateReceived, trail: []State{StateReceived}}
}

func (a *attempt) terminal() bool {
	return a.current == StateDone || a.current == StateFailed
}

// advance moves to next, rejecting transitions outside the table.
func (a *attempt) advance(next State) error {
	if a.terminal() {
		return fmt.Errorf("login attempt already %s", a.current)
	}
	if next == StateFailed {
		a.move(next)
		return nil
	}
	for _, s := range transitions[a.current] {
		if s == next {
			a.move(next)
			return nil
		}
	}
	return fmt.Errorf("illegal transition %s -> %s", a.current, next)
}

func (a *attempt) move(next State) {
	a.current = next
	a.trail = append(a.trail, next)
}

// path returns a copy of the visited states.
func (a *attempt) path() []State {
	return append([]State(nil), a.trail...)
}
