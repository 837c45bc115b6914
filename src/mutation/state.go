package mutation

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Majid760/xpensemate-sub000/src/events"
)

// State of a single mutation.
type State int

const (
	Idle State = iota
	Applying
	AwaitingServer
	Committed
	RolledBack
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Applying:
		return "applying"
	case AwaitingServer:
		return "awaiting_server"
	case Committed:
		return "committed"
	case RolledBack:
		return "rolled_back"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no further transition is allowed.
func (s State) Terminal() bool {
	return s == Committed || s == RolledBack
}

var ErrIllegalTransition = errors.New("illegal mutation state transition")

var allowed = map[State][]State{
	Idle:           {Applying},
	Applying:       {AwaitingServer, RolledBack},
	AwaitingServer: {Committed, RolledBack},
}

// Transition is reported to Config.OnTransition.
type Transition struct {
	Op   events.Op
	Key  string
	From State
	To   State
}

type machine struct {
	op     events.Op
	key    string
	state  State
	log    *slog.Logger
	report func(Transition)
}

func (m *machine) to(next State) error {
	for _, s := range allowed[m.state] {
		if s == next {
			t := Transition{Op: m.op, Key: m.key, From: m.state, To: next}
			m.state = next
			m.log.Debug("Mutation transition", "op", m.op, "key", m.key, "from", t.From.String(), "to", t.To.String())
			if m.report != nil {
				m.report(t)
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, m.state, next)
}

// step is to for transitions the controller drives itself. An illegal one is a
// programming error and is logged.
func (m *machine) step(next State) {
	if err := m.to(next); err != nil {
		m.log.Error("Mutation state machine violated", "op", m.op, "key", m.key, "error", err)
	}
}
