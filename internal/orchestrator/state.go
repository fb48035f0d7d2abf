package orchestrator

import (
	"fmt"
	"sync"
)

// State is a phase of the build pipeline.
type State int

const (
	Idle State = iota
	TypeChecking
	Compiling
	Bundling
	Reporting
	Completed
	Aborted
)

var stateNames = map[State]string{
	Idle:         "idle",
	TypeChecking: "type-checking",
	Compiling:    "compiling",
	Bundling:     "bundling",
	Reporting:    "reporting",
	Completed:    "completed",
	Aborted:      "aborted",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == Completed || s == Aborted
}

// Event drives a state transition.
type Event int

const (
	EventTypeCheck Event = iota
	EventCompile
	EventBundle
	// EventBundleFailed is a declaration failure. It is not fatal.
	EventBundleFailed
	EventReport
	EventFinish
	// EventFatal is any error that aborts the run.
	EventFatal
)

var transitions = map[State]map[Event]State{
	Idle: {
		EventTypeCheck: TypeChecking,
		EventCompile:   Compiling,
		EventFinish:    Completed,
	},
	TypeChecking: {
		EventCompile: Compiling,
		EventFinish:  Completed,
	},
	Compiling: {
		EventCompile: Compiling,
		EventBundle:  Bundling,
		EventReport:  Reporting,
		EventFinish:  Completed,
	},
	Bundling: {
		EventBundle:       Bundling,
		EventBundleFailed: Bundling,
		EventCompile:      Compiling,
		EventReport:       Reporting,
		EventFinish:       Completed,
	},
	Reporting: {
		EventFinish: Completed,
	},
}

// Next returns the state reached from s on e.
func (s State) Next(e Event) (State, error) {
	if s.Terminal() {
		return s, fmt.Errorf("no transition from terminal state %s", s)
	}
	if e == EventFatal {
		return Aborted, nil
	}
	next, ok := transitions[s][e]
	if !ok {
		return s, fmt.Errorf("invalid transition from %s on event %d", s, e)
	}
	return next, nil
}

// machine tracks the pipeline state across goroutines.
type machine struct {
	mu    sync.Mutex
	state State
	trace []State
}

func newMachine() *machine {
	return &machine{state: Idle, trace: []State{Idle}}
}

func (m *machine) fire(e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := m.state.Next(e)
	if err != nil {
		return err
	}
	if next != m.state || len(m.trace) == 0 {
		m.trace = append(m.trace, next)
	}
	m.state = next
	return nil
}

func (m *machine) current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *machine) history() []State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]State(nil), m.trace...)
}
