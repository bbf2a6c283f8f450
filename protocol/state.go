package protocol

import (
	"fmt"
	"slices"
	"sync"
)

type State struct {
	Id   uint
	Name string
}

func NewState(id uint, name string) State {
	return State{
		Id:   id,
		Name: name,
	}
}

func (s State) String() string {
	return s.Name
}

type StateMapEntry struct {
	Transitions []State
}

type StateMap map[State]StateMapEntry

// Copy returns a copy of the state map. This is mostly for convenience,
// since we need to copy the state map in various places
func (s StateMap) Copy() StateMap {
	ret := StateMap{}
	for k, v := range s {
		v.Transitions = slices.Clone(v.Transitions)
		ret[k] = v
	}
	return ret
}

// CanTransition reports whether the map allows moving from one state to another
func (s StateMap) CanTransition(from State, to State) bool {
	entry, ok := s[from]
	if !ok {
		return false
	}
	return slices.Contains(entry.Transitions, to)
}

// IsTerminal reports whether no transitions leave the given state
func (s StateMap) IsTerminal(state State) bool {
	return len(s[state].Transitions) == 0
}

// StateMachine tracks the current state of a single protocol instance. It is safe for
// concurrent use
type StateMachine struct {
	mutex    sync.Mutex
	stateMap StateMap
	current  State
}

func NewStateMachine(stateMap StateMap, initial State) *StateMachine {
	return &StateMachine{
		stateMap: stateMap.Copy(),
		current:  initial,
	}
}

func (m *StateMachine) Current() State {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.current
}

func (m *StateMachine) IsTerminal() bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.stateMap.IsTerminal(m.current)
}

// Transition moves the machine to the given state
func (m *StateMachine) Transition(to State) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if !m.stateMap.CanTransition(m.current, to) {
		return fmt.Errorf(
			"%w: %s -> %s",
			ErrInvalidStateTransition,
			m.current,
			to,
		)
	}
	m.current = to
	return nil
}
