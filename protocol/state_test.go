// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package protocol_test

import (
	"sync"
	"testing"

	"github.com/lotem-starkware/papyrus/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	stateIdle  = protocol.NewState(1, "Idle")
	stateBusy  = protocol.NewState(2, "Busy")
	stateDone  = protocol.NewState(3, "Done")
	testStates = protocol.StateMap{
		stateIdle: {
			Transitions: []protocol.State{stateBusy},
		},
		stateBusy: {
			Transitions: []protocol.State{stateDone},
		},
		stateDone: {},
	}
)

func TestStateMachineTransitions(t *testing.T) {
	m := protocol.NewStateMachine(testStates, stateIdle)
	assert.Equal(t, stateIdle, m.Current())
	assert.False(t, m.IsTerminal())
	require.NoError(t, m.Transition(stateBusy))
	assert.Equal(t, stateBusy, m.Current())
	err := m.Transition(stateIdle)
	assert.ErrorIs(t, err, protocol.ErrInvalidStateTransition)
	assert.EqualError(t, err, "invalid protocol state transition: Busy -> Idle")
	require.NoError(t, m.Transition(stateDone))
	assert.True(t, m.IsTerminal())
	assert.ErrorIs(t, m.Transition(stateBusy), protocol.ErrInvalidStateTransition)
}

func TestStateMachineUnknownState(t *testing.T) {
	m := protocol.NewStateMachine(testStates, protocol.NewState(99, "Unknown"))
	assert.ErrorIs(t, m.Transition(stateBusy), protocol.ErrInvalidStateTransition)
	assert.True(t, m.IsTerminal())
}

func TestStateMapCopy(t *testing.T) {
	orig := testStates.Copy()
	cp := orig.Copy()
	cp[stateIdle].Transitions[0] = stateDone
	assert.Equal(t, stateBusy, orig[stateIdle].Transitions[0])
	assert.True(t, orig.CanTransition(stateIdle, stateBusy))
	assert.False(t, orig.CanTransition(stateIdle, stateDone))
}

func TestStateMachineSingleWinner(t *testing.T) {
	m := protocol.NewStateMachine(testStates, stateIdle)
	var wg sync.WaitGroup
	var mutex sync.Mutex
	winners := 0
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if m.Transition(stateBusy) == nil {
				mutex.Lock()
				winners++
				mutex.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, winners)
}
