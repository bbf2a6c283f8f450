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

package streameddata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/lotem-starkware/papyrus/protocol"
)

// ErrMissingRequest is returned by the inbound upgrade when the stream ends before a
// request arrives. It is always accompanied by io.ErrUnexpectedEOF
var ErrMissingRequest = errors.New("stream ended before request")

var (
	StateCreated         = protocol.NewState(1, "Created")
	StateAwaitingRequest = protocol.NewState(2, "AwaitingRequest")
	StateWritingRequest  = protocol.NewState(3, "WritingRequest")
	StateReady           = protocol.NewState(4, "Ready")
	StateFailed          = protocol.NewState(5, "Failed")
)

// InboundStateMap is the state map of the listening side
var InboundStateMap = protocol.StateMap{
	StateCreated: protocol.StateMapEntry{
		Transitions: []protocol.State{StateAwaitingRequest},
	},
	StateAwaitingRequest: protocol.StateMapEntry{
		Transitions: []protocol.State{StateReady, StateFailed},
	},
	StateReady:  protocol.StateMapEntry{},
	StateFailed: protocol.StateMapEntry{},
}

// OutboundStateMap is the state map of the dialing side
var OutboundStateMap = protocol.StateMap{
	StateCreated: protocol.StateMapEntry{
		Transitions: []protocol.State{StateWritingRequest},
	},
	StateWritingRequest: protocol.StateMapEntry{
		Transitions: []protocol.State{StateReady, StateFailed},
	},
	StateReady:  protocol.StateMapEntry{},
	StateFailed: protocol.StateMapEntry{},
}

// upgrade holds what both sides share: the protocol name, the state machine and the
// failure that ended the upgrade, if any
type upgrade struct {
	protocolName string
	machine      *protocol.StateMachine
	mutex        sync.Mutex
	err          error
}

// begin claims the upgrade for a single run
func (u *upgrade) begin(running protocol.State) error {
	if u.machine.IsTerminal() {
		return fmt.Errorf(
			"%w: finished in state %s",
			protocol.ErrUpgradeConsumed,
			u.machine.Current(),
		)
	}
	if err := u.machine.Transition(running); err != nil {
		return fmt.Errorf("%w: %w", protocol.ErrUpgradeConsumed, err)
	}
	return nil
}

// finish moves the upgrade to its terminal state and returns the result of the run
func (u *upgrade) finish(err error) error {
	to := StateReady
	if err != nil {
		u.mutex.Lock()
		u.err = err
		u.mutex.Unlock()
		to = StateFailed
	}
	if terr := u.machine.Transition(to); terr != nil {
		return terr
	}
	return err
}

func (u *upgrade) ProtocolInfo() []string {
	return []string{u.protocolName}
}

func (u *upgrade) State() protocol.State {
	return u.machine.Current()
}

// Err returns the error that moved the upgrade to StateFailed
func (u *upgrade) Err() error {
	u.mutex.Lock()
	defer u.mutex.Unlock()
	return u.err
}

type deadliner interface {
	SetDeadline(t time.Time) error
}

// withContext runs fn, which performs blocking I/O on stream, and aborts that I/O when ctx
// is done by setting an expired deadline on the stream. Streams without deadline support
// cannot be interrupted and fn runs to completion.
//
// The stream is never closed here. If ctx fires while fn runs, the result is a failure
// even when fn itself succeeded, since the stream's deadline has been changed
func withContext(ctx context.Context, stream io.ReadWriter, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d, ok := stream.(deadliner)
	if !ok {
		return fn()
	}
	stop := context.AfterFunc(ctx, func() {
		_ = d.SetDeadline(time.Unix(1, 0))
	})
	err := fn()
	if !stop() {
		if err != nil {
			return fmt.Errorf("%w: %w", ctx.Err(), err)
		}
		return ctx.Err()
	}
	return err
}
