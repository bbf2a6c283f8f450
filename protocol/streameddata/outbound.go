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
	"io"

	"github.com/lotem-starkware/papyrus/messages"
	"github.com/lotem-starkware/papyrus/protocol"
)

// OutboundProtocol is the dialing side of one exchange. It carries the request to send
type OutboundProtocol[Q messages.Message] struct {
	upgrade
	query Q
}

func NewOutboundProtocol[Q messages.Message](
	query Q,
	protocolName string,
) *OutboundProtocol[Q] {
	return &OutboundProtocol[Q]{
		upgrade: upgrade{
			protocolName: protocolName,
			machine:      protocol.NewStateMachine(OutboundStateMap, StateCreated),
		},
		query: query,
	}
}

func (p *OutboundProtocol[Q]) Query() Q {
	return p.query
}

// UpgradeOutbound writes the request to stream and returns the stream for reading the
// response records. It never reads from the stream
func (p *OutboundProtocol[Q]) UpgradeOutbound(
	ctx context.Context,
	stream io.ReadWriter,
) (io.ReadWriter, error) {
	if err := p.begin(StateWritingRequest); err != nil {
		return nil, err
	}
	err := withContext(ctx, stream, func() error {
		return messages.WriteMessage(p.query, stream)
	})
	if err = p.finish(err); err != nil {
		return nil, err
	}
	return stream, nil
}
