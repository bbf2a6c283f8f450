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

	"github.com/lotem-starkware/papyrus/messages"
	"github.com/lotem-starkware/papyrus/protocol"
)

// InboundProtocol is the listening side of one exchange. It reads a single request of type
// Q from a negotiated substream
type InboundProtocol[Q any, PQ messages.MessagePtr[Q]] struct {
	upgrade
	readOpts []messages.ReadOptionFunc
}

func NewInboundProtocol[Q any, PQ messages.MessagePtr[Q]](
	protocolName string,
	opts ...messages.ReadOptionFunc,
) *InboundProtocol[Q, PQ] {
	return &InboundProtocol[Q, PQ]{
		upgrade: upgrade{
			protocolName: protocolName,
			machine:      protocol.NewStateMachine(InboundStateMap, StateCreated),
		},
		readOpts: opts,
	}
}

// UpgradeInbound reads the request from stream and returns it together with the stream,
// which is left open for the response. It never writes to the stream. A stream that ends
// before the request arrives fails with ErrMissingRequest and io.ErrUnexpectedEOF
func (p *InboundProtocol[Q, PQ]) UpgradeInbound(
	ctx context.Context,
	stream io.ReadWriter,
) (PQ, io.ReadWriter, error) {
	if err := p.begin(StateAwaitingRequest); err != nil {
		return nil, nil, err
	}
	var request PQ
	err := withContext(ctx, stream, func() error {
		var err error
		request, err = messages.ReadMessage[Q, PQ](stream, p.readOpts...)
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: %w", ErrMissingRequest, io.ErrUnexpectedEOF)
		}
		return err
	})
	if err = p.finish(err); err != nil {
		return nil, nil, err
	}
	return request, stream, nil
}
