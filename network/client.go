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

package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/libp2p/go-libp2p/core/host"
	inet "github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/protocol"
	"github.com/lotem-starkware/papyrus/messages"
	"github.com/lotem-starkware/papyrus/protocol/streameddata"
)

// Client issues queries to peers and reads their responses as records of type R
type Client[R any, PR messages.MessagePtr[R]] struct {
	host   host.Host
	config Config
}

func NewClient[R any, PR messages.MessagePtr[R]](h host.Host, cfg Config) *Client[R, PR] {
	return &Client[R, PR]{
		host:   h,
		config: cfg,
	}
}

// Query opens a substream to p, writes query on it and returns the stream of responses.
// The caller must read the ResponseStream to its end or close it. Cancelling ctx abandons
// the exchange, including any response not yet read
func (c *Client[R, PR]) Query(
	ctx context.Context,
	p peer.ID,
	query messages.Message,
) (*ResponseStream[R, PR], error) {
	stream, err := c.host.NewStream(ctx, p, protocol.ID(c.config.ProtocolName))
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	c.config.Metrics.OutboundStreams.Add(1)
	logger := c.config.logger("client").With("peer", p)
	outbound := streameddata.NewOutboundProtocol(query, c.config.ProtocolName)
	rw, err := outbound.UpgradeOutbound(ctx, stream)
	if err != nil {
		c.config.Metrics.UpgradeFailures.With("direction", "outbound").Add(1)
		logger.Debug("outbound upgrade failed", "error", err)
		_ = stream.Reset()
		return nil, fmt.Errorf("outbound upgrade: %w", err)
	}
	// Nothing more is written after the request
	if err := stream.CloseWrite(); err != nil {
		_ = stream.Reset()
		return nil, fmt.Errorf("close write: %w", err)
	}
	logger.Debug("sent request", "request", query)
	responses := &ResponseStream[R, PR]{
		stream:         stream,
		r:              rw,
		logger:         logger,
		metrics:        c.config.Metrics,
		maxMessageSize: c.config.MaxMessageSize,
	}
	responses.stop = context.AfterFunc(ctx, func() {
		_ = responses.reset()
	})
	return responses, nil
}

// ResponseStream reads the response records of one exchange. Close may be called
// concurrently with Next to abandon the exchange
type ResponseStream[R any, PR messages.MessagePtr[R]] struct {
	stream         inet.Stream
	r              io.Reader
	logger         *slog.Logger
	metrics        *Metrics
	maxMessageSize int
	// stop detaches the stream from the Query context
	stop           func() bool
	mutex          sync.Mutex
	closed         atomic.Bool
	done           bool
	err            error
}

// Next returns the next response record. It returns io.EOF once the peer has finished
// writing, after which the substream is closed
func (s *ResponseStream[R, PR]) Next() (PR, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.done {
		if s.err != nil {
			return nil, s.err
		}
		return nil, io.EOF
	}
	msg, err := messages.ReadMessage[R, PR](
		s.r,
		messages.WithMaxMessageSize(s.maxMessageSize),
	)
	if err != nil {
		s.done = true
		s.stop()
		release := !s.closed.Swap(true)
		if errors.Is(err, io.EOF) {
			if release {
				_ = s.stream.Close()
			}
			return nil, io.EOF
		}
		s.err = err
		s.logger.Debug("response stream failed", "error", err)
		if release {
			_ = s.stream.Reset()
		}
		return nil, err
	}
	s.metrics.MessagesReceived.Add(1)
	return msg, nil
}

// Collect reads all remaining response records
func (s *ResponseStream[R, PR]) Collect() ([]PR, error) {
	var ret []PR
	for {
		msg, err := s.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return ret, nil
			}
			return ret, err
		}
		ret = append(ret, msg)
	}
}

// Close abandons the rest of the response by resetting the substream. It is a no-op once
// Next has returned an error
func (s *ResponseStream[R, PR]) Close() error {
	s.stop()
	return s.reset()
}

func (s *ResponseStream[R, PR]) reset() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.stream.Reset()
}
