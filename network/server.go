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
	"sync"

	"github.com/libp2p/go-libp2p/core/host"
	inet "github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/protocol"
	"github.com/lotem-starkware/papyrus/messages"
	"github.com/lotem-starkware/papyrus/protocol/streameddata"
)

// HandlerFunc answers one request by writing response records to w. Returning nil ends
// the response stream cleanly. Returning an error resets the substream
type HandlerFunc[PQ any] func(
	ctx context.Context,
	cc CallbackContext,
	request PQ,
	w *ResponseWriter,
) error

// ResponseWriter writes the response records of one exchange
type ResponseWriter struct {
	w       io.Writer
	metrics *Metrics
	count   int
}

// Write sends msg as the next response record
func (w *ResponseWriter) Write(msg messages.Message) error {
	if err := messages.WriteMessage(msg, w.w); err != nil {
		return err
	}
	w.count++
	w.metrics.MessagesSent.Add(1)
	return nil
}

// Count returns the number of records written so far
func (w *ResponseWriter) Count() int {
	return w.count
}

// Server answers inbound substreams for a single protocol name with requests of type Q
type Server[Q any, PQ messages.MessagePtr[Q]] struct {
	host    host.Host
	config  Config
	handler HandlerFunc[PQ]
	ctx     context.Context
	cancel  context.CancelFunc
	mutex   sync.Mutex
	wg      sync.WaitGroup
	started bool
	stopped bool
}

func NewServer[Q any, PQ messages.MessagePtr[Q]](
	h host.Host,
	handler HandlerFunc[PQ],
	cfg Config,
) *Server[Q, PQ] {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server[Q, PQ]{
		host:    h,
		config:  cfg,
		handler: handler,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start registers the stream handler on the host
func (s *Server[Q, PQ]) Start() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.stopped {
		return ErrServerStopped
	}
	if s.started {
		return nil
	}
	s.started = true
	s.host.SetStreamHandler(protocol.ID(s.config.ProtocolName), s.handleStream)
	s.config.logger("server").Debug("server started")
	return nil
}

// Stop removes the stream handler, cancels running exchanges and waits for them to finish
func (s *Server[Q, PQ]) Stop() error {
	s.mutex.Lock()
	if s.stopped {
		s.mutex.Unlock()
		return ErrServerStopped
	}
	s.stopped = true
	if s.started {
		s.host.RemoveStreamHandler(protocol.ID(s.config.ProtocolName))
	}
	s.mutex.Unlock()
	s.cancel()
	s.wg.Wait()
	s.config.logger("server").Debug("server stopped")
	return nil
}

func (s *Server[Q, PQ]) handleStream(stream inet.Stream) {
	s.mutex.Lock()
	if s.stopped {
		s.mutex.Unlock()
		_ = stream.Reset()
		return
	}
	s.wg.Add(1)
	s.mutex.Unlock()
	defer s.wg.Done()
	// Stop resets the substreams of running exchanges
	stopReset := context.AfterFunc(s.ctx, func() {
		_ = stream.Reset()
	})
	defer stopReset()

	remotePeer := stream.Conn().RemotePeer()
	logger := s.config.logger("server").With("peer", remotePeer)
	s.config.Metrics.InboundStreams.Add(1)
	if err := s.serve(stream); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("exchange cancelled", "error", err)
		} else {
			logger.Warn("exchange failed", "error", err)
		}
		_ = stream.Reset()
		return
	}
	_ = stream.Close()
}

func (s *Server[Q, PQ]) serve(stream inet.Stream) error {
	inbound := streameddata.NewInboundProtocol[Q, PQ](
		s.config.ProtocolName,
		messages.WithMaxMessageSize(s.config.MaxMessageSize),
	)
	request, rw, err := inbound.UpgradeInbound(s.ctx, stream)
	if err != nil {
		s.config.Metrics.UpgradeFailures.With("direction", "inbound").Add(1)
		return fmt.Errorf("inbound upgrade: %w", err)
	}
	s.config.logger("server").Debug(
		"received request",
		"peer", stream.Conn().RemotePeer(),
		"request", request,
	)
	cc := CallbackContext{
		RemotePeer:   stream.Conn().RemotePeer(),
		ProtocolName: s.config.ProtocolName,
	}
	w := &ResponseWriter{
		w:       rw,
		metrics: s.config.Metrics,
	}
	if err := s.handler(s.ctx, cc, request, w); err != nil {
		return fmt.Errorf("handler: %w", err)
	}
	// The peer reads until the end of our side of the substream
	if err := stream.CloseWrite(); err != nil {
		return fmt.Errorf("close write: %w", err)
	}
	return nil
}
