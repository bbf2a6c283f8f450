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

// Package network serves and issues streamed-data exchanges over libp2p substreams. A
// Server answers each inbound substream with a stream of response records and a Client
// opens a substream per query and reads the responses until the peer finishes writing.
package network

import (
	"errors"
	"log/slog"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/lotem-starkware/papyrus/messages"
)

// DefaultBlocksProtocol is the protocol name of the blocks exchange
const DefaultBlocksProtocol = "/starknet/blocks/1.0.0"

var ErrServerStopped = errors.New("server stopped")

// Config is used to configure a Server or Client
type Config struct {
	ProtocolName   string
	Logger         *slog.Logger
	Metrics        *Metrics
	MaxMessageSize int
}

// CallbackContext describes the exchange a handler is serving
type CallbackContext struct {
	RemotePeer   peer.ID
	ProtocolName string
}

// OptionFunc represents a function used to modify the network config
type OptionFunc func(*Config)

// NewConfig returns a new network config object with the provided options
func NewConfig(options ...OptionFunc) Config {
	c := Config{
		ProtocolName:   DefaultBlocksProtocol,
		MaxMessageSize: messages.DefaultMaxMessageSize,
	}
	// Apply provided options functions
	for _, option := range options {
		option(&c)
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Metrics == nil {
		c.Metrics = NopMetrics()
	}
	return c
}

// WithProtocolName specifies the protocol name negotiated on substreams
func WithProtocolName(name string) OptionFunc {
	return func(c *Config) {
		c.ProtocolName = name
	}
}

// WithLogger specifies the logger for stream lifecycle events
func WithLogger(logger *slog.Logger) OptionFunc {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithMetrics specifies the metrics to record exchanges in
func WithMetrics(metrics *Metrics) OptionFunc {
	return func(c *Config) {
		c.Metrics = metrics
	}
}

// WithMaxMessageSize specifies the largest record accepted from a peer. A size of zero or
// less keeps messages.DefaultMaxMessageSize
func WithMaxMessageSize(size int) OptionFunc {
	return func(c *Config) {
		if size <= 0 {
			return
		}
		c.MaxMessageSize = size
	}
}

func (c Config) logger(role string) *slog.Logger {
	return c.Logger.With(
		"component", "network",
		"protocol", c.ProtocolName,
		"role", role,
	)
}
