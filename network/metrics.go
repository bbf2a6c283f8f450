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
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const MetricsSubsystem = "streamed_data"

// Metrics contains metrics exposed by this package.
type Metrics struct {
	// Number of substreams accepted by servers.
	InboundStreams metrics.Counter
	// Number of substreams opened by clients.
	OutboundStreams metrics.Counter
	// Number of failed upgrades, by direction.
	UpgradeFailures metrics.Counter
	// Number of response records written by servers.
	MessagesSent metrics.Counter
	// Number of response records read by clients.
	MessagesReceived metrics.Counter
}

// PrometheusMetrics returns Metrics built using Prometheus client library.
// Optionally, labels can be provided along with their values ("foo",
// "fooValue").
func PrometheusMetrics(namespace string, labelsAndValues ...string) *Metrics {
	labels := []string{}
	for i := 0; i < len(labelsAndValues); i += 2 {
		labels = append(labels, labelsAndValues[i])
	}
	return &Metrics{
		InboundStreams: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "inbound_streams",
			Help:      "Number of substreams accepted by servers.",
		}, labels).With(labelsAndValues...),
		OutboundStreams: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "outbound_streams",
			Help:      "Number of substreams opened by clients.",
		}, labels).With(labelsAndValues...),
		UpgradeFailures: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "upgrade_failures",
			Help:      "Number of failed substream upgrades.",
		}, append(labels, "direction")).With(labelsAndValues...),
		MessagesSent: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "messages_sent",
			Help:      "Number of response records written.",
		}, labels).With(labelsAndValues...),
		MessagesReceived: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "messages_received",
			Help:      "Number of response records read.",
		}, labels).With(labelsAndValues...),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		InboundStreams:   discard.NewCounter(),
		OutboundStreams:  discard.NewCounter(),
		UpgradeFailures:  discard.NewCounter(),
		MessagesSent:     discard.NewCounter(),
		MessagesReceived: discard.NewCounter(),
	}
}
