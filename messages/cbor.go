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

package messages

import (
	"github.com/lotem-starkware/papyrus/cbor"
)

// CborMessage gives any CBOR-serializable value the Message capability. Peers that use it
// must agree on CBOR for every message of the exchange.
type CborMessage[T any] struct {
	Value T
}

// NewCborMessage wraps value for sending
func NewCborMessage[T any](value T) *CborMessage[T] {
	return &CborMessage[T]{Value: value}
}

func (m *CborMessage[T]) Marshal() ([]byte, error) {
	return cbor.Encode(&m.Value)
}

// Unmarshal decodes exactly one CBOR item. Empty input is the default (zero) value.
func (m *CborMessage[T]) Unmarshal(data []byte) error {
	var tmp T
	if len(data) > 0 {
		if err := cbor.DecodeExact(data, &tmp); err != nil {
			return err
		}
	}
	m.Value = tmp
	return nil
}
