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

package block

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

const (
	headerBlockHashField        protowire.Number = 1
	headerParentHashField       protowire.Number = 2
	headerBlockNumberField      protowire.Number = 3
	headerStateRootField        protowire.Number = 4
	headerSequencerAddressField protowire.Number = 5
	headerTimestampField        protowire.Number = 6
)

// BlockHeader is the response item of the blocks protocol
type BlockHeader struct {
	BlockHash        BlockHash
	ParentHash       BlockHash
	BlockNumber      BlockNumber
	StateRoot        Felt
	SequencerAddress Felt
	Timestamp        uint64
}

func (h BlockHeader) String() string {
	return fmt.Sprintf(
		"BlockHeader{number: %d, hash: %s, parent: %s, timestamp: %d}",
		h.BlockNumber,
		h.BlockHash,
		h.ParentHash,
		h.Timestamp,
	)
}

func (h *BlockHeader) Marshal() ([]byte, error) {
	var b []byte
	if !h.BlockHash.IsZero() {
		b = appendHashField(b, headerBlockHashField, h.BlockHash)
	}
	if !h.ParentHash.IsZero() {
		b = appendHashField(b, headerParentHashField, h.ParentHash)
	}
	if h.BlockNumber != 0 {
		b = appendVarintField(b, headerBlockNumberField, uint64(h.BlockNumber))
	}
	if !h.StateRoot.IsZero() {
		b = appendHashField(b, headerStateRootField, h.StateRoot)
	}
	if !h.SequencerAddress.IsZero() {
		b = appendHashField(b, headerSequencerAddressField, h.SequencerAddress)
	}
	if h.Timestamp != 0 {
		b = appendVarintField(b, headerTimestampField, h.Timestamp)
	}
	return b, nil
}

func (h *BlockHeader) Unmarshal(data []byte) error {
	var tmp BlockHeader
	err := decodeFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case headerBlockHashField:
			return consumeHash(num, typ, b, (*[HashSize]byte)(&tmp.BlockHash))
		case headerParentHashField:
			return consumeHash(num, typ, b, (*[HashSize]byte)(&tmp.ParentHash))
		case headerBlockNumberField:
			v, n, err := consumeVarint(num, typ, b)
			tmp.BlockNumber = BlockNumber(v)
			return n, err
		case headerStateRootField:
			return consumeHash(num, typ, b, (*[HashSize]byte)(&tmp.StateRoot))
		case headerSequencerAddressField:
			return consumeHash(num, typ, b, (*[HashSize]byte)(&tmp.SequencerAddress))
		case headerTimestampField:
			v, n, err := consumeVarint(num, typ, b)
			tmp.Timestamp = v
			return n, err
		}
		return 0, nil
	})
	if err != nil {
		return err
	}
	*h = tmp
	return nil
}
