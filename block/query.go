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
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidDirection = errors.New("invalid direction")

// BlockID identifies a position on the chain without resolving it. It is either a
// BlockHash or a BlockNumber
type BlockID interface {
	isBlockID()
	String() string
}

func (BlockHash) isBlockID()   {}
func (BlockNumber) isBlockID() {}

// ParseBlockID parses a block number in decimal or a 0x-prefixed block hash. An empty
// string yields a nil BlockID
func ParseBlockID(s string) (BlockID, error) {
	switch {
	case s == "":
		return nil, nil
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		hash, err := ParseBlockHash(s)
		if err != nil {
			return nil, err
		}
		return hash, nil
	default:
		number, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid block number %q: %w", s, err)
		}
		return BlockNumber(number), nil
	}
}

// Direction is the direction a range of blocks is walked from its start
type Direction uint8

const (
	DirectionForward  Direction = 0
	DirectionBackward Direction = 1
)

func (d Direction) String() string {
	switch d {
	case DirectionForward:
		return "Forward"
	case DirectionBackward:
		return "Backward"
	default:
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
}

// ParseDirection returns the Direction with the given name, ignoring case
func ParseDirection(name string) (Direction, error) {
	switch strings.ToLower(name) {
	case "forward":
		return DirectionForward, nil
	case "backward":
		return DirectionBackward, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidDirection, name)
	}
}

// BlockQuery requests up to Limit blocks, starting at Start and walking in Direction.
// Skip and Step are carried verbatim; how they combine into concrete block positions is up
// to the serving side. The zero value is the default (empty) query.
//
// BlockQuery is the request message of the blocks protocol. It encodes to the GetBlocks
// protobuf message.
type BlockQuery struct {
	Start     BlockID
	Direction Direction
	Limit     uint64
	Skip      uint64
	Step      uint64
}

// NewBlockQuery returns a BlockQuery holding exactly the given values
func NewBlockQuery(
	start BlockID,
	direction Direction,
	limit uint64,
	skip uint64,
	step uint64,
) BlockQuery {
	return BlockQuery{
		Start:     start,
		Direction: direction,
		Limit:     limit,
		Skip:      skip,
		Step:      step,
	}
}

func (q BlockQuery) String() string {
	start := "<none>"
	if q.Start != nil {
		start = q.Start.String()
	}
	return fmt.Sprintf(
		"BlockQuery{start: %s, direction: %s, limit: %d, skip: %d, step: %d}",
		start,
		q.Direction,
		q.Limit,
		q.Skip,
		q.Step,
	)
}
