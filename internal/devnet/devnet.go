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

// Package devnet provides a deterministic in-memory chain of block headers for serving the
// blocks protocol in development and tests.
package devnet

import (
	"context"
	"errors"
	"fmt"

	"github.com/lotem-starkware/papyrus/block"
	"github.com/lotem-starkware/papyrus/cbor"
	"github.com/lotem-starkware/papyrus/network"
	"golang.org/x/crypto/blake2b"
)

const (
	// GenesisTimestamp is the timestamp of block 0
	GenesisTimestamp uint64 = 1700000000
	// BlockInterval is the number of seconds between consecutive blocks
	BlockInterval uint64 = 12
)

var (
	ErrUnknownBlock = errors.New("unknown block")
	ErrZeroStep     = errors.New("query step must be positive")
)

// SequencerAddress is the sequencer address recorded in every devnet header
var SequencerAddress = block.Felt{0x05, 0xe5, 0x9a}

type headerPreimage struct {
	cbor.StructAsArray
	Number           uint64
	ParentHash       []byte
	StateRoot        []byte
	SequencerAddress []byte
	Timestamp        uint64
}

type stateRootPreimage struct {
	cbor.StructAsArray
	Number uint64
	Label  string
}

// Chain is an immutable chain of headers. Block hashes are the blake2b-256 digests of the
// CBOR encoding of the remaining header fields, which include the parent hash
type Chain struct {
	headers []block.BlockHeader
	byHash  map[block.BlockHash]block.BlockNumber
}

// NewChain builds a chain of the given number of blocks
func NewChain(length uint64) (*Chain, error) {
	c := &Chain{
		headers: make([]block.BlockHeader, 0, length),
		byHash:  make(map[block.BlockHash]block.BlockNumber, length),
	}
	var parent block.BlockHash
	for number := range length {
		header, err := newHeader(block.BlockNumber(number), parent)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", number, err)
		}
		c.headers = append(c.headers, header)
		c.byHash[header.BlockHash] = header.BlockNumber
		parent = header.BlockHash
	}
	return c, nil
}

func newHeader(number block.BlockNumber, parent block.BlockHash) (block.BlockHeader, error) {
	stateRootData, err := cbor.Encode(&stateRootPreimage{
		Number: uint64(number),
		Label:  "state",
	})
	if err != nil {
		return block.BlockHeader{}, err
	}
	header := block.BlockHeader{
		ParentHash:       parent,
		BlockNumber:      number,
		StateRoot:        blake2b.Sum256(stateRootData),
		SequencerAddress: SequencerAddress,
		Timestamp:        GenesisTimestamp + uint64(number)*BlockInterval,
	}
	hash, err := HeaderHash(header)
	if err != nil {
		return block.BlockHeader{}, err
	}
	header.BlockHash = hash
	return header, nil
}

// HeaderHash computes the hash of a header from its other fields
func HeaderHash(header block.BlockHeader) (block.BlockHash, error) {
	data, err := cbor.Encode(&headerPreimage{
		Number:           uint64(header.BlockNumber),
		ParentHash:       header.ParentHash[:],
		StateRoot:        header.StateRoot[:],
		SequencerAddress: header.SequencerAddress[:],
		Timestamp:        header.Timestamp,
	})
	if err != nil {
		return block.BlockHash{}, err
	}
	return blake2b.Sum256(data), nil
}

func (c *Chain) Len() uint64 {
	return uint64(len(c.headers))
}

// Head returns the last header of the chain
func (c *Chain) Head() (block.BlockHeader, error) {
	if len(c.headers) == 0 {
		return block.BlockHeader{}, ErrUnknownBlock
	}
	return c.headers[len(c.headers)-1], nil
}

func (c *Chain) Header(number block.BlockNumber) (block.BlockHeader, error) {
	if uint64(number) >= c.Len() {
		return block.BlockHeader{}, fmt.Errorf("%w: number %d", ErrUnknownBlock, number)
	}
	return c.headers[number], nil
}

// Resolve returns the number of the block identified by id
func (c *Chain) Resolve(id block.BlockID) (block.BlockNumber, error) {
	switch v := id.(type) {
	case block.BlockNumber:
		if uint64(v) >= c.Len() {
			return 0, fmt.Errorf("%w: number %d", ErrUnknownBlock, v)
		}
		return v, nil
	case block.BlockHash:
		number, ok := c.byHash[v]
		if !ok {
			return 0, fmt.Errorf("%w: hash %s", ErrUnknownBlock, v)
		}
		return number, nil
	default:
		return 0, fmt.Errorf("%w: %v", ErrUnknownBlock, id)
	}
}

// Walk calls fn with each header selected by q, in order. The walk starts at q.Start, or
// at genesis (Forward) or head (Backward) when q.Start is unset, and advances q.Step+q.Skip
// blocks in q.Direction per header. It stops after q.Limit headers or at either end of the
// chain. A zero step fails with ErrZeroStep.
func (c *Chain) Walk(q block.BlockQuery, fn func(block.BlockHeader) error) error {
	if q.Step == 0 {
		return ErrZeroStep
	}
	if q.Limit == 0 || len(c.headers) == 0 {
		return nil
	}
	var current uint64
	switch {
	case q.Start != nil:
		number, err := c.Resolve(q.Start)
		if err != nil {
			return err
		}
		current = uint64(number)
	case q.Direction == block.DirectionBackward:
		current = c.Len() - 1
	}
	stride := q.Step + q.Skip
	if stride < q.Step {
		// overflow: only the start block is reachable
		stride = c.Len()
	}
	for range q.Limit {
		if err := fn(c.headers[current]); err != nil {
			return err
		}
		if q.Direction == block.DirectionBackward {
			if current < stride {
				return nil
			}
			current -= stride
		} else {
			if stride >= c.Len()-current {
				return nil
			}
			current += stride
		}
	}
	return nil
}

// Headers returns the headers selected by q
func (c *Chain) Headers(q block.BlockQuery) ([]block.BlockHeader, error) {
	var ret []block.BlockHeader
	err := c.Walk(q, func(header block.BlockHeader) error {
		ret = append(ret, header)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// HandleBlockQuery serves a blocks protocol request from the chain
func (c *Chain) HandleBlockQuery(
	ctx context.Context,
	_ network.CallbackContext,
	q *block.BlockQuery,
	w *network.ResponseWriter,
) error {
	return c.Walk(*q, func(header block.BlockHeader) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return w.Write(&header)
	})
}
