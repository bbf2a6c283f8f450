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

package devnet_test

import (
	"errors"
	"testing"

	"github.com/lotem-starkware/papyrus/block"
	"github.com/lotem-starkware/papyrus/internal/devnet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestChain(t *testing.T, length uint64) *devnet.Chain {
	t.Helper()
	chain, err := devnet.NewChain(length)
	require.NoError(t, err)
	return chain
}

func numbers(headers []block.BlockHeader) []uint64 {
	ret := make([]uint64, 0, len(headers))
	for _, header := range headers {
		ret = append(ret, uint64(header.BlockNumber))
	}
	return ret
}

func TestChainLinks(t *testing.T) {
	chain := newTestChain(t, 20)
	assert.Equal(t, uint64(20), chain.Len())
	var parent block.BlockHash
	for i := range chain.Len() {
		header, err := chain.Header(block.BlockNumber(i))
		require.NoError(t, err)
		assert.Equal(t, block.BlockNumber(i), header.BlockNumber)
		assert.Equal(t, parent, header.ParentHash)
		assert.False(t, header.BlockHash.IsZero())
		hash, err := devnet.HeaderHash(header)
		require.NoError(t, err)
		assert.Equal(t, header.BlockHash, hash)
		assert.Equal(t, devnet.GenesisTimestamp+i*devnet.BlockInterval, header.Timestamp)
		parent = header.BlockHash
	}
	head, err := chain.Head()
	require.NoError(t, err)
	assert.Equal(t, block.BlockNumber(19), head.BlockNumber)
}

func TestChainIsDeterministic(t *testing.T) {
	a := newTestChain(t, 5)
	b := newTestChain(t, 5)
	headA, err := a.Head()
	require.NoError(t, err)
	headB, err := b.Head()
	require.NoError(t, err)
	assert.Equal(t, headA, headB)
}

func TestResolve(t *testing.T) {
	chain := newTestChain(t, 10)
	header, err := chain.Header(7)
	require.NoError(t, err)
	number, err := chain.Resolve(header.BlockHash)
	require.NoError(t, err)
	assert.Equal(t, block.BlockNumber(7), number)
	_, err = chain.Resolve(block.BlockHash{0x01})
	assert.ErrorIs(t, err, devnet.ErrUnknownBlock)
	_, err = chain.Resolve(block.BlockNumber(10))
	assert.ErrorIs(t, err, devnet.ErrUnknownBlock)
	_, err = chain.Resolve(nil)
	assert.ErrorIs(t, err, devnet.ErrUnknownBlock)
	_, err = chain.Header(10)
	assert.ErrorIs(t, err, devnet.ErrUnknownBlock)
}

func TestHeaders(t *testing.T) {
	chain := newTestChain(t, 10)
	hash3, err := chain.Header(3)
	require.NoError(t, err)
	testDefs := []struct {
		name     string
		query    block.BlockQuery
		expected []uint64
	}{
		{
			name:     "Forward",
			query:    block.NewBlockQuery(block.BlockNumber(2), block.DirectionForward, 3, 0, 1),
			expected: []uint64{2, 3, 4},
		},
		{
			name:     "ForwardPastHead",
			query:    block.NewBlockQuery(block.BlockNumber(8), block.DirectionForward, 5, 0, 1),
			expected: []uint64{8, 9},
		},
		{
			name:     "ForwardStepAndSkip",
			query:    block.NewBlockQuery(block.BlockNumber(0), block.DirectionForward, 4, 1, 2),
			expected: []uint64{0, 3, 6, 9},
		},
		{
			name:     "BackwardFromHash",
			query:    block.NewBlockQuery(hash3.BlockHash, block.DirectionBackward, 10, 0, 1),
			expected: []uint64{3, 2, 1, 0},
		},
		{
			name:     "BackwardFromHead",
			query:    block.NewBlockQuery(nil, block.DirectionBackward, 3, 0, 2),
			expected: []uint64{9, 7, 5},
		},
		{
			name:     "ForwardFromGenesis",
			query:    block.NewBlockQuery(nil, block.DirectionForward, 2, 0, 1),
			expected: []uint64{0, 1},
		},
		{
			name:     "ZeroLimit",
			query:    block.NewBlockQuery(block.BlockNumber(0), block.DirectionForward, 0, 0, 1),
			expected: []uint64{},
		},
		{
			name:     "HugeSkip",
			query:    block.NewBlockQuery(block.BlockNumber(4), block.DirectionForward, 3, ^uint64(0), 1),
			expected: []uint64{4},
		},
	}
	for _, tt := range testDefs {
		t.Run(tt.name, func(t *testing.T) {
			headers, err := chain.Headers(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, numbers(headers))
		})
	}
}

func TestHeadersErrors(t *testing.T) {
	chain := newTestChain(t, 10)
	_, err := chain.Headers(block.NewBlockQuery(block.BlockNumber(0), block.DirectionForward, 1, 0, 0))
	assert.ErrorIs(t, err, devnet.ErrZeroStep)
	_, err = chain.Headers(block.NewBlockQuery(block.BlockNumber(50), block.DirectionForward, 1, 0, 1))
	assert.ErrorIs(t, err, devnet.ErrUnknownBlock)
}

func TestWalkStopsOnError(t *testing.T) {
	chain := newTestChain(t, 10)
	errStop := errors.New("stop")
	count := 0
	err := chain.Walk(
		block.NewBlockQuery(block.BlockNumber(0), block.DirectionForward, 10, 0, 1),
		func(block.BlockHeader) error {
			count++
			if count == 3 {
				return errStop
			}
			return nil
		},
	)
	assert.ErrorIs(t, err, errStop)
	assert.Equal(t, 3, count)
}
