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
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// HashSize is the size in bytes of block hashes and other field elements
const HashSize = 32

var ErrInvalidBlockHash = errors.New("invalid block hash")

// BlockHash identifies a block by its hash
type BlockHash [HashSize]byte

// BlockNumber identifies a block by its height
type BlockNumber uint64

// Felt is a field element such as a state root or contract address. It is stored big-endian
type Felt [HashSize]byte

// ParseBlockHash parses a hex string with an optional 0x prefix. Values shorter than 64 hex
// digits are left-padded with zeros
func ParseBlockHash(s string) (BlockHash, error) {
	var ret BlockHash
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) == 0 || len(s) > HashSize*2 {
		return ret, fmt.Errorf("%w: %q", ErrInvalidBlockHash, s)
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	data, err := hex.DecodeString(s)
	if err != nil {
		return ret, fmt.Errorf("%w: %w", ErrInvalidBlockHash, err)
	}
	copy(ret[HashSize-len(data):], data)
	return ret, nil
}

// BlockHashFromBytes builds a BlockHash from a big-endian value of at most HashSize bytes
func BlockHashFromBytes(data []byte) (BlockHash, error) {
	var ret BlockHash
	if err := leftPad(ret[:], data); err != nil {
		return ret, err
	}
	return ret, nil
}

func (h BlockHash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

func (h BlockHash) IsZero() bool {
	return h == BlockHash{}
}

func (n BlockNumber) String() string {
	return strconv.FormatUint(uint64(n), 10)
}

func (f Felt) String() string {
	return "0x" + hex.EncodeToString(f[:])
}

func (f Felt) IsZero() bool {
	return f == Felt{}
}

func leftPad(dst []byte, src []byte) error {
	if len(src) > len(dst) {
		return fmt.Errorf(
			"%w: %d bytes (maximum %d)",
			ErrInvalidBlockHash,
			len(src),
			len(dst),
		)
	}
	copy(dst[len(dst)-len(src):], src)
	return nil
}
