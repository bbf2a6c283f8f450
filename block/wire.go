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

// Protobuf field numbers. The schema is:
//
//	message Hash      { bytes elements = 1; }
//	message BlockID   { oneof id { uint64 number = 1; Hash hash = 2; } }
//	message GetBlocks { BlockID start = 1; Direction direction = 2; uint64 limit = 3;
//	                    uint64 skip = 4; uint64 step = 5; }
const (
	hashElementsField protowire.Number = 1

	blockIdNumberField protowire.Number = 1
	blockIdHashField   protowire.Number = 2

	getBlocksStartField     protowire.Number = 1
	getBlocksDirectionField protowire.Number = 2
	getBlocksLimitField     protowire.Number = 3
	getBlocksSkipField      protowire.Number = 4
	getBlocksStepField      protowire.Number = 5
)

// fieldFunc consumes the value of a known field and returns the number of bytes used. It
// returns 0 for fields it does not know, which are then skipped
type fieldFunc func(num protowire.Number, typ protowire.Type, b []byte) (int, error)

func decodeFields(b []byte, fn fieldFunc) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		n, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		if n == 0 {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return protowire.ParseError(n)
			}
		}
		b = b[n:]
	}
	return nil
}

func consumeVarint(num protowire.Number, typ protowire.Type, b []byte) (uint64, int, error) {
	if typ != protowire.VarintType {
		return 0, 0, fmt.Errorf("field %d: unexpected wire type %d", num, typ)
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, 0, protowire.ParseError(n)
	}
	return v, n, nil
}

func consumeBytes(num protowire.Number, typ protowire.Type, b []byte) ([]byte, int, error) {
	if typ != protowire.BytesType {
		return nil, 0, fmt.Errorf("field %d: unexpected wire type %d", num, typ)
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return nil, 0, protowire.ParseError(n)
	}
	return v, n, nil
}

func appendVarintField(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendBytesField(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendHashField(b []byte, num protowire.Number, hash [HashSize]byte) []byte {
	return appendBytesField(b, num, appendBytesField(nil, hashElementsField, hash[:]))
}

// consumeHash decodes a Hash message into dst
func consumeHash(num protowire.Number, typ protowire.Type, b []byte, dst *[HashSize]byte) (int, error) {
	data, n, err := consumeBytes(num, typ, b)
	if err != nil {
		return 0, err
	}
	var tmp [HashSize]byte
	err = decodeFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != hashElementsField {
			return 0, nil
		}
		elements, n, err := consumeBytes(num, typ, b)
		if err != nil {
			return 0, err
		}
		tmp = [HashSize]byte{}
		if err := leftPad(tmp[:], elements); err != nil {
			return 0, err
		}
		return n, nil
	})
	if err != nil {
		return 0, err
	}
	*dst = tmp
	return n, nil
}

func marshalBlockID(id BlockID) ([]byte, error) {
	switch v := id.(type) {
	case BlockNumber:
		return appendVarintField(nil, blockIdNumberField, uint64(v)), nil
	case BlockHash:
		return appendHashField(nil, blockIdHashField, v), nil
	default:
		return nil, fmt.Errorf("unsupported block ID type %T", id)
	}
}

func unmarshalBlockID(data []byte) (BlockID, error) {
	var ret BlockID
	err := decodeFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case blockIdNumberField:
			v, n, err := consumeVarint(num, typ, b)
			if err != nil {
				return 0, err
			}
			ret = BlockNumber(v)
			return n, nil
		case blockIdHashField:
			var hash [HashSize]byte
			n, err := consumeHash(num, typ, b, &hash)
			if err != nil {
				return 0, err
			}
			ret = BlockHash(hash)
			return n, nil
		}
		return 0, nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// Marshal encodes the query as a GetBlocks protobuf message
func (q *BlockQuery) Marshal() ([]byte, error) {
	var b []byte
	if q.Start != nil {
		start, err := marshalBlockID(q.Start)
		if err != nil {
			return nil, err
		}
		b = appendBytesField(b, getBlocksStartField, start)
	}
	if q.Direction != DirectionForward {
		b = appendVarintField(b, getBlocksDirectionField, uint64(q.Direction))
	}
	if q.Limit != 0 {
		b = appendVarintField(b, getBlocksLimitField, q.Limit)
	}
	if q.Skip != 0 {
		b = appendVarintField(b, getBlocksSkipField, q.Skip)
	}
	if q.Step != 0 {
		b = appendVarintField(b, getBlocksStepField, q.Step)
	}
	return b, nil
}

// Unmarshal decodes a GetBlocks protobuf message
func (q *BlockQuery) Unmarshal(data []byte) error {
	var tmp BlockQuery
	err := decodeFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case getBlocksStartField:
			v, n, err := consumeBytes(num, typ, b)
			if err != nil {
				return 0, err
			}
			start, err := unmarshalBlockID(v)
			if err != nil {
				return 0, err
			}
			tmp.Start = start
			return n, nil
		case getBlocksDirectionField:
			v, n, err := consumeVarint(num, typ, b)
			if err != nil {
				return 0, err
			}
			if v > uint64(DirectionBackward) {
				return 0, fmt.Errorf("%w: %d", ErrInvalidDirection, v)
			}
			tmp.Direction = Direction(v)
			return n, nil
		case getBlocksLimitField:
			v, n, err := consumeVarint(num, typ, b)
			tmp.Limit = v
			return n, err
		case getBlocksSkipField:
			v, n, err := consumeVarint(num, typ, b)
			tmp.Skip = v
			return n, err
		case getBlocksStepField:
			v, n, err := consumeVarint(num, typ, b)
			tmp.Step = v
			return n, err
		}
		return 0, nil
	})
	if err != nil {
		return err
	}
	*q = tmp
	return nil
}
