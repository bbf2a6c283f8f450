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

// Package messages implements the length-delimited framing used by the streamed-data
// protocols. Each record on the wire is an unsigned varint length followed by exactly that
// many bytes of serialized message.
package messages

import (
	"errors"
	"fmt"
	"io"

	pool "github.com/libp2p/go-buffer-pool"
	"github.com/multiformats/go-varint"
)

// DefaultMaxMessageSize is the largest payload ReadMessage accepts unless told otherwise
const DefaultMaxMessageSize = 1 << 20

var (
	ErrTruncatedMessage = errors.New("message truncated")
	ErrDecodeMessage    = errors.New("failed to decode message")
	ErrEncodeMessage    = errors.New("failed to encode message")
	ErrMessageTooLarge  = errors.New("message exceeds maximum size")
)

// Message is the capability every payload type needs: a binary encoding and its inverse.
// The zero value of the type is its default instance.
//
// Unmarshal is always called on a zero value and must not retain data after it returns.
type Message interface {
	Marshal() ([]byte, error)
	Unmarshal(data []byte) error
}

// MessagePtr constrains a pointer to T that implements Message. It lets generic readers
// allocate the default instance of T themselves
type MessagePtr[T any] interface {
	*T
	Message
}

type flusher interface {
	Flush() error
}

// WriteMessage writes msg to w as a single length-delimited record and flushes w if it
// buffers output
func WriteMessage(msg Message, w io.Writer) error {
	data, err := msg.Marshal()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncodeMessage, err)
	}
	prefixLen := varint.UvarintSize(uint64(len(data)))
	buf := pool.Get(prefixLen + len(data))
	defer pool.Put(buf)
	varint.PutUvarint(buf, uint64(len(data)))
	copy(buf[prefixLen:], data)
	if _, err := w.Write(buf); err != nil {
		return err
	}
	if f, ok := w.(flusher); ok {
		if err := f.Flush(); err != nil {
			return err
		}
	}
	return nil
}

type readOptions struct {
	maxMessageSize int
}

// ReadOptionFunc modifies the behavior of ReadMessage
type ReadOptionFunc func(*readOptions)

// WithMaxMessageSize overrides DefaultMaxMessageSize. A size of zero or less keeps the default
func WithMaxMessageSize(size int) ReadOptionFunc {
	return func(o *readOptions) {
		if size <= 0 {
			return
		}
		o.maxMessageSize = size
	}
}

// ReadMessage reads the next record from r and decodes it into a new T.
//
// It returns io.EOF, and no message, when r ends cleanly before the next record starts. A
// record cut short by the end of r fails with ErrTruncatedMessage (which also matches
// io.ErrUnexpectedEOF), and a record that cannot be decoded fails with ErrDecodeMessage.
// Any other error comes from r. A zero-length record decodes to the zero value of T.
func ReadMessage[T any, PT MessagePtr[T]](
	r io.Reader,
	opts ...ReadOptionFunc,
) (PT, error) {
	o := readOptions{
		maxMessageSize: DefaultMaxMessageSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	length, err := varint.ReadUvarint(byteReader(r))
	if err != nil {
		switch {
		case errors.Is(err, io.EOF):
			return nil, io.EOF
		case errors.Is(err, io.ErrUnexpectedEOF):
			return nil, truncated(err)
		case errors.Is(err, varint.ErrOverflow), errors.Is(err, varint.ErrNotMinimal):
			return nil, fmt.Errorf("%w: invalid length prefix: %w", ErrDecodeMessage, err)
		default:
			return nil, err
		}
	}
	if length > uint64(o.maxMessageSize) {
		return nil, fmt.Errorf(
			"%w: %d bytes (limit %d)",
			ErrMessageTooLarge,
			length,
			o.maxMessageSize,
		)
	}
	msg := PT(new(T))
	if length == 0 {
		return msg, nil
	}
	buf := pool.Get(int(length))
	defer pool.Put(buf)
	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, truncated(io.ErrUnexpectedEOF)
		}
		return nil, err
	}
	if err := msg.Unmarshal(buf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeMessage, err)
	}
	return msg, nil
}

func truncated(err error) error {
	return fmt.Errorf("%w: %w", ErrTruncatedMessage, err)
}

// singleByteReader reads the length prefix one byte at a time so that nothing past the
// current record is consumed from the underlying stream
type singleByteReader struct {
	r   io.Reader
	buf [1]byte
}

func byteReader(r io.Reader) io.ByteReader {
	if br, ok := r.(io.ByteReader); ok {
		return br
	}
	return &singleByteReader{r: r}
}

func (s *singleByteReader) ReadByte() (byte, error) {
	if _, err := io.ReadFull(s.r, s.buf[:]); err != nil {
		return 0, err
	}
	return s.buf[0], nil
}
