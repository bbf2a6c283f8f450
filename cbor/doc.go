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

// Package cbor provides CBOR encoding/decoding utilities.
//
// This package wraps github.com/fxamacker/cbor/v2 with the settings the rest of the module
// depends on:
//
//   - Encode always uses core deterministic encoding, so its output can be hashed
//   - Decode rejects unknown struct fields and reports how many bytes it consumed
//   - StructAsArray can be embedded to encode a struct as a CBOR array instead of a map
//
// It backs messages.CborMessage (a CBOR alternative to the protobuf wire format) and the
// block hash preimages of the development chain.
package cbor
