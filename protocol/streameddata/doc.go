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

// Package streameddata implements the substream upgrades of a streamed-data exchange. The
// dialing side writes exactly one request on a fresh substream and then reads a stream of
// response records until the peer finishes writing. The listening side reads that request
// and writes the responses.
//
// Negotiating the protocol name on the substream is left to the transport. Each upgrade
// value drives exactly one substream and hands it to the caller only on success.
package streameddata
