// Copyright 2017 DigitalOcean.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package rbridge implements the data-plane of a TRILL RBridge: a
// nickname-indexed forwarding table, the TRILL header codec, and the
// encapsulation, decapsulation, forwarding and receive-classification
// pipelines that sit between an Ethernet bridge and an RBridge mesh.
package rbridge

// Nick is an RBridge nickname, a 16-bit identifier assigned by the
// control plane (IS-IS in a real TRILL campus, out of scope here).
type Nick uint16

// Nickname sentinels and the valid range. Values >= nickReservedMin
// are reserved by the protocol and are never assigned.
const (
	// NickNone means "absent" or "not yet assigned".
	NickNone Nick = 0x0000
	// NickMin is the first assignable nickname.
	NickMin Nick = 0x0001
	// NickMax is the last assignable nickname.
	NickMax Nick = 0xFFBF
	// nickReservedMin is the first value in the reserved range.
	nickReservedMin Nick = 0xFFC0
)

// Valid reports whether n is in the assignable nickname range
// [NickMin, NickMax]. NickNone is never valid.
func Valid(n Nick) bool {
	return n >= NickMin && n <= NickMax
}

// index returns the slot index for a valid nickname within rbr.nodes.
func (n Nick) index() int {
	return int(n - NickMin)
}
