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

package rbridge

import "fmt"

// MAC is a 6-byte Ethernet hardware address.
type MAC [6]byte

func (m MAC) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", m[0], m[1], m[2], m[3], m[4], m[5])
}

// isUnicast reports whether m is a valid unicast address: not the
// zero address and without the multicast bit set.
func (m MAC) isUnicast() bool {
	if m == (MAC{}) {
		return false
	}
	return m[0]&0x01 == 0
}

// Adjacency describes one next-hop RBridge reachable over a shared
// link: its nickname and its SNPA (MAC address) on that link.
type Adjacency struct {
	Nick Nick
	SNPA MAC
}

// NickInfo is the immutable payload published for one RBridge
// nickname: its adjacency list and the distribution-tree roots it
// advertises, most preferred first. Once installed via (*RBR).SetNode
// it is never mutated; updates replace the whole value.
type NickInfo struct {
	Adjacencies []Adjacency
	DTRoots     []Nick
}
