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

import "sync/atomic"

// atomicNodePtr is a publication slot for one *node: readers acquire-
// load it and writers release-store (via swap) a new value, matching
// the rcu_assign_pointer / rcu_dereference discipline the kernel
// source uses for rbr->rbr_nodes[nickname]. Go's memory model gives
// atomic.Pointer exactly that acquire/release pairing.
type atomicNodePtr struct {
	p atomic.Pointer[node]
}

func (a *atomicNodePtr) load() *node {
	return a.p.Load()
}

func (a *atomicNodePtr) swap(n *node) *node {
	return a.p.Swap(n)
}

// atomicNick stores a Nick (u16) at natural u32 granularity so
// rbr.nick and rbr.treeroot can be read from the data plane and
// written from the control plane without torn reads, as required by
// the concurrency design.
type atomicNick struct {
	v atomic.Uint32
}

func (a *atomicNick) load() Nick {
	return Nick(a.v.Load())
}

func (a *atomicNick) store(n Nick) {
	a.v.Store(uint32(n))
}
