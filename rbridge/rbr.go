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

import "sync"

// node is the ref-counted envelope around one NickInfo. The slot
// array holds one reference on behalf of the table itself ("the slot
// owns a reference"); SetNode and ClearNode release that reference
// when they displace a node, and Find adds an independent, caller-
// owned reference that must be released with (*Handle).Put.
//
// refs follows the same discipline as a netstack reference-counted
// endpoint: incRef/decRef for callers already known to hold a
// reference, tryIncRef (which refuses once the count has reached
// zero) for callers racing a concurrent clear of the slot that
// installed it. All three take refCount's mutex.
type node struct {
	ni   NickInfo
	refs refCount
}

type refCount struct {
	mu   sync.Mutex
	n    int32
	zero bool
}

func newRefCount() refCount {
	return refCount{n: 1}
}

func (r *refCount) incRef() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.n++
}

// tryIncRef increments the count unless it has already reached zero,
// in which case the node is logically gone (its slot was cleared and
// every other handle already released) and the caller must not use it.
func (r *refCount) tryIncRef() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.n == 0 {
		return false
	}
	r.n++
	return true
}

func (r *refCount) decRef() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.n--
	if r.n == 0 {
		r.zero = true
	}
}

// Handle is a caller-owned, ref-counted reference to a published
// NickInfo. The table guarantees a Handle returned by Find stays
// valid — its NickInfo never changes and is never freed — until the
// caller releases it with Put, even if the slot it came from is
// cleared or overwritten in the meantime.
type Handle struct {
	n *node
}

// NickInfo returns the nickname-info payload this handle pins.
func (h *Handle) NickInfo() NickInfo {
	return h.n.ni
}

// Put releases the handle. It must be called exactly once per handle
// returned by Find.
func (h *Handle) Put() {
	h.n.refs.decRef()
}

// RBR is the fixed-capacity, reference-counted nickname table owned
// by one bridge instance. It is created when TRILL is enabled on a
// bridge and destroyed when TRILL is disabled.
type RBR struct {
	br HostBridge

	// writeMu serializes control-plane writers (set_node, clear_node,
	// set_local_nick, set_tree_root) with each other and with
	// destroy. It is never held on the data-plane read path.
	writeMu sync.Mutex

	nodes []atomicNodePtr // indexed by Nick - NickMin

	nick     atomicNick
	treeroot atomicNick
}

// NewRBR allocates an empty nickname table for br. All slots start
// empty and both nick and treeroot start at NickNone, exactly as
// add_rbr leaves a freshly allocated struct rbr in the kernel source.
func NewRBR(br HostBridge) *RBR {
	t := &RBR{
		br:    br,
		nodes: make([]atomicNodePtr, int(NickMax)-int(NickMin)+1),
	}
	t.nick.store(NickNone)
	t.treeroot.store(NickNone)
	return t
}

// Destroy clears every slot, releasing the table's own reference to
// each installed node, mirroring rbr_del_all followed by kfree(rbr)
// in br_trill_stop. Destroy does not wait for outstanding Handles:
// per the concurrency design, those stay valid until the holder
// calls Put; the table itself is simply no longer reachable from the
// bridge afterwards.
func (t *RBR) Destroy() {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	for i := range t.nodes {
		t.clearSlotLocked(Nick(i) + NickMin)
	}
}

func (t *RBR) slot(n Nick) *atomicNodePtr {
	return &t.nodes[int(n)-int(NickMin)]
}

// LocalNick returns this RBridge's own nickname, or NickNone if the
// control plane has not yet installed an identity.
func (t *RBR) LocalNick() Nick {
	return t.nick.load()
}

// TreeRoot returns the fallback distribution-tree root, or NickNone
// if none has been configured.
func (t *RBR) TreeRoot() Nick {
	return t.treeroot.load()
}

// SetLocalNick installs this RBridge's own nickname. NickNone is
// accepted to disarm the engine (e.g. before the control plane has
// learned an identity); any other value must be valid.
func (t *RBR) SetLocalNick(n Nick) error {
	if n != NickNone && !Valid(n) {
		return ErrInvalidNickname
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	t.nick.store(n)
	return nil
}

// SetTreeRoot installs the fallback distribution-tree root nickname.
// Unlike SetLocalNick, NickNone is never accepted: set_treeroot in
// the kernel source rejects any nickname that fails VALID_NICK,
// including the sentinel.
func (t *RBR) SetTreeRoot(n Nick) error {
	if !Valid(n) {
		return ErrInvalidNickname
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	t.treeroot.store(n)
	return nil
}

// SetNode atomically publishes ni at nickname n, releasing the
// table's reference to whatever node previously occupied that slot.
// It fails with ErrInvalidNickname if n is out of range.
func (t *RBR) SetNode(n Nick, ni NickInfo) error {
	if !Valid(n) {
		return ErrInvalidNickname
	}

	nd := &node{ni: ni, refs: newRefCount()}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	old := t.slot(n).swap(nd)
	if old != nil {
		old.refs.decRef()
	}
	return nil
}

// ClearNode atomically empties slot n, releasing the table's
// reference to the node that occupied it, if any.
func (t *RBR) ClearNode(n Nick) {
	if !Valid(n) {
		return
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	t.clearSlotLocked(n)
}

func (t *RBR) clearSlotLocked(n Nick) {
	old := t.slot(n).swap(nil)
	if old != nil {
		old.refs.decRef()
	}
}

// Find returns a borrowed Handle to the node published at nickname n.
// The second return value is false if n is invalid, the slot is
// empty, or the node was concurrently cleared before the reference
// could be taken. The returned Handle must be released with Put.
func (t *RBR) Find(n Nick) (*Handle, bool) {
	if !Valid(n) {
		return nil, false
	}

	nd := t.slot(n).load()
	if nd == nil {
		return nil, false
	}
	if !nd.refs.tryIncRef() {
		return nil, false
	}
	return &Handle{n: nd}, true
}
