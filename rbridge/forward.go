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

// trhOffset returns the byte offset of the TRILL header within a
// frame that still carries its full outer framing (addresses,
// EtherType, and an inline VLAN tag if present) — the layout
// immediately after pushHeader builds a locally originated frame. It
// is not valid for a frame whose outer header Recv has already
// pulled off; those frames carry the TRILL header at offset 0.
func trhOffset(f *Frame) int {
	n := outerAddrSize + etherTypeSize
	if f.VLANTagPresent {
		n += vlanTagSize
	}
	return n
}

// rewriteOuterAddrs overwrites f's outer destination and source
// addresses in place, leaving everything behind them untouched. trhAt
// is the TRILL header's offset in f; when it is 0 (a received frame
// whose outer header Recv has already pulled), a fresh outer header
// carrying the TRILL EtherType is pushed in front of the TRILL header
// first.
func rewriteOuterAddrs(f *Frame, trhAt int, dst, src MAC) {
	if trhAt == 0 {
		hdr := f.Push(outerAddrSize + etherTypeSize)
		hdr[outerAddrSize] = byte(EtherTypeTRILL >> 8)
		hdr[outerAddrSize+1] = byte(EtherTypeTRILL & 0xFF)
	}
	b := f.Bytes()
	copy(b[0:6], dst[:])
	copy(b[6:12], src[:])
}

// fwd forwards a unicast TRILL-encapsulated frame one hop closer to
// its egress RBridge, mirroring rbr_fwd: the hop count is decremented
// in place, the outer addresses are rewritten to the chosen next-hop
// adjacency, and the frame is handed to the host bridge for
// transmission rather than delivered locally. trhAt is the byte
// offset of the TRILL header within f's current buffer.
func (e *Engine) fwd(t *RBR, f *Frame, trh TRH, trhAt int) error {
	if trh.HopCount == 0 {
		return dropf(reasonPolicy, "hop count exhausted")
	}

	h, ok := t.Find(trh.Egress)
	if !ok {
		return dropf(reasonUnknown, "no route known for egress nickname %d", trh.Egress)
	}
	defer h.Put()

	ni := h.NickInfo()
	if len(ni.Adjacencies) == 0 {
		return dropf(reasonUnknown, "nickname %d has no usable adjacency", trh.Egress)
	}
	adj := ni.Adjacencies[0]

	DecHopCount(f.Bytes()[trhAt:])
	rewriteOuterAddrs(f, trhAt, adj.SNPA, e.hb.BridgeMAC())

	e.hb.Forward(Port{MAC: adj.SNPA, TrillFlag: TrillFlagCore}, f)
	return nil
}

// multidestFwd fans a multi-destination TRILL frame out across every
// adjacency in adjs, skipping the one whose nickname is ingress (the
// neighbor the frame arrived from, when relaying a received frame;
// NickNone when originating locally) and any adjacency whose SNPA
// matches excludeSNPA. Mirroring rbr_multidest_fwd, only the last
// qualifying adjacency can consume the original frame directly — and
// only if free is true; every other qualifying adjacency gets its own
// copy so it can carry an independently rewritten outer header. When
// free is false the original frame is left untouched for the caller,
// who still needs it afterward (the local-delivery path following a
// received multi-destination frame). trhAt is the byte offset of the
// TRILL header within f and every copy derived from it.
func (e *Engine) multidestFwd(adjs []Adjacency, ingress Nick, excludeSNPA MAC, trh TRH, trhAt int, f *Frame, free bool) error {
	if trh.HopCount == 0 {
		return dropf(reasonPolicy, "hop count exhausted")
	}

	qualifies := func(adj Adjacency) bool {
		if adj.Nick == ingress {
			return false
		}
		if excludeSNPA != (MAC{}) && adj.SNPA == excludeSNPA {
			return false
		}
		return true
	}

	last := -1
	for i, adj := range adjs {
		if qualifies(adj) {
			last = i
		}
	}
	if last == -1 {
		if !free {
			return dropf(reasonUnknown, "no qualifying adjacency for multi-destination forward")
		}
		return nil
	}

	localMAC := e.hb.BridgeMAC()
	send := func(adj Adjacency, frame *Frame) {
		DecHopCount(frame.Bytes()[trhAt:])
		rewriteOuterAddrs(frame, trhAt, adj.SNPA, localMAC)
		e.hb.Forward(Port{MAC: adj.SNPA, TrillFlag: TrillFlagCore}, frame)
	}

	for i, adj := range adjs {
		if !qualifies(adj) {
			continue
		}
		if i == last && free {
			send(adj, f)
			continue
		}
		send(adj, f.Copy())
	}
	return nil
}
