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

import "encoding/binary"

// Outer Ethernet framing sizes, distinct from the TRILL header
// itself: two hardware addresses, an optional inline 802.1Q tag, and
// the EtherType that identifies the payload as TRILL.
const (
	outerAddrSize = 12
	etherTypeSize = 2
	vlanTagSize   = 4
)

// EncapsPrepare begins TRILL encapsulation for a frame originated by
// an attached end station, mirroring rbr_encaps_prepare. ingress is
// the end-station-facing port the frame arrived on, consulted for a
// VNI association; dst is the destination RBridge's nickname for
// known-unicast traffic, or NickNone to flood along the distribution
// tree for broadcast, multicast or unknown-unicast traffic.
func (e *Engine) EncapsPrepare(dst Nick, ingress Port, f *Frame) error {
	t := e.table()
	if t == nil {
		return dropf(reasonBadArg, "trill not enabled")
	}
	local := t.LocalNick()
	if !Valid(local) {
		return dropf(reasonBadArg, "local nickname not set")
	}

	if dst == NickNone {
		return e.encapsMultidest(t, local, ingress, f)
	}
	return e.encapsUnicast(t, local, dst, ingress, f)
}

// portVNT builds the VNT extension a frame arriving on ingress should
// carry, or nil if ingress has no VNI association, mirroring
// rbr_encaps's vni = get_port_vni_id(p) lookup.
func (e *Engine) portVNT(ingress Port) *VNTExtension {
	vni := e.vnt.PortVNI(ingress)
	if vni == 0 {
		return nil
	}
	return &VNTExtension{Type: VNTType, Length: VNTLen, VNI: vni}
}

func (e *Engine) encapsUnicast(t *RBR, local, dst Nick, ingress Port, f *Frame) error {
	h, ok := t.Find(dst)
	if !ok {
		return dropf(reasonUnknown, "no route known for nickname %d", dst)
	}
	defer h.Put()

	ni := h.NickInfo()
	if len(ni.Adjacencies) == 0 {
		return dropf(reasonUnknown, "nickname %d has no usable adjacency", dst)
	}
	adj := ni.Adjacencies[0]

	trh := TRH{Version: ProtocolVers, HopCount: DefaultHops, Egress: dst, Ingress: local}
	e.encaps(f, adj.SNPA, e.hb.BridgeMAC(), trh, e.portVNT(ingress))

	e.hb.Forward(Port{MAC: adj.SNPA, TrillFlag: TrillFlagCore}, f)
	return nil
}

// encapsMultidest floods a locally originated frame along the
// distribution tree, mirroring rbr_encaps_prepare's multi-
// destination branch: when ingress is associated with a VNI, a
// native copy is flooded within that VNI's own flood domain;
// otherwise it is delivered as plain end-station multicast/broadcast
// traffic. Either way, the encapsulated original is then fanned out
// across this RBridge's own core adjacencies via rbr_multidest_fwd
// with no ingress adjacency to exclude and free set, so the last
// qualifying neighbor consumes the frame directly instead of a
// further copy. The tree is the local node's most preferred
// advertised root, or the configured tree root when it advertises
// none.
func (e *Engine) encapsMultidest(t *RBR, local Nick, ingress Port, f *Frame) error {
	h, ok := t.Find(local)
	if !ok {
		return dropf(reasonUnknown, "no adjacency list known for local nickname %d", local)
	}
	ni := h.NickInfo()
	h.Put()
	adjs := ni.Adjacencies

	root := t.TreeRoot()
	if len(ni.DTRoots) > 0 {
		root = ni.DTRoots[0]
	}
	if !Valid(root) {
		return dropf(reasonUnknown, "no distribution tree root configured")
	}

	vnt := e.portVNT(ingress)
	if vnt != nil {
		if vni, ok := e.vnt.FindVNI(vnt.VNI); ok {
			vni.Flood(f.Copy())
		} else {
			e.hb.EndstationDeliver(f.Copy())
		}
	} else {
		e.hb.EndstationDeliver(f.Copy())
	}

	trh := TRH{Version: ProtocolVers, Multidest: true, HopCount: DefaultHops, Egress: root, Ingress: local}
	trhAt := trhOffset(f)
	e.pushHeader(f, MAC{}, e.hb.BridgeMAC(), trh, vnt)

	return e.multidestFwd(adjs, NickNone, MAC{}, trh, trhAt, f, true)
}

// encaps finalizes a TRILL header (and, if vnt is non-nil, a VNT
// extension) and pushes the whole outer framing — addresses, any
// pending VLAN tag, EtherType, options, header — onto f in one
// allocation. It does not send the frame; encapsUnicast forwards it
// afterwards. It is the unicast convenience wrapper around pushHeader.
func (e *Engine) encaps(f *Frame, outerDst, outerSrc MAC, trh TRH, vnt *VNTExtension) {
	e.pushHeader(f, outerDst, outerSrc, trh, vnt)
}

// pushHeader performs the actual push described by rbr_encaps: the
// end station's original Ethernet frame is left untouched behind a
// new outer header. Any out-of-band VLAN tag the host bridge had
// attached to f is reinserted inline here, since a TRILL-encapsulated
// frame carries its VLAN tag (if any) in the outer header rather than
// out of band.
func (e *Engine) pushHeader(f *Frame, outerDst, outerSrc MAC, trh TRH, vnt *VNTExtension) {
	optsLen := 0
	if vnt != nil {
		optsLen = optHeaderSize + vntExtensionSize
	}
	trh.OptsLen = uint8(optsLen / optsLenUnit)

	vlan := f.VLANTagPresent
	vlanLen := 0
	if vlan {
		vlanLen = vlanTagSize
	}

	total := outerAddrSize + vlanLen + etherTypeSize + optsLen + trhSize
	b := f.Push(total)

	off := 0
	copy(b[off:off+6], outerDst[:])
	off += 6
	copy(b[off:off+6], outerSrc[:])
	off += 6

	if vlan {
		binary.BigEndian.PutUint16(b[off:off+2], f.VLANProto)
		binary.BigEndian.PutUint16(b[off+2:off+4], f.VLANTag)
		off += vlanTagSize
		f.VLANTagPresent = false
	}

	binary.BigEndian.PutUint16(b[off:off+2], EtherTypeTRILL)
	off += etherTypeSize

	// The TRILL header comes immediately after the outer framing;
	// the option area, when present, is trill_opt followed by the
	// VNT extension, matching the pull order decaps expects.
	tb := EncodeTRH(trh)
	copy(b[off:], tb[:])
	off += trhSize

	if vnt != nil {
		ob := EncodeOptHeader(OptHeader{})
		copy(b[off:], ob[:])
		off += optHeaderSize

		vb := EncodeVNTExtension(*vnt)
		copy(b[off:], vb[:])
	}

	f.Encapsulated = true
}
