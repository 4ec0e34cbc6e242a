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

const etherTypeVLAN = 0x8100

// Recv processes a TRILL-encapsulated frame arriving on a core port,
// implementing the policy checks and unicast / multi-destination
// branches of rbr_recv. f must still carry its outer Ethernet header
// (addresses, an optional inline VLAN tag, and the TRILL EtherType);
// Recv pulls that header off as its first step.
func (e *Engine) Recv(ingress Port, f *Frame, vid uint16) error {
	t := e.table()
	if t == nil {
		return dropf(reasonBadArg, "trill not enabled")
	}
	local := t.LocalNick()
	if !Valid(local) {
		return dropf(reasonBadArg, "local nickname not set")
	}

	outerLen := outerAddrSize + etherTypeSize
	vlanPresent := false
	if f.Len() >= outerAddrSize+vlanTagSize+etherTypeSize {
		proto := binary.BigEndian.Uint16(f.Bytes()[outerAddrSize : outerAddrSize+2])
		if proto == etherTypeVLAN {
			vlanPresent = true
			outerLen += vlanTagSize
		}
	}
	if f.Len() < outerLen+trhSize {
		return dropf(reasonBadArg, "frame too short for trill encapsulation")
	}

	outer := f.Pull(outerLen)
	var outerDst, outerSrc MAC
	copy(outerDst[:], outer[0:6])
	copy(outerSrc[:], outer[6:12])
	if vlanPresent {
		f.VLANTagPresent = true
		f.VLANProto = binary.BigEndian.Uint16(outer[12:14])
		f.VLANTag = binary.BigEndian.Uint16(outer[14:16])
	}
	f.Encapsulated = true

	trh := DecodeTRH(f.Bytes()[:trhSize])

	if !Valid(trh.Ingress) {
		return dropf(reasonPolicy, "invalid ingress nickname %d", trh.Ingress)
	}
	if trh.Version != ProtocolVers {
		return dropf(reasonPolicy, "unsupported trill version %d", trh.Version)
	}
	if trh.Ingress == local {
		return dropf(reasonPolicy, "loop: frame already ingressed at this rbridge")
	}

	if !trh.Multidest {
		return e.recvUnicast(t, local, trh, f, vid)
	}
	return e.recvMultidest(t, outerSrc, trh, f, vid)
}

func (e *Engine) recvUnicast(t *RBR, local Nick, trh TRH, f *Frame, vid uint16) error {
	if trh.Egress != local {
		// Recv already pulled the outer framing off f, so the TRILL
		// header sits at the very front of the remaining buffer.
		return e.fwd(t, f, trh, 0)
	}

	_, vnt, err := decaps(f)
	if err != nil {
		return err
	}
	e.decapFinish(f, vid, vnt)
	return nil
}

// recvMultidest validates a received multi-destination frame against
// the node it claims as its egress distribution tree before relaying
// and delivering it, mirroring rbr_recv's multi-destination branch:
// dest, the node named by the frame's egress nickname, must exist; the
// outer source address must match one of dest's own adjacencies
// (confirming the frame truly arrived from a direct neighbor of the
// tree root it claims), and that tree root must be one the ingress
// nickname actually advertises (the reverse-path-forwarding check,
// evaluated against the ingress node; an ingress node that advertises
// no roots passes only when the tree root is this bridge's configured
// tree root). A frame that passes both is
// relayed to dest's remaining core neighbors and, independently,
// decapsulated for local delivery.
func (e *Engine) recvMultidest(t *RBR, outerSrc MAC, trh TRH, f *Frame, vid uint16) error {
	if trh.HopCount == 0 {
		return dropf(reasonPolicy, "hop count exhausted")
	}

	dh, ok := t.Find(trh.Egress)
	if !ok {
		return dropf(reasonUnknown, "no node for egress nickname %d", trh.Egress)
	}
	destInfo := dh.NickInfo()
	dh.Put()

	srcOK := false
	for _, adj := range destInfo.Adjacencies {
		if adj.SNPA == outerSrc {
			srcOK = true
			break
		}
	}
	if !srcOK {
		return dropf(reasonPolicy, "outer source %s is not an adjacency of nickname %d", outerSrc, trh.Egress)
	}

	ih, ok := t.Find(trh.Ingress)
	if !ok {
		return dropf(reasonUnknown, "no node for ingress nickname %d", trh.Ingress)
	}
	ingressInfo := ih.NickInfo()
	ih.Put()

	rpfOK := false
	for _, root := range ingressInfo.DTRoots {
		if root == trh.Egress {
			rpfOK = true
			break
		}
	}
	if !rpfOK && len(ingressInfo.DTRoots) == 0 && trh.Egress == t.TreeRoot() {
		rpfOK = true
	}
	if !rpfOK {
		return dropf(reasonPolicy, "rpf check failed: %d is not a tree root known to nickname %d", trh.Egress, trh.Ingress)
	}

	if err := e.multidestFwd(destInfo.Adjacencies, trh.Ingress, outerSrc, trh, 0, f.Copy(), false); err != nil && !IsUnknown(err) {
		return err
	}

	_, vnt, err := decaps(f)
	if err != nil {
		return err
	}
	e.decapFinish(f, vid, vnt)
	return nil
}
