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

// HandleFrame is the top-level receive entry a host bridge calls for
// every frame arriving on a port, mirroring rbr_handle_frame. It
// classifies the frame by the ingress port's TrillFlag and, for core
// ports, the frame's own EtherType, then either hands it to the
// TRILL pipelines, delivers it directly, or reports that the host
// bridge's native forwarding should continue instead. HandleFrame
// itself never returns an error; failures are counted and logged
// through Engine's drop bookkeeping so a misbehaving peer can never
// stall the receive path.
func (e *Engine) HandleFrame(ingress Port, f *Frame) (handled bool) {
	if !e.Enabled() || ingress.TrillFlag == TrillFlagDisable {
		return false
	}

	if !srcMACValid(f) {
		e.drop(reasonBadArg, true, "invalid source address")
		return true
	}

	vid, ok := e.hb.AllowedIngress(ingress, f)
	if !ok {
		e.drop(reasonPolicy, true, "vlan ingress filter")
		return true
	}

	switch {
	case ingress.IsGuest():
		return e.handleGuest(ingress, f, vid)
	case ingress.IsCore():
		return e.handleCore(ingress, f, vid)
	default:
		return false
	}
}

func srcMACValid(f *Frame) bool {
	if f.Len() < outerAddrSize {
		return false
	}
	var src MAC
	copy(src[:], f.Bytes()[6:12])
	return src.isUnicast()
}

// handleGuest processes a frame arriving on an end-station-facing
// port. A destination attached to another guest port of this same
// bridge is delivered directly, without ever being encapsulated,
// mirroring the kernel source's local-delivery shortcut. This
// adaptation additionally re-learns the source station against its
// ingress port (a station that migrated between guest ports updates
// the forwarding database immediately rather than waiting for the
// entry to age out) and treats a VNI mismatch between the ingress and
// egress guest ports as if no local destination had been found at
// all, so virtual networks stay isolated even for intra-bridge
// traffic.
func (e *Engine) handleGuest(ingress Port, f *Frame, vid uint16) bool {
	if f.Len() < outerAddrSize {
		e.drop(reasonBadArg, true, "short frame")
		return true
	}
	var dst, src MAC
	copy(dst[:], f.Bytes()[0:6])
	copy(src[:], f.Bytes()[6:12])

	if egress, ok := e.hb.IsLocalGuestPort(dst, vid); ok && egress.IsGuest() && !e.vniMismatch(ingress, egress) {
		if cur, ok := e.hb.IsLocalGuestPort(src, vid); !ok || cur.MAC != ingress.MAC {
			e.hb.FDBUpdate(ingress, src, vid)
		}
		e.hb.Deliver(egress, f)
		return true
	}

	nick := e.hb.NickFromMAC(dst, vid)
	if err := e.EncapsPrepare(nick, ingress, f); err != nil {
		e.drop(reasonOf(err), false, "encaps: %v", err)
	}
	return true
}

func (e *Engine) vniMismatch(a, b Port) bool {
	if e.vnt == NoVNT {
		return false
	}
	return e.vnt.PortVNI(a) != e.vnt.PortVNI(b)
}

// handleCore processes a frame arriving on an RBridge-facing port.
// TRILL-encapsulated frames enter the receive pipeline; frames
// addressed to the bridge device's own MAC are delivered to the host
// stack; everything else is dropped, mirroring rbr_handle_frame's
// core-port branch.
func (e *Engine) handleCore(ingress Port, f *Frame, vid uint16) bool {
	if f.Len() < outerAddrSize+etherTypeSize {
		e.drop(reasonBadArg, true, "short frame")
		return true
	}

	switch etype := binary.BigEndian.Uint16(f.Bytes()[outerAddrSize : outerAddrSize+etherTypeSize]); {
	case etype == EtherTypeTRILL:
		if err := e.Recv(ingress, f, vid); err != nil {
			e.drop(reasonOf(err), true, "recv: %v", err)
		}
		return true
	case dstIsBridgeMAC(f, e.hb.BridgeMAC()):
		e.hb.DeliverToHost(f)
		return true
	default:
		e.drop(reasonPolicy, true, "unexpected frame on core port")
		return true
	}
}

func dstIsBridgeMAC(f *Frame, bridgeMAC MAC) bool {
	var dst MAC
	copy(dst[:], f.Bytes()[0:6])
	return dst == bridgeMAC
}
