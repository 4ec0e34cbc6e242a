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

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestEncapsPrepareUnicast(t *testing.T) {
	bridgeMAC := mac(0xAA, 0, 0, 0, 0, 1)
	neighborMAC := mac(0xAA, 0, 0, 0, 0, 2)

	hb := newFakeBridge(bridgeMAC)
	e := NewEngine(hb)
	e.Enable()

	if err := e.SetLocalNick(1); err != nil {
		t.Fatalf("SetLocalNick: %v", err)
	}
	if err := e.SetNode(2, NickInfo{Adjacencies: []Adjacency{{Nick: 2, SNPA: neighborMAC}}}); err != nil {
		t.Fatalf("SetNode: %v", err)
	}

	inner := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	f := NewFrame(append([]byte(nil), inner...))

	ingress := Port{MAC: mac(0xAA, 0, 0, 0, 0, 9), TrillFlag: TrillFlagGuest}
	if err := e.EncapsPrepare(2, ingress, f); err != nil {
		t.Fatalf("EncapsPrepare: %v", err)
	}

	if len(hb.forwarded) != 1 {
		t.Fatalf("Forward calls: want 1, got %d", len(hb.forwarded))
	}
	fc := hb.forwarded[0]
	if fc.port.MAC != neighborMAC || !fc.port.IsCore() {
		t.Fatalf("Forward port: want core port to %s, got %+v", neighborMAC, fc.port)
	}

	b := fc.f.Bytes()
	wantLen := outerAddrSize + etherTypeSize + trhSize + len(inner)
	if len(b) != wantLen {
		t.Fatalf("encapsulated length: want %d, got %d", wantLen, len(b))
	}

	var dst, src MAC
	copy(dst[:], b[0:6])
	copy(src[:], b[6:12])
	if dst != neighborMAC {
		t.Fatalf("outer dst: want %s, got %s", neighborMAC, dst)
	}
	if src != bridgeMAC {
		t.Fatalf("outer src: want %s, got %s", bridgeMAC, src)
	}

	etype := binary.BigEndian.Uint16(b[12:14])
	if etype != EtherTypeTRILL {
		t.Fatalf("outer EtherType: want %#x, got %#x", EtherTypeTRILL, etype)
	}

	trh := DecodeTRH(b[14:20])
	if trh.Egress != 2 || trh.Ingress != 1 || trh.HopCount != DefaultHops || trh.Multidest {
		t.Fatalf("unexpected TRH: %+v", trh)
	}

	if !bytes.Equal(b[20:], inner) {
		t.Fatalf("inner payload corrupted: want %v, got %v", inner, b[20:])
	}
}

func TestEncapsPrepareUnicastNoRoute(t *testing.T) {
	hb := newFakeBridge(mac(1, 1, 1, 1, 1, 1))
	e := NewEngine(hb)
	e.Enable()
	e.SetLocalNick(1)

	f := NewFrame([]byte{1, 2, 3})
	err := e.EncapsPrepare(2, Port{TrillFlag: TrillFlagGuest}, f)
	if !IsUnknown(err) {
		t.Fatalf("EncapsPrepare to unknown nickname: want unknown drop reason, got %v", err)
	}
	if len(hb.forwarded) != 0 {
		t.Fatalf("no route should forward nothing, got %d calls", len(hb.forwarded))
	}
}

func TestEncapsPrepareDisabled(t *testing.T) {
	hb := newFakeBridge(mac(1, 1, 1, 1, 1, 1))
	e := NewEngine(hb)

	err := e.EncapsPrepare(2, Port{TrillFlag: TrillFlagGuest}, NewFrame([]byte{1}))
	if !IsBadArg(err) {
		t.Fatalf("EncapsPrepare while disabled: want bad-arg drop reason, got %v", err)
	}
}

func TestEncapsMultidestFloodsAndDelivers(t *testing.T) {
	bridgeMAC := mac(0xAA, 0, 0, 0, 0, 1)
	n2MAC := mac(0xAA, 0, 0, 0, 0, 2)
	n3MAC := mac(0xAA, 0, 0, 0, 0, 3)

	hb := newFakeBridge(bridgeMAC)
	e := NewEngine(hb)
	e.Enable()

	e.SetLocalNick(1)
	e.SetTreeRoot(1)
	e.SetNode(1, NickInfo{
		Adjacencies: []Adjacency{
			{Nick: 2, SNPA: n2MAC},
			{Nick: 3, SNPA: n3MAC},
		},
	})

	inner := []byte{1, 2, 3, 4, 5}
	f := NewFrame(append([]byte(nil), inner...))

	ingress := Port{MAC: mac(0xAA, 0, 0, 0, 0, 9), TrillFlag: TrillFlagGuest}
	if err := e.EncapsPrepare(NickNone, ingress, f); err != nil {
		t.Fatalf("EncapsPrepare(NickNone): %v", err)
	}

	if len(hb.endstation) != 1 || !bytes.Equal(hb.endstation[0].Bytes(), inner) {
		t.Fatalf("EndstationDeliver: want one native copy of %v, got %v", inner, hb.endstation)
	}

	if len(hb.forwarded) != 2 {
		t.Fatalf("Forward calls: want 2, got %d", len(hb.forwarded))
	}

	seen := map[MAC]bool{}
	for _, fc := range hb.forwarded {
		seen[fc.port.MAC] = true

		b := fc.f.Bytes()
		trh := DecodeTRH(b[14:20])
		if trh.HopCount != DefaultHops-1 {
			t.Fatalf("forwarded frame hop count: want %d, got %d", DefaultHops-1, trh.HopCount)
		}
		if !trh.Multidest || trh.Egress != 1 {
			t.Fatalf("forwarded frame TRH: want multidest egress=1, got %+v", trh)
		}
		var dst MAC
		copy(dst[:], b[0:6])
		if dst != fc.port.MAC {
			t.Fatalf("outer dst %s does not match forwarding port %s", dst, fc.port.MAC)
		}
	}
	if !seen[n2MAC] || !seen[n3MAC] {
		t.Fatalf("expected forwards to both neighbors, got %+v", hb.forwarded)
	}
}

func TestPushHeaderOrdersTRHBeforeVNT(t *testing.T) {
	e := NewEngine(newFakeBridge(mac(1, 1, 1, 1, 1, 1)))

	f := NewFrame([]byte{0x55})
	trh := TRH{Version: ProtocolVers, HopCount: DefaultHops, Egress: 2, Ingress: 1}
	vnt := &VNTExtension{Type: VNTType, Length: VNTLen, VNI: 0x1234}

	e.pushHeader(f, mac(2, 2, 2, 2, 2, 2), mac(1, 1, 1, 1, 1, 1), trh, vnt)

	b := f.Bytes()
	// TRH sits immediately after the outer addresses and EtherType;
	// trill_opt follows it, then the VNT extension. decaps (see
	// decap.go) pulls the header and then the option area in that
	// same order.
	gotTRH := DecodeTRH(b[14:20])
	if gotTRH.Egress != 2 || gotTRH.Ingress != 1 {
		t.Fatalf("TRH not at expected offset: %+v", gotTRH)
	}
	wantOptsLen := optHeaderSize + vntExtensionSize
	if gotTRH.OptsLenBytes() != wantOptsLen {
		t.Fatalf("OptsLenBytes: want %d, got %d", wantOptsLen, gotTRH.OptsLenBytes())
	}

	gotVNT := DecodeVNTExtension(b[28:36])
	if gotVNT.VNI != vnt.VNI || gotVNT.Type != vnt.Type {
		t.Fatalf("VNT extension not at expected offset: %+v", gotVNT)
	}

	if !bytes.Equal(b[36:], []byte{0x55}) {
		t.Fatalf("inner payload corrupted: %v", b[36:])
	}
}

func TestEncapsUnicastAttachesVNTExtension(t *testing.T) {
	bridgeMAC := mac(0xAA, 0, 0, 0, 0, 1)
	neighborMAC := mac(0xAA, 0, 0, 0, 0, 2)
	ingress := Port{MAC: mac(0xAA, 0, 0, 0, 0, 9), TrillFlag: TrillFlagGuest}

	vnt := newFakeVNT()
	vnt.portVNI[ingress.MAC] = 0x00ABCDEF

	hb := newFakeBridge(bridgeMAC)
	e := NewEngine(hb, WithVNT(vnt))
	e.Enable()
	e.SetLocalNick(1)
	e.SetNode(2, NickInfo{Adjacencies: []Adjacency{{Nick: 2, SNPA: neighborMAC}}})

	inner := []byte{0xDE, 0xAD}
	f := NewFrame(append([]byte(nil), inner...))
	if err := e.EncapsPrepare(2, ingress, f); err != nil {
		t.Fatalf("EncapsPrepare: %v", err)
	}

	if len(hb.forwarded) != 1 {
		t.Fatalf("Forward calls: want 1, got %d", len(hb.forwarded))
	}
	b := hb.forwarded[0].f.Bytes()

	trh := DecodeTRH(b[14:20])
	wantOptsLen := optHeaderSize + vntExtensionSize
	if trh.OptsLenBytes() != wantOptsLen {
		t.Fatalf("OptsLenBytes: want %d, got %d", wantOptsLen, trh.OptsLenBytes())
	}

	gotVNT := DecodeVNTExtension(b[28:36])
	if gotVNT.VNI != 0x00ABCDEF || gotVNT.Type != VNTType {
		t.Fatalf("VNT extension: want VNI 0xABCDEF type %d, got %+v", VNTType, gotVNT)
	}

	if !bytes.Equal(b[36:], inner) {
		t.Fatalf("inner payload corrupted: want %v, got %v", inner, b[36:])
	}
}

func TestEncapsMultidestFloodsWithinVNI(t *testing.T) {
	bridgeMAC := mac(0xAA, 0, 0, 0, 0, 1)
	neighborMAC := mac(0xAA, 0, 0, 0, 0, 2)
	ingress := Port{MAC: mac(0xAA, 0, 0, 0, 0, 9), TrillFlag: TrillFlagGuest}

	vnt := newFakeVNT()
	vnt.portVNI[ingress.MAC] = 100
	vni := &fakeVNI{vni: 100}
	vnt.vnis[100] = vni

	hb := newFakeBridge(bridgeMAC)
	e := NewEngine(hb, WithVNT(vnt))
	e.Enable()
	e.SetLocalNick(1)
	e.SetTreeRoot(1)
	e.SetNode(1, NickInfo{Adjacencies: []Adjacency{{Nick: 2, SNPA: neighborMAC}}})

	inner := []byte{7, 7, 7}
	f := NewFrame(append([]byte(nil), inner...))
	if err := e.EncapsPrepare(NickNone, ingress, f); err != nil {
		t.Fatalf("EncapsPrepare(NickNone): %v", err)
	}

	if len(vni.flooded) != 1 || !bytes.Equal(vni.flooded[0].Bytes(), inner) {
		t.Fatalf("want one VNI-scoped flood of %v, got %v", inner, vni.flooded)
	}
	if len(hb.endstation) != 0 {
		t.Fatalf("VNI-scoped flood must not also use EndstationDeliver, got %v", hb.endstation)
	}
	if len(hb.forwarded) != 1 || hb.forwarded[0].port.MAC != neighborMAC {
		t.Fatalf("want one encapsulated forward to %s, got %+v", neighborMAC, hb.forwarded)
	}
}
