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

// fakeBridge is a HostBridge test double that records every call it
// receives so tests can assert on forwarding decisions without a real
// bridge device.
type fakeBridge struct {
	mac MAC

	fdb         map[fdbKey]FDBEntry
	localGuests map[fdbKey]Port
	nickFromMAC map[fdbKey]Nick

	allowVID uint16
	allowOK  bool

	forwarded     []forwardCall
	delivered     []forwardCall
	flooded       []*Frame
	endstation    []*Frame
	trillFlooded  []*Frame
	deliveredHost []*Frame
	fdbUpdates    []fdbUpdate
	stpDisabled   int
	txDropped     int
	rxDropped     int
}

type fdbKey struct {
	mac MAC
	vid uint16
}

type forwardCall struct {
	port Port
	f    *Frame
}

type fdbUpdate struct {
	port Port
	mac  MAC
	vid  uint16
	nick Nick
}

func newFakeBridge(mac MAC) *fakeBridge {
	return &fakeBridge{
		mac:         mac,
		fdb:         make(map[fdbKey]FDBEntry),
		localGuests: make(map[fdbKey]Port),
		nickFromMAC: make(map[fdbKey]Nick),
		allowOK:     true,
	}
}

func (b *fakeBridge) FDBGet(mac MAC, vid uint16) (FDBEntry, bool) {
	e, ok := b.fdb[fdbKey{mac, vid}]
	return e, ok
}

func (b *fakeBridge) FDBUpdate(port Port, mac MAC, vid uint16) {
	b.fdbUpdates = append(b.fdbUpdates, fdbUpdate{port: port, mac: mac, vid: vid})
}

func (b *fakeBridge) FDBUpdateNick(port Port, mac MAC, vid uint16, nick Nick) {
	b.fdbUpdates = append(b.fdbUpdates, fdbUpdate{port: port, mac: mac, vid: vid, nick: nick})
}

func (b *fakeBridge) Forward(port Port, f *Frame) {
	b.forwarded = append(b.forwarded, forwardCall{port: port, f: f})
}

func (b *fakeBridge) Deliver(port Port, f *Frame) {
	b.delivered = append(b.delivered, forwardCall{port: port, f: f})
}

func (b *fakeBridge) Flood(f *Frame) {
	b.flooded = append(b.flooded, f)
}

func (b *fakeBridge) EndstationDeliver(f *Frame) {
	b.endstation = append(b.endstation, f)
}

func (b *fakeBridge) TrillFloodForward(f *Frame) {
	b.trillFlooded = append(b.trillFlooded, f)
}

func (b *fakeBridge) DeliverToHost(f *Frame) {
	b.deliveredHost = append(b.deliveredHost, f)
}

func (b *fakeBridge) AllowedIngress(port Port, f *Frame) (uint16, bool) {
	return b.allowVID, b.allowOK
}

func (b *fakeBridge) BridgeMAC() MAC {
	return b.mac
}

func (b *fakeBridge) IsLocalGuestPort(mac MAC, vid uint16) (Port, bool) {
	p, ok := b.localGuests[fdbKey{mac, vid}]
	return p, ok
}

func (b *fakeBridge) NickFromMAC(mac MAC, vid uint16) Nick {
	return b.nickFromMAC[fdbKey{mac, vid}]
}

func (b *fakeBridge) DisableSTP() {
	b.stpDisabled++
}

func (b *fakeBridge) TxDropped() {
	b.txDropped++
}

func (b *fakeBridge) RxDropped() {
	b.rxDropped++
}

// fakeVNT is a VNTProvider test double.
type fakeVNT struct {
	portVNI map[MAC]uint32
	vnis    map[uint32]*fakeVNI
}

func newFakeVNT() *fakeVNT {
	return &fakeVNT{portVNI: make(map[MAC]uint32), vnis: make(map[uint32]*fakeVNI)}
}

func (v *fakeVNT) PortVNI(p Port) uint32 {
	return v.portVNI[p.MAC]
}

func (v *fakeVNT) FindVNI(vni uint32) (VNI, bool) {
	n, ok := v.vnis[vni]
	return n, ok
}

type fakeVNI struct {
	vni     uint32
	members map[MAC]uint32
	flooded []*Frame
}

func (n *fakeVNI) Flood(f *Frame) {
	n.flooded = append(n.flooded, f)
}

func (n *fakeVNI) PortVNI(p Port) (uint32, bool) {
	vni, ok := n.members[p.MAC]
	return vni, ok
}

func mac(b0, b1, b2, b3, b4, b5 byte) MAC {
	return MAC{b0, b1, b2, b3, b4, b5}
}
