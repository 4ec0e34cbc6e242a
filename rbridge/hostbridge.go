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

// TrillFlag is the per-port TRILL classification: disabled, guest
// (endpoint-facing) or core (RBridge-facing). The kernel source keys
// this off p->trill_flag rather than a bare boolean, and the local
// guest-to-guest delivery short-circuit in the receive classifier
// consults the flag on both the ingress and egress port, so the
// tri-state is kept here rather than collapsed to a bool.
type TrillFlag int

const (
	// TrillFlagDisable marks a port TRILL does not touch at all; it
	// behaves exactly like a port on a non-TRILL bridge.
	TrillFlagDisable TrillFlag = iota
	// TrillFlagGuest marks an endpoint-facing port: candidate for
	// encapsulation.
	TrillFlagGuest
	// TrillFlagCore marks an RBridge-facing port: candidate for TRILL
	// receive processing.
	TrillFlagCore
)

// Port is the subset of a bridge port's state the data plane needs.
// The host bridge owns the real port object; Port is a value the
// host bridge hands to the engine for the duration of one frame.
type Port struct {
	// MAC is this port's own hardware address.
	MAC MAC
	// TrillFlag classifies the port as disabled, guest or core.
	TrillFlag TrillFlag
}

// IsGuest reports whether p faces an end station.
func (p Port) IsGuest() bool { return p.TrillFlag == TrillFlagGuest }

// IsCore reports whether p faces another RBridge.
func (p Port) IsCore() bool { return p.TrillFlag == TrillFlagCore }

// FDBEntry is one forwarding-database hit: the port to deliver or
// forward through, and the nickname of the RBridge the entry's MAC
// was learned from (NickNone for locally attached stations).
type FDBEntry struct {
	Port Port
	Nick Nick
}

// HostBridge is the set of operations the data plane needs from the
// Ethernet bridge it is plugged into. Everything behind this
// interface — FDB lookup, local delivery, flooding, VLAN ingress
// filtering, port bookkeeping — is out of scope for this module and
// is modeled only through the calls the engine makes on it, matching
// spec.md section 6's external interface list.
type HostBridge interface {
	// FDBGet looks up (mac, vid) in the bridge forwarding database.
	FDBGet(mac MAC, vid uint16) (FDBEntry, bool)
	// FDBUpdate learns that mac arrived on port at vid, with no
	// associated RBridge nickname (a locally attached station).
	FDBUpdate(port Port, mac MAC, vid uint16)
	// FDBUpdateNick learns that mac arrived on port at vid, having
	// originated from the RBridge identified by nick.
	FDBUpdateNick(port Port, mac MAC, vid uint16, nick Nick)

	// Forward hands skb onward for transmission out port.
	Forward(port Port, f *Frame)
	// Deliver delivers skb locally out port, to an attached station.
	Deliver(port Port, f *Frame)
	// Flood floods skb as a native bridge flood, all ports.
	Flood(f *Frame)
	// EndstationDeliver delivers skb as end-station multicast/broadcast
	// traffic when no VNI scoping applies.
	EndstationDeliver(f *Frame)
	// TrillFloodForward floods skb along the TRILL flood path used
	// when an outer-destination FDB lookup misses during unicast
	// forwarding finish.
	TrillFloodForward(f *Frame)
	// DeliverToHost delivers skb to the bridge device itself (the
	// PACKET_HOST case of spec.md section 4.G step 9).
	DeliverToHost(f *Frame)

	// AllowedIngress applies VLAN ingress filtering to skb arriving on
	// port, returning the resolved VLAN id and whether the frame may
	// proceed.
	AllowedIngress(port Port, f *Frame) (vid uint16, ok bool)

	// BridgeMAC returns this bridge device's own hardware address.
	BridgeMAC() MAC

	// IsLocalGuestPort reports whether the station at (mac, vid) is
	// attached to a guest port of this same bridge, and if so returns
	// that port.
	IsLocalGuestPort(mac MAC, vid uint16) (Port, bool)

	// NickFromMAC resolves the RBridge nickname that owns (mac, vid),
	// or NickNone if unknown.
	NickFromMAC(mac MAC, vid uint16) Nick

	// DisableSTP stops spanning-tree processing on the bridge. Called
	// once when TRILL is enabled, mirroring br_trill_start's call to
	// br_stp_stop; STP itself is out of scope and this is a no-op for
	// bridges that never ran it.
	DisableSTP()

	// TxDropped and RxDropped bump the bridge device's drop counters.
	TxDropped()
	RxDropped()
}

// VNTProvider is the optional virtual-network-tagging side module.
// Per spec.md section 9's design note, VNT is modeled as a pluggable
// interface rather than a compile-time conditional: NoVNT makes every
// hook behave as "VNT is absent" so the core pipelines never need a
// build tag.
type VNTProvider interface {
	// PortVNI returns the VNI associated with port, or 0 if none.
	PortVNI(port Port) uint32
	// FindVNI resolves a VNI to its flood-domain handle.
	FindVNI(vni uint32) (VNI, bool)
}

// VNI is a virtual-network flood domain: the set of ports sharing a
// VNI.
type VNI interface {
	// Flood delivers f to every port in this VNI's flood set.
	Flood(f *Frame)
	// PortVNI returns the VNI id a given port is scoped to, used to
	// validate a unicast FDB hit against the frame's VNI.
	PortVNI(port Port) (uint32, bool)
}

// NoVNT is the zero-value VNTProvider: every hook reports "no VNI",
// making the engine behave as if virtual-network tagging were not
// compiled in at all.
var NoVNT VNTProvider = noVNT{}

type noVNT struct{}

func (noVNT) PortVNI(Port) uint32          { return 0 }
func (noVNT) FindVNI(uint32) (VNI, bool) { return nil, false }
