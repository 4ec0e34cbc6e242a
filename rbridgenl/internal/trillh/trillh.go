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

// Package trillh holds the wire-level constants and fixed header
// shared between rbridgenl and the generic netlink family it talks
// to. Unlike ovsh, there is no kernel uapi header to generate these
// from; a TRILL control plane over generic netlink is specific to
// this implementation, so the constants are hand-authored here and
// kept in one place so rbridgenl's request builders and response
// parsers can't drift apart.
package trillh

// Family is the generic netlink family name the rbridgenl client
// looks for in genetlink.Conn.ListFamilies.
const Family = "trill"

// McastGroupNotify is the multicast group nickname-table change
// notifications are published to.
const McastGroupNotify = "notify"

// Command identifiers for the trill generic netlink family.
const (
	CmdUnspec uint8 = iota
	CmdNewNode
	CmdDelNode
	CmdGetNode
	CmdSetLocalNick
	CmdGetLocalNick
	CmdSetTreeRoot
	CmdGetTreeRoot
)

// Top-level attribute identifiers carried in trill generic netlink
// messages.
const (
	AttrUnspec uint16 = iota
	// AttrNick carries the nickname a NewNode/DelNode/GetNode message
	// concerns.
	AttrNick
	// AttrLocalNick and AttrTreeRoot carry a bare nickname value for
	// the local-identity and tree-root commands.
	AttrLocalNick
	AttrTreeRoot
	// AttrAdjacency is a nested attribute, repeated once per
	// adjacency, each containing AdjAttrNick and AdjAttrSNPA.
	AttrAdjacency
	// AttrDTRoot carries one distribution-tree root nickname; it may
	// be repeated, most preferred first.
	AttrDTRoot
)

// Nested attribute identifiers within a single AttrAdjacency.
const (
	AdjAttrUnspec uint16 = iota
	AdjAttrNick
	AdjAttrSNPA
)

// Header is the fixed payload every trill generic netlink message
// carries immediately after the generic netlink header: the ifindex
// of the bridge device the message concerns, mirroring ovs_header.
type Header struct {
	IfIndex int32
}
