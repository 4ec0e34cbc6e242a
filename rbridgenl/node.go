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

package rbridgenl

import (
	"github.com/MichaelQQ/go-trill/rbridgenl/internal/trillh"
	"github.com/mdlayher/genetlink"
	"github.com/mdlayher/netlink"
)

// Adjacency mirrors rbridge.Adjacency for wire transport: a next-hop
// RBridge nickname and its SNPA (MAC address) on a shared link.
type Adjacency struct {
	Nick uint16
	SNPA [6]byte
}

// NodeInfo mirrors rbridge.NickInfo for wire transport.
type NodeInfo struct {
	Adjacencies []Adjacency
	DTRoots     []uint16
}

// SetNode publishes ni at nickname nick on the bridge identified by
// ifIndex.
func (c *Client) SetNode(ifIndex int, nick uint16, ni NodeInfo) error {
	ae := netlink.NewAttributeEncoder()
	ae.Uint16(trillh.AttrNick, nick)
	for _, adj := range ni.Adjacencies {
		a := adj
		ae.Nested(trillh.AttrAdjacency, func(nae *netlink.AttributeEncoder) error {
			nae.Uint16(trillh.AdjAttrNick, a.Nick)
			nae.Bytes(trillh.AdjAttrSNPA, a.SNPA[:])
			return nil
		})
	}
	for _, root := range ni.DTRoots {
		ae.Uint16(trillh.AttrDTRoot, root)
	}

	attrs, err := ae.Encode()
	if err != nil {
		return err
	}

	return c.do(trillh.CmdNewNode, ifIndex, attrs)
}

// ClearNode empties the slot at nickname nick on the bridge
// identified by ifIndex.
func (c *Client) ClearNode(ifIndex int, nick uint16) error {
	ae := netlink.NewAttributeEncoder()
	ae.Uint16(trillh.AttrNick, nick)
	attrs, err := ae.Encode()
	if err != nil {
		return err
	}

	return c.do(trillh.CmdDelNode, ifIndex, attrs)
}

// GetNode retrieves the NodeInfo published at nickname nick on the
// bridge identified by ifIndex.
func (c *Client) GetNode(ifIndex int, nick uint16) (NodeInfo, error) {
	ae := netlink.NewAttributeEncoder()
	ae.Uint16(trillh.AttrNick, nick)
	attrs, err := ae.Encode()
	if err != nil {
		return NodeInfo{}, err
	}

	msgs, err := c.execute(trillh.CmdGetNode, ifIndex, attrs, netlink.Request|netlink.Acknowledge)
	if err != nil {
		return NodeInfo{}, err
	}
	if len(msgs) == 0 {
		return NodeInfo{}, nil
	}

	return parseNodeInfo(msgs[0])
}

// do issues a request expecting only an acknowledgement, no reply
// payload worth parsing.
func (c *Client) do(cmd uint8, ifIndex int, attrs []byte) error {
	_, err := c.execute(cmd, ifIndex, attrs, netlink.Request|netlink.Acknowledge)
	return err
}

func (c *Client) execute(cmd uint8, ifIndex int, attrs []byte, flags netlink.HeaderFlags) ([]genetlink.Message, error) {
	req := genetlink.Message{
		Header: genetlink.Header{Command: cmd, Version: uint8(c.f.Version)},
		Data:   append(headerBytes(trillh.Header{IfIndex: int32(ifIndex)}), attrs...),
	}
	return c.c.Execute(req, c.f.ID, flags)
}

func parseNodeInfo(msg genetlink.Message) (NodeInfo, error) {
	if _, err := parseHeader(msg.Data); err != nil {
		return NodeInfo{}, err
	}

	ad, err := netlink.NewAttributeDecoder(msg.Data[sizeofHeader:])
	if err != nil {
		return NodeInfo{}, err
	}

	var ni NodeInfo
	for ad.Next() {
		switch ad.Type() {
		case trillh.AttrAdjacency:
			var adj Adjacency
			ad.Nested(func(nad *netlink.AttributeDecoder) error {
				for nad.Next() {
					switch nad.Type() {
					case trillh.AdjAttrNick:
						adj.Nick = nad.Uint16()
					case trillh.AdjAttrSNPA:
						copy(adj.SNPA[:], nad.Bytes())
					}
				}
				return nad.Err()
			})
			ni.Adjacencies = append(ni.Adjacencies, adj)
		case trillh.AttrDTRoot:
			ni.DTRoots = append(ni.DTRoots, ad.Uint16())
		}
	}

	if err := ad.Err(); err != nil {
		return NodeInfo{}, err
	}
	return ni, nil
}
