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
	"github.com/mdlayher/netlink"
)

// SetLocalNick installs the bridge identified by ifIndex's own
// nickname.
func (c *Client) SetLocalNick(ifIndex int, nick uint16) error {
	ae := netlink.NewAttributeEncoder()
	ae.Uint16(trillh.AttrLocalNick, nick)
	attrs, err := ae.Encode()
	if err != nil {
		return err
	}
	return c.do(trillh.CmdSetLocalNick, ifIndex, attrs)
}

// GetLocalNick retrieves the bridge identified by ifIndex's own
// nickname.
func (c *Client) GetLocalNick(ifIndex int) (uint16, error) {
	return c.getNick(trillh.CmdGetLocalNick, ifIndex, trillh.AttrLocalNick)
}

// SetTreeRoot installs the fallback distribution-tree root nickname
// for the bridge identified by ifIndex.
func (c *Client) SetTreeRoot(ifIndex int, nick uint16) error {
	ae := netlink.NewAttributeEncoder()
	ae.Uint16(trillh.AttrTreeRoot, nick)
	attrs, err := ae.Encode()
	if err != nil {
		return err
	}
	return c.do(trillh.CmdSetTreeRoot, ifIndex, attrs)
}

// GetTreeRoot retrieves the fallback distribution-tree root nickname
// for the bridge identified by ifIndex.
func (c *Client) GetTreeRoot(ifIndex int) (uint16, error) {
	return c.getNick(trillh.CmdGetTreeRoot, ifIndex, trillh.AttrTreeRoot)
}

func (c *Client) getNick(cmd uint8, ifIndex int, want uint16) (uint16, error) {
	msgs, err := c.execute(cmd, ifIndex, nil, netlink.Request|netlink.Acknowledge)
	if err != nil {
		return 0, err
	}
	if len(msgs) == 0 {
		return 0, nil
	}

	ad, err := netlink.NewAttributeDecoder(msgs[0].Data[sizeofHeader:])
	if err != nil {
		return 0, err
	}

	var nick uint16
	for ad.Next() {
		if ad.Type() == want {
			nick = ad.Uint16()
		}
	}
	return nick, ad.Err()
}
