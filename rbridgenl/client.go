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

// Package rbridgenl is a Linux generic netlink client for the TRILL
// control-plane family: it lets a userspace IS-IS or management
// process install and query the nickname table an in-kernel or
// in-process rbridge data plane consults on every frame.
package rbridgenl

import (
	"fmt"
	"os"
	"unsafe"

	"github.com/MichaelQQ/go-trill/rbridgenl/internal/trillh"
	"github.com/mdlayher/genetlink"
)

const sizeofHeader = int(unsafe.Sizeof(trillh.Header{}))

// A Client is a generic netlink client bound to the trill family.
type Client struct {
	c *genetlink.Conn
	f genetlink.Family
}

// New creates a new Client using the system's generic netlink socket.
//
// If the trill generic netlink family is not registered on this
// system, an error is returned which can be checked with
// os.IsNotExist.
func New() (*Client, error) {
	c, err := genetlink.Dial(nil)
	if err != nil {
		return nil, err
	}
	return newClient(c)
}

func newClient(c *genetlink.Conn) (*Client, error) {
	families, err := c.ListFamilies()
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	for _, fam := range families {
		if fam.Name == trillh.Family {
			return &Client{c: c, f: fam}, nil
		}
	}

	_ = c.Close()
	return nil, os.ErrNotExist
}

// Close closes the Client's generic netlink connection.
func (c *Client) Close() error {
	return c.c.Close()
}

func headerBytes(h trillh.Header) []byte {
	b := *(*[sizeofHeader]byte)(unsafe.Pointer(&h))
	return b[:]
}

func parseHeader(b []byte) (trillh.Header, error) {
	if l := len(b); l < sizeofHeader {
		return trillh.Header{}, fmt.Errorf("not enough data for trill message header: %d bytes", l)
	}
	h := *(*trillh.Header)(unsafe.Pointer(&b[:sizeofHeader][0]))
	return h, nil
}
