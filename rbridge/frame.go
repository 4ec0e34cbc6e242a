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

// Frame is an opaque Ethernet frame buffer plus the handful of
// out-of-band bits the bridge carries alongside it (the VLAN tag, the
// encapsulation flag). It stands in for struct sk_buff: header
// accessors built from Bytes() are views tied to the buffer's current
// layout, and any call that may grow the buffer (Push) invalidates
// those views — callers must re-derive them from the frame afterward
// rather than holding two live views across a Push or Pull.
type Frame struct {
	buf []byte

	// VLANTagPresent and VLANTag mirror the out-of-band VLAN tag the
	// host bridge tracks for a frame before it has an inline 802.1Q
	// header.
	VLANTagPresent bool
	VLANTag        uint16
	VLANProto      uint16

	// Encapsulated mirrors skb->encapsulation: set once the frame has
	// a TRILL header pushed in front of its original Ethernet header.
	Encapsulated bool

	// Dev identifies which device (bridge vs. a concrete port) this
	// frame is currently associated with, mirroring skb->dev. The
	// data plane does not interpret it; it is surfaced to HostBridge
	// calls that need to know.
	Dev string
}

// NewFrame wraps data as a new Frame. data is taken by reference, not
// copied; callers that still need their own copy of data after
// calling NewFrame must copy it first.
func NewFrame(data []byte) *Frame {
	return &Frame{buf: data}
}

// Bytes returns the frame's current byte view, outer-most header
// first.
func (f *Frame) Bytes() []byte {
	return f.buf
}

// Len returns the number of bytes currently in the frame.
func (f *Frame) Len() int {
	return len(f.buf)
}

// Copy returns a deep copy of f: a new Frame backed by its own
// buffer, sharing no storage with f. This is the skb_copy equivalent,
// required whenever a clone's outer header will be rewritten
// independently of the original (the per-neighbor copies in
// multi-destination forwarding).
func (f *Frame) Copy() *Frame {
	b := make([]byte, len(f.buf))
	copy(b, f.buf)
	cp := *f
	cp.buf = b
	return &cp
}

// Push prepends n zero bytes to the front of the frame and returns a
// slice over just those bytes for the caller to fill in. Because Go
// slices have no reusable headroom the way sk_buff does, Push always
// reallocates; callers must treat any slice derived from Bytes()
// before calling Push as invalid afterward.
func (f *Frame) Push(n int) []byte {
	b := make([]byte, n+len(f.buf))
	copy(b[n:], f.buf)
	f.buf = b
	return b[:n]
}

// Pull removes n bytes from the front of the frame and returns them.
// Unlike Push, Pull never reallocates — it only re-slices the
// existing buffer — so it is always cheap, matching skb_pull.
func (f *Frame) Pull(n int) []byte {
	hdr := f.buf[:n]
	f.buf = f.buf[n:]
	return hdr
}
