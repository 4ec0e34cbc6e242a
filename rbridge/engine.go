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
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Engine is one bridge's TRILL data plane: the nickname table plus
// the host-bridge and VNT collaborators it forwards through. An
// Engine is created once per bridge and is safe for concurrent use
// from many frame-handling goroutines; control-plane mutation
// methods serialize with each other through the same mutex the
// underlying RBR uses.
type Engine struct {
	hb  HostBridge
	vnt VNTProvider

	// enableMu serializes Enable/Disable with each other.
	enableMu sync.Mutex
	rbr      atomic.Pointer[RBR]

	ll *log.Logger
	rl *rateLimiter
}

// Option configures an Engine constructed with NewEngine.
type Option func(*Engine)

// Logger enables diagnostic logging for an Engine. All drop reasons
// share one rate limiter: at most one line is logged per interval,
// whatever the reason.
func Logger(ll *log.Logger, interval time.Duration) Option {
	return func(e *Engine) {
		e.ll = ll
		e.rl = newRateLimiter(interval)
	}
}

// WithVNT installs a VNTProvider. If never called, the Engine behaves
// as if virtual-network tagging is not present (NoVNT).
func WithVNT(v VNTProvider) Option {
	return func(e *Engine) {
		e.vnt = v
	}
}

// NewEngine constructs an Engine bound to hb. TRILL starts disabled;
// call Enable to install the nickname table.
func NewEngine(hb HostBridge, opts ...Option) *Engine {
	e := &Engine{hb: hb, vnt: NoVNT}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Enabled reports whether TRILL is currently enabled on this bridge.
func (e *Engine) Enabled() bool {
	return e.rbr.Load() != nil
}

// Enable installs a fresh, empty nickname table, mirroring
// br_trill_start: spanning tree is stopped first since a TRILL-
// enabled bridge does not also run STP. Calling Enable while already
// enabled is a no-op.
func (e *Engine) Enable() {
	e.enableMu.Lock()
	defer e.enableMu.Unlock()

	if e.rbr.Load() != nil {
		return
	}
	e.hb.DisableSTP()
	e.rbr.Store(NewRBR(e.hb))
}

// Disable removes the nickname table, mirroring br_trill_stop: every
// slot is cleared (releasing the table's references) before the
// table itself is dropped. Handles already borrowed via Find remain
// valid until their holders call Put. Calling Disable while already
// disabled is a no-op.
func (e *Engine) Disable() {
	e.enableMu.Lock()
	defer e.enableMu.Unlock()

	old := e.rbr.Swap(nil)
	if old == nil {
		return
	}
	old.Destroy()
}

// table returns the current nickname table, or nil if TRILL is
// disabled.
func (e *Engine) table() *RBR {
	return e.rbr.Load()
}

// SetLocalNick installs this RBridge's own nickname. It fails with
// ErrInvalidNickname if TRILL is disabled or n is out of range (other
// than NickNone, which disarms the engine).
func (e *Engine) SetLocalNick(n Nick) error {
	t := e.table()
	if t == nil {
		return ErrInvalidNickname
	}
	return t.SetLocalNick(n)
}

// SetTreeRoot installs the fallback distribution-tree root nickname.
func (e *Engine) SetTreeRoot(n Nick) error {
	t := e.table()
	if t == nil {
		return ErrInvalidNickname
	}
	return t.SetTreeRoot(n)
}

// SetNode publishes ni at nickname n.
func (e *Engine) SetNode(n Nick, ni NickInfo) error {
	t := e.table()
	if t == nil {
		return ErrInvalidNickname
	}
	return t.SetNode(n, ni)
}

// ClearNode empties the slot at nickname n. It is a no-op if TRILL is
// disabled.
func (e *Engine) ClearNode(n Nick) {
	if t := e.table(); t != nil {
		t.ClearNode(n)
	}
}

// drop bumps the counter for reason and, if logging is enabled and
// the rate limiter allows it, emits one diagnostic line.
func (e *Engine) drop(reason dropReason, rx bool, format string, args ...interface{}) {
	if rx {
		e.hb.RxDropped()
	} else {
		e.hb.TxDropped()
	}

	if e.ll == nil {
		return
	}
	if !e.rl.allow(time.Now()) {
		return
	}
	suppressed := e.rl.suppressedCount()
	err := dropf(reason, format, args...)
	if suppressed > 0 {
		e.ll.Printf("%v (suppressed %d similar)", err, suppressed)
	} else {
		e.ll.Printf("%v", err)
	}
}
