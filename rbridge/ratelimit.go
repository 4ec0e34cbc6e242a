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
	"sync"
	"time"
)

// rateLimiter gates a burst of log lines, mirroring the
// kernel source's pr_warn_ratelimited: the data plane can drop
// thousands of frames per second and must never let logging become
// the bottleneck.
type rateLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
	suppress int
}

func newRateLimiter(interval time.Duration) *rateLimiter {
	return &rateLimiter{interval: interval}
}

// allow reports whether the caller may emit a log line now. When it
// returns false the caller should stay silent; allow tracks how many
// lines were suppressed and the next permitted call folds that count
// into the message via suppressedCount.
func (r *rateLimiter) allow(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.last.IsZero() || now.Sub(r.last) >= r.interval {
		r.last = now
		return true
	}

	r.suppress++
	return false
}

// suppressedCount returns and resets the number of suppressed lines
// since the last permitted one.
func (r *rateLimiter) suppressedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.suppress
	r.suppress = 0
	return n
}
