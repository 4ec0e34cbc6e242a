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
	"errors"
	"fmt"
)

// ErrInvalidNickname is returned by SetTreeRoot when given a nickname
// outside of [NickMin, NickMax]. It is the only data-plane error that
// escapes to a control-plane caller; per the error handling design,
// every other failure terminates a frame's journey silently and bumps
// a counter instead.
var ErrInvalidNickname = errors.New("rbridge: invalid nickname")

// dropReason classifies why a frame was dropped. It never leaves the
// package; it only selects which counter to bump and what to log.
type dropReason int

const (
	reasonBadArg dropReason = iota
	reasonUnknown
	reasonResource
	reasonPolicy
)

func (r dropReason) String() string {
	switch r {
	case reasonBadArg:
		return "bad-arg"
	case reasonUnknown:
		return "unknown"
	case reasonResource:
		return "resource"
	case reasonPolicy:
		return "policy"
	default:
		return "unknown-reason"
	}
}

// dropError is the internal error type carried from a pipeline stage
// back to its caller, which converts it into a counter bump and a
// rate-limited log line. The exported pipeline stages EncapsPrepare
// and Recv return it to their caller; HandleFrame, the top-level
// entry, never returns it.
type dropError struct {
	reason dropReason
	msg    string
}

func (e *dropError) Error() string {
	return fmt.Sprintf("%s: %s", e.reason, e.msg)
}

func dropf(reason dropReason, format string, args ...interface{}) *dropError {
	return &dropError{reason: reason, msg: fmt.Sprintf(format, args...)}
}

// IsBadArg reports whether err is a dropError caused by an invalid
// argument (e.g. an out-of-range nickname or a missing port).
func IsBadArg(err error) bool {
	return reasonOf(err) == reasonBadArg
}

// IsUnknown reports whether err is a dropError caused by a failed
// lookup (no node, no adjacency, no FDB entry).
func IsUnknown(err error) bool {
	return reasonOf(err) == reasonUnknown
}

// IsResource reports whether err is a dropError caused by a buffer
// allocation or clone failure.
func IsResource(err error) bool {
	return reasonOf(err) == reasonResource
}

// IsPolicy reports whether err is a dropError caused by a policy
// check failing (RPF, hop count, loop, version mismatch, VLAN
// ingress filtering).
func IsPolicy(err error) bool {
	return reasonOf(err) == reasonPolicy
}

func reasonOf(err error) dropReason {
	de, ok := err.(*dropError)
	if !ok {
		return -1
	}
	return de.reason
}
