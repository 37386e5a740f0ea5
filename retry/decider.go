// Copyright 2021 The partx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"github.com/gogama/partx/request"
	"github.com/gogama/partx/transient"
)

// A Decider decides if a request whose attempt just ended should be
// retried. It sees the request with the finished attempt's send data
// still in place.
//
// Implementations of Decider must be safe for concurrent use by
// multiple goroutines.
type Decider interface {
	Decide(r *request.Request) bool
}

// The DeciderFunc type is an adapter to allow the use of ordinary
// functions as retry deciders. It also provides the logical
// composition methods And and Or.
type DeciderFunc func(r *request.Request) bool

// DefaultTimes is the number of times DefaultPolicy will retry.
const DefaultTimes = 5

// DefaultDecider allows up to DefaultTimes retries (six attempts in
// all) when the attempt ended in a transient error, or in a response
// with one of the status codes object stores use to ask for a retry:
// 429 (Too Many Requests), 500 (Internal Server Error), 502 (Bad
// Gateway), 503 (Service Unavailable, including SlowDown), or 504
// (Gateway Timeout).
var DefaultDecider = Times(DefaultTimes).And(StatusCode(429, 500, 502, 503, 504).Or(TransientErr))

// TransientErr is a decider which retries if the attempt's error is
// transient according to transient.Categorize. It never retries an
// attempt which received a response.
var TransientErr DeciderFunc = transientErr

// Undispatched is a decider which retries if the attempt failed
// without its request ever being written to the wire. Such a retry is
// safe even for requests which are not idempotent.
var Undispatched DeciderFunc = undispatched

// Decide returns true if a retry should be done, and false otherwise.
func (f DeciderFunc) Decide(r *request.Request) bool {
	return f(r)
}

// And composes two deciders into one which returns true only if both
// do. g is not evaluated if f returns false.
func (f DeciderFunc) And(g DeciderFunc) DeciderFunc {
	return func(r *request.Request) bool {
		return f(r) && g(r)
	}
}

// Or composes two deciders into one which returns true if either does.
// g is not evaluated if f returns true.
func (f DeciderFunc) Or(g DeciderFunc) DeciderFunc {
	return func(r *request.Request) bool {
		return f(r) || g(r)
	}
}

// Times constructs a decider which allows up to n retries: it returns
// true while the zero-based attempt number is less than n.
func Times(n int) DeciderFunc {
	return func(r *request.Request) bool {
		return r.Attempt() < n
	}
}

// StatusCode constructs a decider which retries when the attempt's
// response status code is one of ss.
func StatusCode(ss ...int) DeciderFunc {
	ss2 := make([]int, len(ss))
	copy(ss2, ss)
	return func(r *request.Request) bool {
		status := r.SendData().ResponseStatus
		for _, s := range ss2 {
			if status == s {
				return true
			}
		}
		return false
	}
}

func transientErr(r *request.Request) bool {
	return transient.Categorize(r.SendData().Err) != transient.Not
}

func undispatched(r *request.Request) bool {
	return r.SendData().Err != nil && !r.Dispatched()
}
