// Copyright 2021 The partx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package retry provides policies deciding whether a failed attempt of
// a part request is retried, and how long to wait before retrying.
//
// A Policy is a Decider plus a Waiter. Both come with constructors for
// the common cases, so a policy is quick to assemble:
//
//	decider := retry.Times(3).
//		And(retry.StatusCode(500, 503).Or(retry.TransientErr))
//	waiter := retry.RetryAfter(5*time.Second,
//		retry.NewExpWaiter(100*time.Millisecond, 2*time.Second, time.Now()))
//	policy := retry.NewPolicy(decider, waiter)
//
// Deciders and waiters see the request with the failed attempt's send
// data still in place, so they can inspect its status, headers, and
// error.
package retry
