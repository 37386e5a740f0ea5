// Copyright 2021 The partx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"time"

	"github.com/gogama/partx/request"
)

// A Policy controls whether and how the requests of a multi-part job
// are retried. After every attempt of a request which did not succeed,
// the scheduler asks the Policy whether to retry the request and, if
// so, how long the request should wait before its next attempt. The
// request keeps its Body across retries, so every attempt resends the
// same bytes.
//
// Implementations of Policy must be safe for concurrent use by multiple
// goroutines.
//
// A Policy is the composition of the Decider and Waiter interfaces.
// You can implement Policy directly, but it is usually simpler to use
// one of the built-in policies, DefaultPolicy or Never, or to compose
// existing Decider and Waiter values with NewPolicy. For example, a
// policy which retries throttled parts up to ten times and honors the
// server's Retry-After header is:
//
//	retry.NewPolicy(
//		retry.Times(10).And(retry.StatusCode(429, 503)),
//		retry.RetryAfter(30*time.Second, retry.DefaultWaiter))
type Policy interface {
	Decider
	Waiter
}

// DefaultPolicy is a general-purpose retry policy suitable for most
// multi-part transfers. It makes retry decisions with DefaultDecider
// and computes waits with DefaultWaiter.
var DefaultPolicy Policy = policy{DefaultDecider, DefaultWaiter}

// Never is a policy which never retries. It is useful when the caller
// wants the scheduling features of partx.Client but runs its own retry
// logic, for example by resubmitting failed parts in a new job.
var Never Policy = policy{Times(0), DefaultWaiter}

type policy struct {
	decider Decider
	waiter  Waiter
}

// NewPolicy composes a Decider and a Waiter into a retry Policy. The
// Waiter is only consulted after the Decider chose to retry. Neither
// argument may be nil.
func NewPolicy(d Decider, w Waiter) Policy {
	if d == nil {
		panic("partx/retry: nil decider")
	}
	if w == nil {
		panic("partx/retry: nil waiter")
	}
	return policy{decider: d, waiter: w}
}

func (p policy) Decide(r *request.Request) bool {
	return p.decider.Decide(r)
}

func (p policy) Wait(r *request.Request) time.Duration {
	return p.waiter.Wait(r)
}
