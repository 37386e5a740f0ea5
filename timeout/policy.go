// Copyright 2021 The partx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timeout

import (
	"time"

	"github.com/gogama/partx/request"
)

// A Policy sets the timeout of the next attempt of a request.
//
// Implementations of Policy must be safe for concurrent use by multiple
// goroutines.
type Policy interface {
	// Timeout returns the timeout for the next attempt of r. Before a
	// retry, r still holds the send data of the attempt which failed,
	// and r.AttemptTimeouts counts the attempts which timed out so far.
	Timeout(r *request.Request) time.Duration
}

// DefaultPolicy sets a fixed timeout of 30 seconds on each attempt,
// enough to move a default-sized part over a modest link.
var DefaultPolicy Policy = Fixed(30 * time.Second)

// Infinite is a policy which never times out.
var Infinite Policy = Fixed(forever)

const forever = time.Duration(1<<63 - 1)

// Fixed constructs a policy which always returns d.
func Fixed(d time.Duration) Policy {
	return policy([]time.Duration{d})
}

// Adaptive constructs a policy which uses usual unless the previous
// attempt timed out. After the first timeout of a request it uses
// after[0], after the second after[1], and so on, sticking to the last
// element of after once they run out.
//
// For example, with
//
//	p := Adaptive(2*time.Second, 10*time.Second, time.Minute)
//
// attempts normally get 2 seconds, the retry after a first timeout gets
// 10 seconds, and any retry after a later timeout gets a minute.
func Adaptive(usual time.Duration, after ...time.Duration) Policy {
	p := make([]time.Duration, 1, 1+len(after))
	p[0] = usual
	return policy(append(p, after...))
}

type policy []time.Duration

func (p policy) Timeout(r *request.Request) time.Duration {
	if !r.SendData().Timeout() {
		return p[0]
	}
	i := r.AttemptTimeouts
	if i > len(p)-1 {
		i = len(p) - 1
	}
	return p[i]
}

// Sized constructs a policy which gives each attempt the timeout of
// next plus perMiB for every started mebibyte of the request body.
func Sized(next Policy, perMiB time.Duration) Policy {
	if next == nil {
		panic("partx/timeout: nil policy")
	}
	return sized{next: next, perMiB: perMiB}
}

type sized struct {
	next   Policy
	perMiB time.Duration
}

const mib = 1 << 20

func (s sized) Timeout(r *request.Request) time.Duration {
	d := s.next.Timeout(r)
	n := time.Duration((len(r.Body) + mib - 1) / mib)
	extra := n * s.perMiB
	if extra < 0 || d > forever-extra {
		return forever
	}
	return d + extra
}
