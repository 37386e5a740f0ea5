// Copyright 2021 The partx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gogama/partx/request"
)

// A Waiter says how long to wait before retrying a request. It is only
// consulted after the Decider of the same policy chose to retry.
//
// Implementations of Waiter must be safe for concurrent use by multiple
// goroutines.
type Waiter interface {
	Wait(r *request.Request) time.Duration
}

// DefaultWaiter backs off exponentially with full jitter from a base of
// 50 milliseconds up to a ceiling of 1 second.
var DefaultWaiter = NewExpWaiter(50*time.Millisecond, 1*time.Second, time.Now())

// NewFixedWaiter constructs a Waiter which always waits d.
func NewFixedWaiter(d time.Duration) Waiter {
	return fixedWaiter(d)
}

type fixedWaiter time.Duration

func (w fixedWaiter) Wait(_ *request.Request) time.Duration {
	return time.Duration(w)
}

// NewExpWaiter constructs a Waiter which backs off exponentially using
// the "Full Jitter" formula from
// https://aws.amazon.com/blogs/architecture/exponential-backoff-and-jitter.
//
// The ceiling for the wait before retry n (zero-based attempt number of
// the failed attempt) is base * 2**n, capped at max. Both must be
// positive and max may not be less than base.
//
// With a nil jitter, the waiter always waits the full ceiling.
// Otherwise it waits a uniformly random duration below the ceiling,
// drawn from jitter, which is either a seed (time.Time, int, or int64)
// or a source of randomness (*rand.Rand or rand.Source).
func NewExpWaiter(base, max time.Duration, jitter interface{}) Waiter {
	if base < 1 {
		panic("partx/retry: base must be positive")
	}
	if max < base {
		panic("partx/retry: max must be at least base")
	}
	return &expWaiter{
		base: base,
		max:  max,
		rand: jitterToRand(jitter),
	}
}

type expWaiter struct {
	base time.Duration
	max  time.Duration
	lock sync.Mutex
	rand *rand.Rand
}

func (w *expWaiter) Wait(r *request.Request) time.Duration {
	ceil := w.ceil(r.Attempt())
	if w.rand == nil {
		return ceil
	}
	w.lock.Lock()
	defer w.lock.Unlock()
	return time.Duration(w.rand.Int63n(int64(ceil)))
}

func (w *expWaiter) ceil(attempt int) time.Duration {
	d := w.base
	for i := 0; i < attempt; i++ {
		if d >= w.max/2 {
			return w.max
		}
		d *= 2
	}
	if d > w.max {
		return w.max
	}
	return d
}

func jitterToRand(jitter interface{}) *rand.Rand {
	var s rand.Source
	switch j := jitter.(type) {
	case nil:
		return nil
	case time.Time:
		s = rand.NewSource(j.UnixNano())
	case int:
		s = rand.NewSource(int64(j))
	case int64:
		s = rand.NewSource(j)
	case *rand.Rand:
		if j == nil {
			panic("partx/retry: jitter may not be a typed nil")
		}
		return j
	case rand.Source:
		s = j
	default:
		panic("partx/retry: invalid jitter type")
	}
	return rand.New(s)
}

// RetryAfter constructs a Waiter which honors a Retry-After header on
// the failed attempt's response. The header may give a number of
// seconds or an HTTP date. A date in the past means no wait. Either way
// the wait is capped at max. When there is no usable header RetryAfter
// defers to fallback.
//
// Failed attempts always keep their response headers, so RetryAfter
// works whether or not requests record headers.
func RetryAfter(max time.Duration, fallback Waiter) Waiter {
	if fallback == nil {
		panic("partx/retry: nil fallback")
	}
	return retryAfter{max: max, fallback: fallback, now: time.Now}
}

type retryAfter struct {
	max      time.Duration
	fallback Waiter
	now      func() time.Time
}

func (w retryAfter) Wait(r *request.Request) time.Duration {
	h := r.SendData().ResponseHeaders.Get("Retry-After")
	if h == "" {
		return w.fallback.Wait(r)
	}
	if secs, err := strconv.ParseInt(h, 10, 64); err == nil {
		if secs < 0 {
			return w.fallback.Wait(r)
		}
		if secs > int64(w.max/time.Second) {
			return w.max
		}
		return w.capped(time.Duration(secs) * time.Second)
	}
	if t, err := http.ParseTime(h); err == nil {
		d := t.Sub(w.now())
		if d < 0 {
			return 0
		}
		return w.capped(d)
	}
	return w.fallback.Wait(r)
}

func (w retryAfter) capped(d time.Duration) time.Duration {
	if d > w.max {
		return w.max
	}
	return d
}
