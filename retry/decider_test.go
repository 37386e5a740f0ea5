// Copyright 2021 The partx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"errors"
	"fmt"
	"net/url"
	"syscall"
	"testing"

	"github.com/gogama/partx/request"
	"github.com/stretchr/testify/assert"
)

var (
	transientErrs = []error{
		syscall.ECONNREFUSED,
		syscall.ECONNRESET,
		syscall.ETIMEDOUT,
		syscall.EPIPE,
	}
	nonTransientErrs = []error{
		nil,
		errors.New("ain't transient"),
		syscall.EHOSTUNREACH,
		syscall.ENETDOWN,
	}
)

func TestDefaultDecider(t *testing.T) {
	t.Run("retryable status codes", func(t *testing.T) {
		for _, code := range []int{429, 500, 502, 503, 504} {
			t.Run(fmt.Sprint(code), func(t *testing.T) {
				for i := 0; i < DefaultTimes; i++ {
					assert.True(t, DefaultDecider(newAttempt(t, i, code, nil)), "attempt %d", i)
				}
				assert.False(t, DefaultDecider(newAttempt(t, DefaultTimes, code, nil)))
			})
		}
	})
	t.Run("non-retryable status codes", func(t *testing.T) {
		for _, code := range []int{200, 206, 301, 400, 403, 404, 412, 501} {
			t.Run(fmt.Sprint(code), func(t *testing.T) {
				assert.False(t, DefaultDecider(newAttempt(t, 0, code, nil)))
				assert.False(t, DefaultDecider(newAttempt(t, 4, code, nil)))
			})
		}
	})
	t.Run("transient errors", func(t *testing.T) {
		for i, te := range transientErrs {
			t.Run(fmt.Sprintf("transientErrs[%d]=%v", i, te), func(t *testing.T) {
				for j := 0; j < DefaultTimes; j++ {
					assert.True(t, DefaultDecider(newAttempt(t, j, 0, &url.Error{Op: "Put", Err: te})))
				}
				assert.False(t, DefaultDecider(newAttempt(t, DefaultTimes, 0, te)))
			})
		}
	})
	t.Run("non-transient errors", func(t *testing.T) {
		for i, nte := range nonTransientErrs {
			t.Run(fmt.Sprintf("nonTransientErrs[%d]=%v", i, nte), func(t *testing.T) {
				assert.False(t, DefaultDecider(newAttempt(t, 0, 0, nte)))
				assert.False(t, DefaultDecider(newAttempt(t, 3, 0, nte)))
			})
		}
	})
}

func TestTransientErr(t *testing.T) {
	for i, te := range transientErrs {
		assert.True(t, TransientErr(newAttempt(t, 0, 0, te)), "transientErrs[%d]", i)
		assert.True(t, TransientErr(newAttempt(t, 0, 0, &url.Error{Err: te})), "transientErrs[%d]", i)
	}
	for i, nte := range nonTransientErrs {
		assert.False(t, TransientErr(newAttempt(t, 0, 0, nte)), "nonTransientErrs[%d]", i)
	}
}

func TestUndispatched(t *testing.T) {
	r := newAttempt(t, 0, 0, &url.Error{Op: "Put", Err: syscall.EHOSTUNREACH})
	assert.True(t, Undispatched(r), "never reached the wire")
	r.MarkDispatched()
	assert.False(t, Undispatched(r))
	assert.False(t, Undispatched(newAttempt(t, 0, 500, nil)))
	assert.False(t, Undispatched(newAttempt(t, 0, 0, nil)))
}

func TestDeciderAndOr(t *testing.T) {
	true_ := DeciderFunc(func(_ *request.Request) bool { return true })
	false_ := DeciderFunc(func(_ *request.Request) bool { return false })
	calls := 0
	counted := DeciderFunc(func(_ *request.Request) bool { calls++; return true })
	r := newAttempt(t, 0, 0, nil)

	assert.True(t, true_.And(true_)(r))
	assert.False(t, true_.And(false_)(r))
	assert.False(t, false_.And(true_)(r))
	assert.False(t, false_.And(counted)(r))
	assert.True(t, true_.Or(false_)(r))
	assert.True(t, false_.Or(true_)(r))
	assert.False(t, false_.Or(false_)(r))
	assert.True(t, true_.Or(counted)(r))
	assert.Equal(t, 0, calls, "short circuit")
	assert.True(t, true_.And(counted).Decide(r))
	assert.Equal(t, 1, calls)
}

func TestTimes(t *testing.T) {
	assert.False(t, Times(0)(newAttempt(t, 0, 503, nil)))
	one := Times(1)
	assert.True(t, one(newAttempt(t, 0, 503, nil)))
	assert.False(t, one(newAttempt(t, 1, 503, nil)))
	two := Times(2)
	assert.True(t, two(newAttempt(t, 1, 503, nil)))
	assert.False(t, two(newAttempt(t, 2, 503, nil)))
}

func TestStatusCode(t *testing.T) {
	empty := StatusCode()
	one := StatusCode(503)
	assert.False(t, empty(newAttempt(t, 0, 0, nil)))
	assert.False(t, one(newAttempt(t, 0, 0, syscall.ECONNRESET)))
	assert.False(t, empty(newAttempt(t, 0, 503, nil)))
	assert.True(t, one(newAttempt(t, 0, 503, nil)))
	ss := []int{500, 503}
	two := StatusCode(ss...)
	ss[0] = 404
	assert.True(t, two(newAttempt(t, 0, 500, nil)), "codes are copied")
	assert.False(t, two(newAttempt(t, 0, 404, nil)))
}
