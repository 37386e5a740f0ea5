// Copyright 2021 The partx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timeout

import (
	"errors"
	"math"
	"net/http"
	"syscall"
	"testing"
	"time"

	"github.com/gogama/partx/request"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testOwner struct{}

func (testOwner) NewSignable(m *http.Request) request.Signable { return nil }

func (testOwner) PartSize() int { return 0 }

func newRequest(t *testing.T) *request.Request {
	r, err := request.New(testOwner{}, 0, 1, 0)
	require.NoError(t, err)
	return r
}

// fail ends the current attempt of r with err, the way the client
// does before asking for the next timeout.
func fail(t *testing.T, r *request.Request, err error) {
	m, e := http.NewRequest("PUT", "https://bucket.example.com/key", nil)
	require.NoError(t, e)
	r.SetupSendData(m)
	r.SendData().Err = err
	if r.SendData().Timeout() {
		r.AttemptTimeouts++
	}
}

func TestDefault(t *testing.T) {
	r := newRequest(t)
	assert.Equal(t, 30*time.Second, DefaultPolicy.Timeout(r))
	fail(t, r, syscall.ETIMEDOUT)
	fail(t, r, syscall.ETIMEDOUT)
	assert.Equal(t, 30*time.Second, DefaultPolicy.Timeout(r))
}

func TestInfinite(t *testing.T) {
	r := newRequest(t)
	assert.Equal(t, time.Duration(math.MaxInt64), Infinite.Timeout(r))
	fail(t, r, syscall.ETIMEDOUT)
	assert.Equal(t, time.Duration(math.MaxInt64), Infinite.Timeout(r))
}

func TestFixed(t *testing.T) {
	p := Fixed(33 * time.Hour)
	r := newRequest(t)
	assert.Equal(t, 33*time.Hour, p.Timeout(r))
	fail(t, r, syscall.ETIMEDOUT)
	assert.Equal(t, 33*time.Hour, p.Timeout(r))
	fail(t, r, syscall.ETIMEDOUT)
	assert.Equal(t, 33*time.Hour, p.Timeout(r))
}

func TestAdaptive(t *testing.T) {
	p := Adaptive(5*time.Millisecond, 10*time.Millisecond, 100*time.Millisecond)
	r := newRequest(t)
	assert.Equal(t, 5*time.Millisecond, p.Timeout(r))
	fail(t, r, syscall.ETIMEDOUT)
	assert.Equal(t, 10*time.Millisecond, p.Timeout(r))
	fail(t, r, errors.New("just a routine problem"))
	assert.Equal(t, 5*time.Millisecond, p.Timeout(r))
	fail(t, r, syscall.ETIMEDOUT)
	assert.Equal(t, 100*time.Millisecond, p.Timeout(r))
	fail(t, r, syscall.ETIMEDOUT)
	assert.Equal(t, 3, r.AttemptTimeouts)
	assert.Equal(t, 100*time.Millisecond, p.Timeout(r))
}

func TestSized(t *testing.T) {
	assert.PanicsWithValue(t, "partx/timeout: nil policy", func() { Sized(nil, time.Second) })
	p := Sized(Fixed(2*time.Second), time.Second)
	testCases := []struct {
		name string
		size int
		want time.Duration
	}{
		{"empty", 0, 2 * time.Second},
		{"one byte", 1, 3 * time.Second},
		{"one MiB", mib, 3 * time.Second},
		{"one MiB and a byte", mib + 1, 4 * time.Second},
		{"eight MiB", 8 * mib, 10 * time.Second},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			r := newRequest(t)
			r.Body = make([]byte, testCase.size)
			assert.Equal(t, testCase.want, p.Timeout(r))
		})
	}
	t.Run("saturates", func(t *testing.T) {
		r := newRequest(t)
		r.Body = []byte{1}
		assert.Equal(t, time.Duration(math.MaxInt64), Sized(Infinite, time.Second).Timeout(r))
	})
}
