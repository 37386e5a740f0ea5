// Copyright 2021 The partx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package partx

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/gogama/partx/request"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	ctx := context.Background()
	newRequest := func(t *testing.T, body string) *request.Request {
		r, err := request.New(testOwner{}, 0, 2, 0)
		require.NoError(t, err)
		r.Body = append(r.Body, body...)
		return r
	}

	t.Run("nil context", func(t *testing.T) {
		var nilCtx context.Context
		m, err := NewMessage(nilCtx, "PUT", "http://example.com", nil, newRequest(t, ""))
		assert.Nil(t, m)
		assert.EqualError(t, err, "partx: nil context")
	})
	t.Run("invalid method", func(t *testing.T) {
		m, err := NewMessage(ctx, "P UT", "http://example.com", nil, newRequest(t, ""))
		assert.Nil(t, m)
		assert.EqualError(t, err, `partx: invalid method "P UT"`)
	})
	t.Run("invalid header name", func(t *testing.T) {
		m, err := NewMessage(ctx, "", "http://example.com", http.Header{"Bad Name": {"x"}}, newRequest(t, ""))
		assert.Nil(t, m)
		assert.EqualError(t, err, `partx: invalid header field name "Bad Name"`)
	})
	t.Run("invalid header value", func(t *testing.T) {
		m, err := NewMessage(ctx, "", "http://example.com", http.Header{"X-Foo": {"a\r\nb"}}, newRequest(t, ""))
		assert.Nil(t, m)
		assert.EqualError(t, err, `partx: invalid header field value for "X-Foo"`)
	})
	t.Run("invalid URL", func(t *testing.T) {
		m, err := NewMessage(ctx, "", ":::", nil, newRequest(t, ""))
		assert.Nil(t, m)
		assert.Error(t, err)
	})
	t.Run("empty body", func(t *testing.T) {
		m, err := NewMessage(ctx, "", "http://example.com/k", nil, newRequest(t, ""))
		require.NoError(t, err)
		assert.Equal(t, "PUT", m.Method)
		assert.Equal(t, int64(0), m.ContentLength)
		assert.Nil(t, m.GetBody)
	})
	t.Run("body replays", func(t *testing.T) {
		header := http.Header{"X-Amz-Meta-Foo": {"bar"}}
		r := newRequest(t, "part body")
		m, err := NewMessage(ctx, "POST", "http://example.com/k", header, r)
		require.NoError(t, err)
		header.Set("X-Amz-Meta-Foo", "changed")
		assert.Equal(t, "bar", m.Header.Get("X-Amz-Meta-Foo"), "header is cloned")
		assert.Equal(t, int64(9), m.ContentLength)
		b, err := io.ReadAll(m.Body)
		require.NoError(t, err)
		assert.Equal(t, "part body", string(b))
		for i := 0; i < 2; i++ {
			rc, err := m.GetBody()
			require.NoError(t, err)
			b, err = io.ReadAll(rc)
			require.NoError(t, err)
			assert.Equal(t, "part body", string(b))
		}
		assert.Equal(t, "part body", string(r.Body), "request body untouched")
		assert.Equal(t, ctx, m.Context())
	})
}

func TestBuilder(t *testing.T) {
	assert.PanicsWithValue(t, "partx: nil url func", func() { Builder("PUT", nil, nil) })
	b := Builder("", partURL, nil)
	r, err := request.New(testOwner{}, 0, 7, 0)
	require.NoError(t, err)
	m, err := b(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, "http://bucket.example.com/key?partNumber=7", m.URL.String())
}
