// Copyright 2021 The partx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package partx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	urlpkg "net/url"
	"strings"

	"github.com/gogama/partx/request"
	"golang.org/x/net/http/httpguts"
)

const nilCtxMsg = "partx: nil context"

// NewMessage builds the HTTP message for an attempt of r, sending
// r.Body. It is the building block of most BuildFuncs.
//
// The method defaults to "PUT". The header is cloned, so the caller may
// reuse it across requests. The body is sent from r.Body without
// copying, and the message's GetBody replays the same bytes, so every
// attempt, and every redirect within an attempt, sends exactly what
// the request holds.
func NewMessage(ctx context.Context, method, url string, header http.Header, r *request.Request) (*http.Request, error) {
	if ctx == nil {
		return nil, errors.New(nilCtxMsg)
	}
	if method == "" {
		method = "PUT"
	}
	if !validMethod(method) {
		return nil, fmt.Errorf("partx: invalid method %q", method)
	}
	if err := validHeader(header); err != nil {
		return nil, err
	}
	u, err := urlpkg.Parse(url)
	if err != nil {
		return nil, err
	}
	m, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return nil, err
	}
	if header != nil {
		m.Header = header.Clone()
	}
	if body := r.Body; len(body) > 0 {
		m.Body = io.NopCloser(bytes.NewReader(body))
		m.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
		m.ContentLength = int64(len(body))
	}
	return m, nil
}

// Builder returns a BuildFunc which builds every message with
// NewMessage, taking the URL of each request from url.
func Builder(method string, url func(r *request.Request) string, header http.Header) BuildFunc {
	if url == nil {
		panic("partx: nil url func")
	}
	return func(ctx context.Context, r *request.Request) (*http.Request, error) {
		return NewMessage(ctx, method, url(r), header, r)
	}
}

func validMethod(method string) bool {
	return strings.IndexFunc(method, isNotToken) == -1
}

func isNotToken(r rune) bool {
	return !httpguts.IsTokenRune(r)
}

func validHeader(h http.Header) error {
	for name, values := range h {
		if !httpguts.ValidHeaderFieldName(name) {
			return fmt.Errorf("partx: invalid header field name %q", name)
		}
		for _, v := range values {
			if !httpguts.ValidHeaderFieldValue(v) {
				return fmt.Errorf("partx: invalid header field value for %q", name)
			}
		}
	}
	return nil
}
