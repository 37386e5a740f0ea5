// Copyright 2021 The partx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package partx

import (
	"context"
	"errors"
	"net/http"

	"github.com/gogama/partx/retry"
	"github.com/gogama/partx/timeout"
	"go.uber.org/zap"
)

// An HTTPDoer implements a Do method in the same manner as the Go
// standard library http.Client from the net/http package.
type HTTPDoer interface {
	// Do sends an HTTP request and returns an HTTP response following
	// policy (such as redirects, cookies, auth) configured on the
	// HTTPDoer.
	Do(r *http.Request) (*http.Response, error)
}

const (
	// DefaultWorkers is the number of workers used when Client.Workers
	// is zero.
	DefaultWorkers = 4
	// DefaultPartSize is the part size used when Client.PartSize is
	// zero.
	DefaultPartSize = 8 << 20
	// DefaultMaxRequests is the live request limit used when
	// Client.MaxRequests is zero.
	DefaultMaxRequests = 16
)

const nilJobMsg = "partx: nil job"

var emptyHandlers = HandlerGroup{}

// A Client runs multi-part transfers. Its zero value is a valid
// configuration.
//
// The zero value client uses http.DefaultClient as the HTTPDoer,
// retry.DefaultPolicy, timeout.DefaultPolicy, no event handlers, no
// logging, and the Default* sizing constants.
//
// For each Job, the client creates one request per part, keeps at most
// MaxRequests of them alive at a time, and sends their attempts from a
// pool of Workers goroutines. A request has at most one attempt in
// flight. Failed attempts are retried according to the retry policy,
// always resending the same body.
//
// Client is safe for concurrent use by multiple goroutines.
type Client struct {
	// HTTPDoer sends the messages of every attempt. If nil,
	// http.DefaultClient is used.
	HTTPDoer HTTPDoer
	// RetryPolicy decides when to retry failed attempts and how long
	// to wait first. If nil, retry.DefaultPolicy is used.
	RetryPolicy retry.Policy
	// TimeoutPolicy sets the timeout of each attempt. If nil,
	// timeout.DefaultPolicy is used.
	TimeoutPolicy timeout.Policy
	// Handlers are invoked as requests go through their lifecycle. If
	// nil, no handlers are run.
	Handlers *HandlerGroup
	// Logger receives the scheduler's structured logs. If nil, nothing
	// is logged.
	Logger *zap.Logger
	// Workers is the number of goroutines sending attempts.
	Workers int
	// PartSize is the part size of the transfer in bytes. Requests
	// created with request.PartSizeResponseBody reserve this much room
	// for their response body.
	PartSize int
	// MaxRequests bounds the number of live requests, and therefore
	// the memory held by request and response bodies.
	MaxRequests int
}

// Do runs job to completion and returns the outcome of every part.
//
// Parts which fail are not retried beyond what the retry policy
// allows. The first part to fail fatally aborts the job: no new
// requests are created, requests waiting for an attempt are finished
// with ErrAborted, and attempts already in flight run to completion.
// Do then returns the *PartError of that part.
//
// If ctx is done before the job completes, in-flight attempts are
// interrupted, every unfinished part fails with the context error, and
// Do returns the context error.
//
// The returned Result is never nil and always holds one PartResult per
// part of the job.
func (c *Client) Do(ctx context.Context, job *Job) (*Result, error) {
	if ctx == nil {
		panic(nilCtxMsg)
	}
	if job == nil {
		panic(nilJobMsg)
	}
	if job.Build == nil {
		return &Result{Parts: make([]PartResult, len(job.Parts))}, errors.New("partx: nil build func")
	}
	m := newMetaRequest(ctx, c, job)
	return m.run()
}

func (c *Client) doer() HTTPDoer {
	if c.HTTPDoer == nil {
		return http.DefaultClient
	}
	return c.HTTPDoer
}

func (c *Client) retryPolicy() retry.Policy {
	if c.RetryPolicy == nil {
		return retry.DefaultPolicy
	}
	return c.RetryPolicy
}

func (c *Client) timeoutPolicy() timeout.Policy {
	if c.TimeoutPolicy == nil {
		return timeout.DefaultPolicy
	}
	return c.TimeoutPolicy
}

func (c *Client) handlers() *HandlerGroup {
	if c.Handlers == nil {
		return &emptyHandlers
	}
	return c.Handlers
}

func (c *Client) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func (c *Client) workers() int {
	if c.Workers < 1 {
		return DefaultWorkers
	}
	return c.Workers
}

func (c *Client) partSize() int {
	if c.PartSize < 1 {
		return DefaultPartSize
	}
	return c.PartSize
}

func (c *Client) maxRequests() int {
	if c.MaxRequests < 1 {
		return DefaultMaxRequests
	}
	return c.MaxRequests
}
