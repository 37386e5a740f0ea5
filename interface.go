// Copyright 2021 The partx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package partx

import (
	"context"
	"net/http"

	"github.com/gogama/partx/request"
)

// Doer is the interface that wraps the basic Do method.
//
// Do runs a multi-part job and returns the outcome of every part.
// Client implements Doer, and any other implementation must behave
// substantially the same as Client.Do.
type Doer interface {
	Do(ctx context.Context, job *Job) (*Result, error)
}

// PartPutter is the interface that wraps the basic PutParts method.
//
// PutParts uploads bodies as consecutive parts numbered from one,
// sending each with a PUT to the URL url returns for its request.
// Client implements PartPutter, and any Doer can be used to emulate
// one via the PutParts function.
type PartPutter interface {
	PutParts(ctx context.Context, url func(r *request.Request) string, header http.Header, bodies ...interface{}) (*Result, error)
}

// IdleCloser is the interface that wraps the basic CloseIdleConnections
// method.
//
// If the underlying implementation supports it, CloseIdleConnections
// closes connections left idle in a "keep-alive" state by previous
// attempts. It does not interrupt any connections currently in use.
type IdleCloser interface {
	CloseIdleConnections()
}

// Executor is the interface that groups the basic Do, PutParts, and
// CloseIdleConnections methods.
//
// Any Doer can be converted into an Executor via the Inflate function.
type Executor interface {
	Doer
	PartPutter
	IdleCloser
}

// PutParts uses d to upload bodies as consecutive parts numbered from
// one. Every part records its response headers, so the caller can
// collect the ETag of each part from the result.
//
// Each body may be nil or any of the types supported by
// request.BodyBytes.
func PutParts(ctx context.Context, d Doer, url func(r *request.Request) string, header http.Header, bodies ...interface{}) (*Result, error) {
	job := &Job{
		Parts: make([]Part, len(bodies)),
		Build: Builder("PUT", url, header),
	}
	for i, body := range bodies {
		job.Parts[i] = Part{
			Number: uint32(i + 1),
			Flags:  request.RecordResponseHeaders,
			Body:   body,
		}
	}
	return d.Do(ctx, job)
}

// PutParts uploads bodies as consecutive parts numbered from one,
// using the same policies as Do. See the PutParts function.
func (c *Client) PutParts(ctx context.Context, url func(r *request.Request) string, header http.Header, bodies ...interface{}) (*Result, error) {
	return PutParts(ctx, c, url, header, bodies...)
}

// CloseIdleConnections invokes the same method on the client's
// HTTPDoer, if it has one.
func (c *Client) CloseIdleConnections() {
	if ic, ok := c.doer().(IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}

// Inflate converts any non-nil Doer into an Executor.
func Inflate(d Doer) Executor {
	if d == nil {
		panic("partx: nil doer")
	}
	if e, ok := d.(Executor); ok {
		return e
	}
	return inflated{d}
}

type inflated struct {
	doer Doer
}

func (i inflated) Do(ctx context.Context, job *Job) (*Result, error) {
	return i.doer.Do(ctx, job)
}

func (i inflated) PutParts(ctx context.Context, url func(r *request.Request) string, header http.Header, bodies ...interface{}) (*Result, error) {
	return PutParts(ctx, i.doer, url, header, bodies...)
}

func (i inflated) CloseIdleConnections() {
	if ic, ok := i.doer.(IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}
