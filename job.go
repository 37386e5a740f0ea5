// Copyright 2021 The partx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package partx

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gogama/partx/request"
)

// ErrAborted is the error recorded for parts which were never finished
// because another part of the same job failed fatally.
var ErrAborted = errors.New("partx: aborted after another part failed")

// A Part describes one unit of work of a Job.
type Part struct {
	// Tag is an opaque value handed to the part's request. Builders
	// use it to tell kinds of requests apart, for example the request
	// which creates a multi-part upload from the requests uploading
	// its parts.
	Tag int
	// Number is the one-based part number, or zero for a request which
	// is not part of a multi-part sequence.
	Number uint32
	// Flags are the request options of the part.
	Flags request.Flags
	// Body is the request body. It may be nil or any of the types
	// supported by request.BodyBytes. It is read once, when the part's
	// request is created, and the same bytes are sent on every attempt.
	Body interface{}
}

// A BuildFunc builds the HTTP message for the next attempt of r. The
// message must use ctx, which carries the attempt timeout, and should
// send r.Body. NewMessage does both.
type BuildFunc func(ctx context.Context, r *request.Request) (*http.Request, error)

// A SignFunc produces the signable for the message of an attempt, for
// example by adding an Authorization header to m.
type SignFunc func(m *http.Request) request.Signable

// A StreamFunc consumes the response of a successful attempt of a part
// created with request.StreamResponseBody. The response body is only
// valid for the duration of the call. Returning an error fails the
// part.
type StreamFunc func(r *request.Request) error

// A Job is a multi-part transfer: a list of parts plus the
// collaborators turning each part into HTTP messages.
type Job struct {
	// Parts lists the parts of the job. Requests are created in order,
	// but they may complete in any order.
	Parts []Part
	// Build builds the message for each attempt. It may not be nil.
	Build BuildFunc
	// Sign signs the message of each attempt. If Sign is nil, messages
	// are sent unsigned.
	Sign SignFunc
	// OnStream receives the responses of streamed parts. If OnStream
	// is nil, streamed responses are discarded.
	OnStream StreamFunc
}

// A Result holds the outcome of every part of a Job, indexed like
// Job.Parts.
type Result struct {
	Parts []PartResult
}

// A PartResult is the outcome of one part, copied out of its request
// before the request was released.
type PartResult struct {
	Tag    int
	Number uint32
	// Status is the status code of the final attempt's response, or
	// zero if it got none.
	Status int
	// Header holds the final response headers. It is nil unless the
	// part records response headers or failed with a response.
	Header http.Header
	// Body is the final response body. It is nil for streamed parts.
	Body []byte
	// Attempts is the number of attempts made.
	Attempts int
	// Err is nil if the part succeeded.
	Err error
}

// A PartError reports the failure of one part.
type PartError struct {
	Tag      int
	Number   uint32
	Status   int
	Attempts int
	// Err is the transport error of the final attempt, or nil if the
	// part failed because of its response status code.
	Err error
}

func (e *PartError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("partx: part %d (tag %d) failed after %d attempt(s): %v", e.Number, e.Tag, e.Attempts, e.Err)
	default:
		return fmt.Sprintf("partx: part %d (tag %d) failed after %d attempt(s): status %d", e.Number, e.Tag, e.Attempts, e.Status)
	}
}

func (e *PartError) Unwrap() error {
	return e.Err
}
