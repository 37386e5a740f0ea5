// Copyright 2021 The partx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"net/http"

	"github.com/gogama/partx/transient"
)

const (
	nilMessageMsg = "partx/request: nil message"
)

// SendData is the attempt-scoped state of a Request. It is replaced
// wholesale by every call to SetupSendData, so no field carries over
// from one attempt to the next.
//
// The transport of an attempt fills in the response fields. The owner
// reads them when the attempt is over to decide between success,
// retry, and failure.
type SendData struct {
	// Message is the HTTP message sent in this attempt. It is owned by
	// the request from SetupSendData until the next cleanup.
	Message *http.Request

	// Signable is the authentication artifact derived from Message by
	// the owner. It may be nil.
	Signable Signable

	// ResponseHeaders are the headers of the attempt's response. They
	// are nil unless the request records headers or the attempt failed.
	ResponseHeaders http.Header

	// ResponseBody is the response body received in this attempt. Its
	// length is reset before every attempt but its capacity is kept, so
	// a retry receiving a similar response does not reallocate.
	ResponseBody []byte

	// ResponseStatus is the HTTP status code of the attempt's response,
	// or zero if there is none yet.
	ResponseStatus int

	// Err is the error which ended the attempt without a complete
	// response, if any. It is usually a *url.Error.
	Err error
}

// Write appends p to the response body. It never returns an error.
func (sd *SendData) Write(p []byte) (int, error) {
	sd.ResponseBody = append(sd.ResponseBody, p...)
	return len(p), nil
}

// Timeout indicates whether the attempt ended in a timeout error.
func (sd *SendData) Timeout() bool {
	return transient.Categorize(sd.Err) == transient.Timeout
}

// Successful reports whether the attempt received a complete 2XX
// response.
func (sd *SendData) Successful() bool {
	return sd.Err == nil && successStatus(sd.ResponseStatus)
}

func successStatus(status int) bool {
	return status >= 200 && status < 300
}

// SendData returns the state of the current attempt. The returned
// pointer stays valid for the life of the request, but the value it
// points to is replaced by each SetupSendData.
func (r *Request) SendData() *SendData {
	return &r.send
}

// SetupSendData prepares the request for a new attempt sending m,
// which must not be nil. Call it before every attempt, retries
// included.
//
// SetupSendData first cleans up the previous attempt, then takes
// ownership of m, obtains the signable for m from the owner, and
// resets the response status, headers, and body, as well as the
// dispatched flag. The response body keeps its capacity. For requests
// created with PartSizeResponseBody, the capacity is grown to at least
// the owner's part size.
func (r *Request) SetupSendData(m *http.Request) {
	if m == nil {
		panic(nilMessageMsg)
	}
	r.CleanupSendData()
	body := r.send.ResponseBody
	if r.opts.partSizeResponseBody {
		if n := r.owner.PartSize(); cap(body) < n {
			body = make([]byte, 0, n)
		}
	}
	r.send = SendData{
		Message:      m,
		Signable:     r.owner.NewSignable(m),
		ResponseBody: body,
	}
	r.dispatched.Store(0)
	r.attempts++
}

// CleanupSendData releases the message and signable of the current
// attempt, drops its response headers, and resets its response status,
// error, and body length. The body keeps its capacity.
//
// CleanupSendData is idempotent. It is called by SetupSendData and by
// the final Release, so owners only need to call it directly to drop
// an attempt's state early.
func (r *Request) CleanupSendData() {
	if rel, ok := r.send.Signable.(Releaser); ok {
		rel.Release()
	}
	r.send = SendData{
		ResponseBody: r.send.ResponseBody[:0],
	}
}

// RecordResponse records the status code of the attempt's response,
// together with its headers if the request records headers or the
// status code is not 2XX. Transports call it once the response headers
// arrive.
func (r *Request) RecordResponse(status int, h http.Header) {
	r.send.ResponseStatus = status
	if r.opts.recordResponseHeaders || !successStatus(status) {
		r.send.ResponseHeaders = h.Clone()
	}
}

// A Signable is the authentication artifact attached to an attempt's
// message. Signing collaborators add their credentials to the message
// it wraps; the request only stores it.
type Signable interface {
	Message() *http.Request
}

// A Releaser is a Signable which wants to know when the request lets
// go of it.
type Releaser interface {
	Release()
}

// NewSignable returns a Signable which simply exposes m.
func NewSignable(m *http.Request) Signable {
	return messageSignable{m}
}

type messageSignable struct {
	m *http.Request
}

func (s messageSignable) Message() *http.Request {
	return s.m
}
