// Copyright 2021 The partx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

const (
	acquireDeadMsg = "partx/request: acquire of released request"
	overReleaseMsg = "partx/request: release of released request"
)

// Acquire adds a reference to the request. Use it when a second holder,
// such as a transport goroutine, must keep the request alive
// independently of the owner.
//
// Acquire is safe for concurrent use. Acquiring a request whose count
// already reached zero panics.
func (r *Request) Acquire() {
	if r.refs.Add(1) == 1 {
		panic(acquireDeadMsg)
	}
}

// Release drops a reference to the request. The Release which drops
// the count to zero tears the request down: it cleans up the send data,
// frees the request and response bodies, returns the owner's
// reservation, and forgets the owner. The request must not be used by
// the caller after its Release.
//
// The owner must remove the request from any queue before the final
// Release.
//
// Release is safe for concurrent use. Releasing more times than the
// request was acquired panics.
func (r *Request) Release() {
	switch r.refs.Add(^uint32(0)) {
	case 0:
		r.teardown()
	case ^uint32(0):
		panic(overReleaseMsg)
	}
}

func (r *Request) teardown() {
	r.CleanupSendData()
	r.send.ResponseBody = nil
	r.Body = nil
	if res, ok := r.owner.(Reserver); ok {
		res.Unreserve()
	}
	r.owner = nil
}
