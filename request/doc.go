// Copyright 2021 The partx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package request contains the core type Request, which represents one
HTTP exchange carrying one part of a larger multi-part object transfer.

A Request separates what is sent from what comes back. What is sent is
the request body, Body, which is filled once by the owning scheduler
and then reused byte-for-byte on every attempt. What comes back lives
in the attempt-scoped SendData, which is wiped before each new attempt
so that a failed attempt can never leak into the next one.

A typical owner drives a request like this:

	r, err := request.New(owner, tagPart, 3, request.RecordResponseHeaders)
	...
	r.Body = append(r.Body, part...)
	for {
		m, err := buildMessage(r)
		...
		r.SetupSendData(m)
		// hand r to the transport, which records the response
		// into r.SendData() and calls r.MarkDispatched
		...
		if !retryNeeded(r) {
			break
		}
	}
	r.Release()

Only Acquire and Release are safe for concurrent use. Every other method
must be called by one goroutine at a time, which the owner guarantees by
sequencing attempts.

The owner of a request is held by a non-owning reference. An Owner must
outlive every Request created against it.
*/
package request
