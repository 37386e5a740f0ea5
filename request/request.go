// Copyright 2021 The partx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"errors"
	"fmt"
	"net/http"

	"code.hybscloud.com/atomix"
	"github.com/gogama/partx/queue"
)

const (
	nilOwnerMsg = "partx/request: nil owner"
)

var (
	// ErrConfiguration is returned by New when the requested flags are
	// inconsistent with the other creation parameters. Returned errors
	// wrap ErrConfiguration, so test for it with errors.Is.
	ErrConfiguration = errors.New("partx/request: invalid configuration")

	// ErrAllocation is returned by New when the owner refuses to reserve
	// memory for another live request.
	ErrAllocation = errors.New("partx/request: allocation refused")
)

// An Owner is the scheduler which creates and drives requests.
//
// A Request keeps a non-owning reference to its Owner. The Owner must
// outlive every Request created against it.
type Owner interface {
	// NewSignable produces the signable attached to a request's send
	// data for the message m. It is called once per attempt, from
	// SetupSendData, and may return nil.
	NewSignable(m *http.Request) Signable

	// PartSize returns the size in bytes of one part of the transfer.
	// It is consulted for requests created with PartSizeResponseBody.
	PartSize() int
}

// A Reserver is an Owner which accounts for the memory held by its live
// requests. New calls Reserve before creating a request, and the final
// Release calls Unreserve.
type Reserver interface {
	// Reserve reports whether there is room for one more live request.
	// When it returns true, the owner has counted the new request.
	Reserve() bool

	// Unreserve returns the room taken by a request which has been
	// torn down.
	Unreserve()
}

// A Request is one HTTP exchange belonging to a multi-part transfer.
//
// A Request is created with a reference count of one by New and lives
// until the Release which drops its count to zero. Between those
// points it goes through any number of attempts, each one bracketed by
// SetupSendData and CleanupSendData.
type Request struct {
	link queue.Link
	refs atomix.Uint32

	owner Owner

	// Body is the request body sent on every attempt. It is empty when
	// the request is created, and the owner fills it. The request never
	// changes Body itself, so a retried attempt resends exactly the same
	// bytes unless the owner deliberately changes them.
	Body []byte

	// AttemptTimeouts counts the attempts of this request which ended
	// in a timeout. The owner maintains it; timeout policies read it.
	AttemptTimeouts int

	partNumber uint32
	tag        int
	opts       Options
	attempts   int
	dispatched atomix.Uint32
	send       SendData
}

// New creates a request owned by owner, which must not be nil.
//
// The tag is an opaque value whose meaning belongs to the owner, for
// example to tell a "first part" request from any other part. The part
// number is zero for a request which is not part of a multi-part
// sequence, and otherwise the one-based part index.
//
// New returns an error wrapping ErrConfiguration if flags request
// StreamResponseBody for part number zero, and ErrAllocation if the
// owner is a Reserver and refuses the reservation. No request exists
// when an error is returned.
func New(owner Owner, tag int, partNumber uint32, flags Flags) (*Request, error) {
	if owner == nil {
		panic(nilOwnerMsg)
	}
	opts := flags.Options()
	if opts.streamResponseBody && partNumber == 0 {
		return nil, fmt.Errorf("%w: streaming a response body requires a part number", ErrConfiguration)
	}
	if res, ok := owner.(Reserver); ok && !res.Reserve() {
		return nil, ErrAllocation
	}
	r := &Request{
		owner:      owner,
		Body:       []byte{},
		partNumber: partNumber,
		tag:        tag,
		opts:       opts,
	}
	r.refs.Add(1)
	return r, nil
}

// Owner returns the scheduler which created the request. It returns
// nil once the request has been torn down.
func (r *Request) Owner() Owner {
	return r.owner
}

// Tag returns the owner-defined tag given to New.
func (r *Request) Tag() int {
	return r.tag
}

// PartNumber returns the part number given to New.
func (r *Request) PartNumber() uint32 {
	return r.partNumber
}

// Options returns the options decoded from the flags given to New.
func (r *Request) Options() Options {
	return r.opts
}

// QueueLink returns the request's position in the owner's queues. It
// implements queue.Linker.
func (r *Request) QueueLink() *queue.Link {
	return &r.link
}

// Attempts returns the number of attempts set up so far.
func (r *Request) Attempts() int {
	return r.attempts
}

// Attempt returns the zero-based number of the current attempt: zero
// for the initial attempt, one for the first retry, and so on. Before
// the first attempt is set up it returns zero.
func (r *Request) Attempt() int {
	if r.attempts == 0 {
		return 0
	}
	return r.attempts - 1
}

// Dispatched reports whether the current attempt has been written to
// the wire.
//
// It is safe to call Dispatched and MarkDispatched concurrently, since
// transports may learn of the write on a goroutine of their own.
func (r *Request) Dispatched() bool {
	return r.dispatched.Load() != 0
}

// MarkDispatched records that the current attempt has been written to
// the wire. Transports call it once they have sent the request.
func (r *Request) MarkDispatched() {
	r.dispatched.Store(1)
}
