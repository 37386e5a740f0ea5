// Copyright 2021 The partx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package partx

// An Event identifies the event type when installing or running a
// Handler. Install event handlers in a Client to observe or extend the
// lifecycle of the requests it schedules.
//
// Handlers run on the goroutine which called Client.Do, one at a time,
// so they never race with each other or with the scheduler.
type Event int

const (
	// BeforePartStart identifies the event that occurs after the
	// request of a part has been created and its body filled in, but
	// before its first attempt is prepared. Every request gets exactly
	// one BeforePartStart and one AfterPartEnd. If the part's body
	// cannot be converted, BeforePartStart fires with an empty Body and
	// is followed directly by AfterPartEnd.
	BeforePartStart Event = iota
	// BeforeAttempt identifies the event that occurs before each
	// attempt of a request. When it fires, the request's send data
	// has been set up with the signed message which WILL BE sent after
	// all BeforeAttempt handlers have finished.
	BeforeAttempt
	// AfterAttemptTimeout identifies the event that occurs after an
	// attempt failed because of a timeout. When it fires, the send
	// data's error is the timeout error and the request's attempt
	// timeout counter has been incremented.
	AfterAttemptTimeout
	// AfterAttempt identifies the event that occurs after every
	// attempt, whatever its outcome, before the retry policy is
	// consulted.
	AfterAttempt
	// BeforeRetry identifies the event that occurs when the retry
	// policy chose to retry a request, before the retry wait starts.
	// The send data of the failed attempt is still in place.
	BeforeRetry
	// AfterPartEnd identifies the event that occurs once a part has
	// finished, successfully or not, just before the scheduler releases
	// its request. Handlers must not keep the request.
	AfterPartEnd
	// eventSentinel provides the total number of events typed as an
	// Event.
	eventSentinel

	// numEvents provides the total number of events typed as an int.
	numEvents = int(eventSentinel)
)

var eventNames = []string{
	"BeforePartStart",
	"BeforeAttempt",
	"AfterAttemptTimeout",
	"AfterAttempt",
	"BeforeRetry",
	"AfterPartEnd",
}

// Events returns all events which can occur in the life of a request,
// in the order in which they would occur.
func Events() []Event {
	return []Event{
		BeforePartStart,
		BeforeAttempt,
		AfterAttemptTimeout,
		AfterAttempt,
		BeforeRetry,
		AfterPartEnd,
	}
}

// Name returns the name of the event.
func (evt Event) Name() string {
	return eventNames[int(evt)]
}

// String returns the name of the event.
func (evt Event) String() string {
	return evt.Name()
}
