// Copyright 2021 The partx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import "strings"

// Flags is the creation-time bitmask describing how a request treats
// its response. Bits other than the ones defined below are ignored.
type Flags uint32

const (
	// RecordResponseHeaders keeps the response headers of every attempt,
	// not only of failed ones.
	RecordResponseHeaders Flags = 1 << iota
	// StreamResponseBody delivers the response body to the caller as
	// parts complete. It requires a part number of at least one.
	StreamResponseBody
	// PartSizeResponseBody sizes the response body buffer to one part's
	// worth of data, as reported by Owner.PartSize.
	PartSizeResponseBody
)

var flagNames = []struct {
	f    Flags
	name string
}{
	{RecordResponseHeaders, "RecordResponseHeaders"},
	{StreamResponseBody, "StreamResponseBody"},
	{PartSizeResponseBody, "PartSizeResponseBody"},
}

// Options decodes the flag bits into an Options record.
func (f Flags) Options() Options {
	return Options{
		recordResponseHeaders: f&RecordResponseHeaders != 0,
		streamResponseBody:    f&StreamResponseBody != 0,
		partSizeResponseBody:  f&PartSizeResponseBody != 0,
	}
}

// String returns the names of the set flags joined by "|", or "0".
func (f Flags) String() string {
	var s []string
	for _, fn := range flagNames {
		if f&fn.f != 0 {
			s = append(s, fn.name)
		}
	}
	if len(s) == 0 {
		return "0"
	}
	return strings.Join(s, "|")
}

// Options is the decoded, immutable form of Flags. A Request's Options
// are fixed when it is created.
type Options struct {
	recordResponseHeaders bool
	streamResponseBody    bool
	partSizeResponseBody  bool
}

// RecordResponseHeaders reports whether response headers are kept for
// successful attempts as well as failed ones.
func (o Options) RecordResponseHeaders() bool {
	return o.recordResponseHeaders
}

// StreamResponseBody reports whether the response body is streamed to
// the caller.
func (o Options) StreamResponseBody() bool {
	return o.streamResponseBody
}

// PartSizeResponseBody reports whether the response body buffer is
// sized to one part.
func (o Options) PartSizeResponseBody() bool {
	return o.partSizeResponseBody
}

// Flags encodes the options back into a bitmask.
func (o Options) Flags() Flags {
	var f Flags
	if o.recordResponseHeaders {
		f |= RecordResponseHeaders
	}
	if o.streamResponseBody {
		f |= StreamResponseBody
	}
	if o.partSizeResponseBody {
		f |= PartSizeResponseBody
	}
	return f
}
