// Copyright 2021 The partx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transient

import (
	"errors"
	"io"
	"syscall"
)

// A Category is the transience category of an error, as reported by
// Categorize.
//
// Not means a retry after the error is unlikely to succeed. Every other
// category means the error is transient, so an attempt failing with it
// has a fair chance of succeeding when retried.
type Category int

const (
	// Not indicates a nil or non-transient error.
	Not Category = iota
	// Timeout indicates a client-side timeout. Categorize returns
	// Timeout if the error, or any error it wraps, has a Timeout method
	// reporting true.
	Timeout
	// ConnRefused indicates the remote host refused the connection
	// (syscall.ECONNREFUSED), which happens while a storage front end
	// restarts.
	ConnRefused
	// ConnReset indicates the remote host reset an established
	// connection (syscall.ECONNRESET). Load balancers in front of
	// object stores do this routinely when draining.
	ConnReset
	// ConnAborted indicates the connection was aborted locally
	// (syscall.ECONNABORTED).
	ConnAborted
	// BrokenPipe indicates the remote host closed the connection while
	// the request body was being written (syscall.EPIPE). Large part
	// uploads are prone to it.
	BrokenPipe
	// Truncated indicates a response body ended before its declared
	// length (io.ErrUnexpectedEOF).
	Truncated
)

var categoryNames = []string{
	"Not",
	"Timeout",
	"ConnRefused",
	"ConnReset",
	"ConnAborted",
	"BrokenPipe",
	"Truncated",
}

// String returns the name of the category.
func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return "Category(?)"
	}
	return categoryNames[c]
}

var errnoCategories = map[syscall.Errno]Category{
	syscall.ECONNREFUSED: ConnRefused,
	syscall.ECONNRESET:   ConnReset,
	syscall.ECONNABORTED: ConnAborted,
	syscall.EPIPE:        BrokenPipe,
}

// Categorize returns the transience category of err, looking through
// wrapped errors. A nil error is Not transient. Timeout takes priority
// over every other category.
//
// Categorize never consults a Temporary method, whose meaning is too
// loosely defined to act on.
func Categorize(err error) Category {
	if err == nil {
		return Not
	}
	var ht hasTimeout
	if errors.As(err, &ht) && ht.Timeout() {
		return Timeout
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		if c, ok := errnoCategories[errno]; ok {
			return c
		}
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return Truncated
	}
	return Not
}

type hasTimeout interface {
	Timeout() bool
}
