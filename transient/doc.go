// Copyright 2021 The partx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package transient sorts the errors that end a transfer attempt into
// transient and non-transient ones. Retry deciders use it to tell a
// connection reset, worth retrying, from a malformed URL, which is not.
//
// Package transient depends only on the standard library.
package transient
