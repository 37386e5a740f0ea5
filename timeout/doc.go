// Copyright 2021 The partx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package timeout provides policies setting the timeout of each attempt
// of a part request, retries included.
//
// Fixed suits most callers. Adaptive lengthens the timeout after an
// attempt timed out, and Sized scales it with the size of the part
// body, which matters when parts range from kilobytes to gigabytes.
package timeout
