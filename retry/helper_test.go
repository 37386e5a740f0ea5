// Copyright 2021 The partx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"net/http"
	"testing"

	"github.com/gogama/partx/request"
	"github.com/stretchr/testify/require"
)

type testOwner struct{}

func (testOwner) NewSignable(m *http.Request) request.Signable { return request.NewSignable(m) }

func (testOwner) PartSize() int { return 0 }

// newAttempt returns a request whose attempt number attempt ended with
// the given status code and error.
func newAttempt(t *testing.T, attempt int, status int, err error) *request.Request {
	r, e := request.New(testOwner{}, 0, 1, 0)
	require.NoError(t, e)
	m, e := http.NewRequest("PUT", "https://bucket.example.com/key?partNumber=1", nil)
	require.NoError(t, e)
	for i := 0; i <= attempt; i++ {
		r.SetupSendData(m)
	}
	require.Equal(t, attempt, r.Attempt())
	if status != 0 {
		r.MarkDispatched()
		r.RecordResponse(status, http.Header{})
	}
	r.SendData().Err = err
	return r
}
