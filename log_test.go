// Copyright 2021 The partx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package partx

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gogama/partx/request"
	"github.com/gogama/partx/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogHandler(t *testing.T) {
	assert.PanicsWithValue(t, "partx: nil logger", func() { LogHandler(nil) })

	core, logs := observer.New(zapcore.DebugLevel)
	h := LogHandler(zap.New(core))
	r, err := request.New(testOwner{}, 7, 3, request.RecordResponseHeaders)
	require.NoError(t, err)
	m, err := http.NewRequest("PUT", "http://bucket.example.com/key?partNumber=3", nil)
	require.NoError(t, err)
	r.SetupSendData(m)
	r.RecordResponse(503, http.Header{})

	h.Handle(AfterAttempt, r)
	h.Handle(BeforeRetry, r)

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, "AfterAttempt", entries[0].Message)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "BeforeRetry", entries[1].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	fields := entries[1].ContextMap()
	assert.Equal(t, int64(7), fields["tag"])
	assert.Equal(t, uint32(3), fields["part"])
	assert.Equal(t, "RecordResponseHeaders", fields["flags"])
	assert.Equal(t, int64(0), fields["attempt"])
	assert.Equal(t, int64(503), fields["status"])
}

func TestLogHandler_LevelFiltered(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	h := LogHandler(zap.New(core))
	r, err := request.New(testOwner{}, 0, 1, 0)
	require.NoError(t, err)
	h.Handle(BeforeAttempt, r)
	h.Handle(AfterAttemptTimeout, r)
	assert.Equal(t, 1, logs.Len())
	assert.Equal(t, 1, logs.FilterMessage("AfterAttemptTimeout").Len())
}

func TestClient_Logger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	calls := 0
	doer := doerFunc(func(m *http.Request) (*http.Response, error) {
		calls++
		if calls == 1 {
			return response(500, ""), nil
		}
		return response(200, ""), nil
	})
	cl := &Client{
		HTTPDoer:    doer,
		Workers:     1,
		RetryPolicy: retry.NewPolicy(retry.DefaultDecider, retry.NewFixedWaiter(time.Millisecond)),
		Logger:      zap.New(core),
	}
	_, err := cl.Do(context.Background(), &Job{Parts: partBodies(1), Build: okBuild})
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("job started").Len())
	assert.Equal(t, 2, logs.FilterMessage("attempt started").Len())
	assert.Equal(t, 2, logs.FilterMessage("attempt ended").Len())
	retries := logs.FilterMessage("retrying part").AllUntimed()
	require.Len(t, retries, 1)
	assert.Equal(t, zapcore.InfoLevel, retries[0].Level)
	assert.Equal(t, time.Millisecond, retries[0].ContextMap()["wait"])
	assert.Equal(t, 1, logs.FilterField(zap.Int("parts", 1)).FilterMessage("job finished").Len())
}
