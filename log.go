// Copyright 2021 The partx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package partx

import (
	"github.com/gogama/partx/request"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogHandler returns a Handler which logs every event it is installed
// for to logger. Timeouts and retries are logged at warn level, every
// other event at debug level.
//
// To log all events:
//
//	handlers := &partx.HandlerGroup{}
//	h := partx.LogHandler(logger)
//	for _, evt := range partx.Events() {
//		handlers.PushBack(evt, h)
//	}
func LogHandler(logger *zap.Logger) Handler {
	if logger == nil {
		panic("partx: nil logger")
	}
	return HandlerFunc(func(evt Event, r *request.Request) {
		level := zapcore.DebugLevel
		if evt == AfterAttemptTimeout || evt == BeforeRetry {
			level = zapcore.WarnLevel
		}
		ce := logger.Check(level, evt.Name())
		if ce == nil {
			return
		}
		sd := r.SendData()
		ce.Write(
			zap.Int("tag", r.Tag()),
			zap.Uint32("part", r.PartNumber()),
			zap.Stringer("flags", r.Options().Flags()),
			zap.Int("attempt", r.Attempt()),
			zap.Int("status", sd.ResponseStatus),
			zap.Int("timeouts", r.AttemptTimeouts),
			zap.Error(sd.Err))
	})
}
