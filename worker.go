// Copyright 2021 The partx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package partx

import (
	"context"
	"io"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"strings"
	"sync"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/lfq"
	"github.com/gogama/partx/request"
)

// queueDepth bounds the attempts one worker has outstanding, queued or
// being sent. The scheduler never hands a worker more, so neither of
// its queues can overflow.
const queueDepth = 4

// An attempt is one send of a request, handed from the scheduler to a
// worker and back. The worker holds a reference to the request from
// the hand-off until it has queued the completion.
type attempt struct {
	r      *request.Request
	cancel context.CancelFunc
}

// A worker sends attempts on its own goroutine. It talks to the
// scheduler through two single-producer single-consumer queues: the
// scheduler produces work, the worker produces completions.
type worker struct {
	doer HTTPDoer
	work lfq.SPSC[attempt]
	done lfq.SPSC[attempt]
	stop atomix.Uint32
	busy int // owned by the scheduler
}

func newWorker(doer HTTPDoer) *worker {
	w := &worker{doer: doer}
	w.work.Init(queueDepth)
	w.done.Init(queueDepth)
	return w
}

func (w *worker) full() bool {
	return w.busy >= queueDepth
}

// submit hands a to the worker. The caller must have checked full.
func (w *worker) submit(a attempt) {
	var bo iox.Backoff
	for w.work.Enqueue(&a) != nil {
		bo.Wait()
	}
	w.busy++
}

// poll returns the next completed attempt, if there is one.
func (w *worker) poll() (attempt, bool) {
	a, err := w.done.Dequeue()
	if err != nil {
		return attempt{}, false
	}
	w.busy--
	return a, true
}

func (w *worker) shutdown() {
	w.stop.Store(1)
}

func (w *worker) run(wg *sync.WaitGroup) {
	defer wg.Done()
	var bo iox.Backoff
	for {
		a, err := w.work.Dequeue()
		if err != nil {
			if w.stop.Load() != 0 {
				return
			}
			bo.Wait()
			continue
		}
		bo.Reset()
		send(w.doer, a.r)
		a.cancel()
		for w.done.Enqueue(&a) != nil {
			bo.Wait()
		}
		bo.Reset()
		a.r.Release()
	}
}

// send performs the current attempt of r, recording its outcome in the
// send data.
func send(doer HTTPDoer, r *request.Request) {
	sd := r.SendData()
	m := sd.Message
	if sd.Signable != nil {
		if sm := sd.Signable.Message(); sm != nil {
			m = sm
		}
	}
	trace := &httptrace.ClientTrace{
		WroteRequest: func(httptrace.WroteRequestInfo) {
			r.MarkDispatched()
		},
	}
	m = m.WithContext(httptrace.WithClientTrace(m.Context(), trace))
	resp, err := doer.Do(m)
	if err != nil {
		sd.Err = urlErrorWrap(m, err)
		return
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	r.MarkDispatched()
	r.RecordResponse(resp.StatusCode, resp.Header)
	if _, err = io.Copy(sd, resp.Body); err != nil {
		sd.Err = urlErrorWrap(m, err)
	}
}

func urlErrorWrap(m *http.Request, err error) error {
	if _, ok := err.(*url.Error); ok {
		return err
	}
	return &url.Error{
		Op:  urlErrorOp(m.Method),
		URL: m.URL.String(),
		Err: err,
	}
}

// urlErrorOp matches the Op net/http puts in its own *url.Error values.
func urlErrorOp(method string) string {
	if method == "" {
		return "Get"
	}
	return method[:1] + strings.ToLower(method[1:])
}
