// Copyright 2021 The partx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package partx

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"github.com/gogama/partx/queue"
	"github.com/gogama/partx/request"
	"github.com/gogama/partx/retry"
	"github.com/gogama/partx/timeout"
	"go.uber.org/zap"
)

// A metaRequest schedules the requests of one Job. It is the owner of
// those requests, and everything except the live counter belongs to
// the goroutine running the job.
type metaRequest struct {
	ctx      context.Context
	job      *Job
	logger   *zap.Logger
	handlers *HandlerGroup
	retry    retry.Policy
	timeout  timeout.Policy
	partSize int
	maxLive  uint32
	live     atomix.Uint32
	workers  []*worker

	// next is the index of the next part whose request is created.
	next int

	pending  queue.Queue[*request.Request]
	waiting  queue.Queue[*request.Request]
	inflight queue.Queue[*request.Request]
	due      map[*request.Request]time.Time
	index    map[*request.Request]int

	result   Result
	err      error // first part failure
	abort    error // set once the job stopped taking on work
	canceled bool
}

func newMetaRequest(ctx context.Context, c *Client, job *Job) *metaRequest {
	m := &metaRequest{
		ctx:      ctx,
		job:      job,
		logger:   c.logger().With(zap.Int("parts", len(job.Parts))),
		handlers: c.handlers(),
		retry:    c.retryPolicy(),
		timeout:  c.timeoutPolicy(),
		partSize: c.partSize(),
		maxLive:  uint32(c.maxRequests()),
		due:      make(map[*request.Request]time.Time),
		index:    make(map[*request.Request]int),
		result:   Result{Parts: make([]PartResult, len(job.Parts))},
	}
	doer := c.doer()
	m.workers = make([]*worker, c.workers())
	for i := range m.workers {
		m.workers[i] = newWorker(doer)
	}
	return m
}

// NewSignable implements request.Owner.
func (m *metaRequest) NewSignable(msg *http.Request) request.Signable {
	if m.job.Sign == nil {
		return request.NewSignable(msg)
	}
	return m.job.Sign(msg)
}

// PartSize implements request.Owner.
func (m *metaRequest) PartSize() int {
	return m.partSize
}

// Reserve implements request.Reserver. Only the job goroutine reserves,
// so the check and the increment cannot interleave with another
// reservation.
func (m *metaRequest) Reserve() bool {
	if m.live.Load() >= m.maxLive {
		return false
	}
	m.live.Add(1)
	return true
}

// Unreserve implements request.Reserver. It runs on whichever goroutine
// releases a request last.
func (m *metaRequest) Unreserve() {
	m.live.Add(^uint32(0))
}

func (m *metaRequest) run() (*Result, error) {
	var wg sync.WaitGroup
	for _, w := range m.workers {
		wg.Add(1)
		go w.run(&wg)
	}
	defer func() {
		for _, w := range m.workers {
			w.shutdown()
		}
		wg.Wait()
	}()

	m.logger.Debug("job started", zap.Int("workers", len(m.workers)))
	var bo iox.Backoff
	for !m.finished() {
		if m.abort == nil {
			if err := m.ctx.Err(); err != nil {
				m.canceled = true
				m.stop(err)
			}
		}
		progress := m.collect()
		progress = m.create() || progress
		progress = m.wake(time.Now()) || progress
		progress = m.dispatch() || progress
		if progress {
			bo.Reset()
		} else {
			bo.Wait()
		}
	}

	if m.canceled {
		m.logger.Warn("job canceled", zap.Error(m.ctx.Err()))
		return &m.result, m.ctx.Err()
	}
	if m.err != nil {
		m.logger.Warn("job failed", zap.Error(m.err))
		return &m.result, m.err
	}
	m.logger.Debug("job finished")
	return &m.result, nil
}

func (m *metaRequest) finished() bool {
	return m.next == len(m.job.Parts) &&
		m.pending.Len() == 0 &&
		m.waiting.Len() == 0 &&
		m.inflight.Len() == 0
}

// create makes requests for the parts in order until the owner refuses
// a reservation.
func (m *metaRequest) create() bool {
	progress := false
	for m.abort == nil && m.next < len(m.job.Parts) {
		i := m.next
		p := &m.job.Parts[i]
		r, err := request.New(m, p.Tag, p.Number, p.Flags)
		if errors.Is(err, request.ErrAllocation) {
			break
		}
		m.next++
		progress = true
		if err != nil {
			pe := &PartError{Tag: p.Tag, Number: p.Number, Err: err}
			m.result.Parts[i] = PartResult{Tag: p.Tag, Number: p.Number, Err: pe}
			m.logger.Error("part rejected", zap.Int("index", i), zap.Error(err))
			m.fatal(pe)
			continue
		}
		m.index[r] = i
		b, err := request.BodyBytes(p.Body)
		if b != nil {
			r.Body = b
		}
		m.handlers.run(BeforePartStart, r)
		if err != nil {
			m.finish(r, m.partError(r, err))
			continue
		}
		m.pending.PushBack(r)
	}
	return progress
}

// wake moves requests whose retry wait is over back to pending.
func (m *metaRequest) wake(now time.Time) bool {
	progress := false
	m.waiting.Each(func(r *request.Request) bool {
		if !now.Before(m.due[r]) {
			m.waiting.Remove(r)
			delete(m.due, r)
			m.pending.PushBack(r)
			progress = true
		}
		return true
	})
	return progress
}

// dispatch starts the next attempt of pending requests while some
// worker has room.
func (m *metaRequest) dispatch() bool {
	progress := false
	for m.pending.Len() > 0 {
		w := m.idleWorker()
		if w == nil {
			break
		}
		r, _ := m.pending.PopFront()
		progress = true
		cancel, ok := m.prepare(r)
		if !ok {
			continue
		}
		r.Acquire()
		m.inflight.PushBack(r)
		w.submit(attempt{r: r, cancel: cancel})
	}
	return progress
}

func (m *metaRequest) idleWorker() *worker {
	var idle *worker
	for _, w := range m.workers {
		if !w.full() && (idle == nil || w.busy < idle.busy) {
			idle = w
		}
	}
	return idle
}

// prepare sets up the send data of the next attempt of r. The timeout
// policy sees the previous attempt, so it runs before the setup.
func (m *metaRequest) prepare(r *request.Request) (context.CancelFunc, bool) {
	d := m.timeout.Timeout(r)
	ctx, cancel := context.WithTimeout(m.ctx, d)
	msg, err := m.job.Build(ctx, r)
	if err != nil {
		cancel()
		m.finish(r, m.partError(r, err))
		return nil, false
	}
	r.SetupSendData(msg)
	m.handlers.run(BeforeAttempt, r)
	m.logger.Debug("attempt started",
		zap.Int("tag", r.Tag()),
		zap.Uint32("part", r.PartNumber()),
		zap.Int("attempt", r.Attempt()),
		zap.Duration("timeout", d))
	return cancel, true
}

// collect settles every attempt the workers have completed.
func (m *metaRequest) collect() bool {
	progress := false
	for _, w := range m.workers {
		for {
			a, ok := w.poll()
			if !ok {
				break
			}
			progress = true
			m.inflight.Remove(a.r)
			m.settle(a.r)
		}
	}
	return progress
}

// settle decides between success, retry, and failure once an attempt
// of r is over.
func (m *metaRequest) settle(r *request.Request) {
	sd := r.SendData()
	if sd.Timeout() {
		r.AttemptTimeouts++
		m.handlers.run(AfterAttemptTimeout, r)
	}
	m.handlers.run(AfterAttempt, r)
	m.logger.Debug("attempt ended",
		zap.Int("tag", r.Tag()),
		zap.Uint32("part", r.PartNumber()),
		zap.Int("attempt", r.Attempt()),
		zap.Int("status", sd.ResponseStatus),
		zap.Bool("dispatched", r.Dispatched()),
		zap.Error(sd.Err))

	switch {
	case sd.Successful():
		if err := m.stream(r); err != nil {
			m.finish(r, m.partError(r, err))
			return
		}
		m.finish(r, nil)
	case m.abort != nil:
		cause := sd.Err
		if cause == nil {
			cause = m.abort
		}
		m.finish(r, m.partError(r, cause))
	case m.retry.Decide(r):
		wait := m.retry.Wait(r)
		m.handlers.run(BeforeRetry, r)
		m.logger.Info("retrying part",
			zap.Int("tag", r.Tag()),
			zap.Uint32("part", r.PartNumber()),
			zap.Int("attempt", r.Attempt()),
			zap.Duration("wait", wait))
		m.due[r] = time.Now().Add(wait)
		m.waiting.PushBack(r)
	default:
		m.finish(r, m.partError(r, sd.Err))
	}
}

func (m *metaRequest) stream(r *request.Request) error {
	if !r.Options().StreamResponseBody() || m.job.OnStream == nil {
		return nil
	}
	return m.job.OnStream(r)
}

func (m *metaRequest) partError(r *request.Request, err error) *PartError {
	return &PartError{
		Tag:      r.Tag(),
		Number:   r.PartNumber(),
		Status:   r.SendData().ResponseStatus,
		Attempts: r.Attempts(),
		Err:      err,
	}
}

// finish copies the outcome of r into the result and drops the
// scheduler's reference. r must not be in any queue.
func (m *metaRequest) finish(r *request.Request, pe *PartError) {
	i := m.index[r]
	sd := r.SendData()
	res := PartResult{
		Tag:      r.Tag(),
		Number:   r.PartNumber(),
		Status:   sd.ResponseStatus,
		Header:   sd.ResponseHeaders,
		Attempts: r.Attempts(),
	}
	if !r.Options().StreamResponseBody() && sd.ResponseBody != nil {
		res.Body = append([]byte{}, sd.ResponseBody...)
	}
	if pe != nil {
		res.Err = pe
		m.logger.Error("part failed",
			zap.Int("tag", pe.Tag),
			zap.Uint32("part", pe.Number),
			zap.Int("attempts", pe.Attempts),
			zap.Int("status", pe.Status),
			zap.Error(pe.Err))
	}
	m.handlers.run(AfterPartEnd, r)
	delete(m.index, r)
	delete(m.due, r)
	m.result.Parts[i] = res
	r.Release()
	if pe != nil {
		m.fatal(pe)
	}
}

// fatal records the first part failure and stops the job.
func (m *metaRequest) fatal(pe *PartError) {
	if m.err == nil {
		m.err = pe
	}
	if m.abort == nil {
		m.stop(ErrAborted)
	}
}

// stop ends the job's intake of work. Parts without a request, and
// requests which are pending or waiting, are finished with err.
// Requests in flight finish when their attempt completes.
func (m *metaRequest) stop(err error) {
	m.abort = err
	for ; m.next < len(m.job.Parts); m.next++ {
		p := &m.job.Parts[m.next]
		m.result.Parts[m.next] = PartResult{
			Tag:    p.Tag,
			Number: p.Number,
			Err:    &PartError{Tag: p.Tag, Number: p.Number, Err: err},
		}
	}
	for m.pending.Len() > 0 {
		r, _ := m.pending.PopFront()
		m.finish(r, m.partError(r, err))
	}
	for m.waiting.Len() > 0 {
		r, _ := m.waiting.PopFront()
		m.finish(r, m.partError(r, err))
	}
}
