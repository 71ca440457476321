package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/gyaneshwarpardhi/notification-service/internal/config"
	"github.com/gyaneshwarpardhi/notification-service/internal/event"
	"github.com/gyaneshwarpardhi/notification-service/internal/logger"
	"github.com/gyaneshwarpardhi/notification-service/internal/metrics"
	"github.com/gyaneshwarpardhi/notification-service/internal/queue"
	"github.com/gyaneshwarpardhi/notification-service/internal/router"
)

// Drop reasons recorded before an event reaches the router.
const (
	DropEmpty     = "empty"
	DropMalformed = "malformed"
	DropPanic     = "panic"
	DropQueueFull = "queue_full"
)

// Engine decodes queue messages and hands them to the current Router on a
// bounded worker pool. With a single worker, messages are processed one at
// a time in arrival order.
type Engine struct {
	router atomic.Pointer[router.Router]
	pool   *workerPool[*work]
	conf   config.EngineConf

	cancel   context.CancelFunc
	shutdown sync.Once
}

type work struct {
	msg     queue.Message
	resultC chan *router.Report
}

// New creates an Engine using conf and starts its workers. In-flight sends
// run under an internal context that is only cancelled when Shutdown gives
// up waiting.
func New(r *router.Router, conf config.EngineConf) *Engine {
	if conf.Workers < 1 {
		conf.Workers = 1
	}
	if conf.QueueDepth < 1 {
		conf.QueueDepth = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{conf: conf, cancel: cancel}
	e.router.Store(r)
	e.pool = newWorkerPool[*work](ctx, conf.Workers, conf.QueueDepth, func(ctx context.Context, w *work) {
		rep := e.process(ctx, w.msg)
		if w.resultC != nil {
			w.resultC <- rep
		}
		metrics.QueueUtilization.Set(e.QueueUtilization())
	})
	return e
}

// SwapRouter atomically replaces the router (used on hot-reload). Events
// already being routed finish with the router they started with.
func (e *Engine) SwapRouter(r *router.Router) {
	e.router.Store(r)
}

// HandleMessage enqueues msg, blocking while the queue is full. It
// satisfies queue.Handler so a source's read loop is paced by the engine.
func (e *Engine) HandleMessage(ctx context.Context, msg queue.Message) error {
	if err := e.pool.Enqueue(ctx, &work{msg: msg}); err != nil {
		return err
	}
	metrics.QueueUtilization.Set(e.QueueUtilization())
	return nil
}

// ProcessAsync enqueues msg for background processing. Returns false if the queue is full.
func (e *Engine) ProcessAsync(msg queue.Message) bool {
	if !e.pool.Submit(&work{msg: msg}) {
		metrics.EventsDropped.WithLabelValues(DropQueueFull).Inc()
		return false
	}
	return true
}

// ProcessSync enqueues msg and waits for its report. A nil report with a
// nil error means the message was dropped before routing.
func (e *Engine) ProcessSync(ctx context.Context, msg queue.Message) (*router.Report, error) {
	resultC := make(chan *router.Report, 1)
	if !e.pool.Submit(&work{msg: msg, resultC: resultC}) {
		metrics.EventsDropped.WithLabelValues(DropQueueFull).Inc()
		return nil, fmt.Errorf("event queue full (capacity %d)", e.pool.QueueCap())
	}

	timeout := time.Duration(e.conf.EventTimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case rep := <-resultC:
		return rep, nil
	case <-timer.C:
		return nil, fmt.Errorf("event processing timeout after %v", timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// QueueUtilization returns queue used / capacity (0-1).
func (e *Engine) QueueUtilization() float64 {
	if e.pool.QueueCap() == 0 {
		return 0
	}
	return float64(e.pool.QueueLen()) / float64(e.pool.QueueCap())
}

// Shutdown stops accepting work and waits for queued events to finish. If
// ctx expires first, in-flight sends are cancelled and ctx.Err is returned
// once the workers exit.
func (e *Engine) Shutdown(ctx context.Context) error {
	var err error
	e.shutdown.Do(func() {
		done := make(chan struct{})
		go func() {
			e.pool.Drain()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			err = ctx.Err()
			e.cancel()
			<-done
		}
		e.cancel()
		metrics.QueueUtilization.Set(0)
	})
	return err
}

// process decodes and routes one message. Nothing escapes it: decode
// problems are logged and dropped, and a panic anywhere below is recovered
// so the worker keeps consuming.
func (e *Engine) process(ctx context.Context, msg queue.Message) (rep *router.Report) {
	log := logger.From(ctx).With("source", msg.Source)
	defer func() {
		if p := recover(); p != nil {
			metrics.EventsDropped.WithLabelValues(DropPanic).Inc()
			log.Error("panic while processing event", "panic", p, "stack", string(debug.Stack()))
			rep = nil
		}
	}()

	ev, err := event.Decode(msg.Value)
	switch {
	case errors.Is(err, event.ErrEmptyPayload):
		metrics.EventsDropped.WithLabelValues(DropEmpty).Inc()
		log.Warn("received empty event, skipping", "key", msg.Key)
		return nil
	case err != nil:
		metrics.EventsDropped.WithLabelValues(DropMalformed).Inc()
		log.Warn("received undecodable event, skipping", "key", msg.Key, "err", err)
		return nil
	}
	if ev.EventID == "" {
		ev.EventID = uuid.NewString()
	}
	if !msg.ReceivedAt.IsZero() {
		ev.ReceivedAt = msg.ReceivedAt
	}

	log.Info("received notification event",
		"event_id", ev.EventID,
		"event_type", ev.EventType,
		"priority", ev.Priority.String(),
	)

	start := time.Now()
	rep = e.router.Load().Route(ctx, ev)
	metrics.EventProcessingDuration.Observe(float64(time.Since(start).Milliseconds()))

	log.Info("notification event processed",
		"event_id", rep.EventID,
		"event_type", rep.EventType,
		"outcome", rep.Outcome,
		"sent", rep.Count(router.StatusSent),
		"failed", rep.Count(router.StatusFailed),
		"skipped", rep.Count(router.StatusSkipped),
		"duration_ms", rep.DurationMs,
	)
	return rep
}

// Ensure Engine satisfies queue.Handler.
var _ queue.Handler = (*Engine)(nil)
