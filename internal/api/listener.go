package api

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/patrickwarner/nativeads/internal/db"
)

const (
	eventQueueSize    = 1024
	eventWriteTimeout = 2 * time.Second
)

// adEventListener counts an ad's impressions and clicks in Redis.
type adEventListener struct {
	adID   string
	events *eventRecorder
	logger *zap.Logger
}

func (l *adEventListener) OnAdImpression() { l.record(db.EventImpression) }
func (l *adEventListener) OnAdClicked()    { l.record(db.EventClick) }

func (l *adEventListener) record(event string) {
	l.logger.Debug("ad event", zap.String("ad_id", l.adID), zap.String("event_type", event))
	if l.events == nil {
		return
	}
	l.events.record(l.adID, event)
}

type adEvent struct {
	adID  string
	event string
	// done marks a flush request instead of an event.
	done chan struct{}
}

// eventRecorder writes ad events to Redis from its own goroutine. Listener
// callbacks run on the UI executor and only enqueue; when the queue is full
// the event is dropped and counted.
type eventRecorder struct {
	store   *db.RedisStore
	timeout time.Duration
	logger  *zap.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan adEvent
	done   chan struct{}

	dropped atomic.Int64
}

func newEventRecorder(store *db.RedisStore, queueSize int, timeout time.Duration, logger *zap.Logger) *eventRecorder {
	r := &eventRecorder{
		store:   store,
		timeout: timeout,
		logger:  logger,
		queue:   make(chan adEvent, queueSize),
		done:    make(chan struct{}),
	}
	go r.worker()
	return r
}

func (r *eventRecorder) record(adID, event string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.dropped.Add(1)
		return
	}
	select {
	case r.queue <- adEvent{adID: adID, event: event}:
	default:
		r.dropped.Add(1)
		r.logger.Warn("ad event queue full, dropping event",
			zap.String("ad_id", adID),
			zap.String("event_type", event))
	}
}

// flush waits until every event recorded before the call has been written.
func (r *eventRecorder) flush() {
	done := make(chan struct{})
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return
	}
	r.queue <- adEvent{done: done}
	r.mu.RUnlock()
	<-done
}

// close writes the queued events and stops the worker.
func (r *eventRecorder) close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	<-r.done
}

func (r *eventRecorder) worker() {
	defer close(r.done)
	for ev := range r.queue {
		if ev.done != nil {
			close(ev.done)
			continue
		}
		r.write(ev)
	}
}

func (r *eventRecorder) write(ev adEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.store.IncrementAdEvent(ctx, ev.adID, ev.event); err != nil {
		r.logger.Warn("failed to record ad event",
			zap.String("ad_id", ev.adID),
			zap.String("event_type", ev.event),
			zap.Error(err))
	}
}
