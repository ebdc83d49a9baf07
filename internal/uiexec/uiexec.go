// Package uiexec provides executors that run host callbacks on a single UI
// context.
package uiexec

import (
	"sync"

	"github.com/patrickwarner/nativeads/internal/observability"
	"go.uber.org/zap"
)

// Direct runs every task synchronously on the calling goroutine.
type Direct struct{}

func (Direct) Execute(fn func()) { fn() }

// Queue runs tasks one at a time, in submission order, on a dedicated
// goroutine. Execute never blocks: the backlog grows as needed. A task that
// panics is recovered and logged so one bad host callback cannot stop the
// loop.
type Queue struct {
	mu     sync.Mutex
	tasks  []func()
	closed bool

	wake chan struct{}
	done chan struct{}

	logger  *zap.Logger
	metrics observability.MetricsRegistry
}

// NewQueue starts a Queue. sizeHint preallocates the backlog.
func NewQueue(sizeHint int, logger *zap.Logger, metrics observability.MetricsRegistry) *Queue {
	if sizeHint < 0 {
		sizeHint = 0
	}
	q := &Queue{
		tasks:   make([]func(), 0, sizeHint),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		logger:  logger.Named("ui_queue"),
		metrics: metrics,
	}
	go q.loop()
	return q
}

// Execute enqueues fn. Tasks submitted after Close are dropped.
func (q *Queue) Execute(fn func()) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.metrics.IncrementUITasks("dropped")
		q.logger.Warn("ui task submitted after close")
		return
	}
	q.tasks = append(q.tasks, fn)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Close stops accepting tasks, runs everything already queued and waits for
// the loop to exit.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	<-q.done
}

func (q *Queue) loop() {
	defer close(q.done)
	for {
		q.mu.Lock()
		batch := q.tasks
		q.tasks = nil
		closed := q.closed
		q.mu.Unlock()

		for _, fn := range batch {
			q.run(fn)
		}
		if len(batch) > 0 {
			continue
		}
		if closed {
			return
		}
		<-q.wake
	}
}

func (q *Queue) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			q.metrics.IncrementUITasks("panicked")
			q.logger.Error("ui task panicked", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()
	fn()
	q.metrics.IncrementUITasks("executed")
}
