// Package mirror runs remote backend writes in the background so that local
// edits never wait on the network.
package mirror

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kalambet/folio/internal/storage"
)

// ErrQueueFull is recorded when a task is dropped because the queue is full.
var ErrQueueFull = errors.New("mirror queue full")

var tasksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "folio",
	Subsystem: "mirror",
	Name:      "tasks_total",
	Help:      "Remote mirror tasks by entity, operation and result.",
}, []string{"entity", "op", "result"})

// Task is one remote write.
type Task struct {
	Entity   string // "profile", "project", "internship"
	Op       string // "save", "create", "update", "delete"
	TargetID string
	Run      func(ctx context.Context) error
}

// FailureStore persists tasks that did not reach the backend.
type FailureStore interface {
	SaveSyncFailure(f storage.SyncFailure) error
}

type queued struct {
	ctx  context.Context
	task Task
}

// Queue executes tasks one at a time on a single worker. Tasks are not retried.
type Queue struct {
	tasks    chan queued
	failures FailureStore
	timeout  time.Duration
	logger   *slog.Logger
}

// NewQueue creates a Queue holding up to size pending tasks.
// If size is <= 0, it defaults to 64.
func NewQueue(failures FailureStore, size int) *Queue {
	if size <= 0 {
		size = 64
	}
	return &Queue{
		tasks:    make(chan queued, size),
		failures: failures,
		timeout:  30 * time.Second,
		logger:   slog.Default(),
	}
}

// Enqueue schedules t without blocking. The task runs with the values of ctx
// (the caller's backend session) but not its cancellation.
func (q *Queue) Enqueue(ctx context.Context, t Task) {
	item := queued{ctx: context.WithoutCancel(ctx), task: t}
	select {
	case q.tasks <- item:
	default:
		q.fail(t, ErrQueueFull)
	}
}

// Pending returns the number of queued tasks.
func (q *Queue) Pending() int {
	return len(q.tasks)
}

// Run processes tasks until ctx is cancelled, then drains what is left.
func (q *Queue) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for q.RunOnce() {
			}
			return
		case item := <-q.tasks:
			q.process(item)
		}
	}
}

// RunOnce processes a single pending task.
// Returns true if a task was processed (regardless of success/failure).
func (q *Queue) RunOnce() bool {
	select {
	case item := <-q.tasks:
		q.process(item)
		return true
	default:
		return false
	}
}

func (q *Queue) process(item queued) {
	ctx, cancel := context.WithTimeout(item.ctx, q.timeout)
	defer cancel()

	if err := item.task.Run(ctx); err != nil {
		q.fail(item.task, err)
		return
	}
	tasksTotal.WithLabelValues(item.task.Entity, item.task.Op, "ok").Inc()
	q.logger.Debug("mirrored", "entity", item.task.Entity, "op", item.task.Op, "target_id", item.task.TargetID)
}

func (q *Queue) fail(t Task, err error) {
	tasksTotal.WithLabelValues(t.Entity, t.Op, "failed").Inc()
	q.logger.Warn("remote mirror failed", "entity", t.Entity, "op", t.Op, "target_id", t.TargetID, "error", err)

	f := storage.SyncFailure{
		ID:        uuid.New().String(),
		Entity:    t.Entity,
		Op:        t.Op,
		TargetID:  t.TargetID,
		Error:     err.Error(),
		CreatedAt: time.Now().UTC(),
	}
	if saveErr := q.failures.SaveSyncFailure(f); saveErr != nil {
		q.logger.Error("failed to record sync failure", "error", saveErr)
	}
}
