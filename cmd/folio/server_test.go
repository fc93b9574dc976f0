package main

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/kalambet/folio/internal/mirror"
	"github.com/kalambet/folio/internal/storage"
)

type memFailures struct {
	mu    sync.Mutex
	saved []storage.SyncFailure
}

func (m *memFailures) SaveSyncFailure(f storage.SyncFailure) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, f)
	return nil
}

// fakeHTTPServer blocks in ListenAndServe until Shutdown, and runs onShutdown
// the way a handler still in flight would.
type fakeHTTPServer struct {
	mu         sync.Mutex
	events     *[]string
	stopped    chan struct{}
	onShutdown func()
}

func (f *fakeHTTPServer) record(e string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	*f.events = append(*f.events, e)
}

func (f *fakeHTTPServer) ListenAndServe() error {
	f.record("listen")
	<-f.stopped
	return http.ErrServerClosed
}

func (f *fakeHTTPServer) Shutdown(context.Context) error {
	if f.onShutdown != nil {
		f.onShutdown()
	}
	f.record("shutdown")
	close(f.stopped)
	return nil
}

func TestRunLifecycle_ReconcilesBeforeListening(t *testing.T) {
	var events []string
	srv := &fakeHTTPServer{events: &events, stopped: make(chan struct{})}
	queue := mirror.NewQueue(&memFailures{}, 4)

	ctx, cancel := context.WithCancel(context.Background())
	reconcile := func(context.Context) {
		srv.record("reconcile")
		time.AfterFunc(20*time.Millisecond, cancel)
	}

	if err := runLifecycle(ctx, reconcile, queue, srv); err != nil {
		t.Fatalf("runLifecycle: %v", err)
	}

	if len(events) < 2 || events[0] != "reconcile" || events[1] != "listen" {
		t.Errorf("events = %v, want reconcile before listen", events)
	}
}

func TestRunLifecycle_DrainsTasksFromInFlightHandlers(t *testing.T) {
	var events []string
	failures := &memFailures{}
	queue := mirror.NewQueue(failures, 4)

	var mu sync.Mutex
	ran := false
	srv := &fakeHTTPServer{events: &events, stopped: make(chan struct{})}
	srv.onShutdown = func() {
		// A handler finishing during shutdown still enqueues its mirror task.
		queue.Enqueue(context.Background(), mirror.Task{
			Entity: "project", Op: "update", TargetID: "p-1",
			Run: func(context.Context) error {
				mu.Lock()
				ran = true
				mu.Unlock()
				return nil
			},
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := runLifecycle(ctx, func(context.Context) {}, queue, srv); err != nil {
		t.Fatalf("runLifecycle: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if !ran {
		t.Error("task enqueued during shutdown was not run")
	}
	if queue.Pending() != 0 {
		t.Errorf("pending = %d, want 0", queue.Pending())
	}
	if len(failures.saved) != 0 {
		t.Errorf("unexpected failures: %+v", failures.saved)
	}
}
