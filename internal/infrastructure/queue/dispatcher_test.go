package queue

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type recordingNotifier struct {
	mu    sync.Mutex
	calls []notification
	done  chan struct{}
	want  int
}

func (r *recordingNotifier) Notify(_ context.Context, userID int64, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, notification{userID: userID, message: message})
	if len(r.calls) == r.want {
		close(r.done)
	}
}

func TestDispatcher_DeliversInOrderPerUser(t *testing.T) {
	rec := &recordingNotifier{done: make(chan struct{}), want: 3}
	d := NewDispatcher(2, rec, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	d.Notify(context.Background(), 5, "first")
	d.Notify(context.Background(), 5, "second")
	d.Notify(context.Background(), 5, "third")

	select {
	case <-rec.done:
	case <-time.After(2 * time.Second):
		t.Fatal("notifications were not delivered")
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	for i, want := range []string{"first", "second", "third"} {
		if rec.calls[i].message != want {
			t.Fatalf("position %d: expected %q, got %q", i, want, rec.calls[i].message)
		}
	}
}

func TestDispatcher_NotifyDoesNotBlockWhenFull(t *testing.T) {
	rec := &recordingNotifier{done: make(chan struct{}), want: -1}
	d := NewDispatcher(1, rec, zerolog.Nop())

	finished := make(chan struct{})
	go func() {
		for i := 0; i < channelBuffer+10; i++ {
			d.Notify(context.Background(), 1, "msg")
		}
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked on a full queue")
	}
	if got := len(d.workers[0]); got != channelBuffer {
		t.Fatalf("expected queue to hold %d, got %d", channelBuffer, got)
	}
}

func TestDispatcher_StopsOnCancel(t *testing.T) {
	d := NewDispatcher(3, &recordingNotifier{done: make(chan struct{})}, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	cancel()

	stopped := make(chan struct{})
	go func() {
		d.Wait()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("workers did not stop after cancel")
	}
}

func TestDispatcher_ShardIndexStable(t *testing.T) {
	d := NewDispatcher(4, &recordingNotifier{done: make(chan struct{})}, zerolog.Nop())
	for _, id := range []int64{0, 1, 7, 1 << 40, -3} {
		a, b := d.shardIndex(id), d.shardIndex(id)
		if a != b || a < 0 || a >= 4 {
			t.Fatalf("shard for %d unstable or out of range: %d, %d", id, a, b)
		}
	}
}

func TestDispatcher_NotifyAfterCancelIsDroppedAndLogged(t *testing.T) {
	var buf bytes.Buffer
	rec := &recordingNotifier{done: make(chan struct{}), want: -1}
	d := NewDispatcher(1, rec, zerolog.New(&buf))

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	cancel()
	d.Wait()

	d.Notify(context.Background(), 1, "late")

	if got := len(d.workers[0]); got != 0 {
		t.Fatalf("expected nothing queued after cancel, got %d", got)
	}
	if !strings.Contains(buf.String(), "dropping") {
		t.Fatalf("expected a drop warning, got %q", buf.String())
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.calls) != 0 {
		t.Fatalf("expected no delivery, got %d", len(rec.calls))
	}
}

func TestDispatcher_StopDeliversQueued(t *testing.T) {
	rec := &recordingNotifier{done: make(chan struct{}), want: 3}
	d := NewDispatcher(2, rec, zerolog.Nop())

	// Queued before any worker runs, so Stop has a backlog to drain.
	d.Notify(context.Background(), 5, "first")
	d.Notify(context.Background(), 5, "second")
	d.Notify(context.Background(), 5, "third")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	if err := d.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.calls) != 3 {
		t.Fatalf("expected 3 deliveries, got %d", len(rec.calls))
	}
	for i, want := range []string{"first", "second", "third"} {
		if rec.calls[i].message != want {
			t.Fatalf("position %d: expected %q, got %q", i, want, rec.calls[i].message)
		}
	}
}

func TestDispatcher_NotifyAfterStopIsDropped(t *testing.T) {
	var buf bytes.Buffer
	d := NewDispatcher(1, &recordingNotifier{done: make(chan struct{}), want: -1}, zerolog.New(&buf))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	if err := d.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	d.Notify(context.Background(), 1, "late")
	if got := len(d.workers[0]); got != 0 {
		t.Fatalf("expected nothing queued after Stop, got %d", got)
	}
	if !strings.Contains(buf.String(), "dispatcher stopped") {
		t.Fatalf("expected a drop warning, got %q", buf.String())
	}
}
