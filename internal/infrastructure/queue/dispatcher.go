package queue

import (
	"context"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/99minutos/taskhub/internal/core/ports"
	"github.com/99minutos/taskhub/internal/infrastructure/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

type notification struct {
	userID  int64
	message string
}

// Dispatcher moves notifications off the request path. Notifications are
// sharded by user id onto a fixed set of workers, so messages for the same
// user are delivered in order.
//
// Once stopped, either through Stop or by cancelling the Start context, the
// dispatcher refuses new notifications and logs each one it drops.
type Dispatcher struct {
	workers []chan notification
	next    ports.Notifier
	log     zerolog.Logger
	wg      sync.WaitGroup

	mu       sync.RWMutex
	stopped  bool
	stopCtx  context.Context
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers that
// deliver through next. If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, next ports.Notifier, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan notification, numWorkers),
		next:    next,
		log:     log,
		stopCh:  make(chan struct{}),
	}
	for i := range d.workers {
		d.workers[i] = make(chan notification, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Cancelling ctx stops the workers
// immediately and drops whatever is still queued.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Stop refuses new notifications and lets the workers deliver what is already
// queued. Delivery uses ctx; once it expires the rest is dropped and Stop
// returns ctx.Err().
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	d.stopped = true
	if d.stopCtx == nil {
		d.stopCtx = ctx
	}
	d.mu.Unlock()
	d.stopOnce.Do(func() { close(d.stopCh) })

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Notify implements ports.Notifier. It never blocks: when the worker queue is
// full or the dispatcher is stopped the notification is dropped and logged.
// The request context is not carried over because delivery outlives the
// request.
func (d *Dispatcher) Notify(_ context.Context, userID int64, message string) {
	idx := d.shardIndex(userID)

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		d.dropped(idx, userID, "dispatcher stopped, dropping notification")
		return
	}
	select {
	case d.workers[idx] <- notification{userID: userID, message: message}:
		metrics.NotificationQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
	default:
		d.dropped(idx, userID, "notification queue full, dropping")
	}
}

// shardIndex maps a user id deterministically to a worker index.
func (d *Dispatcher) shardIndex(userID int64) int {
	n := int64(len(d.workers))
	return int(((userID % n) + n) % n)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan notification) {
	defer d.wg.Done()
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			d.markStopped()
			d.drain(ctx, id, ch)
			return
		case <-d.stopCh:
			d.drain(d.stopContext(), id, ch)
			return
		case n := <-ch:
			metrics.NotificationQueueDepth.WithLabelValues(label).Dec()
			d.next.Notify(ctx, n.userID, n.message)
		}
	}
}

// drain empties ch, delivering through ctx while it is live and dropping the
// rest.
func (d *Dispatcher) drain(ctx context.Context, id int, ch <-chan notification) {
	label := strconv.Itoa(id)
	for {
		select {
		case n := <-ch:
			metrics.NotificationQueueDepth.WithLabelValues(label).Dec()
			if ctx.Err() != nil {
				d.dropped(id, n.userID, "shutdown deadline passed, dropping notification")
				continue
			}
			d.next.Notify(ctx, n.userID, n.message)
		default:
			return
		}
	}
}

func (d *Dispatcher) markStopped() {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
}

func (d *Dispatcher) stopContext() context.Context {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.stopCtx
}

func (d *Dispatcher) dropped(idx int, userID int64, msg string) {
	metrics.NotificationsTotal.WithLabelValues("dropped").Inc()
	d.log.Warn().Int64("user_id", userID).Int("worker_id", idx).Msg(msg)
}
