package mapmgr

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNotActive = errors.New("map updater not active")
	ErrQueueFull = errors.New("map update queue full")
)

// Updatable is one unit of work per round, in practice a map instance.
type Updatable interface {
	Update(diff int64)
}

type updateRequest struct {
	target Updatable
	diff   int64
}

// Updater runs map updates on a fixed set of worker goroutines. Different
// maps update in parallel; the caller must not schedule the same map again
// before Wait returned.
type Updater struct {
	log *zap.Logger

	mu      sync.Mutex
	done    *sync.Cond // signalled when pending drops to zero
	pending int
	active  bool
	queue   chan updateRequest
	workers *errgroup.Group
}

func NewUpdater(log *zap.Logger) *Updater {
	u := &Updater{log: log}
	u.done = sync.NewCond(&u.mu)
	return u
}

// Activate starts workers goroutines reading from a queue of queueSize
// requests.
func (u *Updater) Activate(workers, queueSize int) error {
	if workers < 1 {
		return fmt.Errorf("map updater: invalid worker count %d", workers)
	}
	queueSize = max(queueSize, workers)

	u.mu.Lock()
	defer u.mu.Unlock()
	if u.active {
		return errors.New("map updater already active")
	}
	u.queue = make(chan updateRequest, queueSize)
	u.workers = new(errgroup.Group)
	for i := 0; i < workers; i++ {
		queue := u.queue
		u.workers.Go(func() error {
			for req := range queue {
				req.target.Update(req.diff)
				u.complete()
			}
			return nil
		})
	}
	u.active = true
	u.log.Info("map updater active", zap.Int("workers", workers), zap.Int("queue_size", queueSize))
	return nil
}

// Activated reports whether workers are running.
func (u *Updater) Activated() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.active
}

// ScheduleUpdate queues one Update(diff) call on target. A rejected
// request is not counted as pending.
func (u *Updater) ScheduleUpdate(target Updatable, diff int64) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.active {
		return ErrNotActive
	}
	u.pending++
	select {
	case u.queue <- updateRequest{target: target, diff: diff}:
		return nil
	default:
		u.decrement()
		return ErrQueueFull
	}
}

// Wait blocks until every scheduled update has completed.
func (u *Updater) Wait() {
	u.mu.Lock()
	for u.pending > 0 {
		u.done.Wait()
	}
	u.mu.Unlock()
}

// Deactivate refuses new requests, lets the queued ones finish and stops
// the workers. It is a no-op on an inactive updater.
func (u *Updater) Deactivate() {
	u.mu.Lock()
	if !u.active {
		u.mu.Unlock()
		return
	}
	u.active = false
	for u.pending > 0 {
		u.done.Wait()
	}
	close(u.queue)
	workers := u.workers
	u.queue = nil
	u.workers = nil
	u.mu.Unlock()

	_ = workers.Wait()
	u.log.Info("map updater stopped")
}

// PendingCount is the number of scheduled updates not yet completed.
func (u *Updater) PendingCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.pending
}

func (u *Updater) complete() {
	u.mu.Lock()
	u.decrement()
	u.mu.Unlock()
}

// decrement must be called with mu held.
func (u *Updater) decrement() {
	if u.pending == 0 {
		u.log.DPanic("map updater completion without a pending update")
		return
	}
	u.pending--
	if u.pending == 0 {
		u.done.Broadcast()
	}
}
