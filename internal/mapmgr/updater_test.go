package mapmgr

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// blockingMap reports when its update starts and then waits for release.
type blockingMap struct {
	started  chan<- *blockingMap
	release  <-chan struct{}
	updates  atomic.Int32
	lastDiff atomic.Int64
}

func (b *blockingMap) Update(diff int64) {
	b.lastDiff.Store(diff)
	if b.started != nil {
		b.started <- b
	}
	if b.release != nil {
		<-b.release
	}
	b.updates.Add(1)
}

func awaitStarts(t *testing.T, started <-chan *blockingMap, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-started:
		case <-time.After(5 * time.Second):
			t.Fatalf("only %d of %d updates started", i, n)
		}
	}
}

func TestScheduleRequiresActivation(t *testing.T) {
	u := NewUpdater(zaptest.NewLogger(t))
	assert.False(t, u.Activated())
	assert.ErrorIs(t, u.ScheduleUpdate(&blockingMap{}, 10), ErrNotActive)
	assert.Zero(t, u.PendingCount())
	assert.Error(t, u.Activate(0, 4))
	u.Wait()
}

func TestMapsUpdateInParallel(t *testing.T) {
	u := NewUpdater(zaptest.NewLogger(t))
	require.NoError(t, u.Activate(4, 16))
	defer u.Deactivate()
	assert.Error(t, u.Activate(4, 16), "already active")

	started := make(chan *blockingMap, 4)
	release := make(chan struct{})
	ms := make([]*blockingMap, 4)
	for i := range ms {
		ms[i] = &blockingMap{started: started, release: release}
		require.NoError(t, u.ScheduleUpdate(ms[i], 100))
	}

	// all four are inside Update at the same time
	awaitStarts(t, started, 4)
	assert.Equal(t, 4, u.PendingCount())

	close(release)
	u.Wait()
	assert.Zero(t, u.PendingCount())
	for _, m := range ms {
		assert.Equal(t, int32(1), m.updates.Load())
		assert.Equal(t, int64(100), m.lastDiff.Load())
	}
}

func TestWaitIsARoundBarrier(t *testing.T) {
	u := NewUpdater(zaptest.NewLogger(t))
	require.NoError(t, u.Activate(2, 8))
	defer u.Deactivate()

	ms := make([]*blockingMap, 6)
	for round := 1; round <= 3; round++ {
		for i := range ms {
			if ms[i] == nil {
				ms[i] = &blockingMap{}
			}
			require.NoError(t, u.ScheduleUpdate(ms[i], int64(round)))
		}
		u.Wait()
		for _, m := range ms {
			assert.Equal(t, int32(round), m.updates.Load())
		}
	}
}

func TestQueueFullRollsBackPending(t *testing.T) {
	u := NewUpdater(zaptest.NewLogger(t))
	require.NoError(t, u.Activate(1, 1))
	defer u.Deactivate()

	started := make(chan *blockingMap, 1)
	release := make(chan struct{})
	busy := &blockingMap{started: started, release: release}
	require.NoError(t, u.ScheduleUpdate(busy, 1))
	awaitStarts(t, started, 1)

	queued := &blockingMap{}
	require.NoError(t, u.ScheduleUpdate(queued, 1))
	rejected := &blockingMap{}
	assert.ErrorIs(t, u.ScheduleUpdate(rejected, 1), ErrQueueFull)
	assert.Equal(t, 2, u.PendingCount())

	close(release)
	u.Wait()
	assert.Equal(t, int32(1), queued.updates.Load())
	assert.Zero(t, rejected.updates.Load())
}

func TestCompletionWithoutPendingIsLoud(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	u := NewUpdater(zap.New(core))

	u.complete()
	assert.Zero(t, u.PendingCount(), "never wraps below zero")
	entries := logs.FilterLevelExact(zap.DPanicLevel)
	require.Equal(t, 1, entries.Len())
	assert.Contains(t, entries.All()[0].Message, "without a pending update")
}

func TestDeactivateDrainsQueue(t *testing.T) {
	u := NewUpdater(zaptest.NewLogger(t))
	require.NoError(t, u.Activate(2, 16))

	ms := make([]*blockingMap, 10)
	for i := range ms {
		ms[i] = &blockingMap{}
		require.NoError(t, u.ScheduleUpdate(ms[i], 5))
	}
	u.Deactivate()

	assert.False(t, u.Activated())
	for _, m := range ms {
		assert.Equal(t, int32(1), m.updates.Load())
	}
	assert.ErrorIs(t, u.ScheduleUpdate(ms[0], 5), ErrNotActive)
	u.Deactivate()

	require.NoError(t, u.Activate(1, 1), "can be restarted")
	u.Deactivate()
}

// reentryMap fails the test if its Update is entered while still running.
type reentryMap struct {
	t        *testing.T
	inFlight atomic.Bool
	updates  atomic.Int32
}

func (r *reentryMap) Update(int64) {
	if !r.inFlight.CompareAndSwap(false, true) {
		r.t.Error("update entered twice concurrently")
		return
	}
	time.Sleep(time.Millisecond)
	r.updates.Add(1)
	r.inFlight.Store(false)
}

func TestRoundsNeverReenterAMap(t *testing.T) {
	for _, workers := range []int{1, 3} {
		u := NewUpdater(zaptest.NewLogger(t))
		require.NoError(t, u.Activate(workers, 8))

		ms := []*reentryMap{{t: t}, {t: t}, {t: t}}
		for round := 0; round < 5; round++ {
			for _, m := range ms {
				require.NoError(t, u.ScheduleUpdate(m, 50))
			}
			u.Wait()
		}
		u.Deactivate()

		for _, m := range ms {
			assert.Equal(t, int32(5), m.updates.Load(), "workers=%d", workers)
		}
	}
}
