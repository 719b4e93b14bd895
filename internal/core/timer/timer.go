// Package timer holds the millisecond countdown and interval helpers used by
// the grid state machine and the map manager tick gate.
package timer

// TimeTracker counts down to an expiry. It is passed once the remaining time
// drops to zero or below.
type TimeTracker struct {
	expiry int64
}

func NewTimeTracker(expiry int64) TimeTracker {
	return TimeTracker{expiry: expiry}
}

func (t *TimeTracker) Update(diff int64)    { t.expiry -= diff }
func (t *TimeTracker) Passed() bool         { return t.expiry <= 0 }
func (t *TimeTracker) Reset(interval int64) { t.expiry = interval }
func (t *TimeTracker) Expiry() int64        { return t.expiry }

// IntervalTimer accumulates elapsed time until an interval has passed.
// Current may exceed the interval; callers decide whether to subtract the
// interval (Reset) or restart from zero (SetCurrent).
type IntervalTimer struct {
	interval int64
	current  int64
}

func (t *IntervalTimer) Update(diff int64) {
	t.current += diff
	if t.current < 0 {
		t.current = 0
	}
}

func (t *IntervalTimer) Passed() bool { return t.current >= t.interval }

// Reset subtracts one interval if it has passed.
func (t *IntervalTimer) Reset() {
	if t.current >= t.interval {
		t.current -= t.interval
	}
}

func (t *IntervalTimer) SetCurrent(current int64)   { t.current = current }
func (t *IntervalTimer) SetInterval(interval int64) { t.interval = interval }
func (t *IntervalTimer) Interval() int64            { return t.interval }
func (t *IntervalTimer) Current() int64             { return t.current }
