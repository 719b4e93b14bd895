package system

import (
	"cmp"
	"slices"
	"time"
)

// Runner executes systems in phase order each tick. Systems of the same
// phase run in registration order.
type Runner struct {
	systems []System
	sorted  bool
	spent   [phaseCount]time.Duration
}

func NewRunner() *Runner {
	return &Runner{
		systems: make([]System, 0, 8),
	}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

// Tick runs every system once and returns the wall time the tick took.
func (r *Runner) Tick(dt time.Duration) time.Duration {
	r.ensureSorted()
	clear(r.spent[:])
	start := time.Now()
	for _, s := range r.systems {
		began := time.Now()
		s.Update(dt)
		if p := s.Phase(); p >= 0 && p < phaseCount {
			r.spent[p] += time.Since(began)
		}
	}
	return time.Since(start)
}

// Spent is the wall time the systems of phase p took in the last tick.
func (r *Runner) Spent(p Phase) time.Duration {
	if p < 0 || p >= phaseCount {
		return 0
	}
	return r.spent[p]
}

func (r *Runner) Len() int { return len(r.systems) }

func (r *Runner) ensureSorted() {
	if !r.sorted {
		slices.SortStableFunc(r.systems, func(a, b System) int {
			return cmp.Compare(a.Phase(), b.Phase())
		})
		r.sorted = true
	}
}
