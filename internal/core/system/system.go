package system

import "time"

// Phase orders systems within one server tick.
type Phase int

const (
	PhasePreUpdate Phase = iota // 0: deliver last tick's events
	PhaseUpdate                 // 1: map manager round
	PhasePersist                // 2: respawn write flush
	PhaseCleanup                // 3: shutdown and housekeeping

	phaseCount
)

func (p Phase) String() string {
	switch p {
	case PhasePreUpdate:
		return "pre-update"
	case PhaseUpdate:
		return "update"
	case PhasePersist:
		return "persist"
	case PhaseCleanup:
		return "cleanup"
	}
	return "unknown"
}

// System is one step of the server tick.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
