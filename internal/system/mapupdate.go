package system

import (
	"time"

	coresys "github.com/l1jgo/mapcore/internal/core/system"
	"github.com/l1jgo/mapcore/internal/mapmgr"
)

// MapUpdateSystem runs the map manager round. Phase 1 (Update).
type MapUpdateSystem struct {
	maps *mapmgr.Manager
}

func NewMapUpdateSystem(mgr *mapmgr.Manager) *MapUpdateSystem {
	return &MapUpdateSystem{maps: mgr}
}

func (s *MapUpdateSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *MapUpdateSystem) Update(dt time.Duration) {
	s.maps.Update(dt.Milliseconds())
}
