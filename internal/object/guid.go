package object

import (
	"errors"
	"fmt"
	"math"
)

// HighGuid is the type part of a GUID.
type HighGuid uint32

const (
	HighPlayer        HighGuid = 0x0000
	HighGameObject    HighGuid = 0xF110
	HighDynamicObject HighGuid = 0xF100
	HighCorpse        HighGuid = 0xF101
	HighUnit          HighGuid = 0xF130
	HighPet           HighGuid = 0xF140
	HighCamera        HighGuid = 0xF150
)

func (h HighGuid) String() string {
	switch h {
	case HighPlayer:
		return "player"
	case HighGameObject:
		return "gameobject"
	case HighDynamicObject:
		return "dynamicobject"
	case HighCorpse:
		return "corpse"
	case HighUnit:
		return "creature"
	case HighPet:
		return "pet"
	case HighCamera:
		return "camera"
	}
	return "unknown"
}

// GUID packs the high type in the upper 32 bits and a per-type counter in
// the lower 32 bits. It stays stable while the object moves between cells.
type GUID uint64

func NewGUID(high HighGuid, low uint32) GUID {
	return GUID(uint64(high)<<32 | uint64(low))
}

func (g GUID) High() HighGuid { return HighGuid(g >> 32) }
func (g GUID) Low() uint32    { return uint32(g) }
func (g GUID) IsEmpty() bool  { return g == 0 }

func (g GUID) String() string {
	return fmt.Sprintf("%s:%d", g.High(), g.Low())
}

// ErrGuidExhausted is returned once a generator has handed out every low id.
var ErrGuidExhausted = errors.New("guid space exhausted")

// GuidGenerator hands out low ids for one high type. Ids are never reused
// while the generator lives.
type GuidGenerator struct {
	high HighGuid
	next uint32
}

func NewGuidGenerator(high HighGuid) *GuidGenerator {
	return &GuidGenerator{high: high, next: 1}
}

func (g *GuidGenerator) Generate() (GUID, error) {
	if g.next == math.MaxUint32 {
		return 0, fmt.Errorf("%s: %w", g.high, ErrGuidExhausted)
	}
	low := g.next
	g.next++
	return NewGUID(g.high, low), nil
}

// Set moves the counter past start so ids loaded from storage are not
// handed out again.
func (g *GuidGenerator) Set(start uint32) {
	if start >= g.next {
		g.next = min(start, math.MaxUint32-1) + 1
	}
}
