package object

import "github.com/l1jgo/mapcore/internal/grid"

// Session is the outbound side of a player's connection.
type Session interface {
	Send(data []byte)
}

type Team uint8

const (
	TeamNone Team = iota
	TeamAlliance
	TeamHorde
)

// Player is a connected character. Players are always active objects: the
// grid they stand in never unloads.
type Player struct {
	WorldObject
	name    string
	session Session
	team    Team

	// objects the client currently has spawned
	known map[GUID]struct{}

	bound          map[uint32]uint32 // map id → instance id
	battleGroundID uint32
}

func NewPlayer(guid GUID, name string, pos Position, session Session) *Player {
	return &Player{
		WorldObject: newWorldObject(guid, grid.KindPlayer, pos),
		name:        name,
		session:     session,
		known:       make(map[GUID]struct{}),
		bound:       make(map[uint32]uint32),
	}
}

func (p *Player) IsActiveObject() bool { return true }

func (p *Player) Name() string        { return p.name }
func (p *Player) Team() Team          { return p.team }
func (p *Player) SetTeam(t Team)      { p.team = t }
func (p *Player) Session() Session    { return p.session }
func (p *Player) SetSession(s Session) { p.session = s }

// SendPacket is a no-op for players without a session (bots, tests).
func (p *Player) SendPacket(data []byte) {
	if p.session != nil {
		p.session.Send(data)
	}
}

func (p *Player) HaveAtClient(g GUID) bool {
	_, ok := p.known[g]
	return ok
}

func (p *Player) AddKnown(g GUID)    { p.known[g] = struct{}{} }
func (p *Player) RemoveKnown(g GUID) { delete(p.known, g) }
func (p *Player) KnownCount() int    { return len(p.known) }

// EachKnown calls fn for every known GUID. fn may call RemoveKnown.
func (p *Player) EachKnown(fn func(GUID)) {
	for g := range p.known {
		fn(g)
	}
}

func (p *Player) ClearKnown() { clear(p.known) }

// BoundInstance returns the instance of mapID the player is saved to.
func (p *Player) BoundInstance(mapID uint32) (uint32, bool) {
	id, ok := p.bound[mapID]
	return id, ok
}

func (p *Player) BindToInstance(mapID, instanceID uint32) { p.bound[mapID] = instanceID }
func (p *Player) UnbindInstance(mapID uint32)             { delete(p.bound, mapID) }

func (p *Player) BattleGroundID() uint32      { return p.battleGroundID }
func (p *Player) SetBattleGroundID(id uint32) { p.battleGroundID = id }
