package grid

// Kind is the closed set of entity kinds the cell containers hold.
type Kind uint8

const (
	KindPlayer Kind = iota
	KindCreature
	KindGameObject
	KindDynamicObject
	KindCorpse
	KindCamera
	kindCount
)

var kindNames = [kindCount]string{"player", "creature", "gameobject", "dynamicobject", "corpse", "camera"}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return "unknown"
}

// KindSet is a bitmask of kinds.
type KindSet uint8

// AllKinds matches every kind.
const AllKinds KindSet = 1<<kindCount - 1

func KindsOf(kinds ...Kind) KindSet {
	var s KindSet
	for _, k := range kinds {
		s |= 1 << k
	}
	return s
}

func (s KindSet) Has(k Kind) bool { return s&(1<<k) != 0 }

// Category selects one of the two containers of a cell. Grid objects are
// creatures, game objects, dynamic objects and bones; world objects are
// players, pets, resurrectable corpses and cameras.
type Category uint8

const (
	GridObjects Category = iota
	WorldObjects
)

func (c Category) String() string {
	if c == WorldObjects {
		return "world"
	}
	return "grid"
}

// Entity is anything a cell can hold. The container never owns the entity;
// it only keeps the reference slot returned by GridRef up to date.
type Entity interface {
	Kind() Kind
	IsActiveObject() bool
	GridRef() *Ref
}

// Ref is an entity's back-reference into the container that holds it.
// The zero value is unlinked.
type Ref struct {
	grid      *NGrid
	container *TypeContainer
	index     int
	active    bool
}

func (r *Ref) Linked() bool { return r.container != nil }
func (r *Ref) Grid() *NGrid { return r.grid }

// Visitor receives every entity of a visited container.
type Visitor interface {
	Visit(e Entity)
}

// VisitorFunc adapts a function to Visitor.
type VisitorFunc func(Entity)

func (f VisitorFunc) Visit(e Entity) { f(e) }

// KindFilter is implemented by visitors that only care about some kinds.
// Lists of other kinds are skipped without touching their entities.
type KindFilter interface {
	Kinds() KindSet
}

type kindVisitor struct {
	kinds KindSet
	fn    func(Entity)
}

func (v kindVisitor) Visit(e Entity) { v.fn(e) }
func (v kindVisitor) Kinds() KindSet { return v.kinds }

// VisitKinds returns a visitor that only sees the given kinds.
func VisitKinds(kinds KindSet, fn func(Entity)) Visitor {
	return kindVisitor{kinds: kinds, fn: fn}
}

// TypeContainer keeps one slice per kind. Removal swaps the last element
// into the hole, so order is not stable.
type TypeContainer struct {
	lists [kindCount][]Entity
}

func (c *TypeContainer) insert(e Entity) {
	k := e.Kind()
	ref := e.GridRef()
	ref.container = c
	ref.index = len(c.lists[k])
	c.lists[k] = append(c.lists[k], e)
}

func (c *TypeContainer) remove(e Entity) bool {
	ref := e.GridRef()
	if ref.container != c {
		return false
	}
	k := e.Kind()
	list := c.lists[k]
	last := len(list) - 1
	if ref.index != last {
		moved := list[last]
		list[ref.index] = moved
		moved.GridRef().index = ref.index
	}
	list[last] = nil
	c.lists[k] = list[:last]
	ref.container = nil
	ref.index = 0
	return true
}

// Count returns the number of entities of kind k.
func (c *TypeContainer) Count(k Kind) int { return len(c.lists[k]) }

// Len returns the number of entities of every kind.
func (c *TypeContainer) Len() int {
	n := 0
	for k := range c.lists {
		n += len(c.lists[k])
	}
	return n
}

// Visit walks each kind list from the back so the visitor may remove the
// entity it is currently visiting.
func (c *TypeContainer) Visit(v Visitor) {
	kinds := AllKinds
	if f, ok := v.(KindFilter); ok {
		kinds = f.Kinds()
	}
	for k := Kind(0); k < kindCount; k++ {
		if !kinds.Has(k) {
			continue
		}
		for i := len(c.lists[k]) - 1; i >= 0; i-- {
			if i >= len(c.lists[k]) {
				continue
			}
			v.Visit(c.lists[k][i])
		}
	}
}

// GridCell is one cell of a grid with its two containers.
type GridCell struct {
	grid  TypeContainer
	world TypeContainer
}

func (c *GridCell) Container(cat Category) *TypeContainer {
	if cat == WorldObjects {
		return &c.world
	}
	return &c.grid
}

func (c *GridCell) Len() int { return c.grid.Len() + c.world.Len() }
