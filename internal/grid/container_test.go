package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEntity struct {
	kind   Kind
	active bool
	ref    Ref
}

func (e *testEntity) Kind() Kind           { return e.kind }
func (e *testEntity) IsActiveObject() bool { return e.active }
func (e *testEntity) GridRef() *Ref        { return &e.ref }

func TestGridAddRemove(t *testing.T) {
	g := NewNGrid(1, 32, 32, 1000, true)
	player := &testEntity{kind: KindPlayer, active: true}
	mob := &testEntity{kind: KindCreature}

	require.True(t, g.AddObject(3, 4, WorldObjects, player))
	require.True(t, g.AddObject(3, 4, GridObjects, mob))
	assert.False(t, g.AddObject(5, 5, GridObjects, mob), "already linked")

	assert.Equal(t, 1, g.ActiveObjectsInGrid())
	assert.Equal(t, 1, g.Count(WorldObjects))
	assert.Equal(t, 1, g.Count(GridObjects))
	assert.Equal(t, 2, g.Cell(3, 4).Len())
	assert.Same(t, g, player.ref.Grid())

	other := NewNGrid(2, 33, 32, 1000, true)
	assert.False(t, other.RemoveObject(player), "not linked into this grid")

	require.True(t, g.RemoveObject(player))
	assert.Equal(t, 0, g.ActiveObjectsInGrid())
	assert.False(t, player.ref.Linked())
	assert.False(t, g.RemoveObject(player))
}

func TestContainerSwapRemoveKeepsIndexes(t *testing.T) {
	g := NewNGrid(1, 0, 0, 1000, true)
	mobs := make([]*testEntity, 5)
	for i := range mobs {
		mobs[i] = &testEntity{kind: KindCreature}
		require.True(t, g.AddObject(0, 0, GridObjects, mobs[i]))
	}

	require.True(t, g.RemoveObject(mobs[1]))
	require.True(t, g.RemoveObject(mobs[3]))

	for _, i := range []int{0, 2, 4} {
		require.True(t, g.RemoveObject(mobs[i]), "mob %d", i)
	}
	assert.Equal(t, 0, g.Count(GridObjects))
}

func TestVisitSeesEveryOccupantOnce(t *testing.T) {
	g := NewNGrid(1, 0, 0, 1000, true)
	want := map[*testEntity]int{}
	for _, k := range []Kind{KindCreature, KindCreature, KindGameObject, KindDynamicObject, KindCorpse} {
		e := &testEntity{kind: k}
		want[e] = 0
		require.True(t, g.AddObject(7, 9, GridObjects, e))
	}

	got := map[*testEntity]int{}
	g.VisitCell(7, 9, GridObjects, VisitorFunc(func(e Entity) {
		got[e.(*testEntity)]++
	}))
	require.Len(t, got, len(want))
	for e, n := range got {
		assert.Equal(t, 1, n, "visited %s once", e.kind)
	}
}

func TestVisitorMayRemoveCurrentEntity(t *testing.T) {
	g := NewNGrid(1, 0, 0, 1000, true)
	for i := 0; i < 4; i++ {
		require.True(t, g.AddObject(0, 0, GridObjects, &testEntity{kind: KindCreature}))
	}

	visits := 0
	g.VisitAll(GridObjects, VisitorFunc(func(e Entity) {
		visits++
		g.RemoveObject(e)
	}))
	assert.Equal(t, 4, visits)
	assert.Equal(t, 0, g.Count(GridObjects))
}

func TestVisitKindsFilters(t *testing.T) {
	g := NewNGrid(1, 0, 0, 1000, true)
	require.True(t, g.AddObject(1, 1, WorldObjects, &testEntity{kind: KindPlayer, active: true}))
	require.True(t, g.AddObject(1, 1, WorldObjects, &testEntity{kind: KindCamera}))
	require.True(t, g.AddObject(2, 2, WorldObjects, &testEntity{kind: KindPlayer, active: true}))

	players := 0
	g.VisitAll(WorldObjects, VisitKinds(KindsOf(KindPlayer), func(e Entity) {
		assert.Equal(t, KindPlayer, e.Kind())
		players++
	}))
	assert.Equal(t, 2, players)
	assert.True(t, AllKinds.Has(KindCamera))
	assert.False(t, KindsOf(KindPlayer, KindCorpse).Has(KindCreature))
}

func TestGridInfoLocks(t *testing.T) {
	info := NewGridInfo(500, true)
	assert.False(t, info.UnloadLocked())

	info.IncUnloadActiveLock()
	assert.True(t, info.UnloadLocked())
	info.DecUnloadActiveLock()
	info.DecUnloadActiveLock()
	assert.Equal(t, uint16(0), info.UnloadActiveLocks(), "counter never wraps")
	assert.False(t, info.UnloadLocked())

	info.SetUnloadExplicitLock(true)
	assert.True(t, info.UnloadLocked())

	pinned := NewGridInfo(500, false)
	assert.True(t, pinned.UnloadLocked(), "grid unloading disabled pins every grid")

	info.UpdateTimeTracker(500)
	assert.True(t, info.TimeTracker().Passed())
	info.ResetTimeTracker(50)
	assert.Equal(t, int64(50), info.TimeTracker().Expiry())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "removal", StateRemoval.String())
	assert.Equal(t, "unknown", State(42).String())
	assert.Equal(t, "camera", KindCamera.String())
}
