package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeAPI struct {
	said      []string
	locks     map[[2]uint32]bool
	forced    [][2]float32
	removed   []uint64
	scheduled []string
}

func (f *fakeAPI) MapID() uint32      { return 33 }
func (f *fakeAPI) InstanceID() uint32 { return 4 }
func (f *fakeAPI) PlayerCount() int   { return 2 }

func (f *fakeAPI) SetUnloadLock(gx, gy uint32, on bool) bool {
	if f.locks == nil {
		f.locks = map[[2]uint32]bool{}
	}
	f.locks[[2]uint32{gx, gy}] = on
	return true
}

func (f *fakeAPI) ForceLoad(x, y float32) bool {
	f.forced = append(f.forced, [2]float32{x, y})
	return true
}

func (f *fakeAPI) RemoveObject(guid uint64) bool {
	f.removed = append(f.removed, guid)
	return true
}

func (f *fakeAPI) Say(text string) { f.said = append(f.said, text) }

func (f *fakeAPI) Schedule(fn string, delay int64, source, target uint64) {
	f.scheduled = append(f.scheduled, fn)
}

func TestVMCallsMapAPI(t *testing.T) {
	lib := &Library{}
	require.NoError(t, lib.AddSource("test.lua", `
function on_grid_loaded(gx, gy)
  set_unload_lock(gx, gy, true)
  say("map " .. map_id() .. "/" .. instance_id() .. " players " .. player_count())
end

function despawn(source, target)
  remove_object(target)
  force_load(-10.5, 20)
  schedule("despawn", 1000, source, target)
end
`))
	api := &fakeAPI{}
	vm, err := NewVM(lib, api, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer vm.Close()

	require.NoError(t, vm.CallHook(HookGridLoaded, uint32(31), uint32(32)))
	assert.True(t, api.locks[[2]uint32{31, 32}])
	assert.Equal(t, []string{"map 33/4 players 2"}, api.said)

	require.NoError(t, vm.Call("despawn", uint64(1), uint64(0xF13000000007)))
	assert.Equal(t, []uint64{0xF13000000007}, api.removed)
	assert.Equal(t, [][2]float32{{-10.5, 20}}, api.forced)
	assert.Equal(t, []string{"despawn"}, api.scheduled)
}

func TestVMMissingHookIsNotAnError(t *testing.T) {
	vm, err := NewVM(&Library{}, &fakeAPI{}, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer vm.Close()

	assert.NoError(t, vm.CallHook(HookMapUnloaded))
	assert.ErrorContains(t, vm.Call("nope"), "not found")
}

func TestVMScriptErrorIsReturned(t *testing.T) {
	lib := &Library{}
	require.NoError(t, lib.AddSource("bad.lua", `function boom() error("bad things") end`))
	vm, err := NewVM(lib, &fakeAPI{}, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer vm.Close()

	assert.ErrorContains(t, vm.Call("boom"), "bad things")
}

func TestLoadLibraryFromDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "map"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.lua"), []byte("x = 1"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "map", "b.lua"), []byte("y = x + 1"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	lib, err := LoadLibrary(dir, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 2, lib.Len())

	empty, err := LoadLibrary(filepath.Join(dir, "missing"), zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Zero(t, empty.Len())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.lua"), []byte("function ("), 0o644))
	_, err = LoadLibrary(dir, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "parse")
}
