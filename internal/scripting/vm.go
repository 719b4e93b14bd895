package scripting

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// API is what a map exposes to its scripts.
type API interface {
	MapID() uint32
	InstanceID() uint32
	PlayerCount() int
	SetUnloadLock(gx, gy uint32, on bool) bool
	ForceLoad(x, y float32) bool
	RemoveObject(guid uint64) bool
	Say(text string)
	Schedule(fn string, delay int64, source, target uint64)
}

// Hook names called by the map core.
const (
	HookGridLoaded   = "on_grid_loaded"
	HookGridUnloaded = "on_grid_unloaded"
	HookMapCreated   = "on_map_created"
	HookMapUnloaded  = "on_map_unloaded"
)

// VM is one Lua state bound to one map. Single-goroutine access only.
type VM struct {
	vm  *lua.LState
	api API
	log *zap.Logger
}

// NewVM creates a state, registers the map API and runs every chunk of lib.
func NewVM(lib *Library, api API, log *zap.Logger) (*VM, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: false})
	L.SetGlobal("API_VERSION", lua.LNumber(1))

	v := &VM{vm: L, api: api, log: log}
	v.register()

	for i, proto := range lib.protos {
		L.Push(L.NewFunctionFromProto(proto))
		if err := L.PCall(0, lua.MultRet, nil); err != nil {
			L.Close()
			return nil, fmt.Errorf("run %s: %w", lib.names[i], err)
		}
	}
	return v, nil
}

func (v *VM) register() {
	L := v.vm
	L.SetGlobal("map_id", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(v.api.MapID()))
		return 1
	}))
	L.SetGlobal("instance_id", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(v.api.InstanceID()))
		return 1
	}))
	L.SetGlobal("player_count", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(v.api.PlayerCount()))
		return 1
	}))
	L.SetGlobal("set_unload_lock", L.NewFunction(func(L *lua.LState) int {
		ok := v.api.SetUnloadLock(uint32(L.CheckInt(1)), uint32(L.CheckInt(2)), L.CheckBool(3))
		L.Push(lua.LBool(ok))
		return 1
	}))
	L.SetGlobal("force_load", L.NewFunction(func(L *lua.LState) int {
		ok := v.api.ForceLoad(float32(L.CheckNumber(1)), float32(L.CheckNumber(2)))
		L.Push(lua.LBool(ok))
		return 1
	}))
	L.SetGlobal("remove_object", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LBool(v.api.RemoveObject(uint64(L.CheckNumber(1)))))
		return 1
	}))
	L.SetGlobal("say", L.NewFunction(func(L *lua.LState) int {
		v.api.Say(L.CheckString(1))
		return 0
	}))
	L.SetGlobal("schedule", L.NewFunction(func(L *lua.LState) int {
		v.api.Schedule(L.CheckString(1), L.CheckInt64(2),
			uint64(L.OptNumber(3, 0)), uint64(L.OptNumber(4, 0)))
		return 0
	}))
}

// HasFunction reports whether a global function named name exists.
func (v *VM) HasFunction(name string) bool {
	_, ok := v.vm.GetGlobal(name).(*lua.LFunction)
	return ok
}

// CallHook calls an optional hook. A missing hook is not an error.
func (v *VM) CallHook(name string, args ...any) error {
	if !v.HasFunction(name) {
		return nil
	}
	v.log.Debug("lua hook", zap.String("hook", name))
	return v.Call(name, args...)
}

// Call calls a global function, converting uint32, uint64, int, int64,
// float32, bool and string arguments.
func (v *VM) Call(name string, args ...any) error {
	fn, ok := v.vm.GetGlobal(name).(*lua.LFunction)
	if !ok {
		return fmt.Errorf("lua function %s not found", name)
	}
	largs := make([]lua.LValue, 0, len(args))
	for _, a := range args {
		largs = append(largs, toLValue(a))
	}
	if err := v.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, largs...); err != nil {
		return fmt.Errorf("lua %s: %w", name, err)
	}
	return nil
}

func toLValue(a any) lua.LValue {
	switch x := a.(type) {
	case uint32:
		return lua.LNumber(x)
	case uint64:
		return lua.LNumber(x)
	case int:
		return lua.LNumber(x)
	case int64:
		return lua.LNumber(x)
	case float32:
		return lua.LNumber(x)
	case bool:
		return lua.LBool(x)
	case string:
		return lua.LString(x)
	case nil:
		return lua.LNil
	}
	return lua.LString(fmt.Sprint(a))
}

// Close releases the Lua state.
func (v *VM) Close() {
	v.vm.Close()
}
