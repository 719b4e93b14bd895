package event

// Map lifecycle events. Maps record them during their update and the map
// manager emits them once the round is complete.

type GridLoaded struct {
	MapID      uint32
	InstanceID uint32
	GridX      uint32
	GridY      uint32
	Spawned    int
}

type GridUnloaded struct {
	MapID      uint32
	InstanceID uint32
	GridX      uint32
	GridY      uint32
}

type MapCreated struct {
	MapID      uint32
	InstanceID uint32
}

type MapUnloaded struct {
	MapID      uint32
	InstanceID uint32
}

type InstanceDeleted struct {
	MapID      uint32
	InstanceID uint32
}
