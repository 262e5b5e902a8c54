package scene

import "errors"

var (
	ErrNodeNotFound       = errors.New("node not found")
	ErrDuplicateKey       = errors.New("duplicate node key")
	ErrUnknownKind        = errors.New("unknown node kind")
	ErrCycle              = errors.New("reparent would create a cycle")
	ErrNotBrick           = errors.New("node is not a brick")
	ErrPrefabRootNotFound = errors.New("prefab instance root not found")
)
