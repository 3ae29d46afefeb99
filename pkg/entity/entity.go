// pkg/entity/entity.go
package entity

import "sync/atomic"

// ID is a unique identifier for an entity
type ID uint64

var lastID atomic.Uint64

// GenerateID returns a process-unique ID. IDs start at 1 and are safe to
// request from several simulations stepping in parallel.
func GenerateID() ID {
	return ID(lastID.Add(1))
}
