package fakes

import (
	"sync"

	"github.com/meridianchain/statesync/types"
)

// RuntimeAdapter is an in-memory stand-in for state part validation.
// By default every part validates; tests arrange failures by adding
// entries to Invalid.
type RuntimeAdapter struct {
	mu      sync.Mutex
	Invalid map[types.PartId]bool
}

// NewRuntimeAdapter constructs a fake that accepts every part.
func NewRuntimeAdapter() *RuntimeAdapter {
	return &RuntimeAdapter{Invalid: make(map[types.PartId]bool)}
}

// RejectPart marks a part as failing validation from now on.
func (r *RuntimeAdapter) RejectPart(part types.PartId) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Invalid[part] = true
}

func (r *RuntimeAdapter) ValidateStatePart(root types.StateRoot, part types.PartId, data []byte) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.Invalid[part]
}
