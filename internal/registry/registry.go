// Package registry holds the operations the gate can execute. It is
// populated by the built-in catalog and by external loaders; the gate
// depends only on the operation contract, never on how an operation was
// discovered.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mxtweaks/tweakctl/internal/model"
)

// Registry maps operation IDs to registered operations.
type Registry struct {
	mu  sync.RWMutex
	ops map[string]model.Operation
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{ops: make(map[string]model.Operation)}
}

// Register adds an operation. Re-registering an ID is an error; operations
// are immutable once registered.
func (r *Registry) Register(op model.Operation) error {
	if op.ID == "" {
		return fmt.Errorf("operation ID must not be empty")
	}
	if op.Category == "" {
		return fmt.Errorf("operation %s has no category", op.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.ops[op.ID]; exists {
		return fmt.Errorf("operation %s already registered", op.ID)
	}
	r.ops[op.ID] = op
	return nil
}

// Lookup returns the operation for the given ID.
func (r *Registry) Lookup(id string) (model.Operation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.ops[id]
	return op, ok
}

// List returns all registered operations sorted by ID.
func (r *Registry) List() []model.Operation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Operation, 0, len(r.ops))
	for _, op := range r.ops {
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Categories returns the distinct categories in use, sorted.
func (r *Registry) Categories() []model.Category {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[model.Category]bool)
	for _, op := range r.ops {
		seen[op.Category] = true
	}
	out := make([]model.Category, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
