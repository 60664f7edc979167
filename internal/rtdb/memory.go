package rtdb

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
)

// MemoryClient is an in-memory Client used by tests and local development.
// It mirrors the Redis implementation's leaf/prefix semantics.
type MemoryClient struct {
	mu     sync.RWMutex
	leaves map[string]json.RawMessage
	writes int
}

// NewMemoryClient creates an empty in-memory store
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{leaves: make(map[string]json.RawMessage)}
}

// Get reads a leaf value, or assembles children when path is a parent
func (c *MemoryClient) Get(ctx context.Context, path string) (Snapshot, error) {
	path = normalizePath(path)

	c.mu.RLock()
	defer c.mu.RUnlock()

	if raw, ok := c.leaves[path]; ok {
		return NewSnapshot(raw), nil
	}

	children := make(map[string]json.RawMessage)
	for k, v := range c.leaves {
		if strings.HasPrefix(k, path+"/") {
			children[strings.TrimPrefix(k, path+"/")] = v
		}
	}
	if len(children) == 0 {
		return Snapshot{}, nil
	}

	raw, err := assemble(children)
	if err != nil {
		return Snapshot{}, err
	}
	return NewSnapshot(raw), nil
}

// Set writes a leaf value
func (c *MemoryClient) Set(ctx context.Context, path string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.leaves[normalizePath(path)] = data
	c.writes++
	return nil
}

// Update merges fields into the leaf object at path
func (c *MemoryClient) Update(ctx context.Context, path string, fields map[string]any) error {
	path = normalizePath(path)

	c.mu.Lock()
	defer c.mu.Unlock()

	merged, err := mergeLeaf(c.leaves[path], fields)
	if err != nil {
		return err
	}
	c.leaves[path] = merged
	c.writes++
	return nil
}

// Delete removes the leaf at path and all of its children
func (c *MemoryClient) Delete(ctx context.Context, path string) error {
	path = normalizePath(path)

	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.leaves, path)
	for k := range c.leaves {
		if strings.HasPrefix(k, path+"/") {
			delete(c.leaves, k)
		}
	}
	c.writes++
	return nil
}

// Ping always succeeds
func (c *MemoryClient) Ping(ctx context.Context) error {
	return nil
}

// WriteCount returns how many mutations have been applied. Tests use it to
// prove that dry runs perform no writes.
func (c *MemoryClient) WriteCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.writes
}

// Dump returns a copy of all leaves, for test assertions
func (c *MemoryClient) Dump() map[string]json.RawMessage {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]json.RawMessage, len(c.leaves))
	for k, v := range c.leaves {
		out[k] = v
	}
	return out
}
