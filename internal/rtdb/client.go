// Package rtdb is the client for the external hierarchical real-time store
// that holds chat rooms and notification fan-out. Records are addressed by
// slash-separated paths (chats/{roomID}/messages/{messageID}) and stored as
// JSON. The store has no transactions; callers that need idempotence must
// check-then-write and tolerate replays.
package rtdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Client is the path-addressable store interface. Two implementations
// exist: a Redis-backed one for production and an in-memory one for tests.
type Client interface {
	// Get reads the value at path. Reading a parent path assembles its
	// children into a nested object. A missing path yields a snapshot
	// whose Exists() is false, not an error.
	Get(ctx context.Context, path string) (Snapshot, error)
	// Set writes value at path, replacing whatever was there.
	Set(ctx context.Context, path string, value any) error
	// Update merges fields into the object stored at path. Missing
	// objects are created.
	Update(ctx context.Context, path string, fields map[string]any) error
	// Delete removes the value at path and everything below it.
	Delete(ctx context.Context, path string) error
	// Ping verifies connectivity.
	Ping(ctx context.Context) error
}

// Snapshot is the result of a read
type Snapshot struct {
	raw json.RawMessage
}

// NewSnapshot wraps raw JSON in a snapshot
func NewSnapshot(raw json.RawMessage) Snapshot {
	return Snapshot{raw: raw}
}

// Exists reports whether the read found a value
func (s Snapshot) Exists() bool {
	return len(s.raw) > 0 && !bytes.Equal(bytes.TrimSpace(s.raw), []byte("null"))
}

// Decode unmarshals the snapshot into v. Type mismatches between the
// stored JSON and v are returned as errors rather than silently dropped.
func (s Snapshot) Decode(v any) error {
	if !s.Exists() {
		return fmt.Errorf("rtdb: decode of missing value")
	}
	if err := json.Unmarshal(s.raw, v); err != nil {
		return fmt.Errorf("rtdb: unexpected record shape: %w", err)
	}
	return nil
}

// Raw returns the underlying JSON
func (s Snapshot) Raw() json.RawMessage {
	return s.raw
}

// normalizePath trims slashes so that callers can be sloppy about them
func normalizePath(path string) string {
	return strings.Trim(path, "/")
}

// assemble builds a nested JSON object from child leaves, keyed by their
// path segments relative to the parent.
func assemble(children map[string]json.RawMessage) (json.RawMessage, error) {
	root := make(map[string]any)
	for rel, raw := range children {
		segments := strings.Split(rel, "/")
		node := root
		for i, seg := range segments {
			if i == len(segments)-1 {
				var v any
				if err := json.Unmarshal(raw, &v); err != nil {
					return nil, fmt.Errorf("rtdb: corrupt leaf %q: %w", rel, err)
				}
				node[seg] = v
				break
			}
			next, ok := node[seg].(map[string]any)
			if !ok {
				next = make(map[string]any)
				node[seg] = next
			}
			node = next
		}
	}
	return json.Marshal(root)
}

// mergeLeaf applies fields on top of an existing leaf object
func mergeLeaf(existing json.RawMessage, fields map[string]any) (json.RawMessage, error) {
	obj := make(map[string]any)
	if len(existing) > 0 {
		if err := json.Unmarshal(existing, &obj); err != nil {
			return nil, fmt.Errorf("rtdb: update target is not an object: %w", err)
		}
	}
	for k, v := range fields {
		obj[k] = v
	}
	return json.Marshal(obj)
}
