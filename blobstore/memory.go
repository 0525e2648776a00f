package blobstore

import (
	"context"
	"sort"
	"sync"

	"github.com/oklog/ulid/v2"
)

type memoryObject struct {
	Object
	body []byte
}

// MemoryStore keeps objects in process memory. Nothing survives a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]*memoryObject
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]*memoryObject)}
}

// List implements Store.List.
func (m *MemoryStore) List(ctx context.Context, q Query) ([]Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, Unavailable("list", q.Parent, err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Object, 0)
	for _, obj := range m.objects {
		if obj.Parent == q.Parent && q.Matches(obj.Name) {
			out = append(out, obj.Object)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Create implements Store.Create.
func (m *MemoryStore) Create(ctx context.Context, name, parent string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", Unavailable("create", name, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, obj := range m.objects {
		if obj.Parent == parent && obj.Name == name {
			return "", Exists("create", name)
		}
	}
	id := ulid.Make().String()
	m.objects[id] = &memoryObject{
		Object: Object{ID: id, Name: name, Parent: parent},
		body:   append([]byte(nil), data...),
	}
	return id, nil
}

// ReadFull implements Store.ReadFull.
func (m *MemoryStore) ReadFull(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, Unavailable("read", id, err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[id]
	if !ok {
		return nil, NotFound("read", id)
	}
	return append([]byte(nil), obj.body...), nil
}

// UpdateFull implements Store.UpdateFull.
func (m *MemoryStore) UpdateFull(ctx context.Context, id string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return Unavailable("update", id, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	obj, ok := m.objects[id]
	if !ok {
		return NotFound("update", id)
	}
	obj.body = append([]byte(nil), data...)
	return nil
}

var _ Store = (*MemoryStore)(nil)
