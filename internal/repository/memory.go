package repository

import (
	"context"
	"sync"
)

type memorySlots struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

func NewMemorySlotRepository() SlotRepository {
	return &memorySlots{slots: make(map[string][]byte)}
}

func (r *memorySlots) Get(_ context.Context, key string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.slots[key]
	if !ok {
		return nil, ErrSlotNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (r *memorySlots) Set(_ context.Context, key string, value []byte) error {
	v := make([]byte, len(value))
	copy(v, value)
	r.mu.Lock()
	r.slots[key] = v
	r.mu.Unlock()
	return nil
}

func (r *memorySlots) Delete(_ context.Context, keys ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range keys {
		delete(r.slots, k)
	}
	return nil
}

func (r *memorySlots) Ping(context.Context) error { return nil }
