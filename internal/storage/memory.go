package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
)

// MemoryStorage is an in-process blob store used by tests and by the
// throwaway dev profile. Safe for concurrent use.
type MemoryStorage struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{blobs: make(map[string][]byte)}
}

func (m *MemoryStorage) Save(ctx context.Context, id string, data io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	buf, err := io.ReadAll(data)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[id] = buf
	return nil
}

func (m *MemoryStorage) Get(ctx context.Context, id string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	buf, ok := m.blobs[id]
	if !ok {
		return nil, fmt.Errorf("blob %s: %w", id, ErrBlobNotFound)
	}

	return io.NopCloser(bytes.NewReader(buf)), nil
}

func (m *MemoryStorage) Duplicate(ctx context.Context, id string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	buf, ok := m.blobs[id]
	if !ok {
		return "", fmt.Errorf("blob %s: %w", id, ErrBlobNotFound)
	}

	newID := uuid.NewString()
	m.blobs[newID] = append([]byte(nil), buf...)
	return newID, nil
}

func (m *MemoryStorage) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, id)
	return nil
}
