package docstore

import (
	"context"
	"sync"
)

// Memory is the in-memory Store used by tests and single-machine dev mode.
type Memory struct {
	mu   sync.RWMutex
	docs map[string][]byte // document path -> raw doc
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, path string) ([]byte, error) {
	if err := ValidateDocPath(path); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[path]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(doc))
	copy(out, doc)
	return out, nil
}

func (m *Memory) Put(_ context.Context, path string, doc []byte) error {
	if err := ValidateDocPath(path); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]byte, len(doc))
	copy(stored, doc)
	m.docs[path] = stored
	return nil
}

func (m *Memory) Delete(_ context.Context, path string) error {
	if err := ValidateDocPath(path); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, path)
	return nil
}

func (m *Memory) List(_ context.Context, collection string) ([]Document, error) {
	if err := ValidateCollectionPath(collection); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var docs []Document
	for path, doc := range m.docs {
		if parentCollection(path) != collection {
			continue
		}
		out := make([]byte, len(doc))
		copy(out, doc)
		docs = append(docs, Document{ID: docID(path), Data: out})
	}
	return docs, nil
}

func (m *Memory) Ping(context.Context) error {
	return nil
}

// Len reports the number of stored documents.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}
