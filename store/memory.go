package store

import (
	"context"
	"sync"
)

// Memory is an in-process Store for tests and offline use.
type Memory struct {
	mu   sync.Mutex
	docs map[string]Document
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[string]Document)}
}

func (m *Memory) Get(_ context.Context, sessionID string) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out, nil
}

func (m *Memory) AppendToArrayField(_ context.Context, sessionID, field string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return appendToArray(m.doc(sessionID), field, value)
}

func (m *Memory) SetField(_ context.Context, sessionID, field string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return setField(m.doc(sessionID), field, value)
}

func (m *Memory) SetFieldWithTimestamp(_ context.Context, sessionID, field string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc := m.doc(sessionID)
	if err := setField(doc, field, value); err != nil {
		return err
	}
	stampUpdated(doc)
	return nil
}

func (m *Memory) Close() {}

func (m *Memory) doc(sessionID string) Document {
	doc, ok := m.docs[sessionID]
	if !ok {
		doc = make(Document)
		m.docs[sessionID] = doc
	}
	return doc
}
