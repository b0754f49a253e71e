// Package store is the persistence adapter: a document store keyed by
// session id, with field-level append and replace operations. The engine
// treats every write as best effort; in-memory state stays authoritative when
// a write fails.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by Get when no document exists for the session.
var ErrNotFound = errors.New("session document not found")

// Document is one session's persisted state, field by field.
type Document map[string]json.RawMessage

// Store is the document-store contract every backend implements. All writes
// create the document on first use and are safe to retry.
type Store interface {
	// Get returns the full document, or ErrNotFound.
	Get(ctx context.Context, sessionID string) (Document, error)
	// AppendToArrayField appends value to the JSON array stored under field,
	// creating the array if absent.
	AppendToArrayField(ctx context.Context, sessionID, field string, value any) error
	// SetField replaces the value stored under field.
	SetField(ctx context.Context, sessionID, field string, value any) error
	// SetFieldWithTimestamp replaces field and stamps updatedAt.
	SetFieldWithTimestamp(ctx context.Context, sessionID, field string, value any) error
	Close()
}

// appendToArray implements the shared append semantics over raw documents.
func appendToArray(doc Document, field string, value any) error {
	var arr []json.RawMessage
	if raw, ok := doc[field]; ok && len(raw) > 0 {
		if err := json.Unmarshal(raw, &arr); err != nil {
			return fmt.Errorf("field %q is not an array: %w", field, err)
		}
	}
	enc, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}
	arr = append(arr, enc)
	out, err := json.Marshal(arr)
	if err != nil {
		return fmt.Errorf("marshal array: %w", err)
	}
	doc[field] = out
	return nil
}

func setField(doc Document, field string, value any) error {
	enc, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}
	doc[field] = enc
	return nil
}

func stampUpdated(doc Document) {
	enc, _ := json.Marshal(time.Now().UTC())
	doc["updatedAt"] = enc
}
