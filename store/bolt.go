package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var sessionsBucket = []byte("sessions")

// Bolt is a single-file Store backed by bbolt, for local deployments without
// a database server.
type Bolt struct {
	db *bolt.DB
}

func NewBolt(path string) (*Bolt, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt store: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionsBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sessions bucket: %w", err)
	}
	return &Bolt{db: db}, nil
}

func (b *Bolt) Get(_ context.Context, sessionID string) (Document, error) {
	var doc Document
	err := b.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(sessionsBucket).Get([]byte(sessionID))
		if raw == nil {
			return ErrNotFound
		}
		return json.Unmarshal(raw, &doc)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (b *Bolt) AppendToArrayField(_ context.Context, sessionID, field string, value any) error {
	return b.update(sessionID, func(doc Document) error {
		return appendToArray(doc, field, value)
	})
}

func (b *Bolt) SetField(_ context.Context, sessionID, field string, value any) error {
	return b.update(sessionID, func(doc Document) error {
		return setField(doc, field, value)
	})
}

func (b *Bolt) SetFieldWithTimestamp(_ context.Context, sessionID, field string, value any) error {
	return b.update(sessionID, func(doc Document) error {
		if err := setField(doc, field, value); err != nil {
			return err
		}
		stampUpdated(doc)
		return nil
	})
}

func (b *Bolt) Close() { b.db.Close() }

func (b *Bolt) update(sessionID string, mutate func(Document) error) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(sessionsBucket)
		doc := make(Document)
		if raw := bkt.Get([]byte(sessionID)); raw != nil {
			// A malformed record is replaced rather than failing every
			// write after it.
			_ = json.Unmarshal(raw, &doc)
		}
		if err := mutate(doc); err != nil {
			return err
		}
		enc, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("marshal document: %w", err)
		}
		return bkt.Put([]byte(sessionID), enc)
	})
}
