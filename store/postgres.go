package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is a Store over a single sessions table:
//
//	CREATE TABLE sessions (
//	    id  text PRIMARY KEY,
//	    doc jsonb NOT NULL DEFAULT '{}'
//	);
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Get(ctx context.Context, sessionID string) (Document, error) {
	var raw []byte
	err := p.pool.QueryRow(ctx, `SELECT doc FROM sessions WHERE id = $1`, sessionID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode session document: %w", err)
	}
	return doc, nil
}

func (p *Postgres) AppendToArrayField(ctx context.Context, sessionID, field string, value any) error {
	return p.update(ctx, sessionID, func(doc Document) error {
		return appendToArray(doc, field, value)
	})
}

func (p *Postgres) SetField(ctx context.Context, sessionID, field string, value any) error {
	return p.update(ctx, sessionID, func(doc Document) error {
		return setField(doc, field, value)
	})
}

func (p *Postgres) SetFieldWithTimestamp(ctx context.Context, sessionID, field string, value any) error {
	return p.update(ctx, sessionID, func(doc Document) error {
		if err := setField(doc, field, value); err != nil {
			return err
		}
		stampUpdated(doc)
		return nil
	})
}

func (p *Postgres) Close() { p.pool.Close() }

// update does a read-modify-write under a row lock. One writer per session
// makes contention a non-issue; the lock just keeps the snapshot consistent.
func (p *Postgres) update(ctx context.Context, sessionID string, mutate func(Document) error) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO sessions (id, doc) VALUES ($1, '{}') ON CONFLICT (id) DO NOTHING`,
		sessionID); err != nil {
		return fmt.Errorf("ensure session row: %w", err)
	}

	var raw []byte
	if err := tx.QueryRow(ctx,
		`SELECT doc FROM sessions WHERE id = $1 FOR UPDATE`, sessionID).Scan(&raw); err != nil {
		return fmt.Errorf("lock session row: %w", err)
	}
	doc := make(Document)
	_ = json.Unmarshal(raw, &doc)

	if err := mutate(doc); err != nil {
		return err
	}
	enc, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE sessions SET doc = $2 WHERE id = $1`, sessionID, enc); err != nil {
		return fmt.Errorf("write session document: %w", err)
	}
	return tx.Commit(ctx)
}
