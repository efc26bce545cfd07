package docstore

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres stores documents in a single jsonb table keyed by path.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// EnsureSchema creates the documents table and its collection index.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			path       TEXT PRIMARY KEY,
			collection TEXT NOT NULL,
			doc        JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS documents_collection_idx
		ON documents (collection)`)
	return err
}

func (p *Postgres) Get(ctx context.Context, path string) ([]byte, error) {
	if err := ValidateDocPath(path); err != nil {
		return nil, err
	}

	var doc []byte
	err := p.pool.QueryRow(ctx,
		`SELECT doc FROM documents WHERE path = $1`, path).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (p *Postgres) Put(ctx context.Context, path string, doc []byte) error {
	if err := ValidateDocPath(path); err != nil {
		return err
	}

	_, err := p.pool.Exec(ctx, `
		INSERT INTO documents (path, collection, doc, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (path)
		DO UPDATE SET doc = EXCLUDED.doc, updated_at = NOW()`,
		path, parentCollection(path), doc)
	return err
}

func (p *Postgres) Delete(ctx context.Context, path string) error {
	if err := ValidateDocPath(path); err != nil {
		return err
	}

	_, err := p.pool.Exec(ctx, `DELETE FROM documents WHERE path = $1`, path)
	return err
}

func (p *Postgres) List(ctx context.Context, collection string) ([]Document, error) {
	if err := ValidateCollectionPath(collection); err != nil {
		return nil, err
	}

	rows, err := p.pool.Query(ctx,
		`SELECT path, doc FROM documents WHERE collection = $1`, collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var path string
		var doc []byte
		if err := rows.Scan(&path, &doc); err != nil {
			return nil, err
		}
		docs = append(docs, Document{ID: docID(path), Data: doc})
	}
	return docs, rows.Err()
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}
