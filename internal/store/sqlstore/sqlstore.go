// Package sqlstore keeps every collection in one documents table, one json
// body per row. The schema is portable between postgres and sqlite.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-uniform-service/internal/model"
	"github.com/fekuna/omnipos-uniform-service/internal/store"
	"github.com/jmoiron/sqlx"
)

var _ store.Store = (*SQLStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
    collection TEXT NOT NULL,
    id         TEXT NOT NULL,
    body       TEXT NOT NULL,
    created_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL,
    PRIMARY KEY (collection, id)
)`

type row struct {
	Collection string `db:"collection"`
	ID         string `db:"id"`
	Body       string `db:"body"`
	CreatedAt  int64  `db:"created_at"`
	UpdatedAt  int64  `db:"updated_at"`
}

type SQLStore struct {
	DB *sqlx.DB
}

func New(db *sqlx.DB) *SQLStore {
	return &SQLStore{DB: db}
}

// Migrate creates the documents table when it does not exist yet.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate documents: %w", err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, collection, id string) (store.Document, error) {
	var r row
	query := s.DB.Rebind(`SELECT * FROM documents WHERE collection = ? AND id = ?`)
	err := s.DB.GetContext(ctx, &r, query, collection, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return decodeBody(r)
}

func (s *SQLStore) Query(ctx context.Context, collection string, pred store.Predicate) ([]store.Document, error) {
	var rows []row
	query := s.DB.Rebind(`SELECT * FROM documents WHERE collection = ? ORDER BY created_at, id`)
	if err := s.DB.SelectContext(ctx, &rows, query, collection); err != nil {
		return nil, err
	}

	docs := make([]store.Document, 0, len(rows))
	for _, r := range rows {
		doc, err := decodeBody(r)
		if err != nil {
			return nil, err
		}
		if pred != nil && !pred(doc) {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *SQLStore) Create(ctx context.Context, collection string, doc store.Document) (string, error) {
	id, prepared, err := store.PrepareCreate(doc)
	if err != nil {
		return "", err
	}
	body, err := json.Marshal(prepared)
	if err != nil {
		return "", fmt.Errorf("encode %s body: %w", collection, err)
	}

	now := time.Now().UnixNano()
	query := `
        INSERT INTO documents (collection, id, body, created_at, updated_at)
        VALUES (:collection, :id, :body, :created_at, :updated_at)
    `
	_, err = s.DB.NamedExecContext(ctx, query, row{
		Collection: collection,
		ID:         id,
		Body:       string(body),
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return "", fmt.Errorf("insert %s/%s: %w", collection, id, err)
	}
	return id, nil
}

func (s *SQLStore) Update(ctx context.Context, collection, id string, partial store.Document) error {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var r row
	err = tx.GetContext(ctx, &r, tx.Rebind(`SELECT * FROM documents WHERE collection = ? AND id = ?`), collection, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &model.NotFoundError{Collection: collection, ID: id}
		}
		return err
	}
	current, err := decodeBody(r)
	if err != nil {
		return err
	}

	merged := current.Merge(partial)
	merged["id"] = current["id"]
	body, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("encode %s body: %w", collection, err)
	}

	r.Body = string(body)
	r.UpdatedAt = time.Now().UnixNano()
	_, err = tx.NamedExecContext(ctx, `
        UPDATE documents SET body = :body, updated_at = :updated_at
        WHERE collection = :collection AND id = :id
    `, r)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	return tx.Commit()
}

func (s *SQLStore) Delete(ctx context.Context, collection, id string) error {
	res, err := s.DB.ExecContext(ctx, s.DB.Rebind(`DELETE FROM documents WHERE collection = ? AND id = ?`), collection, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &model.NotFoundError{Collection: collection, ID: id}
	}
	return nil
}

func decodeBody(r row) (store.Document, error) {
	var doc store.Document
	if err := json.Unmarshal([]byte(r.Body), &doc); err != nil {
		return nil, fmt.Errorf("decode %s/%s body: %w", r.Collection, r.ID, err)
	}
	return doc, nil
}
