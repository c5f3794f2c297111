package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// SQLDocStore backs DocStore with the documents table (sqlite or postgres).
type SQLDocStore struct {
	db *sql.DB
}

func NewSQLDocStore(db *sql.DB) *SQLDocStore {
	return &SQLDocStore{db: db}
}

func (s *SQLDocStore) Put(ctx context.Context, collection, id string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO documents (collection,id,data,updated_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (collection,id) DO UPDATE SET data=EXCLUDED.data, updated_at=EXCLUDED.updated_at`,
		collection, id, string(data), time.Now().Unix())
	return err
}

func (s *SQLDocStore) Get(ctx context.Context, collection, id string, out any) error {
	row := s.db.QueryRowContext(ctx, `SELECT data FROM documents WHERE collection=$1 AND id=$2`, collection, id)
	var data string
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &ErrNotFound{Collection: collection, ID: id}
		}
		return err
	}
	return json.Unmarshal([]byte(data), out)
}

func (s *SQLDocStore) List(ctx context.Context, collection string) ([]json.RawMessage, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM documents WHERE collection=$1 ORDER BY updated_at DESC`, collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []json.RawMessage
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		out = append(out, json.RawMessage(data))
	}
	return out, rows.Err()
}
