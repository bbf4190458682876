// Package postgres is a DocumentStore keeping documents as JSONB rows in PostgreSQL.
package postgres

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
)

type Store struct {
	db *sqlx.DB
}

var _ core.DocumentStore = (*Store)(nil)

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

type row struct {
	ID   string `db:"id"`
	Data []byte `db:"data"`
}

func cleanPath(path string) string {
	return strings.Trim(path, "/")
}

func decode(data []byte) (core.Fields, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	fields := make(core.Fields)
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func encode(fields core.Fields) ([]byte, error) {
	if fields == nil {
		fields = core.Fields{}
	}
	return json.Marshal(fields)
}

func filterClause(f core.Filter, argn int) (string, interface{}, error) {
	switch f.Op {
	case core.OpEqual:
		val, err := json.Marshal(f.Value)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("data -> $%d = $%d::jsonb", argn, argn+1), string(val), nil
	case core.OpArrayContains:
		val, err := json.Marshal([]interface{}{f.Value})
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("data -> $%d @> $%d::jsonb", argn, argn+1), string(val), nil
	}
	return "", nil, errors.Errorf("unsupported filter operator %q", f.Op)
}

func (s *Store) GetDocuments(ctx context.Context, coll string, filters ...core.Filter) ([]core.Document, error) {
	coll = cleanPath(coll)
	where := []string{"collection = $1"}
	args := []interface{}{coll}
	for _, f := range filters {
		clause, val, err := filterClause(f, len(args)+1)
		if err != nil {
			return nil, errors.Wrapf(err, "filter %s", f)
		}
		where = append(where, clause)
		args = append(args, f.Field, val)
	}
	q := "SELECT id, data FROM documents WHERE " + strings.Join(where, " AND ") + " ORDER BY seq"

	var rows []row
	if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrapf(err, "querying %s", coll)
	}

	docs := make([]core.Document, 0, len(rows))
	for _, r := range rows {
		fields, err := decode(r.Data)
		if err != nil {
			return nil, errors.Wrapf(err, "decoding %s/%s", coll, r.ID)
		}
		docs = append(docs, core.Document{ID: r.ID, Path: core.JoinPath(coll, r.ID), Fields: fields})
	}
	return docs, nil
}

func (s *Store) GetDocument(ctx context.Context, path string) (core.Document, error) {
	path = cleanPath(path)
	coll, id := core.SplitPath(path)

	var r row
	err := s.db.GetContext(ctx, &r, "SELECT id, data FROM documents WHERE collection = $1 AND id = $2", coll, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return core.Document{}, core.ErrDocumentNotFound
		}
		return core.Document{}, errors.Wrapf(err, "getting %s", path)
	}
	fields, err := decode(r.Data)
	if err != nil {
		return core.Document{}, errors.Wrapf(err, "decoding %s", path)
	}
	return core.Document{ID: id, Path: path, Fields: fields}, nil
}

const upsertQuery = `INSERT INTO documents (collection, id, data, created_at, updated_at)
VALUES ($1, $2, $3::jsonb, $4, $4)
ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`

func (s *Store) set(ctx context.Context, coll, id string, fields core.Fields) error {
	data, err := encode(fields)
	if err != nil {
		return errors.Wrap(err, "encoding fields")
	}
	_, err = s.db.ExecContext(ctx, upsertQuery, coll, id, string(data), time.Now().UTC())
	return err
}

func (s *Store) SetDocument(ctx context.Context, path string, fields core.Fields) error {
	path = cleanPath(path)
	coll, id := core.SplitPath(path)
	if err := s.set(ctx, coll, id, fields); err != nil {
		return errors.Wrapf(err, "setting %s", path)
	}
	return nil
}

func (s *Store) DeleteDocument(ctx context.Context, path string) error {
	path = cleanPath(path)
	coll, id := core.SplitPath(path)
	if _, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE collection = $1 AND id = $2", coll, id); err != nil {
		return errors.Wrapf(err, "deleting %s", path)
	}
	return nil
}

func (s *Store) AddDocument(ctx context.Context, coll string, fields core.Fields) (string, error) {
	coll = cleanPath(coll)
	id := uuid.NewString()
	if err := s.set(ctx, coll, id, fields); err != nil {
		return "", errors.Wrapf(err, "adding to %s", coll)
	}
	return id, nil
}
