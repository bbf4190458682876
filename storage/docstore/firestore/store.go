// Package firestore is a DocumentStore backed by Cloud Firestore.
package firestore

import (
	"context"
	"strings"

	"cloud.google.com/go/firestore"
	"github.com/pkg/errors"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/trezcool/gradebook/core"
)

type Store struct {
	client *firestore.Client
}

var _ core.DocumentStore = (*Store)(nil)

func NewStore(client *firestore.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Close() error {
	return s.client.Close()
}

func cleanPath(path string) string {
	return strings.Trim(path, "/")
}

func (s *Store) GetDocuments(ctx context.Context, coll string, filters ...core.Filter) ([]core.Document, error) {
	coll = cleanPath(coll)
	q := s.client.Collection(coll).Query
	for _, f := range filters {
		q = q.Where(f.Field, f.Op, f.Value)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	docs := make([]core.Document, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "querying %s", coll)
		}
		docs = append(docs, core.Document{
			ID:     snap.Ref.ID,
			Path:   core.JoinPath(coll, snap.Ref.ID),
			Fields: snap.Data(),
		})
	}
	return docs, nil
}

func (s *Store) GetDocument(ctx context.Context, path string) (core.Document, error) {
	path = cleanPath(path)
	snap, err := s.client.Doc(path).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return core.Document{}, core.ErrDocumentNotFound
		}
		return core.Document{}, errors.Wrapf(err, "getting %s", path)
	}
	return core.Document{ID: snap.Ref.ID, Path: path, Fields: snap.Data()}, nil
}

func (s *Store) SetDocument(ctx context.Context, path string, fields core.Fields) error {
	path = cleanPath(path)
	if fields == nil {
		fields = core.Fields{}
	}
	if _, err := s.client.Doc(path).Set(ctx, map[string]interface{}(fields)); err != nil {
		return errors.Wrapf(err, "setting %s", path)
	}
	return nil
}

func (s *Store) DeleteDocument(ctx context.Context, path string) error {
	path = cleanPath(path)
	if _, err := s.client.Doc(path).Delete(ctx); err != nil {
		return errors.Wrapf(err, "deleting %s", path)
	}
	return nil
}

func (s *Store) AddDocument(ctx context.Context, coll string, fields core.Fields) (string, error) {
	coll = cleanPath(coll)
	if fields == nil {
		fields = core.Fields{}
	}
	ref, _, err := s.client.Collection(coll).Add(ctx, map[string]interface{}(fields))
	if err != nil {
		return "", errors.Wrapf(err, "adding to %s", coll)
	}
	return ref.ID, nil
}
