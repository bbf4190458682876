// Package inmem is a DocumentStore kept in memory. Documents keep their insertion order.
package inmem

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/trezcool/gradebook/core"
)

type collection struct {
	ids  []string
	docs map[string]core.Fields
}

func newCollection() *collection {
	return &collection{docs: make(map[string]core.Fields)}
}

type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

var _ core.DocumentStore = (*Store)(nil)

func NewStore() *Store {
	return &Store{collections: make(map[string]*collection)}
}

func cleanPath(path string) string {
	return strings.Trim(path, "/")
}

func (s *Store) GetDocuments(ctx context.Context, coll string, filters ...core.Filter) ([]core.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	coll = cleanPath(coll)

	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[coll]
	if !ok {
		return []core.Document{}, nil
	}
	docs := make([]core.Document, 0, len(c.ids))
DOCS:
	for _, id := range c.ids {
		fields := c.docs[id]
		for _, f := range filters {
			if !f.Match(fields) {
				continue DOCS
			}
		}
		docs = append(docs, core.Document{ID: id, Path: core.JoinPath(coll, id), Fields: fields.Copy()})
	}
	return docs, nil
}

func (s *Store) GetDocument(ctx context.Context, path string) (core.Document, error) {
	if err := ctx.Err(); err != nil {
		return core.Document{}, err
	}
	path = cleanPath(path)
	coll, id := core.SplitPath(path)

	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[coll]
	if !ok {
		return core.Document{}, core.ErrDocumentNotFound
	}
	fields, ok := c.docs[id]
	if !ok {
		return core.Document{}, core.ErrDocumentNotFound
	}
	return core.Document{ID: id, Path: path, Fields: fields.Copy()}, nil
}

func (s *Store) SetDocument(ctx context.Context, path string, fields core.Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	coll, id := core.SplitPath(cleanPath(path))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.set(coll, id, fields)
	return nil
}

func (s *Store) set(coll, id string, fields core.Fields) {
	c, ok := s.collections[coll]
	if !ok {
		c = newCollection()
		s.collections[coll] = c
	}
	if _, exists := c.docs[id]; !exists {
		c.ids = append(c.ids, id)
	}
	if fields == nil {
		fields = core.Fields{}
	}
	c.docs[id] = fields.Copy()
}

func (s *Store) DeleteDocument(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	coll, id := core.SplitPath(cleanPath(path))

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[coll]
	if !ok {
		return nil
	}
	if _, exists := c.docs[id]; !exists {
		return nil
	}
	delete(c.docs, id)
	for i, docID := range c.ids {
		if docID == id {
			c.ids = append(c.ids[:i], c.ids[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) AddDocument(ctx context.Context, coll string, fields core.Fields) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.set(cleanPath(coll), id, fields)
	return id, nil
}

// Reset drops every document.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections = make(map[string]*collection)
}
