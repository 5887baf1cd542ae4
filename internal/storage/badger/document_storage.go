package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/serendib/internal/interfaces"
	"github.com/timshannon/badgerhold/v4"
)

// DocumentStorage stores one content kind. Every kind carries ID, Slug and CreatedAt fields,
// which the queries below rely on.
type DocumentStorage[T any] struct {
	db     *BadgerDB
	kind   string
	logger arbor.ILogger
}

// NewDocumentStorage creates a storage for documents of type T
func NewDocumentStorage[T any](db *BadgerDB, kind string, logger arbor.ILogger) interfaces.DocumentStorage[T] {
	return &DocumentStorage[T]{
		db:     db,
		kind:   kind,
		logger: logger,
	}
}

func (s *DocumentStorage[T]) Save(ctx context.Context, id string, doc *T) error {
	if id == "" {
		return fmt.Errorf("%s: document ID is required", s.kind)
	}
	if err := s.db.Store().Upsert(id, doc); err != nil {
		return fmt.Errorf("failed to save %s document: %w", s.kind, err)
	}
	return nil
}

func (s *DocumentStorage[T]) Get(ctx context.Context, id string) (*T, error) {
	var doc T
	if err := s.db.Store().Get(id, &doc); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("%s %s: %w", s.kind, id, interfaces.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get %s document: %w", s.kind, err)
	}
	return &doc, nil
}

func (s *DocumentStorage[T]) GetBySlug(ctx context.Context, slug string) (*T, error) {
	var docs []T
	if err := s.db.Store().Find(&docs, badgerhold.Where("Slug").Eq(slug)); err != nil {
		return nil, fmt.Errorf("failed to find %s by slug: %w", s.kind, err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%s slug %s: %w", s.kind, slug, interfaces.ErrNotFound)
	}
	return &docs[0], nil
}

func (s *DocumentStorage[T]) List(ctx context.Context) ([]*T, error) {
	var docs []T
	if err := s.db.Store().Find(&docs, badgerhold.Where("ID").Ne("").SortBy("CreatedAt").Reverse()); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.kind, err)
	}

	result := make([]*T, len(docs))
	for i := range docs {
		result[i] = &docs[i]
	}
	return result, nil
}

func (s *DocumentStorage[T]) Delete(ctx context.Context, id string) error {
	var zero T
	if err := s.db.Store().Delete(id, &zero); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return fmt.Errorf("%s %s: %w", s.kind, id, interfaces.ErrNotFound)
		}
		return fmt.Errorf("failed to delete %s document: %w", s.kind, err)
	}
	return nil
}

func (s *DocumentStorage[T]) Count(ctx context.Context) (int, error) {
	var zero T
	count, err := s.db.Store().Count(&zero, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", s.kind, err)
	}
	return int(count), nil
}
