// Package crud holds the store plumbing shared by the entity services.
package crud

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/pkg/errors"
)

// Service wraps one store. Get turns a missing record into a NotFound error
// so handlers do not have to.
type Service[T any] struct {
	store    repository.Store[T]
	resource string
}

func New[T any](store repository.Store[T], resource string) *Service[T] {
	return &Service[T]{store: store, resource: resource}
}

func (s *Service[T]) Resource() string { return s.resource }

func (s *Service[T]) List(ctx context.Context) ([]T, error) {
	items, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list %ss: %w", s.resource, err)
	}
	return items, nil
}

// Filter lists the records keep accepts, in store order.
func (s *Service[T]) Filter(ctx context.Context, keep func(*T) bool) ([]T, error) {
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(items))
	for i := range items {
		if keep(&items[i]) {
			out = append(out, items[i])
		}
	}
	return out, nil
}

func (s *Service[T]) Get(ctx context.Context, id int64) (*T, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", s.resource, err)
	}
	if rec == nil {
		return nil, errors.NotFound(s.resource, nil)
	}
	return rec, nil
}

func (s *Service[T]) Create(ctx context.Context, rec *T) (*T, error) {
	created, err := s.store.Create(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", s.resource, err)
	}
	return created, nil
}

// Update applies a JSON merge patch.
func (s *Service[T]) Update(ctx context.Context, id int64, patch []byte) (*T, error) {
	updated, err := s.store.Update(ctx, id, patch)
	if err != nil {
		if errors.IsNotFound(err) || errors.IsValidation(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update %s: %w", s.resource, err)
	}
	return updated, nil
}

// UpdateFields marshals fields into a merge patch.
func (s *Service[T]) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) (*T, error) {
	patch, err := json.Marshal(fields)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return s.Update(ctx, id, patch)
}

func (s *Service[T]) Delete(ctx context.Context, id int64) (*T, error) {
	removed, err := s.store.Delete(ctx, id)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to delete %s: %w", s.resource, err)
	}
	return removed, nil
}
