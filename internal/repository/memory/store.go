// Package memory keeps each collection in a mutex-guarded slice, newest
// record first. Contents vanish when the process exits.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/pkg/errors"
)

type Options struct {
	// Latency is waited before every operation, outside the lock, to mimic a
	// remote round trip. The wait ends early when the context is done.
	Latency time.Duration
	Now     func() time.Time
}

type Store[T any, P model.Record[T]] struct {
	mu         sync.Mutex
	collection string
	records    []T
	lastID     int64
	latency    time.Duration
	now        func() time.Time
}

var _ repository.Store[model.Patient] = (*Store[model.Patient, *model.Patient])(nil)

func NewStore[T any, P model.Record[T]](collection string, opts Options) *Store[T, P] {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Store[T, P]{
		collection: collection,
		latency:    opts.Latency,
		now:        now,
	}
}

func (s *Store[T, P]) wait(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Store[T, P]) indexOf(id int64) int {
	for i := range s.records {
		if P(&s.records[i]).GetID() == id {
			return i
		}
	}
	return -1
}

func (s *Store[T, P]) notFound(id int64) error {
	return errors.NotFound(fmt.Sprintf("%s record %d", s.collection, id), nil)
}

func (s *Store[T, P]) List(ctx context.Context) ([]T, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return repository.CloneAll(s.records)
}

func (s *Store[T, P]) Get(ctx context.Context, id int64) (*T, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return nil, nil
	}
	return repository.Clone(&s.records[idx])
}

// Create assigns max(existing)+1 as the id. Ids of deleted records are
// never handed out again.
func (s *Store[T, P]) Create(ctx context.Context, rec *T) (*T, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	item, err := repository.Clone(rec)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastID++
	P(item).SetID(s.lastID)
	P(item).ApplyDefaults(s.now())

	s.records = append([]T{*item}, s.records...)
	return repository.Clone(item)
}

func (s *Store[T, P]) Update(ctx context.Context, id int64, patch []byte) (*T, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil, s.notFound(id)
	}
	updated, err := repository.Clone(&s.records[idx])
	if err != nil {
		return nil, err
	}
	if err := repository.MergePatch[T, P](updated, patch); err != nil {
		return nil, err
	}
	s.records[idx] = *updated
	return repository.Clone(updated)
}

func (s *Store[T, P]) Delete(ctx context.Context, id int64) (*T, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil, s.notFound(id)
	}
	removed := s.records[idx]
	s.records = append(s.records[:idx], s.records[idx+1:]...)
	return &removed, nil
}

// Seed replaces the collection with records decoded from a JSON array, kept
// in the given order. Records must carry their ids.
func (s *Store[T, P]) Seed(raw json.RawMessage) error {
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return fmt.Errorf("failed to decode %s seed: %w", s.collection, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = items
	s.lastID = 0
	for i := range items {
		if id := P(&items[i]).GetID(); id > s.lastID {
			s.lastID = id
		}
	}
	return nil
}

func (s *Store[T, P]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
