package remote

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/pkg/errors"
)

type Options struct {
	// CacheTTL bounds how long get-by-id results are served locally.
	// Zero disables the cache.
	CacheTTL time.Duration
	Now      func() time.Time
}

type Store[T any, P model.Record[T]] struct {
	client     *Client
	collection string
	table      string
	codec      *codec
	cache      *cache.Cache
	now        func() time.Time
}

var _ repository.Store[model.Doctor] = (*Store[model.Doctor, *model.Doctor])(nil)

func NewStore[T any, P model.Record[T]](client *Client, collection string, opts Options) *Store[T, P] {
	table, ok := Tables[collection]
	if !ok {
		table = Table{Name: collection + "_c"}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	s := &Store[T, P]{
		client:     client,
		collection: collection,
		table:      table.Name,
		codec:      newCodec(reflect.TypeOf((*T)(nil)).Elem(), table),
		now:        now,
	}
	if opts.CacheTTL > 0 {
		s.cache = cache.New(opts.CacheTTL, 2*opts.CacheTTL)
	}
	return s
}

func NewStores(client *Client, opts Options) repository.Stores {
	return repository.Stores{
		Patients:       NewStore[model.Patient](client, model.CollectionPatients, opts),
		Doctors:        NewStore[model.Doctor](client, model.CollectionDoctors, opts),
		Appointments:   NewStore[model.Appointment](client, model.CollectionAppointments, opts),
		ClinicalNotes:  NewStore[model.ClinicalNote](client, model.CollectionClinicalNotes, opts),
		Billing:        NewStore[model.BillingRecord](client, model.CollectionBilling, opts),
		TreatmentPlans: NewStore[model.TreatmentPlan](client, model.CollectionTreatmentPlans, opts),
		Documents:      NewStore[model.Document](client, model.CollectionDocuments, opts),
	}
}

func cacheKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

func (s *Store[T, P]) remember(rec *T) {
	if s.cache == nil {
		return
	}
	if cp, err := repository.Clone(rec); err == nil {
		s.cache.Set(cacheKey(P(rec).GetID()), cp, cache.DefaultExpiration)
	}
}

func (s *Store[T, P]) forget(id int64) {
	if s.cache != nil {
		s.cache.Delete(cacheKey(id))
	}
}

func (s *Store[T, P]) notFound(id int64) error {
	return errors.NotFound(fmt.Sprintf("%s record %d", s.collection, id), nil)
}

func (s *Store[T, P]) List(ctx context.Context) ([]T, error) {
	resp, err := s.client.FetchRecords(ctx, s.table, FetchParams{Fields: s.codec.projection()})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.collection, err)
	}
	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return []T{}, nil
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(resp.Data, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode %s rows: %w", s.collection, err)
	}
	items := make([]T, len(rows))
	for i, row := range rows {
		if err := s.codec.decode(row, &items[i]); err != nil {
			return nil, err
		}
	}
	// The API does not promise an order; keep newest first like every backend.
	sort.SliceStable(items, func(i, j int) bool {
		return P(&items[i]).GetID() > P(&items[j]).GetID()
	})
	return items, nil
}

func (s *Store[T, P]) Get(ctx context.Context, id int64) (*T, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(cacheKey(id)); ok {
			return repository.Clone(cached.(*T))
		}
	}
	rec, err := s.fetch(ctx, id)
	if err != nil || rec == nil {
		return nil, err
	}
	s.remember(rec)
	return rec, nil
}

func (s *Store[T, P]) fetch(ctx context.Context, id int64) (*T, error) {
	resp, err := s.client.GetRecordByID(ctx, s.table, id, FetchParams{Fields: s.codec.projection()})
	if stderrors.Is(err, ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s record: %w", s.collection, err)
	}
	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return nil, nil
	}
	var rec T
	if err := s.codec.decode(resp.Data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Create lets the API assign the id. Defaults that depend on the id are
// written back with a follow-up update.
func (s *Store[T, P]) Create(ctx context.Context, rec *T) (*T, error) {
	now := s.now()

	draft, err := repository.Clone(rec)
	if err != nil {
		return nil, err
	}
	P(draft).SetID(0)
	P(draft).ApplyDefaults(now)
	row, err := s.codec.encode(draft)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.CreateRecord(ctx, s.table, []map[string]any{row})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s record: %w", s.collection, err)
	}
	if failed := resp.Failed(); failed != nil {
		return nil, fmt.Errorf("failed to create %s record: %s", s.collection, failed.Message)
	}
	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("failed to create %s record: empty result", s.collection)
	}
	var created struct {
		ID int64 `json:"Id"`
	}
	if err := json.Unmarshal(resp.Results[0].Data, &created); err != nil || created.ID <= 0 {
		return nil, fmt.Errorf("failed to create %s record: no id returned", s.collection)
	}

	final, err := repository.Clone(rec)
	if err != nil {
		return nil, err
	}
	P(final).SetID(created.ID)
	P(final).ApplyDefaults(now)

	finalRow, err := s.codec.encode(final)
	if err != nil {
		return nil, err
	}
	if !reflect.DeepEqual(row, finalRow) {
		if err := s.put(ctx, created.ID, finalRow); err != nil {
			return nil, err
		}
	}

	s.remember(final)
	return final, nil
}

func (s *Store[T, P]) put(ctx context.Context, id int64, row map[string]any) error {
	row[idField] = id
	resp, err := s.client.UpdateRecord(ctx, s.table, []map[string]any{row})
	if err != nil {
		return fmt.Errorf("failed to update %s record: %w", s.collection, err)
	}
	if failed := resp.Failed(); failed != nil {
		return fmt.Errorf("failed to update %s record: %s", s.collection, failed.Message)
	}
	return nil
}

func (s *Store[T, P]) Update(ctx context.Context, id int64, patch []byte) (*T, error) {
	s.forget(id)
	current, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, s.notFound(id)
	}
	if err := repository.MergePatch[T, P](current, patch); err != nil {
		return nil, err
	}

	row, err := s.codec.encode(current)
	if err != nil {
		return nil, err
	}
	if err := s.put(ctx, id, row); err != nil {
		return nil, err
	}
	s.remember(current)
	return current, nil
}

func (s *Store[T, P]) Delete(ctx context.Context, id int64) (*T, error) {
	s.forget(id)
	current, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, s.notFound(id)
	}

	resp, err := s.client.DeleteRecord(ctx, s.table, []int64{id})
	if err != nil {
		return nil, fmt.Errorf("failed to delete %s record: %w", s.collection, err)
	}
	if failed := resp.Failed(); failed != nil {
		return nil, fmt.Errorf("failed to delete %s record: %s", s.collection, failed.Message)
	}
	return current, nil
}

func (s *Store[T, P]) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}
