package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/pkg/errors"
)

// Store keeps one collection as JSONB documents in the shared records table.
type Store[T any, P model.Record[T]] struct {
	BaseRepository
	collection string
	now        func() time.Time
}

type recordRow struct {
	ID   int64  `db:"id"`
	Data []byte `db:"data"`
}

func NewStore[T any, P model.Record[T]](db *sqlx.DB, collection string) *Store[T, P] {
	return &Store[T, P]{
		BaseRepository: NewBaseRepository(db),
		collection:     collection,
		now:            time.Now,
	}
}

func NewStores(db *sqlx.DB) repository.Stores {
	return repository.Stores{
		Patients:       NewStore[model.Patient](db, model.CollectionPatients),
		Doctors:        NewStore[model.Doctor](db, model.CollectionDoctors),
		Appointments:   NewStore[model.Appointment](db, model.CollectionAppointments),
		ClinicalNotes:  NewStore[model.ClinicalNote](db, model.CollectionClinicalNotes),
		Billing:        NewStore[model.BillingRecord](db, model.CollectionBilling),
		TreatmentPlans: NewStore[model.TreatmentPlan](db, model.CollectionTreatmentPlans),
		Documents:      NewStore[model.Document](db, model.CollectionDocuments),
	}
}

func (s *Store[T, P]) decode(row recordRow) (*T, error) {
	var out T
	if err := json.Unmarshal(row.Data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %s record %d: %w", s.collection, row.ID, err)
	}
	P(&out).SetID(row.ID)
	return &out, nil
}

func (s *Store[T, P]) notFound(id int64) error {
	return errors.NotFound(fmt.Sprintf("%s record %d", s.collection, id), nil)
}

func (s *Store[T, P]) List(ctx context.Context) ([]T, error) {
	query := `SELECT id, data FROM records WHERE collection = $1 ORDER BY id DESC`
	var rows []recordRow
	if err := s.db.SelectContext(ctx, &rows, query, s.collection); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.collection, err)
	}

	items := make([]T, 0, len(rows))
	for _, row := range rows {
		rec, err := s.decode(row)
		if err != nil {
			return nil, err
		}
		items = append(items, *rec)
	}
	return items, nil
}

func (s *Store[T, P]) Get(ctx context.Context, id int64) (*T, error) {
	query := `SELECT id, data FROM records WHERE collection = $1 AND id = $2`
	var row recordRow
	err := s.db.GetContext(ctx, &row, query, s.collection, id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s record: %w", s.collection, err)
	}
	return s.decode(row)
}

// Create allocates the id from record_sequences, which never hands out an
// id twice even after the highest record is deleted.
func (s *Store[T, P]) Create(ctx context.Context, rec *T) (*T, error) {
	item, err := repository.Clone(rec)
	if err != nil {
		return nil, err
	}

	err = s.WithTx(ctx, func(tx *sqlx.Tx) error {
		seq := `
			INSERT INTO record_sequences (collection, last_id)
			VALUES ($1, (SELECT COALESCE(MAX(id), 0) + 1 FROM records WHERE collection = $1))
			ON CONFLICT (collection) DO UPDATE SET last_id = record_sequences.last_id + 1
			RETURNING last_id
		`
		var id int64
		if err := tx.GetContext(ctx, &id, seq, s.collection); err != nil {
			return fmt.Errorf("failed to allocate %s id: %w", s.collection, err)
		}

		now := s.now()
		P(item).SetID(id)
		P(item).ApplyDefaults(now)

		data, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("failed to encode %s record: %w", s.collection, err)
		}

		query := `
			INSERT INTO records (collection, id, data, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $4)
		`
		if _, err := tx.ExecContext(ctx, query, s.collection, id, data, now); err != nil {
			return fmt.Errorf("failed to create %s record: %w", s.collection, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Store[T, P]) Update(ctx context.Context, id int64, patch []byte) (*T, error) {
	var updated *T
	err := s.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `SELECT id, data FROM records WHERE collection = $1 AND id = $2 FOR UPDATE`
		var row recordRow
		err := tx.GetContext(ctx, &row, query, s.collection, id)
		if stderrors.Is(err, sql.ErrNoRows) {
			return s.notFound(id)
		}
		if err != nil {
			return fmt.Errorf("failed to load %s record: %w", s.collection, err)
		}

		rec, err := s.decode(row)
		if err != nil {
			return err
		}
		if err := repository.MergePatch[T, P](rec, patch); err != nil {
			return err
		}

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to encode %s record: %w", s.collection, err)
		}
		query = `UPDATE records SET data = $1, updated_at = $2 WHERE collection = $3 AND id = $4`
		if _, err := tx.ExecContext(ctx, query, data, s.now(), s.collection, id); err != nil {
			return fmt.Errorf("failed to update %s record: %w", s.collection, err)
		}
		updated = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Store[T, P]) Delete(ctx context.Context, id int64) (*T, error) {
	query := `DELETE FROM records WHERE collection = $1 AND id = $2 RETURNING id, data`
	var row recordRow
	err := s.db.GetContext(ctx, &row, query, s.collection, id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, s.notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete %s record: %w", s.collection, err)
	}
	return s.decode(row)
}
