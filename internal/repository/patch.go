package repository

import (
	"encoding/json"
	"fmt"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/errors"
)

// Clone deep-copies a record through its JSON form so callers never share
// slices or pointers with stored state.
func Clone[T any](v *T) (*T, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to copy record: %w", err)
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to copy record: %w", err)
	}
	return &out, nil
}

func CloneAll[T any](items []T) ([]T, error) {
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to copy records: %w", err)
	}
	out := make([]T, 0, len(items))
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to copy records: %w", err)
	}
	return out, nil
}

// MergePatch applies a JSON object onto rec in place. Keys present in the
// patch overwrite, absent keys are kept, and the id never changes.
func MergePatch[T any, P model.Record[T]](rec *T, patch []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(patch, &fields); err != nil {
		return errors.Validation("patch must be a JSON object", err)
	}

	id := P(rec).GetID()
	if err := json.Unmarshal(patch, rec); err != nil {
		return errors.Validation("invalid patch", err)
	}
	P(rec).SetID(id)
	return nil
}
