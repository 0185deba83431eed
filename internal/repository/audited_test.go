package repository_test

import (
	"context"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/repository/memory"
	"github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

type auditEntry struct {
	action     string
	collection string
	id         int64
	patch      string
}

type recordingAuditor struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (a *recordingAuditor) Record(_ context.Context, action, collection string, id int64, patch []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, auditEntry{action, collection, id, string(patch)})
}

func TestWithAudit_RecordsSuccessfulMutations(t *testing.T) {
	ctx := context.Background()
	auditor := &recordingAuditor{}
	m := metrics.New("test")
	stores := repository.Audited(memory.NewStores(memory.Options{}).Repository(), auditor, m)

	created, err := stores.Patients.Create(ctx, &model.Patient{FirstName: "Ada", LastName: "Lovelace"})
	require.NoError(t, err)
	_, err = stores.Patients.Update(ctx, created.ID, []byte(`{"phone":"555"}`))
	require.NoError(t, err)
	_, err = stores.Patients.Get(ctx, created.ID)
	require.NoError(t, err)
	_, err = stores.Patients.Delete(ctx, created.ID)
	require.NoError(t, err)

	_, err = stores.Patients.Delete(ctx, created.ID)
	assert.True(t, errors.IsNotFound(err))

	assert.Equal(t, []auditEntry{
		{repository.ActionCreate, model.CollectionPatients, created.ID, ""},
		{repository.ActionUpdate, model.CollectionPatients, created.ID, `{"phone":"555"}`},
		{repository.ActionDelete, model.CollectionPatients, created.ID, ""},
	}, auditor.entries)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOperations.WithLabelValues(model.CollectionPatients, "delete", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOperations.WithLabelValues(model.CollectionPatients, "delete", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOperations.WithLabelValues(model.CollectionPatients, "get", "success")))
}

func TestWithAudit_NilAuditorAndMetrics(t *testing.T) {
	ctx := context.Background()
	store := repository.WithAudit[model.Doctor](
		memory.NewStore[model.Doctor](model.CollectionDoctors, memory.Options{}),
		model.CollectionDoctors, nil, nil,
	)

	created, err := store.Create(ctx, &model.Doctor{Name: "Dr. Grey", Specialty: "Cardiology"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)

	pinger, ok := store.(repository.Pinger)
	require.True(t, ok)
	assert.NoError(t, pinger.Ping(ctx))
}
