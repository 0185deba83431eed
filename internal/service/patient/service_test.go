package patient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository/memory"
	"github.com/jwalitptl/clinic-api/pkg/errors"
)

func newService(t *testing.T) *Service {
	t.Helper()
	svc := NewService(memory.NewStore[model.Patient](model.CollectionPatients, memory.Options{}))
	ctx := context.Background()
	for _, p := range []model.Patient{
		{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Phone: "555-0101"},
		{FirstName: "Alan", LastName: "Turing", Email: "alan@example.com", Phone: "555-0102"},
		{FirstName: "Grace", LastName: "Hopper", Email: "grace@navy.mil", Phone: "555-0199"},
	} {
		p := p
		_, err := svc.Create(ctx, &p)
		require.NoError(t, err)
	}
	return svc
}

func TestService_Search(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	got, err := svc.Search(ctx, "LOVE")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Ada", got[0].FirstName)

	got, err = svc.Search(ctx, "example.com")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = svc.Search(ctx, "0199")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Hopper", got[0].LastName)

	got, err = svc.Search(ctx, "  ")
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestService_GetMissing(t *testing.T) {
	svc := newService(t)

	_, err := svc.Get(context.Background(), 42)
	assert.True(t, errors.IsNotFound(err))
	assert.EqualError(t, err, "patient not found")
}

func TestService_UpdateAndDelete(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	updated, err := svc.UpdateFields(ctx, 1, map[string]interface{}{"phone": "555-9999"})
	require.NoError(t, err)
	assert.Equal(t, "555-9999", updated.Phone)
	assert.Equal(t, "Ada", updated.FirstName)

	_, err = svc.Update(ctx, 1, []byte(`[1,2]`))
	assert.True(t, errors.IsValidation(err))

	_, err = svc.Delete(ctx, 1)
	require.NoError(t, err)
	_, err = svc.Delete(ctx, 1)
	assert.True(t, errors.IsNotFound(err))
}
