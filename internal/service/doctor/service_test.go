package doctor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository/memory"
)

func seeded(t *testing.T) *Service {
	t.Helper()
	svc := NewService(memory.NewStore[model.Doctor](model.CollectionDoctors, memory.Options{}))
	for _, d := range []model.Doctor{
		{Name: "Dr. Meredith Grey", Specialty: "Surgery", Department: "General Surgery"},
		{Name: "Dr. Derek Shepherd", Specialty: "Neurology", Status: model.DoctorStatusOnLeave},
		{Name: "Dr. Miranda Bailey", Specialty: "Surgery", Email: "bailey@clinic.test"},
		{Name: "Dr. Preston Burke", Specialty: "Cardiology", Status: model.DoctorStatusInactive},
	} {
		d := d
		_, err := svc.Create(context.Background(), &d)
		require.NoError(t, err)
	}
	return svc
}

func TestService_Find(t *testing.T) {
	svc := seeded(t)
	ctx := context.Background()

	got, err := svc.Find(ctx, model.DoctorFilter{Specialty: "surgery"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = svc.Find(ctx, model.DoctorFilter{Specialty: "Surgery", Query: "bailey"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Dr. Miranda Bailey", got[0].Name)

	got, err = svc.Find(ctx, model.DoctorFilter{Status: model.DoctorStatusActive})
	require.NoError(t, err)
	assert.Len(t, got, 2, "status defaults to Active")

	got, err = svc.Find(ctx, model.DoctorFilter{Query: "neuro"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.DoctorStatusOnLeave, got[0].Status)
}

func TestService_Specialties(t *testing.T) {
	svc := seeded(t)

	got, err := svc.Specialties(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Cardiology", "Neurology", "Surgery"}, got)
}
