package clinicalnote

import (
	"context"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service/crud"
)

type Service struct {
	*crud.Service[model.ClinicalNote]
}

func NewService(store repository.Store[model.ClinicalNote]) *Service {
	return &Service{Service: crud.New(store, "clinical note")}
}

func (s *Service) ByPatient(ctx context.Context, patientID int64) ([]model.ClinicalNote, error) {
	return s.Filter(ctx, func(n *model.ClinicalNote) bool { return n.PatientID == patientID })
}
