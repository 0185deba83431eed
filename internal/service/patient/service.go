package patient

import (
	"context"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service/crud"
)

type Service struct {
	*crud.Service[model.Patient]
}

func NewService(store repository.Store[model.Patient]) *Service {
	return &Service{Service: crud.New(store, "patient")}
}

// Search matches q against name, email and phone. An empty query lists
// everyone.
func (s *Service) Search(ctx context.Context, q string) ([]model.Patient, error) {
	return s.Filter(ctx, func(p *model.Patient) bool { return p.Matches(q) })
}
