package doctor

import (
	"context"
	"sort"
	"strings"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service/crud"
)

type Service struct {
	*crud.Service[model.Doctor]
}

func NewService(store repository.Store[model.Doctor]) *Service {
	return &Service{Service: crud.New(store, "doctor")}
}

// Find applies the query, specialty and status filters together.
// Specialty and status compare case-insensitively.
func (s *Service) Find(ctx context.Context, f model.DoctorFilter) ([]model.Doctor, error) {
	return s.Filter(ctx, func(d *model.Doctor) bool {
		if f.Specialty != "" && !strings.EqualFold(d.Specialty, f.Specialty) {
			return false
		}
		if f.Status != "" && !strings.EqualFold(d.Status, f.Status) {
			return false
		}
		return d.Matches(f.Query)
	})
}

// Specialties lists each distinct specialty once, sorted.
func (s *Service) Specialties(ctx context.Context) ([]string, error) {
	doctors, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	out := []string{}
	for _, d := range doctors {
		if d.Specialty == "" || seen[d.Specialty] {
			continue
		}
		seen[d.Specialty] = true
		out = append(out, d.Specialty)
	}
	sort.Strings(out)
	return out, nil
}
