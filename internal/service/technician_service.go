package service

import (
	"context"

	"github.com/spec-kit/support-dashboard/internal/cachekey"
	"github.com/spec-kit/support-dashboard/internal/domain"
	"github.com/spec-kit/support-dashboard/internal/transport"
)

// TechnicianService is the technician view layer.
type TechnicianService struct {
	*entityService[domain.Technician, domain.TechnicianInput]
	api *transport.TechnicianAPI
}

// Available returns technicians free to take work.
func (s *TechnicianService) Available(ctx context.Context) (View[[]domain.Technician], error) {
	key := cachekey.New(cachekey.KindTechnicians, cachekey.OpAvailable, nil)
	return read(ctx, s.queries, key, s.api.Available)
}

// Workload returns one technician's open load.
func (s *TechnicianService) Workload(ctx context.Context, id int64) (View[domain.TechnicianWorkload], error) {
	key := cachekey.New(cachekey.KindTechnicians, cachekey.OpWorkload, cachekey.Params{cachekey.ParamID: id})
	return read(ctx, s.queries, key, func(ctx context.Context) (domain.TechnicianWorkload, error) {
		return s.api.Workload(ctx, id)
	})
}

// Statistics returns the backend's technician aggregate.
func (s *TechnicianService) Statistics(ctx context.Context) (View[domain.TechnicianStatistics], error) {
	key := cachekey.New(cachekey.KindTechnicians, cachekey.OpStatistics, nil)
	return read(ctx, s.queries, key, s.api.Statistics)
}
