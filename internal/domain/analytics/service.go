package analytics

import (
	"context"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultTopMedications = 10
	maxTopMedications     = 100
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	return s.repo.Summary(ctx)
}

func (s *Service) States(ctx context.Context) ([]Bucket, error) {
	return s.repo.StateDistribution(ctx)
}

func (s *Service) BloodTypes(ctx context.Context) ([]Bucket, error) {
	return s.repo.BloodTypeDistribution(ctx)
}

func (s *Service) Ages(ctx context.Context) ([]Bucket, error) {
	return s.repo.AgeDistribution(ctx)
}

// TopMedications clamps limit to 1..100, defaulting to 10.
func (s *Service) TopMedications(ctx context.Context, limit int) ([]MedicationStat, error) {
	if limit <= 0 {
		limit = DefaultTopMedications
	}
	if limit > maxTopMedications {
		limit = maxTopMedications
	}
	return s.repo.TopMedications(ctx, limit)
}

func (s *Service) AllergySeverity(ctx context.Context) ([]AllergyStat, error) {
	return s.repo.AllergySeverity(ctx)
}

func (s *Service) Vaccinations(ctx context.Context) ([]VaccinationStat, error) {
	return s.repo.VaccinationCoverage(ctx)
}

// Dashboard runs every report concurrently. The first failure cancels the
// rest and is returned.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) { d.Summary, err = s.Summary(ctx); return })
	g.Go(func() (err error) { d.States, err = s.States(ctx); return })
	g.Go(func() (err error) { d.BloodTypes, err = s.BloodTypes(ctx); return })
	g.Go(func() (err error) { d.Ages, err = s.Ages(ctx); return })
	g.Go(func() (err error) { d.TopMedications, err = s.TopMedications(ctx, DefaultTopMedications); return })
	g.Go(func() (err error) { d.AllergySeverity, err = s.AllergySeverity(ctx); return })
	g.Go(func() (err error) { d.Vaccinations, err = s.Vaccinations(ctx); return })

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &d, nil
}
