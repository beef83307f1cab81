package analytics

import "context"

type Repository interface {
	Summary(ctx context.Context) (*Summary, error)
	StateDistribution(ctx context.Context) ([]Bucket, error)
	BloodTypeDistribution(ctx context.Context) ([]Bucket, error)
	// AgeDistribution returns counts labelled with AgeBands values.
	AgeDistribution(ctx context.Context) ([]Bucket, error)
	TopMedications(ctx context.Context, limit int) ([]MedicationStat, error)
	// AllergySeverity orders rows from most to least dangerous.
	AllergySeverity(ctx context.Context) ([]AllergyStat, error)
	VaccinationCoverage(ctx context.Context) ([]VaccinationStat, error)
}
