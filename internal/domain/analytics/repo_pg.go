package analytics

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mias/mias/internal/domain/medical"
	"github.com/mias/mias/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

func (r *repoPG) Summary(ctx context.Context) (*Summary, error) {
	var s Summary
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM patients),
			(SELECT COUNT(*) FROM medical_conditions),
			(SELECT COUNT(*) FROM allergies),
			(SELECT COUNT(*) FROM medications WHERE end_date IS NULL OR end_date >= CURRENT_DATE),
			(SELECT COUNT(*) FROM vaccinations),
			(SELECT COUNT(*) FROM insurance WHERE is_active),
			(SELECT COUNT(*) FROM emergency_contacts),
			(SELECT ROUND(AVG(date_part('year', age(CURRENT_DATE, date_of_birth)))::numeric, 1)::float8
				FROM patients WHERE date_of_birth IS NOT NULL)`,
	).Scan(&s.TotalPatients, &s.TotalConditions, &s.TotalAllergies, &s.ActiveMedications,
		&s.TotalVaccinations, &s.ActiveInsurance, &s.EmergencyContacts, &s.AverageAge)
	if err != nil {
		return nil, fmt.Errorf("summary stats: %w", err)
	}
	return &s, nil
}

func (r *repoPG) StateDistribution(ctx context.Context) ([]Bucket, error) {
	return r.buckets(ctx, "state distribution", `
		SELECT COALESCE(NULLIF(TRIM(state), ''), 'Unknown') AS label, COUNT(*)
		FROM patients
		GROUP BY 1
		ORDER BY 2 DESC, 1`)
}

func (r *repoPG) BloodTypeDistribution(ctx context.Context) ([]Bucket, error) {
	return r.buckets(ctx, "blood type distribution", `
		SELECT COALESCE(blood_type, 'Unknown') AS label, COUNT(*)
		FROM patients
		GROUP BY 1
		ORDER BY 2 DESC, 1`)
}

func (r *repoPG) AgeDistribution(ctx context.Context) ([]Bucket, error) {
	rows, err := r.buckets(ctx, "age distribution", `
		SELECT CASE
				WHEN a IS NULL THEN 'Unknown'
				WHEN a < 18 THEN '0-17'
				WHEN a < 35 THEN '18-34'
				WHEN a < 50 THEN '35-49'
				WHEN a < 65 THEN '50-64'
				ELSE '65+'
			END AS label,
			COUNT(*)
		FROM (SELECT date_part('year', age(CURRENT_DATE, date_of_birth)) AS a FROM patients) p
		GROUP BY 1`)
	if err != nil {
		return nil, err
	}
	return orderBuckets(rows, AgeBands), nil
}

func (r *repoPG) buckets(ctx context.Context, what, query string, args ...interface{}) ([]Bucket, error) {
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	return collect(rows, what, func(row pgx.Row) (Bucket, error) {
		var b Bucket
		err := row.Scan(&b.Label, &b.Count)
		return b, err
	})
}

func (r *repoPG) TopMedications(ctx context.Context, limit int) ([]MedicationStat, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT medication_name, COUNT(DISTINCT patient_id), COUNT(*)
		FROM medications
		GROUP BY medication_name
		ORDER BY 2 DESC, 3 DESC, 1
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("medication stats: %w", err)
	}
	return collect(rows, "medication stats", func(row pgx.Row) (MedicationStat, error) {
		var m MedicationStat
		err := row.Scan(&m.MedicationName, &m.PatientCount, &m.PrescriptionCount)
		return m, err
	})
}

func (r *repoPG) AllergySeverity(ctx context.Context) ([]AllergyStat, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT severity, allergy_type, COUNT(*)
		FROM allergies
		WHERE severity IS NOT NULL
		GROUP BY severity, allergy_type
		ORDER BY array_position($1::text[], severity::text), 3 DESC`, medical.AllergySeverities)
	if err != nil {
		return nil, fmt.Errorf("allergy stats: %w", err)
	}
	return collect(rows, "allergy stats", func(row pgx.Row) (AllergyStat, error) {
		var a AllergyStat
		err := row.Scan(&a.Severity, &a.AllergyType, &a.Count)
		return a, err
	})
}

func (r *repoPG) VaccinationCoverage(ctx context.Context) ([]VaccinationStat, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT vaccine_name,
			COUNT(DISTINCT patient_id),
			COUNT(*),
			to_char(MIN(administration_date), 'YYYY-MM-DD'),
			to_char(MAX(administration_date), 'YYYY-MM-DD')
		FROM vaccinations
		GROUP BY vaccine_name
		ORDER BY 2 DESC, 1`)
	if err != nil {
		return nil, fmt.Errorf("vaccination stats: %w", err)
	}
	return collect(rows, "vaccination stats", func(row pgx.Row) (VaccinationStat, error) {
		var v VaccinationStat
		err := row.Scan(&v.VaccineName, &v.PatientsVaccinated, &v.TotalDoses, &v.FirstDoseDate, &v.LastDoseDate)
		return v, err
	})
}

func collect[T any](rows pgx.Rows, what string, scan func(pgx.Row) (T, error)) ([]T, error) {
	defer rows.Close()
	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", what, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	return out, nil
}
