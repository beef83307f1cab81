package patient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mias/mias/internal/platform/db"
	"github.com/mias/mias/pkg/pagination"
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

const patientCols = `id, license_number, first_name, last_name, date_of_birth,
	address, city, state, zip_code, phone, email, blood_type,
	pin_hash, emergency_token, last_login, last_emergency_access,
	created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patients (
			id, license_number, first_name, last_name, date_of_birth,
			address, city, state, zip_code, phone, email, blood_type,
			pin_hash, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		p.ID, p.LicenseNumber, p.FirstName, p.LastName, p.DateOfBirth,
		p.Address, p.City, p.State, p.ZipCode, p.Phone, p.Email, p.BloodType,
		p.PINHash, p.CreatedAt, p.UpdatedAt,
	)
	if db.IsUniqueViolation(err, "idx_patients_license") {
		return ErrDuplicateLicense
	}
	if err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return r.getOne(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id)
}

func (r *repoPG) GetByLicense(ctx context.Context, licenseNumber string) (*Patient, error) {
	return r.getOne(ctx, `SELECT `+patientCols+` FROM patients WHERE license_number = $1`, licenseNumber)
}

func (r *repoPG) getOne(ctx context.Context, query string, arg interface{}) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, query, arg))
	if db.IsNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return p, nil
}

func (r *repoPG) Search(ctx context.Context, term string, pg pagination.Params) ([]*Patient, int, error) {
	where := ""
	args := []interface{}{}
	if term = strings.TrimSpace(term); term != "" {
		where = ` WHERE license_number ILIKE $1 OR first_name ILIKE $1 OR last_name ILIKE $1`
		args = append(args, "%"+escapeLike(term)+"%")
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patients`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count patients: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM patients%s ORDER BY last_name, first_name, id LIMIT $%d OFFSET $%d`,
		patientCols, where, len(args)+1, len(args)+2)
	rows, err := r.conn(ctx).Query(ctx, query, append(args, pg.Limit, pg.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("search patients: %w", err)
	}
	defer rows.Close()

	var out []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan patient: %w", err)
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// Delete removes the patient; medical records and the access log go with
// it through ON DELETE CASCADE.
func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) UpdateField(ctx context.Context, id uuid.UUID, column string, value *string) error {
	// column is interpolated, so it must come from the fixed allow-list.
	allowed := false
	for _, c := range editableFields {
		if c == column {
			allowed = true
		}
	}
	if !allowed {
		return ErrFieldNotEditable
	}
	return r.exec(ctx, `UPDATE patients SET `+column+` = $2, updated_at = NOW() WHERE id = $1`, id, value)
}

func (r *repoPG) SetPINHash(ctx context.Context, id uuid.UUID, hash string) error {
	return r.exec(ctx, `UPDATE patients SET pin_hash = $2, updated_at = NOW() WHERE id = $1`, id, hash)
}

func (r *repoPG) TouchLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.exec(ctx, `UPDATE patients SET last_login = $2 WHERE id = $1`, id, at)
}

func (r *repoPG) exec(ctx context.Context, query string, id uuid.UUID, arg interface{}) error {
	tag, err := r.conn(ctx).Exec(ctx, query, id, arg)
	if err != nil {
		return fmt.Errorf("update patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID, &p.LicenseNumber, &p.FirstName, &p.LastName, &p.DateOfBirth,
		&p.Address, &p.City, &p.State, &p.ZipCode, &p.Phone, &p.Email, &p.BloodType,
		&p.PINHash, &p.EmergencyToken, &p.LastLogin, &p.LastEmergencyAccess,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
