package emergency

import (
	"context"
	"fmt"

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

const accessLogCols = `id, patient_id, access_type, access_time, remote_ip, notes`

func (r *repoPG) SetToken(ctx context.Context, patientID uuid.UUID, token string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE patients SET emergency_token = $2, updated_at = NOW() WHERE id = $1`, patientID, token)
	if err != nil {
		return fmt.Errorf("save emergency token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}

func (r *repoPG) PatientIDByToken(ctx context.Context, token string) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id FROM patients WHERE emergency_token = $1`, token).Scan(&id)
	if db.IsNoRows(err) {
		return uuid.Nil, ErrInvalidToken
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("lookup emergency token: %w", err)
	}
	return id, nil
}

func (r *repoPG) RecordAccess(ctx context.Context, e *AccessLogEntry) error {
	e.ID = uuid.New()
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		if _, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO access_log (`+accessLogCols+`)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			e.ID, e.PatientID, e.AccessType, e.AccessTime, e.RemoteIP, e.Notes,
		); err != nil {
			return fmt.Errorf("insert access log: %w", err)
		}
		if _, err := r.conn(ctx).Exec(ctx,
			`UPDATE patients SET last_emergency_access = $2 WHERE id = $1`, e.PatientID, e.AccessTime,
		); err != nil {
			return fmt.Errorf("stamp emergency access: %w", err)
		}
		return nil
	})
}

func (r *repoPG) ListAccessLog(ctx context.Context, patientID uuid.UUID, pg pagination.Params) ([]*AccessLogEntry, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM access_log WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count access log: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+accessLogCols+` FROM access_log
		WHERE patient_id = $1
		ORDER BY access_time DESC
		LIMIT $2 OFFSET $3`, patientID, pg.Limit, pg.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list access log: %w", err)
	}
	defer rows.Close()

	var out []*AccessLogEntry
	for rows.Next() {
		e, err := scanAccess(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan access log: %w", err)
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

func scanAccess(row pgx.Row) (*AccessLogEntry, error) {
	var e AccessLogEntry
	if err := row.Scan(&e.ID, &e.PatientID, &e.AccessType, &e.AccessTime, &e.RemoteIP, &e.Notes); err != nil {
		return nil, err
	}
	return &e, nil
}
