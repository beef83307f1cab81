package medical

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mias/mias/internal/platform/db"
)

// table describes how one record kind maps onto its SQL table. cols lists
// the kind's own columns; id, patient_id and created_at are implied.
type table[T Record] struct {
	name    string
	cols    []string
	orderBy string
	values  func(T) []interface{}
	// scan reads id, patient_id, cols..., created_at.
	scan func(pgx.Row) (T, error)
}

type repoPG[T Record] struct {
	pool *pgxpool.Pool
	t    table[T]
}

// NewRepos returns Postgres-backed repositories for every record kind.
func NewRepos(pool *pgxpool.Pool) Repos {
	return Repos{
		Conditions:   &repoPG[*Condition]{pool: pool, t: conditionsTable},
		Allergies:    &repoPG[*Allergy]{pool: pool, t: allergiesTable},
		Medications:  &repoPG[*Medication]{pool: pool, t: medicationsTable},
		Vaccinations: &repoPG[*Vaccination]{pool: pool, t: vaccinationsTable},
		Insurance:    &repoPG[*Insurance]{pool: pool, t: insuranceTable},
		Contacts:     &repoPG[*Contact]{pool: pool, t: contactsTable},
	}
}

func (r *repoPG[T]) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

func (r *repoPG[T]) selectCols() string {
	return "id, patient_id, " + strings.Join(r.t.cols, ", ") + ", created_at"
}

func (r *repoPG[T]) Add(ctx context.Context, rec T) error {
	h := rec.header()
	h.ID = uuid.New()
	h.CreatedAt = time.Now().UTC()

	args := append([]interface{}{h.ID, h.PatientID}, r.t.values(rec)...)
	args = append(args, h.CreatedAt)
	marks := make([]string, len(args))
	for i := range marks {
		marks[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		r.t.name, r.selectCols(), strings.Join(marks, ", "))
	if _, err := r.conn(ctx).Exec(ctx, query, args...); err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrPatientNotFound
		}
		return fmt.Errorf("insert %s: %w", r.t.name, err)
	}
	return nil
}

func (r *repoPG[T]) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]T, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE patient_id = $1 ORDER BY %s`,
		r.selectCols(), r.t.name, r.t.orderBy)
	rows, err := r.conn(ctx).Query(ctx, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.t.name, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		rec, err := r.t.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", r.t.name, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *repoPG[T]) Delete(ctx context.Context, patientID, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND patient_id = $2`, r.t.name), id, patientID)
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.t.name, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var conditionsTable = table[*Condition]{
	name:    "medical_conditions",
	cols:    []string{"condition_name", "diagnosis_date", "severity", "notes"},
	orderBy: "diagnosis_date DESC NULLS LAST, created_at DESC",
	values: func(c *Condition) []interface{} {
		return []interface{}{c.ConditionName, c.DiagnosisDate.ptr(), c.Severity, c.Notes}
	},
	scan: func(row pgx.Row) (*Condition, error) {
		var c Condition
		var diagnosed *time.Time
		if err := row.Scan(&c.ID, &c.PatientID, &c.ConditionName, &diagnosed, &c.Severity, &c.Notes, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.DiagnosisDate = fromPtr(diagnosed)
		return &c, nil
	},
}

var allergiesTable = table[*Allergy]{
	name:    "allergies",
	cols:    []string{"allergen", "allergy_type", "reaction", "severity"},
	orderBy: "created_at",
	values: func(a *Allergy) []interface{} {
		return []interface{}{a.Allergen, a.AllergyType, a.Reaction, a.Severity}
	},
	scan: func(row pgx.Row) (*Allergy, error) {
		var a Allergy
		if err := row.Scan(&a.ID, &a.PatientID, &a.Allergen, &a.AllergyType, &a.Reaction, &a.Severity, &a.CreatedAt); err != nil {
			return nil, err
		}
		return &a, nil
	},
}

var medicationsTable = table[*Medication]{
	name:    "medications",
	cols:    []string{"medication_name", "dosage", "frequency", "start_date", "end_date", "prescribing_doctor", "notes"},
	orderBy: "start_date DESC, created_at DESC",
	values: func(m *Medication) []interface{} {
		return []interface{}{m.MedicationName, m.Dosage, m.Frequency, m.StartDate.ptr(), m.EndDate.ptr(), m.PrescribingDoctor, m.Notes}
	},
	scan: func(row pgx.Row) (*Medication, error) {
		var m Medication
		var start, end *time.Time
		if err := row.Scan(&m.ID, &m.PatientID, &m.MedicationName, &m.Dosage, &m.Frequency,
			&start, &end, &m.PrescribingDoctor, &m.Notes, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.StartDate, m.EndDate = fromPtr(start), fromPtr(end)
		return &m, nil
	},
}

var vaccinationsTable = table[*Vaccination]{
	name:    "vaccinations",
	cols:    []string{"vaccine_name", "administration_date", "next_due_date", "lot_number", "administered_by"},
	orderBy: "administration_date DESC NULLS LAST, created_at DESC",
	values: func(v *Vaccination) []interface{} {
		return []interface{}{v.VaccineName, v.AdministrationDate.ptr(), v.NextDueDate.ptr(), v.LotNumber, v.AdministeredBy}
	},
	scan: func(row pgx.Row) (*Vaccination, error) {
		var v Vaccination
		var given, due *time.Time
		if err := row.Scan(&v.ID, &v.PatientID, &v.VaccineName, &given, &due, &v.LotNumber, &v.AdministeredBy, &v.CreatedAt); err != nil {
			return nil, err
		}
		v.AdministrationDate, v.NextDueDate = fromPtr(given), fromPtr(due)
		return &v, nil
	},
}

var insuranceTable = table[*Insurance]{
	name:    "insurance",
	cols:    []string{"provider_name", "policy_number", "group_number", "effective_date", "expiration_date", "is_active"},
	orderBy: "is_active DESC, effective_date DESC NULLS LAST",
	values: func(i *Insurance) []interface{} {
		return []interface{}{i.ProviderName, i.PolicyNumber, i.GroupNumber, i.EffectiveDate.ptr(), i.ExpirationDate.ptr(), i.IsActive}
	},
	scan: func(row pgx.Row) (*Insurance, error) {
		var i Insurance
		var eff, exp *time.Time
		if err := row.Scan(&i.ID, &i.PatientID, &i.ProviderName, &i.PolicyNumber, &i.GroupNumber,
			&eff, &exp, &i.IsActive, &i.CreatedAt); err != nil {
			return nil, err
		}
		i.EffectiveDate, i.ExpirationDate = fromPtr(eff), fromPtr(exp)
		return &i, nil
	},
}

var contactsTable = table[*Contact]{
	name:    "emergency_contacts",
	cols:    []string{"contact_name", "relationship", "phone_primary", "phone_secondary", "email", "priority_order"},
	orderBy: "priority_order, created_at",
	values: func(c *Contact) []interface{} {
		return []interface{}{c.ContactName, c.Relationship, c.PhonePrimary, c.PhoneSecondary, c.Email, c.PriorityOrder}
	},
	scan: func(row pgx.Row) (*Contact, error) {
		var c Contact
		if err := row.Scan(&c.ID, &c.PatientID, &c.ContactName, &c.Relationship, &c.PhonePrimary,
			&c.PhoneSecondary, &c.Email, &c.PriorityOrder, &c.CreatedAt); err != nil {
			return nil, err
		}
		return &c, nil
	},
}
