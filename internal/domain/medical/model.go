package medical

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrPatientNotFound = errors.New("patient not found")
)

// ValidationError reports unacceptable input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

const DateLayout = "2006-01-02"

// Date is a calendar date that travels as YYYY-MM-DD in JSON.
type Date struct {
	time.Time
}

func NewDate(t time.Time) *Date {
	y, m, d := t.Date()
	return &Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(DateLayout))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return fmt.Errorf("date %q must be YYYY-MM-DD", s)
	}
	d.Time = t
	return nil
}

func (d *Date) ptr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

func fromPtr(t *time.Time) *Date {
	if t == nil {
		return nil
	}
	return NewDate(*t)
}

// Header is the identity shared by every record kind.
type Header struct {
	ID        uuid.UUID `json:"id"`
	PatientID uuid.UUID `json:"patient_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *Header) header() *Header { return h }

// Record is implemented by the pointer to each record kind.
type Record interface {
	header() *Header
	normalize(today time.Time) error
}

type Condition struct {
	Header
	ConditionName string  `json:"condition_name"`
	DiagnosisDate *Date   `json:"diagnosis_date"`
	Severity      *string `json:"severity"`
	Notes         *string `json:"notes"`
}

func (c *Condition) normalize(time.Time) error {
	if err := required(&c.ConditionName, "condition_name"); err != nil {
		return err
	}
	c.Severity = optional(c.Severity)
	c.Notes = optional(c.Notes)
	return nil
}

type Allergy struct {
	Header
	Allergen    string  `json:"allergen"`
	AllergyType *string `json:"allergy_type"`
	Reaction    *string `json:"reaction"`
	Severity    *string `json:"severity"`
}

// AllergySeverities lists accepted severities, most dangerous first.
var AllergySeverities = []string{"Life-threatening", "Severe", "Moderate", "Mild"}

func (a *Allergy) normalize(time.Time) error {
	if err := required(&a.Allergen, "allergen"); err != nil {
		return err
	}
	a.AllergyType = optional(a.AllergyType)
	a.Reaction = optional(a.Reaction)
	a.Severity = optional(a.Severity)
	if a.Severity != nil {
		canon, ok := canonicalSeverity(*a.Severity)
		if !ok {
			return invalid("severity must be one of %s", strings.Join(AllergySeverities, ", "))
		}
		a.Severity = &canon
	}
	return nil
}

func canonicalSeverity(s string) (string, bool) {
	for _, v := range AllergySeverities {
		if strings.EqualFold(v, s) {
			return v, true
		}
	}
	return "", false
}

type Medication struct {
	Header
	MedicationName    string  `json:"medication_name"`
	Dosage            *string `json:"dosage"`
	Frequency         *string `json:"frequency"`
	StartDate         *Date   `json:"start_date"`
	EndDate           *Date   `json:"end_date"`
	PrescribingDoctor *string `json:"prescribing_doctor"`
	Notes             *string `json:"notes"`
}

func (m *Medication) normalize(today time.Time) error {
	if err := required(&m.MedicationName, "medication_name"); err != nil {
		return err
	}
	if m.StartDate == nil {
		m.StartDate = NewDate(today)
	}
	if m.EndDate != nil && m.EndDate.Before(m.StartDate.Time) {
		return invalid("end_date is before start_date")
	}
	m.Dosage = optional(m.Dosage)
	m.Frequency = optional(m.Frequency)
	m.PrescribingDoctor = optional(m.PrescribingDoctor)
	m.Notes = optional(m.Notes)
	return nil
}

// Active reports whether the medication has no end date or ends on or
// after day.
func (m *Medication) Active(day time.Time) bool {
	return m.EndDate == nil || !m.EndDate.Before(NewDate(day).Time)
}

type Vaccination struct {
	Header
	VaccineName        string  `json:"vaccine_name"`
	AdministrationDate *Date   `json:"administration_date"`
	NextDueDate        *Date   `json:"next_due_date"`
	LotNumber          *string `json:"lot_number"`
	AdministeredBy     *string `json:"administered_by"`
}

func (v *Vaccination) normalize(time.Time) error {
	if err := required(&v.VaccineName, "vaccine_name"); err != nil {
		return err
	}
	v.LotNumber = optional(v.LotNumber)
	v.AdministeredBy = optional(v.AdministeredBy)
	return nil
}

type Insurance struct {
	Header
	ProviderName   string  `json:"provider_name"`
	PolicyNumber   string  `json:"policy_number"`
	GroupNumber    *string `json:"group_number"`
	EffectiveDate  *Date   `json:"effective_date"`
	ExpirationDate *Date   `json:"expiration_date"`
	IsActive       *bool   `json:"is_active"`
}

func (i *Insurance) normalize(time.Time) error {
	if err := required(&i.ProviderName, "provider_name"); err != nil {
		return err
	}
	if err := required(&i.PolicyNumber, "policy_number"); err != nil {
		return err
	}
	if i.EffectiveDate != nil && i.ExpirationDate != nil && i.ExpirationDate.Before(i.EffectiveDate.Time) {
		return invalid("expiration_date is before effective_date")
	}
	i.GroupNumber = optional(i.GroupNumber)
	if i.IsActive == nil {
		active := true
		i.IsActive = &active
	}
	return nil
}

type Contact struct {
	Header
	ContactName    string  `json:"contact_name"`
	Relationship   *string `json:"relationship"`
	PhonePrimary   string  `json:"phone_primary"`
	PhoneSecondary *string `json:"phone_secondary"`
	Email          *string `json:"email"`
	PriorityOrder  int     `json:"priority_order"`
}

func (c *Contact) normalize(time.Time) error {
	if err := required(&c.ContactName, "contact_name"); err != nil {
		return err
	}
	if err := required(&c.PhonePrimary, "phone_primary"); err != nil {
		return err
	}
	if c.PriorityOrder < 0 {
		return invalid("priority_order must be positive")
	}
	if c.PriorityOrder == 0 {
		c.PriorityOrder = 1
	}
	c.Relationship = optional(c.Relationship)
	c.PhoneSecondary = optional(c.PhoneSecondary)
	c.Email = optional(c.Email)
	return nil
}

func required(s *string, field string) error {
	*s = strings.TrimSpace(*s)
	if *s == "" {
		return invalid("%s is required", field)
	}
	return nil
}

func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
