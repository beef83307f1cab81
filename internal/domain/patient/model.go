package patient

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound           = errors.New("patient not found")
	ErrDuplicateLicense   = errors.New("a patient with this license number already exists")
	ErrInvalidScan        = errors.New("license scan rejected")
	ErrInvalidPIN         = errors.New("PIN must be exactly 4 digits")
	ErrInvalidCredentials = errors.New("invalid license number or PIN")
	ErrFieldNotEditable   = errors.New("field cannot be updated; allowed fields are phone, email, blood_type")
)

// ValidationError reports unacceptable input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// Patient maps to the patients table. Secrets never leave the service in
// JSON.
type Patient struct {
	ID                  uuid.UUID  `db:"id" json:"id"`
	LicenseNumber       string     `db:"license_number" json:"license_number"`
	FirstName           *string    `db:"first_name" json:"first_name"`
	LastName            *string    `db:"last_name" json:"last_name"`
	DateOfBirth         *time.Time `db:"date_of_birth" json:"date_of_birth"`
	Address             *string    `db:"address" json:"address"`
	City                *string    `db:"city" json:"city"`
	State               *string    `db:"state" json:"state"`
	ZipCode             *string    `db:"zip_code" json:"zip_code"`
	Phone               *string    `db:"phone" json:"phone"`
	Email               *string    `db:"email" json:"email"`
	BloodType           *string    `db:"blood_type" json:"blood_type"`
	PINHash             *string    `db:"pin_hash" json:"-"`
	EmergencyToken      *string    `db:"emergency_token" json:"-"`
	LastLogin           *time.Time `db:"last_login" json:"last_login,omitempty"`
	LastEmergencyAccess *time.Time `db:"last_emergency_access" json:"last_emergency_access,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// MarshalJSON renders date_of_birth as a plain date and adds the current
// age.
func (p Patient) MarshalJSON() ([]byte, error) {
	type alias Patient
	var dob *string
	if p.DateOfBirth != nil {
		s := p.DateOfBirth.Format(DateLayout)
		dob = &s
	}
	return json.Marshal(struct {
		alias
		DateOfBirth *string `json:"date_of_birth"`
		Age         *int    `json:"age"`
		HasPIN      bool    `json:"has_pin"`
	}{alias(p), dob, p.Age(time.Now()), p.HasPIN()})
}

// FullName joins the known name parts.
func (p *Patient) FullName() string {
	var parts []string
	for _, s := range []*string{p.FirstName, p.LastName} {
		if s != nil && *s != "" {
			parts = append(parts, *s)
		}
	}
	return strings.Join(parts, " ")
}

// Age is the patient's age in whole years at now, or nil without a birth
// date.
func (p *Patient) Age(now time.Time) *int {
	if p.DateOfBirth == nil {
		return nil
	}
	age := AgeAt(*p.DateOfBirth, now)
	return &age
}

// AgeAt counts completed birthdays between dob and now.
func AgeAt(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

// HasPIN reports whether portal login is enabled for the patient.
func (p *Patient) HasPIN() bool {
	return p.PINHash != nil && *p.PINHash != ""
}

var bloodTypes = map[string]bool{
	"A+": true, "A-": true, "B+": true, "B-": true,
	"AB+": true, "AB-": true, "O+": true, "O-": true,
}

// ValidBloodType reports whether s is one of the eight ABO/Rh groups.
func ValidBloodType(s string) bool {
	return bloodTypes[strings.ToUpper(strings.TrimSpace(s))]
}

// ValidPIN reports whether pin is exactly four ASCII digits.
func ValidPIN(pin string) bool {
	if len(pin) != 4 {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// editableFields maps the fields patients and staff may change after
// registration to their column names.
var editableFields = map[string]string{
	"phone":      "phone",
	"email":      "email",
	"blood_type": "blood_type",
}
