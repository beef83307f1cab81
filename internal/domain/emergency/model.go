package emergency

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mias/mias/internal/domain/medical"
)

var (
	ErrInvalidToken    = errors.New("invalid or expired emergency token")
	ErrPatientNotFound = errors.New("patient not found")
)

// AccessTypeQR marks access log rows written by an emergency QR scan.
const AccessTypeQR = "emergency_qr_access"

// TokenBytes is the entropy of an emergency token before encoding.
const TokenBytes = 32

// tokenPreview is how much of a token the access log keeps.
const tokenPreview = 16

type AccessLogEntry struct {
	ID         uuid.UUID `json:"id"`
	PatientID  uuid.UUID `json:"patient_id"`
	AccessType string    `json:"access_type"`
	AccessTime time.Time `json:"access_time"`
	RemoteIP   *string   `json:"remote_ip"`
	Notes      *string   `json:"notes"`
}

// accessNote records which token was used without storing it whole.
func accessNote(token string) string {
	if len(token) > tokenPreview {
		token = token[:tokenPreview]
	}
	return "Emergency QR code scanned - Token: " + token + "..."
}

// PatientCard is the identifying part of an emergency summary.
type PatientCard struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	FirstName     *string   `json:"first_name"`
	LastName      *string   `json:"last_name"`
	DateOfBirth   *string   `json:"date_of_birth"`
	Age           *int      `json:"age"`
	LicenseNumber string    `json:"license_number"`
	BloodType     *string   `json:"blood_type"`
	Phone         *string   `json:"phone"`
}

// Summary is what a responder sees after scanning a patient's QR code.
type Summary struct {
	Patient     PatientCard           `json:"patient"`
	Allergies   []*medical.Allergy    `json:"allergies"`
	Medications []*medical.Medication `json:"medications"`
	Conditions  []*medical.Condition  `json:"conditions"`
	Contacts    []*medical.Contact    `json:"contacts"`
	AccessedAt  time.Time             `json:"accessed_at"`
}

// IssuedToken is returned when staff mint a token for a patient card.
type IssuedToken struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}
