package aamva

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Semantic field names produced by the parser. They double as the JSON keys
// of a License.
const (
	FieldFirstName             = "first_name"
	FieldMiddleName            = "middle_name"
	FieldLastName              = "last_name"
	FieldLicenseNumber         = "license_number"
	FieldDateOfBirth           = "date_of_birth"
	FieldIssueDate             = "issue_date"
	FieldExpirationDate        = "expiration_date"
	FieldAddressStreet         = "address_street"
	FieldAddressCity           = "address_city"
	FieldAddressState          = "address_state"
	FieldAddressZip            = "address_zip"
	FieldSex                   = "sex"
	FieldHeightInches          = "height_inches"
	FieldWeightLbs             = "weight_lbs"
	FieldEyeColor              = "eye_color"
	FieldHairColor             = "hair_color"
	FieldCountry               = "country"
	FieldDocumentDiscriminator = "document_discriminator"
)

// ISODate is the layout of every date-valued License field.
const ISODate = "2006-01-02"

// License is a decoded driver's license. A nil field means the element was
// absent from the scan or could not be decoded.
type License struct {
	FirstName             *string `json:"first_name"`
	MiddleName            *string `json:"middle_name"`
	LastName              *string `json:"last_name"`
	LicenseNumber         *string `json:"license_number"`
	DateOfBirth           *string `json:"date_of_birth"`
	IssueDate             *string `json:"issue_date"`
	ExpirationDate        *string `json:"expiration_date"`
	AddressStreet         *string `json:"address_street"`
	AddressCity           *string `json:"address_city"`
	AddressState          *string `json:"address_state"`
	AddressZip            *string `json:"address_zip"`
	Sex                   *string `json:"sex"`
	HeightInches          *string `json:"height_inches"`
	WeightLbs             *string `json:"weight_lbs"`
	EyeColor              *string `json:"eye_color"`
	HairColor             *string `json:"hair_color"`
	Country               *string `json:"country"`
	DocumentDiscriminator *string `json:"document_discriminator"`
}

// Fields returns the license as a map keyed by semantic field name. Every
// known field name is present; absent values are nil.
func (l *License) Fields() map[string]*string {
	out := make(map[string]*string, len(fieldTable))
	for _, f := range fieldTable {
		out[f.name] = *f.slot(l)
	}
	return out
}

// Get returns the value of the named field, or "" when it is absent or the
// name is unknown.
func (l *License) Get(name string) string {
	for _, f := range fieldTable {
		if f.name == name {
			if v := *f.slot(l); v != nil {
				return *v
			}
			return ""
		}
	}
	return ""
}

// BirthDate returns the decoded date of birth as a time.Time.
func (l *License) BirthDate() (time.Time, bool) {
	return isoTime(l.DateOfBirth)
}

// Expired reports whether the license expiration date is before now. A
// license without a decodable expiration date is not considered expired.
func (l *License) Expired(now time.Time) bool {
	exp, ok := isoTime(l.ExpirationDate)
	if !ok {
		return false
	}
	return exp.Before(now.Truncate(24 * time.Hour))
}

func isoTime(v *string) (time.Time, bool) {
	if v == nil {
		return time.Time{}, false
	}
	t, err := time.Parse(ISODate, *v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

// ErrFormat is matched by errors.Is for any FormatError.
var ErrFormat = errors.New("invalid barcode format")

// ErrInvalidState is returned by operations that require a successful parse.
var ErrInvalidState = errors.New("data not parsed yet")

// FormatError reports a scan that does not carry the AAMVA header marker.
type FormatError struct {
	Marker string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("Invalid barcode format - must start with %s", e.Marker)
}

func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// InternalError wraps an unexpected failure raised while decoding a scan.
type InternalError struct {
	Cause interface{}
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("unexpected failure: %v", e.Cause)
}

// ---------------------------------------------------------------------------
// Outcome
// ---------------------------------------------------------------------------

// Outcome is the tagged result of one parse call: either a license or the
// error that prevented one.
type Outcome struct {
	License *License
	Err     error
}

// OK reports whether the parse succeeded.
func (o Outcome) OK() bool { return o.Err == nil && o.License != nil }

// Reason returns the human readable failure reason, or "" on success.
func (o Outcome) Reason() string {
	if o.OK() {
		return ""
	}
	if o.Err == nil {
		return "Parse error: " + ErrInvalidState.Error()
	}
	return "Parse error: " + o.Err.Error()
}

// MarshalJSON renders a success as {"success":true,"license":{...}} and a
// failure as {"success":false,"error":"..."}.
func (o Outcome) MarshalJSON() ([]byte, error) {
	if o.OK() {
		return json.Marshal(struct {
			Success bool     `json:"success"`
			License *License `json:"license"`
		}{true, o.License})
	}
	return json.Marshal(struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}{false, o.Reason()})
}
