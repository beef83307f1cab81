package aamva

import (
	"strings"
	"time"
	"unicode"
)

// HeaderMarker opens every AAMVA payload once scanner framing is removed.
const HeaderMarker = "ANSI"

type fieldKind int

const (
	kindText fieldKind = iota
	kindDate
	kindSex
	kindEyeColor
	kindHairColor
)

type fieldSpec struct {
	code string
	name string
	kind fieldKind
	slot func(*License) **string
}

// fieldTable maps each supported AAMVA element ID to its semantic field.
var fieldTable = [...]fieldSpec{
	{"DAC", FieldFirstName, kindText, func(l *License) **string { return &l.FirstName }},
	{"DAD", FieldMiddleName, kindText, func(l *License) **string { return &l.MiddleName }},
	{"DCS", FieldLastName, kindText, func(l *License) **string { return &l.LastName }},
	{"DAQ", FieldLicenseNumber, kindText, func(l *License) **string { return &l.LicenseNumber }},
	{"DBB", FieldDateOfBirth, kindDate, func(l *License) **string { return &l.DateOfBirth }},
	{"DBD", FieldIssueDate, kindDate, func(l *License) **string { return &l.IssueDate }},
	{"DBA", FieldExpirationDate, kindDate, func(l *License) **string { return &l.ExpirationDate }},
	{"DAG", FieldAddressStreet, kindText, func(l *License) **string { return &l.AddressStreet }},
	{"DAI", FieldAddressCity, kindText, func(l *License) **string { return &l.AddressCity }},
	{"DAJ", FieldAddressState, kindText, func(l *License) **string { return &l.AddressState }},
	{"DAK", FieldAddressZip, kindText, func(l *License) **string { return &l.AddressZip }},
	{"DBC", FieldSex, kindSex, func(l *License) **string { return &l.Sex }},
	{"DAU", FieldHeightInches, kindText, func(l *License) **string { return &l.HeightInches }},
	{"DAW", FieldWeightLbs, kindText, func(l *License) **string { return &l.WeightLbs }},
	{"DAY", FieldEyeColor, kindEyeColor, func(l *License) **string { return &l.EyeColor }},
	{"DAZ", FieldHairColor, kindHairColor, func(l *License) **string { return &l.HairColor }},
	{"DCG", FieldCountry, kindText, func(l *License) **string { return &l.Country }},
	{"DCF", FieldDocumentDiscriminator, kindText, func(l *License) **string { return &l.DocumentDiscriminator }},
}

var sexCodes = map[string]string{
	"1": "Male",
	"2": "Female",
	"M": "Male",
	"F": "Female",
}

var eyeColorCodes = map[string]string{
	"BLK": "Black",
	"BLU": "Blue",
	"BRO": "Brown",
	"GRY": "Gray",
	"GRN": "Green",
	"HAZ": "Hazel",
	"MAR": "Maroon",
	"PNK": "Pink",
	"DIC": "Dichromatic",
}

var hairColorCodes = map[string]string{
	"BAL": "Bald",
	"BLK": "Black",
	"BLN": "Blond",
	"BRO": "Brown",
	"GRY": "Gray",
	"RED": "Red/Auburn",
	"SDY": "Sandy",
	"WHI": "White",
}

// FieldCodes returns the supported element IDs mapped to their field names.
func FieldCodes() map[string]string {
	out := make(map[string]string, len(fieldTable))
	for _, f := range fieldTable {
		out[f.code] = f.name
	}
	return out
}

// Parse decodes raw scanner output into a License. The only fatal
// conditions are a missing ANSI header (a *FormatError) and an unexpected
// internal failure (an *InternalError); malformed or missing individual
// fields leave that field nil.
func Parse(raw string) (*License, error) {
	return parseFields(raw, fieldTable[:])
}

func parseFields(raw string, fields []fieldSpec) (lic *License, err error) {
	defer func() {
		if r := recover(); r != nil {
			lic = nil
			err = &InternalError{Cause: r}
		}
	}()

	text := Normalize(raw)
	if !strings.HasPrefix(text, HeaderMarker) {
		return nil, &FormatError{Marker: HeaderMarker}
	}

	lines := strings.Split(text, "\n")
	lic = &License{}
	for _, f := range fields {
		value, ok := extractField(lines, f.code)
		if !ok {
			continue
		}
		*f.slot(lic) = decode(f.kind, value)
	}
	return lic, nil
}

// ParseOutcome is Parse folded into a single tagged value.
func ParseOutcome(raw string) Outcome {
	lic, err := Parse(raw)
	return Outcome{License: lic, Err: err}
}

// Normalize strips scanner framing: a leading "@" introducer with any
// whitespace after it, surrounding whitespace on every line, and blank
// lines. Retained lines are joined with a single "\n". The AAMVA file,
// group, record and unit separators (0x1C-0x1F) count as whitespace.
func Normalize(raw string) string {
	if strings.HasPrefix(raw, "@") {
		raw = strings.TrimLeftFunc(raw[1:], isSpace)
	}

	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")

	var kept []string
	for _, line := range strings.Split(raw, "\n") {
		line = trim(line)
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}

func trim(s string) string {
	return strings.TrimFunc(s, isSpace)
}

// extractField returns the remainder of the first line that starts with
// code. A line carrying only the code counts as absent.
func extractField(lines []string, code string) (string, bool) {
	for _, line := range lines {
		if !strings.HasPrefix(line, code) {
			continue
		}
		value := trim(line[len(code):])
		if value == "" {
			return "", false
		}
		return value, true
	}
	return "", false
}

func decode(kind fieldKind, value string) *string {
	switch kind {
	case kindDate:
		return parseDate(value)
	case kindSex:
		return lookup(sexCodes, value)
	case kindEyeColor:
		return lookup(eyeColorCodes, value)
	case kindHairColor:
		return lookup(hairColorCodes, value)
	default:
		return &value
	}
}

// parseDate converts an MMDDYYYY element into YYYY-MM-DD. Anything that is
// not exactly eight characters or not a real calendar date yields nil.
func parseDate(value string) *string {
	if len(value) != 8 {
		return nil
	}
	t, err := time.Parse("01022006", value)
	if err != nil || t.Year() < 1 {
		return nil
	}
	iso := t.Format(ISODate)
	return &iso
}

// lookup decodes a categorical code, passing unknown codes through as-is.
func lookup(table map[string]string, code string) *string {
	if label, ok := table[strings.ToUpper(code)]; ok {
		return &label
	}
	return &code
}
