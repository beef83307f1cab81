package aamva

import (
	"fmt"
	"strings"
)

const displayDate = "January 02, 2006"

// FormatForDisplay renders an outcome as operator-facing text grouped into
// personal, license, address and physical sections. Lines whose field is
// absent are left out. A failed outcome renders as a single error line.
func FormatForDisplay(o Outcome) string {
	if !o.OK() {
		return "Error: " + o.Reason()
	}
	l := o.License

	var b strings.Builder
	b.WriteString("=== PARSED DRIVER'S LICENSE DATA ===\n\n")

	b.WriteString("PERSONAL INFORMATION:\n")
	if name := fullName(l); name != "" {
		line(&b, "Name", name)
	}
	dateLine(&b, "Date of Birth", l.DateOfBirth)
	optLine(&b, "Sex", l.Sex)

	b.WriteString("\nLICENSE INFORMATION:\n")
	optLine(&b, "License Number", l.LicenseNumber)
	optLine(&b, "State", l.AddressState)
	dateLine(&b, "Issue Date", l.IssueDate)
	dateLine(&b, "Expiration Date", l.ExpirationDate)

	b.WriteString("\nADDRESS:\n")
	optLine(&b, "Street", l.AddressStreet)
	optLine(&b, "City", l.AddressCity)
	optLine(&b, "State", l.AddressState)
	optLine(&b, "ZIP Code", l.AddressZip)

	b.WriteString("\nPHYSICAL DESCRIPTION:\n")
	if l.HeightInches != nil {
		line(&b, "Height", withUnit(*l.HeightInches, "inches"))
	}
	if l.WeightLbs != nil {
		line(&b, "Weight", withUnit(*l.WeightLbs, "lbs"))
	}
	optLine(&b, "Eye Color", l.EyeColor)
	optLine(&b, "Hair Color", l.HairColor)

	return b.String()
}

func fullName(l *License) string {
	var parts []string
	for _, p := range []*string{l.FirstName, l.MiddleName, l.LastName} {
		if p != nil {
			parts = append(parts, *p)
		}
	}
	return strings.Join(parts, " ")
}

func line(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "  %s: %s\n", label, value)
}

func optLine(b *strings.Builder, label string, value *string) {
	if value != nil {
		line(b, label, *value)
	}
}

func dateLine(b *strings.Builder, label string, value *string) {
	t, ok := isoTime(value)
	if !ok {
		return
	}
	line(b, label, t.Format(displayDate))
}

// withUnit appends unit to bare numbers; values that already carry a unit
// (e.g. "072 in") are shown verbatim.
func withUnit(value, unit string) string {
	for _, r := range value {
		if r < '0' || r > '9' {
			return value
		}
	}
	return value + " " + unit
}
