package analytics

// Summary holds registry-wide counts.
type Summary struct {
	TotalPatients     int64    `json:"total_patients"`
	TotalConditions   int64    `json:"total_conditions"`
	TotalAllergies    int64    `json:"total_allergies"`
	ActiveMedications int64    `json:"active_medications"`
	TotalVaccinations int64    `json:"total_vaccinations"`
	ActiveInsurance   int64    `json:"active_insurance"`
	EmergencyContacts int64    `json:"emergency_contacts"`
	AverageAge        *float64 `json:"average_age"`
}

// Bucket is one bar of a distribution.
type Bucket struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

type MedicationStat struct {
	MedicationName    string `json:"medication_name"`
	PatientCount      int64  `json:"patient_count"`
	PrescriptionCount int64  `json:"prescription_count"`
}

type AllergyStat struct {
	Severity    string  `json:"severity"`
	AllergyType *string `json:"allergy_type"`
	Count       int64   `json:"count"`
}

type VaccinationStat struct {
	VaccineName        string  `json:"vaccine_name"`
	PatientsVaccinated int64   `json:"patients_vaccinated"`
	TotalDoses         int64   `json:"total_doses"`
	FirstDoseDate      *string `json:"first_dose_date"`
	LastDoseDate       *string `json:"last_dose_date"`
}

// Dashboard is every report in one response.
type Dashboard struct {
	Summary         *Summary          `json:"summary"`
	States          []Bucket          `json:"states"`
	BloodTypes      []Bucket          `json:"blood_types"`
	Ages            []Bucket          `json:"ages"`
	TopMedications  []MedicationStat  `json:"top_medications"`
	AllergySeverity []AllergyStat     `json:"allergy_severity"`
	Vaccinations    []VaccinationStat `json:"vaccinations"`
}

const unknownLabel = "Unknown"

// AgeBands are the age distribution labels in display order.
var AgeBands = []string{"0-17", "18-34", "35-49", "50-64", "65+", unknownLabel}

// orderBuckets arranges rows to follow labels, filling missing labels with
// zero. Rows whose label is not listed are appended in their given order.
func orderBuckets(rows []Bucket, labels []string) []Bucket {
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Label] += r.Count
	}
	out := make([]Bucket, 0, len(labels))
	seen := make(map[string]bool, len(labels))
	for _, l := range labels {
		out = append(out, Bucket{Label: l, Count: counts[l]})
		seen[l] = true
	}
	for _, r := range rows {
		if !seen[r.Label] {
			out = append(out, r)
			seen[r.Label] = true
		}
	}
	return out
}
