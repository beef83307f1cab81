package aamva

// PersistenceRecord is the subset of a license accepted by the patient
// registry. Phone, Email and BloodType never appear in barcode data and are
// always nil until an operator supplies them.
type PersistenceRecord struct {
	LicenseNumber *string `json:"license_number"`
	FirstName     *string `json:"first_name"`
	LastName      *string `json:"last_name"`
	DateOfBirth   *string `json:"date_of_birth"`
	Address       *string `json:"address"`
	City          *string `json:"city"`
	State         *string `json:"state"`
	ZipCode       *string `json:"zip_code"`
	Phone         *string `json:"phone"`
	Email         *string `json:"email"`
	BloodType     *string `json:"blood_type"`
}

// PrepareForPersistence projects a successful outcome onto the registry
// record. It returns ErrInvalidState for a failed or empty outcome.
func PrepareForPersistence(o Outcome) (PersistenceRecord, error) {
	if !o.OK() {
		return PersistenceRecord{}, ErrInvalidState
	}
	l := o.License
	return PersistenceRecord{
		LicenseNumber: l.LicenseNumber,
		FirstName:     l.FirstName,
		LastName:      l.LastName,
		DateOfBirth:   l.DateOfBirth,
		Address:       l.AddressStreet,
		City:          l.AddressCity,
		State:         l.AddressState,
		ZipCode:       l.AddressZip,
	}, nil
}
