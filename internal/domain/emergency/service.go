package emergency

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/mias/mias/internal/domain/patient"
	"github.com/mias/mias/internal/platform/metrics"
	"github.com/mias/mias/pkg/pagination"
	"github.com/mias/mias/pkg/secrets"
)

// Config controls the URLs and images printed on patient cards.
type Config struct {
	BaseURL string
	QRSize  int
}

type Service struct {
	repo     Repository
	patients PatientReader
	records  Records
	cfg      Config
	logger   zerolog.Logger
	now      func() time.Time
	newToken func() (string, error)
}

func NewService(repo Repository, patients PatientReader, records Records, cfg Config, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		patients: patients,
		records:  records,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		newToken: func() (string, error) { return secrets.Generate(TokenBytes) },
	}
}

// IssueToken mints a fresh emergency token for the patient. Any earlier
// token stops working.
func (s *Service) IssueToken(ctx context.Context, patientID uuid.UUID) (*IssuedToken, error) {
	token, err := s.newToken()
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetToken(ctx, patientID, token); err != nil {
		return nil, err
	}
	s.logger.Info().Str("patient_id", patientID.String()).Msg("emergency token issued")
	return &IssuedToken{Token: token, URL: s.AccessURL(token)}, nil
}

// AccessURL is the link encoded in a patient's QR code.
func (s *Service) AccessURL(token string) string {
	sep := "?"
	if strings.Contains(s.cfg.BaseURL, "?") {
		sep = "&"
	}
	return s.cfg.BaseURL + sep + "token=" + url.QueryEscape(token)
}

// QRCode renders the patient's access URL as a PNG, issuing a token first
// when the patient has none.
func (s *Service) QRCode(ctx context.Context, patientID uuid.UUID) ([]byte, error) {
	p, err := s.patients.Get(ctx, patientID)
	if errors.Is(err, patient.ErrNotFound) {
		return nil, ErrPatientNotFound
	}
	if err != nil {
		return nil, err
	}

	var token string
	if p.EmergencyToken != nil && *p.EmergencyToken != "" {
		token = *p.EmergencyToken
	} else {
		issued, err := s.IssueToken(ctx, patientID)
		if err != nil {
			return nil, err
		}
		token = issued.Token
	}

	png, err := qrcode.Encode(s.AccessURL(token), qrcode.Highest, s.cfg.QRSize)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	return png, nil
}

// Access resolves a scanned token, records the access and returns the
// patient's emergency summary.
func (s *Service) Access(ctx context.Context, token, remoteIP string) (*Summary, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		metrics.EmergencyAccessTotal.WithLabelValues("denied").Inc()
		return nil, ErrInvalidToken
	}

	patientID, err := s.repo.PatientIDByToken(ctx, token)
	if errors.Is(err, ErrInvalidToken) {
		metrics.EmergencyAccessTotal.WithLabelValues("denied").Inc()
		s.logger.Warn().Str("remote_ip", remoteIP).Msg("emergency access with unknown token")
		return nil, ErrInvalidToken
	}
	if err != nil {
		metrics.EmergencyAccessTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	now := s.now().UTC()
	note := accessNote(token)
	entry := &AccessLogEntry{
		PatientID:  patientID,
		AccessType: AccessTypeQR,
		AccessTime: now,
		Notes:      &note,
	}
	if remoteIP != "" {
		entry.RemoteIP = &remoteIP
	}
	if err := s.repo.RecordAccess(ctx, entry); err != nil {
		metrics.EmergencyAccessTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	summary, err := s.summary(ctx, patientID, now)
	if err != nil {
		metrics.EmergencyAccessTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.EmergencyAccessTotal.WithLabelValues("granted").Inc()
	s.logger.Info().
		Str("patient_id", patientID.String()).
		Str("remote_ip", remoteIP).
		Msg("emergency access granted")
	return summary, nil
}

func (s *Service) summary(ctx context.Context, patientID uuid.UUID, now time.Time) (*Summary, error) {
	p, err := s.patients.Get(ctx, patientID)
	if errors.Is(err, patient.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}

	out := &Summary{Patient: card(p, now), AccessedAt: now}
	if out.Allergies, err = s.records.Allergies(ctx, patientID); err != nil {
		return nil, fmt.Errorf("load allergies: %w", err)
	}
	if out.Medications, err = s.records.ActiveMedications(ctx, patientID); err != nil {
		return nil, fmt.Errorf("load medications: %w", err)
	}
	if out.Conditions, err = s.records.Conditions(ctx, patientID); err != nil {
		return nil, fmt.Errorf("load conditions: %w", err)
	}
	if out.Contacts, err = s.records.Contacts(ctx, patientID); err != nil {
		return nil, fmt.Errorf("load contacts: %w", err)
	}
	return out, nil
}

func card(p *patient.Patient, now time.Time) PatientCard {
	c := PatientCard{
		ID:            p.ID,
		Name:          p.FullName(),
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		LicenseNumber: p.LicenseNumber,
		BloodType:     p.BloodType,
		Phone:         p.Phone,
	}
	if p.DateOfBirth != nil {
		dob := p.DateOfBirth.Format(patient.DateLayout)
		age := patient.AgeAt(*p.DateOfBirth, now)
		c.DateOfBirth, c.Age = &dob, &age
	}
	return c
}

func (s *Service) AccessLog(ctx context.Context, patientID uuid.UUID, pg pagination.Params) ([]*AccessLogEntry, int, error) {
	return s.repo.ListAccessLog(ctx, patientID, pg)
}
