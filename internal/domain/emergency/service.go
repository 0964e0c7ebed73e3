package emergency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/yashdugar0209-creator/healthkey-sub000/internal/domain/audit"
	"github.com/yashdugar0209-creator/healthkey-sub000/internal/domain/card"
	"github.com/yashdugar0209-creator/healthkey-sub000/internal/domain/identity"
	"github.com/yashdugar0209-creator/healthkey-sub000/internal/domain/records"
)

var (
	ErrMissingCardID   = errors.New("card id is required")
	ErrMissingAccessor = errors.New("accessor name and id are required")
	ErrMissingReason   = errors.New("reason is required")
	ErrCardNotFound    = errors.New("card not found")
	ErrCardInactive    = errors.New("card is not active")
	ErrGrantNotFound   = errors.New("grant not found")
	ErrQuotaExceeded   = errors.New("emergency access quota exceeded")
)

// CardResolver resolves an active card to its patient.
type CardResolver interface {
	ResolveActive(ctx context.Context, cardID string) (uuid.UUID, error)
}

// PatientReader loads patient profiles.
type PatientReader interface {
	GetPatient(ctx context.Context, id uuid.UUID) (*identity.Patient, error)
}

// RecordReader loads the newest history entries of a patient.
type RecordReader interface {
	Recent(ctx context.Context, patientID uuid.UUID, n int) ([]*records.MedicalRecord, error)
}

// Service owns break-glass access: issuing time-boxed grants against NFC
// cards, validating them, and sweeping the ones the clock has passed.
type Service struct {
	grants      GrantRepository
	cards       CardResolver
	patients    PatientReader
	records     RecordReader
	quota       *accessQuota
	auditor     audit.Recorder
	grantTTL    time.Duration
	recordLimit int
	nowFn       func() time.Time
}

func NewService(
	grants GrantRepository,
	cards CardResolver,
	patients PatientReader,
	recordReader RecordReader,
	auditor audit.Recorder,
	grantTTL time.Duration,
	recordLimit int,
	hourlyQuota int,
) *Service {
	return &Service{
		grants:      grants,
		cards:       cards,
		patients:    patients,
		records:     recordReader,
		quota:       newAccessQuota(hourlyQuota),
		auditor:     auditor,
		grantTTL:    grantTTL,
		recordLimit: recordLimit,
		nowFn:       time.Now,
	}
}

// GrantAccess issues a break-glass grant against a card and returns the
// patient's critical information. No prior authentication is required; the
// accessor identifies themselves and states a reason, and every disclosure
// is written to the audit log.
func (s *Service) GrantAccess(ctx context.Context, in GrantInput) (*GrantResult, error) {
	if in.CardID == "" {
		return nil, ErrMissingCardID
	}
	if in.AccessorName == "" || in.AccessorID == "" {
		return nil, ErrMissingAccessor
	}
	if in.Reason == "" {
		return nil, ErrMissingReason
	}

	if !s.quota.Allow(in.AccessorID) {
		return nil, ErrQuotaExceeded
	}

	patientID, err := s.cards.ResolveActive(ctx, in.CardID)
	if err != nil {
		switch {
		case errors.Is(err, card.ErrCardNotFound):
			return nil, ErrCardNotFound
		case errors.Is(err, card.ErrCardInactive):
			return nil, ErrCardInactive
		}
		return nil, err
	}

	patient, err := s.patients.GetPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	recent, err := s.records.Recent(ctx, patientID, s.recordLimit)
	if err != nil {
		return nil, err
	}
	if recent == nil {
		recent = []*records.MedicalRecord{}
	}

	now := s.nowFn().UTC()
	grant := &Grant{
		ID:           uuid.New(),
		CardID:       in.CardID,
		PatientID:    patientID,
		AccessorName: in.AccessorName,
		AccessorID:   in.AccessorID,
		Reason:       in.Reason,
		IssuedAt:     now,
		ExpiresAt:    now.Add(s.grantTTL),
		Status:       GrantActive,
	}
	if err := s.grants.Create(ctx, grant); err != nil {
		return nil, err
	}

	s.record(ctx, audit.Entry{
		Actor:     "emergency",
		ActorID:   in.AccessorID,
		Action:    audit.ActionGrantIssue,
		SubjectID: patientID.String(),
		Detail:    fmt.Sprintf("card=%s reason=%s", in.CardID, in.Reason),
	})

	critical := &CriticalInfo{
		PatientID:             patient.ID,
		Name:                  patient.Name,
		BloodGroup:            patient.BloodGroup,
		Allergies:             patient.Allergies,
		EmergencyContactName:  patient.EmergencyContactName,
		EmergencyContactPhone: patient.EmergencyContactPhone,
		RecentRecords:         recent,
	}

	return &GrantResult{Grant: grant, Critical: critical}, nil
}

// validateAccess reports whether a grant admits access at the given instant.
// A grant is valid while its status is active and the instant is before its
// expiry; once either fails it can never become valid again.
func validateAccess(g *Grant, at time.Time) bool {
	return g.Status == GrantActive && at.Before(g.ExpiresAt)
}

// CheckAccess reports whether a grant currently admits access.
func (s *Service) CheckAccess(ctx context.Context, grantID uuid.UUID) (bool, *Grant, error) {
	grant, err := s.grants.GetByID(ctx, grantID)
	if err != nil {
		return false, nil, err
	}
	return validateAccess(grant, s.nowFn()), grant, nil
}

// RevokeAccess ends a grant ahead of its expiry by moving the expiry to now.
// Revoking an already expired grant is a no-op.
func (s *Service) RevokeAccess(ctx context.Context, actorID string, grantID uuid.UUID) (*Grant, error) {
	grant, err := s.grants.GetByID(ctx, grantID)
	if err != nil {
		return nil, err
	}
	if grant.Status == GrantExpired {
		return grant, nil
	}

	now := s.nowFn().UTC()
	if err := s.grants.Expire(ctx, grantID, now); err != nil {
		return nil, err
	}
	grant.Status = GrantExpired
	grant.ExpiresAt = now

	s.record(ctx, audit.Entry{
		ActorID:   actorID,
		Action:    audit.ActionGrantRevoke,
		SubjectID: grant.PatientID.String(),
		Detail:    grant.CardID,
	})

	return grant, nil
}

// SweepExpired flips active grants whose expiry has passed. Validation does
// not depend on the sweep; it only keeps stored rows consistent with the
// clock.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.grants.ExpireOverdue(ctx, s.nowFn())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Info().Int64("count", n).Msg("expired overdue grants")
	}
	return n, nil
}

func (s *Service) record(ctx context.Context, e audit.Entry) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Record(ctx, e); err != nil {
		log.Warn().Err(err).Str("action", e.Action).Msg("audit record failed")
	}
}
