package card

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/yashdugar0209-creator/healthkey-sub000/internal/domain/audit"
	"github.com/yashdugar0209-creator/healthkey-sub000/internal/domain/identity"
	"github.com/yashdugar0209-creator/healthkey-sub000/internal/platform/db"
	redisclient "github.com/yashdugar0209-creator/healthkey-sub000/internal/platform/redis"
)

var (
	ErrMissingCardID   = errors.New("card id is required")
	ErrCardNotFound    = errors.New("card not found")
	ErrCardConflict    = errors.New("card is bound to another patient")
	ErrCardInactive    = errors.New("card is not active")
	ErrPatientNotFound = errors.New("patient not found")
)

// PatientBinder is the slice of the identity service the card service needs
// to maintain the patient side of a binding.
type PatientBinder interface {
	GetPatient(ctx context.Context, id uuid.UUID) (*identity.Patient, error)
	SetPatientCard(ctx context.Context, id uuid.UUID, cardID *string) error
}

// Service maintains the 1:1 binding between patients and NFC cards.
type Service struct {
	repo     Repository
	patients PatientBinder
	locker   redisclient.Locker
	auditor  audit.Recorder
	txRunner db.TxRunner
}

func NewService(repo Repository, patients PatientBinder, locker redisclient.Locker, auditor audit.Recorder, txRunner db.TxRunner) *Service {
	return &Service{
		repo:     repo,
		patients: patients,
		locker:   locker,
		auditor:  auditor,
		txRunner: txRunner,
	}
}

// Link binds a card to a patient. Linking the same pair again is a no-op.
// A card already bound to a different patient is a conflict regardless of its
// status. When a patient links a new card, their previous card is blocked so
// that only one card resolves to them.
func (s *Service) Link(ctx context.Context, actorID string, patientID uuid.UUID, cardID string) (*Card, error) {
	if cardID == "" {
		return nil, ErrMissingCardID
	}

	var linked *Card
	err := s.locker.WithCardLock(ctx, cardID, func(ctx context.Context) error {
		return s.txRunner(ctx, func(ctx context.Context) error {
			patient, err := s.patients.GetPatient(ctx, patientID)
			if err != nil {
				if errors.Is(err, identity.ErrProfileNotFound) {
					return ErrPatientNotFound
				}
				return err
			}

			existing, err := s.repo.GetByID(ctx, cardID)
			switch {
			case err == nil:
				if existing.PatientID != patientID {
					return ErrCardConflict
				}
				if existing.Status != StatusActive {
					return ErrCardInactive
				}
				linked = existing
				return nil
			case errors.Is(err, ErrCardNotFound):
				// fall through to create
			default:
				return err
			}

			if patient.CardID != nil && *patient.CardID != cardID {
				if err := s.repo.UpdateStatus(ctx, *patient.CardID, StatusBlocked); err != nil &&
					!errors.Is(err, ErrCardNotFound) {
					return err
				}
			}

			c := &Card{ID: cardID, PatientID: patientID, Status: StatusActive}
			if err := s.repo.Create(ctx, c); err != nil {
				return err
			}
			if err := s.patients.SetPatientCard(ctx, patientID, &cardID); err != nil {
				return err
			}
			linked = c
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, audit.Entry{
		ActorID:   actorID,
		Action:    audit.ActionCardLink,
		SubjectID: patientID.String(),
		Detail:    cardID,
	})

	return linked, nil
}

// ReportLost marks an active card lost. Lost cards stop resolving
// immediately; the patient links a replacement card afterwards.
func (s *Service) ReportLost(ctx context.Context, actorID, cardID string) (*Card, error) {
	c, err := s.repo.GetByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if c.Status != StatusActive {
		return nil, ErrCardInactive
	}
	if err := s.repo.UpdateStatus(ctx, cardID, StatusLost); err != nil {
		return nil, err
	}
	c.Status = StatusLost

	s.record(ctx, audit.Entry{
		ActorID:   actorID,
		Action:    audit.ActionCardLost,
		SubjectID: c.PatientID.String(),
		Detail:    cardID,
	})

	return c, nil
}

// Block permanently disables a card. Blocking is idempotent.
func (s *Service) Block(ctx context.Context, actorID, cardID string) (*Card, error) {
	c, err := s.repo.GetByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if c.Status == StatusBlocked {
		return c, nil
	}
	if err := s.repo.UpdateStatus(ctx, cardID, StatusBlocked); err != nil {
		return nil, err
	}
	c.Status = StatusBlocked

	s.record(ctx, audit.Entry{
		ActorID:   actorID,
		Action:    audit.ActionCardBlock,
		SubjectID: c.PatientID.String(),
		Detail:    cardID,
	})

	return c, nil
}

// ResolveActive returns the patient bound to an active card. Lost and
// blocked cards do not resolve.
func (s *Service) ResolveActive(ctx context.Context, cardID string) (uuid.UUID, error) {
	c, err := s.repo.GetByID(ctx, cardID)
	if err != nil {
		return uuid.Nil, err
	}
	if c.Status != StatusActive {
		return uuid.Nil, ErrCardInactive
	}
	return c.PatientID, nil
}

func (s *Service) record(ctx context.Context, e audit.Entry) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Record(ctx, e); err != nil {
		log.Warn().Err(err).Str("action", e.Action).Msg("audit record failed")
	}
}
