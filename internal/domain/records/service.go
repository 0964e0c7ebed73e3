package records

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/yashdugar0209-creator/healthkey-sub000/internal/domain/audit"
	"github.com/yashdugar0209-creator/healthkey-sub000/internal/domain/identity"
)

var (
	ErrMissingDiagnosis = errors.New("diagnosis is required")
	ErrInvalidType      = errors.New("record type must be visit or ai_upload")
	ErrPatientNotFound  = errors.New("patient not found")
)

// PatientDirectory is the slice of the identity service the records service
// needs.
type PatientDirectory interface {
	GetPatient(ctx context.Context, id uuid.UUID) (*identity.Patient, error)
}

// Service owns the append-only medical history of each patient.
type Service struct {
	repo     Repository
	patients PatientDirectory
	auditor  audit.Recorder
	nowFn    func() time.Time
}

func NewService(repo Repository, patients PatientDirectory, auditor audit.Recorder) *Service {
	return &Service{
		repo:     repo,
		patients: patients,
		auditor:  auditor,
		nowFn:    time.Now,
	}
}

// Append adds a record to a patient's history. Entries are never updated or
// deleted afterwards.
func (s *Service) Append(ctx context.Context, actorRole, actorID string, patientID uuid.UUID, in AppendInput) (*MedicalRecord, error) {
	if in.Diagnosis == "" {
		return nil, ErrMissingDiagnosis
	}
	if !in.Type.Valid() {
		return nil, ErrInvalidType
	}

	if _, err := s.patients.GetPatient(ctx, patientID); err != nil {
		if errors.Is(err, identity.ErrProfileNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	recordedAt := s.nowFn().UTC()
	if in.RecordedAt != nil {
		recordedAt = in.RecordedAt.UTC()
	}

	record := &MedicalRecord{
		ID:           uuid.New(),
		PatientID:    patientID,
		RecordedAt:   recordedAt,
		Hospital:     in.Hospital,
		Doctor:       in.Doctor,
		Diagnosis:    in.Diagnosis,
		Prescription: in.Prescription,
		Type:         in.Type,
	}
	if err := s.repo.Append(ctx, record); err != nil {
		return nil, err
	}

	s.record(ctx, audit.Entry{
		Actor:     actorRole,
		ActorID:   actorID,
		Action:    audit.ActionRecordAdd,
		SubjectID: patientID.String(),
		Detail:    string(in.Type),
	})

	return record, nil
}

// History returns a patient's records, newest first.
func (s *Service) History(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*MedicalRecord, int, error) {
	if _, err := s.patients.GetPatient(ctx, patientID); err != nil {
		if errors.Is(err, identity.ErrProfileNotFound) {
			return nil, 0, ErrPatientNotFound
		}
		return nil, 0, err
	}
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

// Recent returns up to n newest records without an existence check; callers
// resolve the patient themselves.
func (s *Service) Recent(ctx context.Context, patientID uuid.UUID, n int) ([]*MedicalRecord, error) {
	return s.repo.RecentByPatient(ctx, patientID, n)
}

func (s *Service) record(ctx context.Context, e audit.Entry) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Record(ctx, e); err != nil {
		log.Warn().Err(err).Str("action", e.Action).Msg("audit record failed")
	}
}
