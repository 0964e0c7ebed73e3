package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/yashdugar0209-creator/healthkey-sub000/internal/domain/audit"
	"github.com/yashdugar0209-creator/healthkey-sub000/internal/platform/auth"
	"github.com/yashdugar0209-creator/healthkey-sub000/internal/platform/db"
)

var (
	ErrInvalidRole        = errors.New("invalid role")
	ErrMissingName        = errors.New("name is required")
	ErrMissingIdentifier  = errors.New("identifier is required")
	ErrMissingPassword    = errors.New("password is required")
	ErrIdentifierTaken    = errors.New("identifier already registered for this role")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPendingApproval    = errors.New("account pending approval")
	ErrAccountRejected    = errors.New("account rejected")
	ErrUserNotFound       = errors.New("user not found")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrStateConflict      = errors.New("registration already decided")
	ErrInvalidDecision    = errors.New("decision must be approve or reject")
)

// Service owns account registration, login and the admin approval workflow.
type Service struct {
	users     UserRepository
	patients  PatientRepository
	doctors   DoctorRepository
	hospitals HospitalRepository
	tokens    *auth.TokenIssuer
	auditor   audit.Recorder
	txRunner  db.TxRunner
}

func NewService(
	users UserRepository,
	patients PatientRepository,
	doctors DoctorRepository,
	hospitals HospitalRepository,
	tokens *auth.TokenIssuer,
	auditor audit.Recorder,
	txRunner db.TxRunner,
) *Service {
	return &Service{
		users:     users,
		patients:  patients,
		doctors:   doctors,
		hospitals: hospitals,
		tokens:    tokens,
		auditor:   auditor,
		txRunner:  txRunner,
	}
}

// RegisterPatient creates a patient account. Patients skip the approval queue
// and are active immediately.
func (s *Service) RegisterPatient(ctx context.Context, in RegisterPatientInput) (*Registration, error) {
	if err := requireFields(in.Name, in.Mobile, in.Password); err != nil {
		return nil, err
	}

	userID := uuid.New()
	profileID := uuid.New()

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	allergies := in.Allergies
	if allergies == nil {
		allergies = []string{}
	}

	err = s.txRunner(ctx, func(ctx context.Context) error {
		user := &User{
			ID:           userID,
			Identifier:   strings.TrimSpace(in.Mobile),
			PasswordHash: hash,
			Role:         RolePatient,
			Status:       StatusActive,
			ProfileID:    &profileID,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return err
		}
		patient := &Patient{
			ID:                    profileID,
			UserID:                userID,
			Name:                  strings.TrimSpace(in.Name),
			Gender:                in.Gender,
			BirthDate:             in.BirthDate,
			BloodGroup:            in.BloodGroup,
			Allergies:             allergies,
			EmergencyContactName:  in.EmergencyContactName,
			EmergencyContactPhone: in.EmergencyContactPhone,
		}
		return s.patients.Create(ctx, patient)
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, audit.Entry{
		Actor:     string(RolePatient),
		ActorID:   userID.String(),
		Action:    audit.ActionRegister,
		SubjectID: userID.String(),
		Detail:    "patient registered",
	})

	return &Registration{UserID: userID, ProfileID: profileID, Role: RolePatient, Status: StatusActive}, nil
}

// RegisterDoctor creates a doctor account in pending status.
func (s *Service) RegisterDoctor(ctx context.Context, in RegisterDoctorInput) (*Registration, error) {
	if err := requireFields(in.Name, in.Email, in.Password); err != nil {
		return nil, err
	}

	userID := uuid.New()
	profileID := uuid.New()

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	err = s.txRunner(ctx, func(ctx context.Context) error {
		user := &User{
			ID:           userID,
			Identifier:   normalizeEmail(in.Email),
			PasswordHash: hash,
			Role:         RoleDoctor,
			Status:       StatusPending,
			ProfileID:    &profileID,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return err
		}
		doctor := &Doctor{
			ID:             profileID,
			UserID:         userID,
			Name:           strings.TrimSpace(in.Name),
			Specialization: in.Specialization,
			HospitalID:     in.HospitalID,
			Status:         ProfilePending,
		}
		return s.doctors.Create(ctx, doctor)
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, audit.Entry{
		Actor:     string(RoleDoctor),
		ActorID:   userID.String(),
		Action:    audit.ActionRegister,
		SubjectID: userID.String(),
		Detail:    "doctor registered, awaiting approval",
	})

	return &Registration{UserID: userID, ProfileID: profileID, Role: RoleDoctor, Status: StatusPending}, nil
}

// RegisterHospital creates a hospital account in pending status.
func (s *Service) RegisterHospital(ctx context.Context, in RegisterHospitalInput) (*Registration, error) {
	if err := requireFields(in.Name, in.Email, in.Password); err != nil {
		return nil, err
	}

	userID := uuid.New()
	profileID := uuid.New()

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	err = s.txRunner(ctx, func(ctx context.Context) error {
		user := &User{
			ID:           userID,
			Identifier:   normalizeEmail(in.Email),
			PasswordHash: hash,
			Role:         RoleHospital,
			Status:       StatusPending,
			ProfileID:    &profileID,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return err
		}
		hospital := &Hospital{
			ID:             profileID,
			UserID:         userID,
			Name:           strings.TrimSpace(in.Name),
			RegistrationNo: in.RegistrationNo,
			Status:         ProfilePending,
		}
		return s.hospitals.Create(ctx, hospital)
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, audit.Entry{
		Actor:     string(RoleHospital),
		ActorID:   userID.String(),
		Action:    audit.ActionRegister,
		SubjectID: userID.String(),
		Detail:    "hospital registered, awaiting approval",
	})

	return &Registration{UserID: userID, ProfileID: profileID, Role: RoleHospital, Status: StatusPending}, nil
}

// Login verifies a credential pair for a role and issues a signed token.
// Credential failures and status failures are reported distinctly: a wrong
// password never reveals whether the account is pending or rejected.
func (s *Service) Login(ctx context.Context, role Role, identifier, password string) (*Session, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ErrMissingIdentifier
	}
	if password == "" {
		return nil, ErrMissingPassword
	}

	user, err := s.users.GetByRoleIdentifier(ctx, role, identifier)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.VerifyPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	switch user.Status {
	case StatusPending:
		return nil, ErrPendingApproval
	case StatusRejected:
		return nil, ErrAccountRejected
	}

	token, err := s.tokens.Issue(user.ID, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.record(ctx, audit.Entry{
		Actor:     string(user.Role),
		ActorID:   user.ID.String(),
		Action:    audit.ActionLogin,
		SubjectID: user.ID.String(),
	})

	return &Session{UserID: user.ID, Role: user.Role, Status: user.Status, Token: token}, nil
}

// Decide resolves a pending doctor or hospital registration. The user row is
// locked for the duration of the transaction so that two concurrent decisions
// on the same registration cannot both apply. Re-confirming a terminal state
// is a no-op; asking for the opposite one fails with ErrStateConflict.
func (s *Service) Decide(ctx context.Context, adminID, userID uuid.UUID, decision Decision) (*User, error) {
	var target Status
	switch decision {
	case DecisionApprove:
		target = StatusActive
	case DecisionReject:
		target = StatusRejected
	default:
		return nil, ErrInvalidDecision
	}

	var decided *User
	alreadyDecided := false
	err := s.txRunner(ctx, func(ctx context.Context) error {
		user, err := s.users.GetByIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if user.Role != RoleDoctor && user.Role != RoleHospital {
			return ErrInvalidRole
		}
		if user.Status == target {
			decided = user
			alreadyDecided = true
			return nil
		}
		if user.Status != StatusPending {
			return ErrStateConflict
		}

		if err := s.users.UpdateStatus(ctx, user.ID, target); err != nil {
			return err
		}

		profileStatus := profileStatusFor(target)
		switch user.Role {
		case RoleDoctor:
			err = s.doctors.UpdateStatusByUserID(ctx, user.ID, profileStatus)
		case RoleHospital:
			err = s.hospitals.UpdateStatusByUserID(ctx, user.ID, profileStatus)
		}
		if err != nil {
			return err
		}

		user.Status = target
		decided = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	if alreadyDecided {
		return decided, nil
	}

	action := audit.ActionApprove
	if decision == DecisionReject {
		action = audit.ActionReject
	}
	s.record(ctx, audit.Entry{
		Actor:     string(RoleAdmin),
		ActorID:   adminID.String(),
		Action:    action,
		SubjectID: userID.String(),
		Detail:    fmt.Sprintf("%s registration: %s", decided.Role, decision),
	})

	return decided, nil
}

// ListRegistrations returns pending doctor and hospital signups for admin
// review, oldest first.
func (s *Service) ListRegistrations(ctx context.Context, limit, offset int) ([]*User, int, error) {
	return s.users.ListByStatus(ctx, StatusPending, limit, offset)
}

// GetPatient returns a patient profile by its profile id.
func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

// SetPatientCard updates the card binding on a patient profile.
func (s *Service) SetPatientCard(ctx context.Context, id uuid.UUID, cardID *string) error {
	return s.patients.SetCard(ctx, id, cardID)
}

func (s *Service) record(ctx context.Context, e audit.Entry) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Record(ctx, e); err != nil {
		log.Warn().Err(err).Str("action", e.Action).Msg("audit record failed")
	}
}

func requireFields(name, identifier, password string) error {
	if strings.TrimSpace(name) == "" {
		return ErrMissingName
	}
	if strings.TrimSpace(identifier) == "" {
		return ErrMissingIdentifier
	}
	if password == "" {
		return ErrMissingPassword
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
