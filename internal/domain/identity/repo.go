package identity

import (
	"context"

	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	// GetByIDForUpdate locks the user row for the duration of the enclosing
	// transaction, linearizing concurrent status transitions.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*User, error)
	GetByRoleIdentifier(ctx context.Context, role Role, identifier string) (*User, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	ListByStatus(ctx context.Context, status Status, limit, offset int) ([]*User, int, error)
}

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByCardID(ctx context.Context, cardID string) (*Patient, error)
	SetCard(ctx context.Context, id uuid.UUID, cardID *string) error
}

type DoctorRepository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	UpdateStatusByUserID(ctx context.Context, userID uuid.UUID, status ProfileStatus) error
}

type HospitalRepository interface {
	Create(ctx context.Context, h *Hospital) error
	GetByID(ctx context.Context, id uuid.UUID) (*Hospital, error)
	UpdateStatusByUserID(ctx context.Context, userID uuid.UUID, status ProfileStatus) error
}
