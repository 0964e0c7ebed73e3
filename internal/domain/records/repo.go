package records

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Append(ctx context.Context, r *MedicalRecord) error
	// ListByPatient returns records newest first.
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*MedicalRecord, int, error)
	// RecentByPatient returns up to n newest records.
	RecentByPatient(ctx context.Context, patientID uuid.UUID, n int) ([]*MedicalRecord, error)
}
