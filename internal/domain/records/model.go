package records

import (
	"time"

	"github.com/google/uuid"
)

// RecordType distinguishes clinician-entered visit notes from AI-assisted
// document uploads.
type RecordType string

const (
	TypeVisit    RecordType = "visit"
	TypeAIUpload RecordType = "ai_upload"
)

func (t RecordType) Valid() bool {
	return t == TypeVisit || t == TypeAIUpload
}

// MedicalRecord is one append-only entry in a patient's history.
type MedicalRecord struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	PatientID    uuid.UUID  `db:"patient_id" json:"patient_id"`
	RecordedAt   time.Time  `db:"recorded_at" json:"recorded_at"`
	Hospital     string     `db:"hospital" json:"hospital,omitempty"`
	Doctor       string     `db:"doctor" json:"doctor,omitempty"`
	Diagnosis    string     `db:"diagnosis" json:"diagnosis"`
	Prescription string     `db:"prescription" json:"prescription,omitempty"`
	Type         RecordType `db:"record_type" json:"record_type"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// AppendInput carries the fields of a new record entry.
type AppendInput struct {
	RecordedAt   *time.Time `json:"recorded_at,omitempty"`
	Hospital     string     `json:"hospital"`
	Doctor       string     `json:"doctor"`
	Diagnosis    string     `json:"diagnosis"`
	Prescription string     `json:"prescription"`
	Type         RecordType `json:"record_type"`
}
