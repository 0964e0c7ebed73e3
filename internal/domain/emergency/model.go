package emergency

import (
	"time"

	"github.com/google/uuid"

	"github.com/yashdugar0209-creator/healthkey-sub000/internal/domain/records"
)

// GrantStatus of an emergency access grant. Grants are created active and
// become expired either by the clock or by revocation. Expired is terminal.
type GrantStatus string

const (
	GrantActive  GrantStatus = "active"
	GrantExpired GrantStatus = "expired"
)

// Grant is a time-boxed record of one break-glass access to a patient's
// critical information through their NFC card.
type Grant struct {
	ID           uuid.UUID   `db:"id" json:"id"`
	CardID       string      `db:"card_id" json:"card_id"`
	PatientID    uuid.UUID   `db:"patient_id" json:"patient_id"`
	AccessorName string      `db:"accessor_name" json:"accessor_name"`
	AccessorID   string      `db:"accessor_id" json:"accessor_id"`
	Reason       string      `db:"reason" json:"reason"`
	IssuedAt     time.Time   `db:"issued_at" json:"issued_at"`
	ExpiresAt    time.Time   `db:"expires_at" json:"expires_at"`
	Status       GrantStatus `db:"status" json:"status"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
}

// GrantInput carries the fields of a break-glass request.
type GrantInput struct {
	CardID       string `json:"card_id"`
	AccessorName string `json:"accessor_name"`
	AccessorID   string `json:"accessor_id"`
	Reason       string `json:"reason"`
}

// CriticalInfo is the limited projection of a patient disclosed during an
// emergency: identity basics, blood group, allergies, the emergency contact
// and the most recent history entries. Nothing else leaves the directory.
type CriticalInfo struct {
	PatientID             uuid.UUID                `json:"patient_id"`
	Name                  string                   `json:"name"`
	BloodGroup            string                   `json:"blood_group"`
	Allergies             []string                 `json:"allergies"`
	EmergencyContactName  string                   `json:"emergency_contact_name"`
	EmergencyContactPhone string                   `json:"emergency_contact_phone"`
	RecentRecords         []*records.MedicalRecord `json:"recent_records"`
}

// GrantResult is the response to a successful break-glass request.
type GrantResult struct {
	Grant    *Grant        `json:"grant"`
	Critical *CriticalInfo `json:"critical"`
}
