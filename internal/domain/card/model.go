package card

import (
	"time"

	"github.com/google/uuid"
)

// Status of an NFC card. Active cards resolve to their patient; lost and
// blocked cards do not. Lost is reported by the holder, blocked by an admin
// or by being superseded.
type Status string

const (
	StatusActive  Status = "active"
	StatusLost    Status = "lost"
	StatusBlocked Status = "blocked"
)

// Card maps to the nfc_cards table. The id is the card's hardware UID.
type Card struct {
	ID        string    `db:"id" json:"id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	Status    Status    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
