package audit

import (
	"time"

	"github.com/google/uuid"
)

// Entry is a single append-only audit trail record. Entries are never
// mutated or deleted outside the retention purge.
type Entry struct {
	ID         uuid.UUID `db:"id" json:"id"`
	RecordedAt time.Time `db:"recorded_at" json:"recorded_at"`
	Actor      string    `db:"actor" json:"actor"`
	ActorID    string    `db:"actor_id" json:"actor_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	SubjectID  string    `db:"subject_id" json:"subject_id,omitempty"`
	Detail     string    `db:"detail" json:"detail,omitempty"`
}

// Actions recorded by the directory services.
const (
	ActionRegister    = "user.register"
	ActionLogin       = "user.login"
	ActionApprove     = "user.approve"
	ActionReject      = "user.reject"
	ActionRecordAdd   = "record.append"
	ActionCardLink    = "card.link"
	ActionCardLost    = "card.lost"
	ActionCardBlock   = "card.block"
	ActionGrantIssue  = "grant.issue"
	ActionGrantRevoke = "grant.revoke"
)

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Actor   string
	ActorID string
	Action  string
	Subject string
}
