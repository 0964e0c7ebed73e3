package identity

import (
	"time"

	"github.com/google/uuid"
)

// Role of a directory account. Immutable after registration.
type Role string

const (
	RolePatient  Role = "patient"
	RoleDoctor   Role = "doctor"
	RoleHospital Role = "hospital"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleHospital, RoleAdmin:
		return true
	}
	return false
}

// Status of a user account. Patients are active on creation; doctor and
// hospital accounts start pending and reach active or rejected through an
// admin decision. Both active and rejected are terminal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusRejected Status = "rejected"
)

// ProfileStatus mirrors the owning user's status on doctor and hospital
// profiles. The pair always changes together.
type ProfileStatus string

const (
	ProfilePending  ProfileStatus = "pending"
	ProfileApproved ProfileStatus = "approved"
	ProfileRejected ProfileStatus = "rejected"
)

// profileStatusFor maps a user status to the matching profile status.
func profileStatusFor(s Status) ProfileStatus {
	switch s {
	case StatusActive:
		return ProfileApproved
	case StatusRejected:
		return ProfileRejected
	default:
		return ProfilePending
	}
}

// User maps to the users table. Identifier is an email address, or a mobile
// number for patients.
type User struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Identifier   string     `db:"identifier" json:"identifier"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         Role       `db:"role" json:"role"`
	Status       Status     `db:"status" json:"status"`
	ProfileID    *uuid.UUID `db:"profile_id" json:"profile_id,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Patient maps to the patients table.
type Patient struct {
	ID                    uuid.UUID  `db:"id" json:"id"`
	UserID                uuid.UUID  `db:"user_id" json:"user_id"`
	Name                  string     `db:"name" json:"name"`
	Gender                *string    `db:"gender" json:"gender,omitempty"`
	BirthDate             *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	BloodGroup            string     `db:"blood_group" json:"blood_group"`
	Allergies             []string   `db:"allergies" json:"allergies"`
	EmergencyContactName  string     `db:"emergency_contact_name" json:"emergency_contact_name"`
	EmergencyContactPhone string     `db:"emergency_contact_phone" json:"emergency_contact_phone"`
	CardID                *string    `db:"card_id" json:"card_id,omitempty"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updated_at"`
}

// Doctor maps to the doctors table.
type Doctor struct {
	ID             uuid.UUID     `db:"id" json:"id"`
	UserID         uuid.UUID     `db:"user_id" json:"user_id"`
	Name           string        `db:"name" json:"name"`
	Specialization string        `db:"specialization" json:"specialization"`
	HospitalID     *uuid.UUID    `db:"hospital_id" json:"hospital_id,omitempty"`
	Status         ProfileStatus `db:"status" json:"status"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}

// Hospital maps to the hospitals table.
type Hospital struct {
	ID             uuid.UUID     `db:"id" json:"id"`
	UserID         uuid.UUID     `db:"user_id" json:"user_id"`
	Name           string        `db:"name" json:"name"`
	RegistrationNo string        `db:"registration_no" json:"registration_no"`
	Status         ProfileStatus `db:"status" json:"status"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}

// RegisterPatientInput carries the validated fields of a patient signup.
type RegisterPatientInput struct {
	Name                  string     `json:"name"`
	Mobile                string     `json:"mobile"`
	Password              string     `json:"password"`
	Gender                *string    `json:"gender,omitempty"`
	BirthDate             *time.Time `json:"birth_date,omitempty"`
	BloodGroup            string     `json:"blood_group"`
	Allergies             []string   `json:"allergies"`
	EmergencyContactName  string     `json:"emergency_contact_name"`
	EmergencyContactPhone string     `json:"emergency_contact_phone"`
}

// RegisterDoctorInput carries the validated fields of a doctor signup.
type RegisterDoctorInput struct {
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Password       string     `json:"password"`
	Specialization string     `json:"specialization"`
	HospitalID     *uuid.UUID `json:"hospital_id,omitempty"`
}

// RegisterHospitalInput carries the validated fields of a hospital signup.
type RegisterHospitalInput struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	RegistrationNo string `json:"registration_no"`
}

// Registration is the outcome of a signup.
type Registration struct {
	UserID    uuid.UUID `json:"user_id"`
	ProfileID uuid.UUID `json:"profile_id"`
	Role      Role      `json:"role"`
	Status    Status    `json:"status"`
}

// Session is the outcome of a successful login.
type Session struct {
	UserID uuid.UUID `json:"user_id"`
	Role   Role      `json:"role"`
	Status Status    `json:"status"`
	Token  string    `json:"token"`
}

// Decision is an admin verdict on a pending registration.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)
