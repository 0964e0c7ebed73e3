package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yashdugar0209-creator/healthkey-sub000/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

func conn(ctx context.Context, pool *pgxpool.Pool) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

// -- Users --

type UserRepoPG struct {
	pool *pgxpool.Pool
}

func NewUserRepoPG(pool *pgxpool.Pool) *UserRepoPG {
	return &UserRepoPG{pool: pool}
}

const userCols = `id, identifier, password_hash, role, status, profile_id, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Identifier, &u.PasswordHash, &u.Role, &u.Status, &u.ProfileID, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return &u, err
}

func (r *UserRepoPG) Create(ctx context.Context, u *User) error {
	q := `INSERT INTO users (id, identifier, password_hash, role, status, profile_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`
	err := conn(ctx, r.pool).QueryRow(ctx, q,
		u.ID, u.Identifier, u.PasswordHash, u.Role, u.Status, u.ProfileID,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrIdentifierTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	q := fmt.Sprintf("SELECT %s FROM users WHERE id = $1", userCols)
	return scanUser(conn(ctx, r.pool).QueryRow(ctx, q, id))
}

func (r *UserRepoPG) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*User, error) {
	q := fmt.Sprintf("SELECT %s FROM users WHERE id = $1 FOR UPDATE", userCols)
	return scanUser(conn(ctx, r.pool).QueryRow(ctx, q, id))
}

func (r *UserRepoPG) GetByRoleIdentifier(ctx context.Context, role Role, identifier string) (*User, error) {
	q := fmt.Sprintf("SELECT %s FROM users WHERE role = $1 AND identifier = $2", userCols)
	return scanUser(conn(ctx, r.pool).QueryRow(ctx, q, role, identifier))
}

func (r *UserRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	tag, err := conn(ctx, r.pool).Exec(ctx,
		"UPDATE users SET status = $2, updated_at = now() WHERE id = $1", id, status)
	if err != nil {
		return fmt.Errorf("update user status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepoPG) ListByStatus(ctx context.Context, status Status, limit, offset int) ([]*User, int, error) {
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx,
		"SELECT COUNT(*) FROM users WHERE status = $1", status).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := fmt.Sprintf("SELECT %s FROM users WHERE status = $1 ORDER BY created_at LIMIT $2 OFFSET $3", userCols)
	rows, err := conn(ctx, r.pool).Query(ctx, q, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, u)
	}
	return items, total, rows.Err()
}

// -- Patients --

type PatientRepoPG struct {
	pool *pgxpool.Pool
}

func NewPatientRepoPG(pool *pgxpool.Pool) *PatientRepoPG {
	return &PatientRepoPG{pool: pool}
}

const patientCols = `id, user_id, name, gender, birth_date, blood_group, allergies,
	emergency_contact_name, emergency_contact_phone, card_id, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Gender, &p.BirthDate, &p.BloodGroup, &p.Allergies,
		&p.EmergencyContactName, &p.EmergencyContactPhone, &p.CardID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	return &p, err
}

func (r *PatientRepoPG) Create(ctx context.Context, p *Patient) error {
	q := `INSERT INTO patients (id, user_id, name, gender, birth_date, blood_group, allergies,
		emergency_contact_name, emergency_contact_phone, card_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`
	err := conn(ctx, r.pool).QueryRow(ctx, q,
		p.ID, p.UserID, p.Name, p.Gender, p.BirthDate, p.BloodGroup, p.Allergies,
		p.EmergencyContactName, p.EmergencyContactPhone, p.CardID,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create patient: %w", err)
	}
	return nil
}

func (r *PatientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	q := fmt.Sprintf("SELECT %s FROM patients WHERE id = $1", patientCols)
	return scanPatient(conn(ctx, r.pool).QueryRow(ctx, q, id))
}

func (r *PatientRepoPG) GetByCardID(ctx context.Context, cardID string) (*Patient, error) {
	q := fmt.Sprintf("SELECT %s FROM patients WHERE card_id = $1", patientCols)
	return scanPatient(conn(ctx, r.pool).QueryRow(ctx, q, cardID))
}

func (r *PatientRepoPG) SetCard(ctx context.Context, id uuid.UUID, cardID *string) error {
	tag, err := conn(ctx, r.pool).Exec(ctx,
		"UPDATE patients SET card_id = $2, updated_at = now() WHERE id = $1", id, cardID)
	if err != nil {
		return fmt.Errorf("set patient card: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// -- Doctors --

type DoctorRepoPG struct {
	pool *pgxpool.Pool
}

func NewDoctorRepoPG(pool *pgxpool.Pool) *DoctorRepoPG {
	return &DoctorRepoPG{pool: pool}
}

const doctorCols = `id, user_id, name, specialization, hospital_id, status, created_at, updated_at`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.UserID, &d.Name, &d.Specialization, &d.HospitalID, &d.Status, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	return &d, err
}

func (r *DoctorRepoPG) Create(ctx context.Context, d *Doctor) error {
	q := `INSERT INTO doctors (id, user_id, name, specialization, hospital_id, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`
	err := conn(ctx, r.pool).QueryRow(ctx, q,
		d.ID, d.UserID, d.Name, d.Specialization, d.HospitalID, d.Status,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create doctor: %w", err)
	}
	return nil
}

func (r *DoctorRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	q := fmt.Sprintf("SELECT %s FROM doctors WHERE id = $1", doctorCols)
	return scanDoctor(conn(ctx, r.pool).QueryRow(ctx, q, id))
}

func (r *DoctorRepoPG) UpdateStatusByUserID(ctx context.Context, userID uuid.UUID, status ProfileStatus) error {
	tag, err := conn(ctx, r.pool).Exec(ctx,
		"UPDATE doctors SET status = $2, updated_at = now() WHERE user_id = $1", userID, status)
	if err != nil {
		return fmt.Errorf("update doctor status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// -- Hospitals --

type HospitalRepoPG struct {
	pool *pgxpool.Pool
}

func NewHospitalRepoPG(pool *pgxpool.Pool) *HospitalRepoPG {
	return &HospitalRepoPG{pool: pool}
}

const hospitalCols = `id, user_id, name, registration_no, status, created_at, updated_at`

func scanHospital(row pgx.Row) (*Hospital, error) {
	var h Hospital
	err := row.Scan(&h.ID, &h.UserID, &h.Name, &h.RegistrationNo, &h.Status, &h.CreatedAt, &h.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	return &h, err
}

func (r *HospitalRepoPG) Create(ctx context.Context, h *Hospital) error {
	q := `INSERT INTO hospitals (id, user_id, name, registration_no, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`
	err := conn(ctx, r.pool).QueryRow(ctx, q,
		h.ID, h.UserID, h.Name, h.RegistrationNo, h.Status,
	).Scan(&h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create hospital: %w", err)
	}
	return nil
}

func (r *HospitalRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	q := fmt.Sprintf("SELECT %s FROM hospitals WHERE id = $1", hospitalCols)
	return scanHospital(conn(ctx, r.pool).QueryRow(ctx, q, id))
}

func (r *HospitalRepoPG) UpdateStatusByUserID(ctx context.Context, userID uuid.UUID, status ProfileStatus) error {
	tag, err := conn(ctx, r.pool).Exec(ctx,
		"UPDATE hospitals SET status = $2, updated_at = now() WHERE user_id = $1", userID, status)
	if err != nil {
		return fmt.Errorf("update hospital status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}
