package records

import (
	"context"
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

type RepoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) *RepoPG {
	return &RepoPG{pool: pool}
}

func (r *RepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const recordCols = `id, patient_id, recorded_at, hospital, doctor, diagnosis, prescription, record_type, created_at`

func scanRecord(row pgx.Row) (*MedicalRecord, error) {
	var m MedicalRecord
	err := row.Scan(&m.ID, &m.PatientID, &m.RecordedAt, &m.Hospital, &m.Doctor,
		&m.Diagnosis, &m.Prescription, &m.Type, &m.CreatedAt)
	return &m, err
}

func (r *RepoPG) Append(ctx context.Context, m *MedicalRecord) error {
	q := `INSERT INTO medical_records (id, patient_id, recorded_at, hospital, doctor, diagnosis, prescription, record_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`
	err := r.conn(ctx).QueryRow(ctx, q,
		m.ID, m.PatientID, m.RecordedAt, m.Hospital, m.Doctor, m.Diagnosis, m.Prescription, m.Type,
	).Scan(&m.CreatedAt)
	if err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}

func (r *RepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*MedicalRecord, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		"SELECT COUNT(*) FROM medical_records WHERE patient_id = $1", patientID).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := fmt.Sprintf(`SELECT %s FROM medical_records
		WHERE patient_id = $1
		ORDER BY recorded_at DESC, created_at DESC
		LIMIT $2 OFFSET $3`, recordCols)
	rows, err := r.conn(ctx).Query(ctx, q, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*MedicalRecord
	for rows.Next() {
		m, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, total, rows.Err()
}

func (r *RepoPG) RecentByPatient(ctx context.Context, patientID uuid.UUID, n int) ([]*MedicalRecord, error) {
	q := fmt.Sprintf(`SELECT %s FROM medical_records
		WHERE patient_id = $1
		ORDER BY recorded_at DESC, created_at DESC
		LIMIT $2`, recordCols)
	rows, err := r.conn(ctx).Query(ctx, q, patientID, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*MedicalRecord
	for rows.Next() {
		m, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}
