package card

import (
	"context"
	"errors"
	"fmt"

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

const cardCols = `id, patient_id, status, created_at, updated_at`

func scanCard(row pgx.Row) (*Card, error) {
	var c Card
	err := row.Scan(&c.ID, &c.PatientID, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCardNotFound
	}
	return &c, err
}

func (r *RepoPG) Create(ctx context.Context, c *Card) error {
	q := `INSERT INTO nfc_cards (id, patient_id, status)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`
	err := r.conn(ctx).QueryRow(ctx, q, c.ID, c.PatientID, c.Status).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrCardConflict
		}
		return fmt.Errorf("create card: %w", err)
	}
	return nil
}

func (r *RepoPG) GetByID(ctx context.Context, id string) (*Card, error) {
	q := fmt.Sprintf("SELECT %s FROM nfc_cards WHERE id = $1", cardCols)
	return scanCard(r.conn(ctx).QueryRow(ctx, q, id))
}

func (r *RepoPG) UpdateStatus(ctx context.Context, id string, status Status) error {
	tag, err := r.conn(ctx).Exec(ctx,
		"UPDATE nfc_cards SET status = $2, updated_at = now() WHERE id = $1", id, status)
	if err != nil {
		return fmt.Errorf("update card status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCardNotFound
	}
	return nil
}
