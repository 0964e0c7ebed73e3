package emergency

import (
	"context"
	"errors"
	"fmt"
	"time"

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

type GrantRepoPG struct {
	pool *pgxpool.Pool
}

func NewGrantRepoPG(pool *pgxpool.Pool) *GrantRepoPG {
	return &GrantRepoPG{pool: pool}
}

func (r *GrantRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const grantCols = `id, card_id, patient_id, accessor_name, accessor_id, reason, issued_at, expires_at, status, created_at`

func scanGrant(row pgx.Row) (*Grant, error) {
	var g Grant
	err := row.Scan(&g.ID, &g.CardID, &g.PatientID, &g.AccessorName, &g.AccessorID,
		&g.Reason, &g.IssuedAt, &g.ExpiresAt, &g.Status, &g.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrGrantNotFound
	}
	return &g, err
}

func (r *GrantRepoPG) Create(ctx context.Context, g *Grant) error {
	q := `INSERT INTO access_grants (id, card_id, patient_id, accessor_name, accessor_id, reason, issued_at, expires_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`
	err := r.conn(ctx).QueryRow(ctx, q,
		g.ID, g.CardID, g.PatientID, g.AccessorName, g.AccessorID, g.Reason, g.IssuedAt, g.ExpiresAt, g.Status,
	).Scan(&g.CreatedAt)
	if err != nil {
		return fmt.Errorf("create grant: %w", err)
	}
	return nil
}

func (r *GrantRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Grant, error) {
	q := fmt.Sprintf("SELECT %s FROM access_grants WHERE id = $1", grantCols)
	return scanGrant(r.conn(ctx).QueryRow(ctx, q, id))
}

func (r *GrantRepoPG) Expire(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.conn(ctx).Exec(ctx,
		"UPDATE access_grants SET status = $2, expires_at = $3 WHERE id = $1",
		id, GrantExpired, at)
	if err != nil {
		return fmt.Errorf("expire grant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrGrantNotFound
	}
	return nil
}

func (r *GrantRepoPG) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.conn(ctx).Exec(ctx,
		"UPDATE access_grants SET status = $1 WHERE status = $2 AND expires_at <= $3",
		GrantExpired, GrantActive, now)
	if err != nil {
		return 0, fmt.Errorf("expire overdue grants: %w", err)
	}
	return tag.RowsAffected(), nil
}
