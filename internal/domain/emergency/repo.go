package emergency

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type GrantRepository interface {
	Create(ctx context.Context, g *Grant) error
	GetByID(ctx context.Context, id uuid.UUID) (*Grant, error)
	// Expire marks one grant expired and moves its expiry to at.
	Expire(ctx context.Context, id uuid.UUID, at time.Time) error
	// ExpireOverdue flips every active grant whose expiry has passed.
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}
