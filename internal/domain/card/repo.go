package card

import "context"

type Repository interface {
	Create(ctx context.Context, c *Card) error
	GetByID(ctx context.Context, id string) (*Card, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
}
