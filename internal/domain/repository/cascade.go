package repository

import (
	"context"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// CascadeStepRepository persists the per-order side effect ledger.
type CascadeStepRepository interface {
	List(ctx context.Context, orderID string) ([]model.CascadeStep, error)
	Record(ctx context.Context, orderID, key string, state model.StepState, detail string) error
}
