package repository

import (
	"context"
	"time"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// DuplicateCriteria identifies orders considered to be the same submission.
type DuplicateCriteria struct {
	Phone         string
	Total         int64
	PaymentMethod model.PaymentMethod
	// Since limits the search to orders created after it; zero means no window.
	Since time.Time
}

// OrderRepository describes persistence operations with orders.
type OrderRepository interface {
	// Create inserts the order. When dedupeKey collides with a stored order the
	// pending order matching the same criteria is returned with created=false.
	Create(ctx context.Context, order *model.Order, dedupeKey string) (*model.Order, bool, error)
	GetByID(ctx context.Context, id string) (*model.Order, error)
	FindPendingDuplicate(ctx context.Context, criteria DuplicateCriteria) (*model.Order, error)
	ListByEmail(ctx context.Context, email string) ([]model.Order, error)
	// ListPendingTransfers pages through pending, non cancelled orders that carry a
	// transfer token, ordered by creation time then id, starting after the cursor.
	ListPendingTransfers(ctx context.Context, after model.PendingCursor, limit int) ([]model.Order, error)
	// ClaimPayment flips payment status to paid only if it is still pending.
	ClaimPayment(ctx context.Context, id string) (*model.Order, bool, error)
	// UpdateStatus moves the order from the given status; ErrConcurrentUpdate when it changed meanwhile.
	UpdateStatus(ctx context.Context, id string, from, to model.OrderStatus) (*model.Order, error)
}
