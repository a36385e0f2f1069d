package ledger

import (
	"context"
	"time"

	"resto-insights/internal/models"
)

// Ledger is the read-only boundary to the platform's order ledger. The
// analytics core never writes through it.
//
// Orders returns only analytics-eligible facts (status=completed and
// payment_status=paid) for the given restaurant. A zero from or to leaves
// that side of the range open; otherwise the range is half-open [from, to).
type Ledger interface {
	Orders(ctx context.Context, restaurantID string, from, to time.Time) ([]models.OrderFact, error)
	OrderLines(ctx context.Context, orderIDs []string) ([]models.OrderLineFact, error)
	Customers(ctx context.Context, restaurantID string) ([]models.CustomerFact, error)
}
