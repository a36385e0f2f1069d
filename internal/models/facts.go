package models

import "time"

const (
	OrderStatusCompleted = "completed"
	PaymentStatusPaid    = "paid"
)

// OrderFact is an immutable order record read from the ledger. Only
// completed+paid orders are analytics-eligible.
type OrderFact struct {
	ID            string
	RestaurantID  string
	CustomerID    string
	WaiterID      string // populated from the ledger's user_id column
	Timestamp     time.Time
	Total         float64
	Status        string
	PaymentStatus string
}

// Eligible reports whether the order counts toward revenue-bearing reports.
func (o OrderFact) Eligible() bool {
	return o.Status == OrderStatusCompleted && o.PaymentStatus == PaymentStatusPaid
}

// OrderLineFact is a single line item belonging to an OrderFact.
type OrderLineFact struct {
	OrderID      string
	DishID       string
	DishName     string
	CategoryID   string
	CategoryName string
	Quantity     int
	UnitPrice    float64
	LineTotal    float64
}

type CustomerFact struct {
	CustomerID   string
	RestaurantID string
}
