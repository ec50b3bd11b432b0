package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

// Party is the slim user view embedded in a loaded order.
type Party struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Order is a point-of-sale order. TotalCost always equals the sum of
// Quantity*UnitPrice over Lines; the engine recomputes it on every mutation
// inside the same transaction that changes the lines.
type Order struct {
	ID        string          `json:"id"`
	Status    Status          `json:"status"`
	TotalCost decimal.Decimal `json:"total_cost"`
	CashierID string          `json:"cashier_id"`
	WaiterID  *string         `json:"waiter_id,omitempty"`
	Cashier   *Party          `json:"cashier,omitempty"`
	Waiter    *Party          `json:"waiter,omitempty"`
	Lines     []Line          `json:"items"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Line is one (item, quantity, frozen unit price) entry. UnitPrice is the
// catalog price captured when the item was first added and never changes,
// regardless of later catalog updates. At most one line exists per
// (order, item) pair.
type Line struct {
	OrderID   string          `json:"order_id"`
	ItemID    string          `json:"item_id"`
	ItemName  string          `json:"item_name,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func (l Line) Cost() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// LineInput is a requested (item, quantity) pair on create/add.
type LineInput struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

type CreateOrderInput struct {
	CashierID string      `json:"cashier_id"`
	WaiterID  *string     `json:"waiter_id,omitempty"`
	Lines     []LineInput `json:"items"`
}

// ListQuery filters and pages the order list.
type ListQuery struct {
	Status    Status
	CashierID string
	WaiterID  string
	From      *time.Time
	To        *time.Time
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

func (q ListQuery) normalized() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 10
	}
	switch q.SortBy {
	case "created_at", "total_cost", "status":
	default:
		q.SortBy = "created_at"
	}
	if q.SortOrder != "asc" {
		q.SortOrder = "desc"
	}
	return q
}
