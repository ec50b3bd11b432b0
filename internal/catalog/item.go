package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item is a perishable catalog entry. Price and money derived from it are
// decimals end to end; stock_qty never goes below zero.
type Item struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	ExpiryDate  time.Time       `json:"expiry_date"`
	StockQty    int             `json:"stock_qty"`
	IsActive    bool            `json:"is_active"`
	CategoryID  string          `json:"category_id"`
	Category    string          `json:"category,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type ListQuery struct {
	Category      string
	OnlyAvailable bool
	SortBy        string
	SortOrder     string
	Page          int
	Limit         int
}

func (q ListQuery) normalized() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 10
	}
	switch q.SortBy {
	case "name", "price", "expiry_date", "stock_qty", "created_at":
	default:
		q.SortBy = "name"
	}
	if q.SortOrder != "desc" {
		q.SortOrder = "asc"
	}
	return q
}
