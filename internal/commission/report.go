// Package commission computes the waiter commission report: a read-only
// aggregation over completed orders, grouped by waiter, with category-
// weighted commission rates.
package commission

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mkurnia/pos-orders/internal/errs"
	"github.com/mkurnia/pos-orders/internal/postgres"
	"github.com/mkurnia/pos-orders/internal/users"
)

// Commission rates per category, as fractions of quantity * unit_price.
const (
	rateOthers    = "0.0025" // 0.25%
	rateFood      = "0.01"   // 1%
	rateBeverages = "0.005"  // 0.5%
)

type Query struct {
	Start      time.Time
	End        time.Time
	WaiterName string
}

// Row is one waiter's aggregate. Waiters with no completed orders in range
// still appear with zero metrics.
type Row struct {
	WaiterID            string          `json:"waiter_id"`
	WaiterName          string          `json:"waiter_name"`
	WaiterEmail         string          `json:"waiter_email"`
	TotalItemsSold      int64           `json:"total_items_sold"`
	OthersItems         int64           `json:"others_items"`
	FoodItems           int64           `json:"food_items"`
	BeveragesItems      int64           `json:"beverages_items"`
	TotalRevenue        decimal.Decimal `json:"total_revenue"`
	OthersCommission    decimal.Decimal `json:"others_commission"`
	FoodCommission      decimal.Decimal `json:"food_commission"`
	BeveragesCommission decimal.Decimal `json:"beverages_commission"`
	TotalCommission     decimal.Decimal `json:"total_commission"`
}

type Aggregator struct {
	DB postgres.Querier
}

func NewAggregator(db postgres.Querier) *Aggregator { return &Aggregator{DB: db} }

// Report aggregates completed orders created in [Start, End]. A caller in
// the waiter role only ever sees their own row, whatever filter they send.
func (a *Aggregator) Report(ctx context.Context, query Query, callerRole users.Role, callerID string) ([]Row, error) {
	if query.End.Before(query.Start) {
		return nil, fmt.Errorf("%w: end date before start date", errs.ErrValidation)
	}

	sql := `
		SELECT
			u.id, u.name, u.email,
			COALESCE(SUM(oi.quantity), 0),
			COALESCE(SUM(CASE WHEN LOWER(c.name) = 'others' THEN oi.quantity ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN LOWER(c.name) = 'food' THEN oi.quantity ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN LOWER(c.name) = 'beverages' THEN oi.quantity ELSE 0 END), 0),
			COALESCE(ROUND(SUM(oi.quantity * oi.unit_price)::numeric, 2), 0),
			COALESCE(ROUND(SUM(CASE WHEN LOWER(c.name) = 'others' THEN oi.quantity * oi.unit_price * ` + rateOthers + ` ELSE 0 END)::numeric, 2), 0),
			COALESCE(ROUND(SUM(CASE WHEN LOWER(c.name) = 'food' THEN oi.quantity * oi.unit_price * ` + rateFood + ` ELSE 0 END)::numeric, 2), 0),
			COALESCE(ROUND(SUM(CASE WHEN LOWER(c.name) = 'beverages' THEN oi.quantity * oi.unit_price * ` + rateBeverages + ` ELSE 0 END)::numeric, 2), 0),
			COALESCE(ROUND(SUM(
				CASE
					WHEN LOWER(c.name) = 'others' THEN oi.quantity * oi.unit_price * ` + rateOthers + `
					WHEN LOWER(c.name) = 'food' THEN oi.quantity * oi.unit_price * ` + rateFood + `
					WHEN LOWER(c.name) = 'beverages' THEN oi.quantity * oi.unit_price * ` + rateBeverages + `
					ELSE 0
				END
			)::numeric, 2), 0)
		FROM users u
		LEFT JOIN orders o ON o.waiter_id = u.id
			AND o.status = 'completed'
			AND o.created_at >= $1
			AND o.created_at <= $2
		LEFT JOIN order_items oi ON oi.order_id = o.id
		LEFT JOIN items i ON i.id = oi.item_id
		LEFT JOIN categories c ON c.id = i.category_id
		WHERE u.role = $3`

	args := []any{query.Start, query.End, users.RoleWaiter}

	if callerRole == users.RoleWaiter {
		// Self-service: the filter input is ignored entirely.
		args = append(args, callerID)
		sql += fmt.Sprintf(` AND u.id = $%d`, len(args))
	} else if query.WaiterName != "" {
		args = append(args, "%"+query.WaiterName+"%")
		sql += fmt.Sprintf(` AND u.name ILIKE $%d`, len(args))
	}

	sql += `
		GROUP BY u.id, u.name, u.email
		ORDER BY u.name`

	rows, err := a.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("commission report: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.WaiterID, &r.WaiterName, &r.WaiterEmail,
			&r.TotalItemsSold, &r.OthersItems, &r.FoodItems, &r.BeveragesItems,
			&r.TotalRevenue, &r.OthersCommission, &r.FoodCommission,
			&r.BeveragesCommission, &r.TotalCommission); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
