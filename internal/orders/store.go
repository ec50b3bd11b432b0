package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/mkurnia/pos-orders/internal/errs"
	"github.com/mkurnia/pos-orders/internal/postgres"
)

// Store owns order and order_items rows. It performs no orchestration and
// no status-rule checks beyond the guarded UPDATE; that is the engine's job.
type Store struct{}

func NewStore() Store { return Store{} }

func (Store) Insert(ctx context.Context, q postgres.Querier, o Order) error {
	_, err := q.Exec(ctx, `
		INSERT INTO orders (id, status, total_cost, cashier_id, waiter_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		o.ID, o.Status, o.TotalCost, o.CashierID, o.WaiterID, o.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (s Store) Get(ctx context.Context, q postgres.Querier, id string) (Order, error) {
	return s.get(ctx, q, id, "")
}

// GetForUpdate locks the orders row for the rest of the transaction. Every
// engine mutation starts here so concurrent mutations of one order
// serialize and total_cost is always computed from a current read.
func (s Store) GetForUpdate(ctx context.Context, q postgres.Querier, id string) (Order, error) {
	return s.get(ctx, q, id, " FOR UPDATE OF o")
}

func (s Store) get(ctx context.Context, q postgres.Querier, id, locking string) (Order, error) {
	var (
		o                  Order
		cashName, cashMail string
		waiterID           *string
		waiterName         *string
		waiterMail         *string
	)
	err := q.QueryRow(ctx, `
		SELECT o.id, o.status, o.total_cost, o.cashier_id, o.waiter_id,
		       cu.name, cu.email, wu.name, wu.email, o.created_at, o.updated_at
		FROM orders o
		JOIN users cu ON cu.id = o.cashier_id
		LEFT JOIN users wu ON wu.id = o.waiter_id
		WHERE o.id = $1`+locking, id,
	).Scan(&o.ID, &o.Status, &o.TotalCost, &o.CashierID, &waiterID,
		&cashName, &cashMail, &waiterName, &waiterMail, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, fmt.Errorf("order %s: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		return Order{}, fmt.Errorf("get order: %w", err)
	}
	o.Cashier = &Party{ID: o.CashierID, Name: cashName, Email: cashMail}
	if waiterID != nil {
		o.WaiterID = waiterID
		w := Party{ID: *waiterID}
		if waiterName != nil {
			w.Name = *waiterName
		}
		if waiterMail != nil {
			w.Email = *waiterMail
		}
		o.Waiter = &w
	}

	lines, err := s.lines(ctx, q, id)
	if err != nil {
		return Order{}, err
	}
	o.Lines = lines
	return o, nil
}

func (Store) lines(ctx context.Context, q postgres.Querier, orderID string) ([]Line, error) {
	rows, err := q.Query(ctx, `
		SELECT oi.order_id, oi.item_id, i.name, oi.quantity, oi.unit_price
		FROM order_items oi JOIN items i ON i.id = oi.item_id
		WHERE oi.order_id = $1
		ORDER BY i.name`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load lines: %w", err)
	}
	defer rows.Close()

	var out []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.OrderID, &l.ItemID, &l.ItemName, &l.Quantity, &l.UnitPrice); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (Store) List(ctx context.Context, q postgres.Querier, query ListQuery) ([]Order, int, error) {
	query = query.normalized()

	where := `WHERE 1=1`
	args := []any{}
	n := 0
	add := func(cond string, v any) {
		n++
		where += fmt.Sprintf(` AND `+cond, n)
		args = append(args, v)
	}
	if query.Status != "" {
		add(`o.status = $%d`, query.Status)
	}
	if query.CashierID != "" {
		add(`o.cashier_id = $%d`, query.CashierID)
	}
	if query.WaiterID != "" {
		add(`o.waiter_id = $%d`, query.WaiterID)
	}
	if query.From != nil {
		add(`o.created_at >= $%d`, *query.From)
	}
	if query.To != nil {
		add(`o.created_at <= $%d`, *query.To)
	}

	sql := fmt.Sprintf(`
		SELECT o.id, o.status, o.total_cost, o.cashier_id, o.waiter_id,
		       o.created_at, o.updated_at, COUNT(*) OVER()
		FROM orders o %s
		ORDER BY o.%s %s
		LIMIT $%d OFFSET $%d`, where, query.SortBy, query.SortOrder, n+1, n+2)
	args = append(args, query.Limit, (query.Page-1)*query.Limit)

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var out []Order
	total := 0
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.Status, &o.TotalCost, &o.CashierID, &o.WaiterID,
			&o.CreatedAt, &o.UpdatedAt, &total); err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

func (Store) Delete(ctx context.Context, q postgres.Querier, id string) error {
	if _, err := q.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, id); err != nil {
		return fmt.Errorf("delete lines: %w", err)
	}
	ct, err := q.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("order %s: %w", id, errs.ErrNotFound)
	}
	return nil
}

func (Store) UpdateTotal(ctx context.Context, q postgres.Querier, id string, total decimal.Decimal) error {
	ct, err := q.Exec(ctx, `UPDATE orders SET total_cost = $2, updated_at = now() WHERE id = $1`, id, total)
	if err != nil {
		return fmt.Errorf("update total: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("order %s: %w", id, errs.ErrNotFound)
	}
	return nil
}

// UpdateStatus moves id from one status to another. The status predicate in
// the WHERE clause makes a racing transition lose cleanly: zero rows
// affected means somebody else moved the order first.
func (Store) UpdateStatus(ctx context.Context, q postgres.Querier, id string, from, to Status) error {
	ct, err := q.Exec(ctx, `
		UPDATE orders SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2`, id, from, to)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("order %s is no longer %s: %w", id, from, errs.ErrInvalidStateTransition)
	}
	return nil
}

func (Store) SetWaiter(ctx context.Context, q postgres.Querier, id, waiterID string) error {
	ct, err := q.Exec(ctx, `UPDATE orders SET waiter_id = $2, updated_at = now() WHERE id = $1`, id, waiterID)
	if err != nil {
		return fmt.Errorf("set waiter: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("order %s: %w", id, errs.ErrNotFound)
	}
	return nil
}

func (Store) GetLine(ctx context.Context, q postgres.Querier, orderID, itemID string) (Line, error) {
	var l Line
	err := q.QueryRow(ctx, `
		SELECT order_id, item_id, quantity, unit_price
		FROM order_items WHERE order_id = $1 AND item_id = $2`, orderID, itemID,
	).Scan(&l.OrderID, &l.ItemID, &l.Quantity, &l.UnitPrice)
	if errors.Is(err, pgx.ErrNoRows) {
		return Line{}, fmt.Errorf("item %s in order %s: %w", itemID, orderID, errs.ErrNotFound)
	}
	if err != nil {
		return Line{}, fmt.Errorf("get line: %w", err)
	}
	return l, nil
}

func (Store) InsertLine(ctx context.Context, q postgres.Querier, l Line) error {
	_, err := q.Exec(ctx, `
		INSERT INTO order_items (order_id, item_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4)`, l.OrderID, l.ItemID, l.Quantity, l.UnitPrice)
	if err != nil {
		return fmt.Errorf("insert line: %w", err)
	}
	return nil
}

// BumpLineQty increments an existing line's quantity; unit_price is frozen
// and deliberately untouched.
func (Store) BumpLineQty(ctx context.Context, q postgres.Querier, orderID, itemID string, delta int) error {
	ct, err := q.Exec(ctx, `
		UPDATE order_items SET quantity = quantity + $3
		WHERE order_id = $1 AND item_id = $2`, orderID, itemID, delta)
	if err != nil {
		return fmt.Errorf("bump line: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("item %s in order %s: %w", itemID, orderID, errs.ErrNotFound)
	}
	return nil
}

func (Store) DeleteLine(ctx context.Context, q postgres.Querier, orderID, itemID string) error {
	ct, err := q.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1 AND item_id = $2`, orderID, itemID)
	if err != nil {
		return fmt.Errorf("delete line: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("item %s in order %s: %w", itemID, orderID, errs.ErrNotFound)
	}
	return nil
}

// ExpireStale flips every pending order created at or before cutoff to
// expired and returns the affected ids. The status predicate makes the sweep
// idempotent and lets a concurrent complete win if it commits first.
func (Store) ExpireStale(ctx context.Context, q postgres.Querier, cutoff time.Time) ([]string, error) {
	rows, err := q.Query(ctx, `
		UPDATE orders SET status = $1, updated_at = now()
		WHERE status = $2 AND created_at <= $3
		RETURNING id`, StatusExpired, StatusPending, cutoff)
	if err != nil {
		return nil, fmt.Errorf("expire stale: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
