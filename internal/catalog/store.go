package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/mkurnia/pos-orders/internal/errs"
	"github.com/mkurnia/pos-orders/internal/postgres"
)

// Store owns item rows: catalog CRUD plus the stock/availability tracker
// the order lifecycle engine mutates. Every method takes a Querier so the
// engine can call into it from its own transaction.
type Store struct{}

func NewStore() Store { return Store{} }

const itemCols = `i.id, i.name, i.description, i.price, i.expiry_date,
	i.stock_qty, i.is_active, i.category_id, c.name, i.created_at, i.updated_at`

func scanItem(row pgx.Row) (Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.Name, &it.Description, &it.Price, &it.ExpiryDate,
		&it.StockQty, &it.IsActive, &it.CategoryID, &it.Category, &it.CreatedAt, &it.UpdatedAt)
	return it, err
}

func (Store) Get(ctx context.Context, q postgres.Querier, id string) (Item, error) {
	it, err := scanItem(q.QueryRow(ctx, `
		SELECT `+itemCols+`
		FROM items i JOIN categories c ON c.id = i.category_id
		WHERE i.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, fmt.Errorf("item %s: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		return Item{}, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

func (s Store) Create(ctx context.Context, q postgres.Querier, it Item) (Item, error) {
	if it.Price.LessThanOrEqual(decimal.Zero) {
		return Item{}, fmt.Errorf("%w: price must be positive", errs.ErrValidation)
	}
	if it.StockQty < 0 {
		return Item{}, fmt.Errorf("%w: stock_qty must not be negative", errs.ErrValidation)
	}
	var n int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM categories WHERE id = $1`, it.CategoryID).Scan(&n); err != nil {
		return Item{}, fmt.Errorf("check category: %w", err)
	}
	if n == 0 {
		return Item{}, fmt.Errorf("category %s: %w", it.CategoryID, errs.ErrNotFound)
	}

	it.ID = uuid.NewString()
	_, err := q.Exec(ctx, `
		INSERT INTO items (id, name, description, price, expiry_date, stock_qty, is_active, category_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		it.ID, it.Name, it.Description, it.Price, it.ExpiryDate, it.StockQty, it.IsActive, it.CategoryID)
	if err != nil {
		return Item{}, fmt.Errorf("insert item: %w", err)
	}
	return s.Get(ctx, q, it.ID)
}

// Save writes back a full item row. Callers do an explicit read-modify-write
// inside one transaction; there is no partial-update path.
func (Store) Save(ctx context.Context, q postgres.Querier, it Item) error {
	if it.Price.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: price must be positive", errs.ErrValidation)
	}
	ct, err := q.Exec(ctx, `
		UPDATE items
		SET name = $2, description = $3, price = $4, expiry_date = $5,
		    stock_qty = $6, is_active = $7, category_id = $8, updated_at = now()
		WHERE id = $1`,
		it.ID, it.Name, it.Description, it.Price, it.ExpiryDate, it.StockQty, it.IsActive, it.CategoryID)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("item %s: %w", it.ID, errs.ErrNotFound)
	}
	return nil
}

func (Store) Delete(ctx context.Context, q postgres.Querier, id string) error {
	ct, err := q.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("item %s: %w", id, errs.ErrNotFound)
	}
	return nil
}

func (Store) List(ctx context.Context, q postgres.Querier, query ListQuery) ([]Item, int, error) {
	query = query.normalized()

	where := `WHERE 1=1`
	args := []any{}
	n := 0
	if query.Category != "" {
		n++
		where += fmt.Sprintf(` AND LOWER(c.name) = LOWER($%d)`, n)
		args = append(args, query.Category)
	}
	if query.OnlyAvailable {
		where += ` AND i.is_active AND i.expiry_date >= CURRENT_DATE AND i.stock_qty > 0`
	}

	sql := `SELECT ` + itemCols + `, COUNT(*) OVER()
		FROM items i JOIN categories c ON c.id = i.category_id ` + where +
		fmt.Sprintf(` ORDER BY i.%s %s LIMIT $%d OFFSET $%d`,
			query.SortBy, query.SortOrder, n+1, n+2)
	args = append(args, query.Limit, (query.Page-1)*query.Limit)

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var out []Item
	total := 0
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Description, &it.Price, &it.ExpiryDate,
			&it.StockQty, &it.IsActive, &it.CategoryID, &it.Category,
			&it.CreatedAt, &it.UpdatedAt, &total); err != nil {
			return nil, 0, err
		}
		out = append(out, it)
	}
	return out, total, rows.Err()
}

// CheckAvailability reports whether the item exists, is active, is not past
// its expiry date, and has at least qty units in stock. A missing item is
// simply unavailable, not an error.
func (Store) CheckAvailability(ctx context.Context, q postgres.Querier, id string, qty int) (bool, error) {
	var ok bool
	err := q.QueryRow(ctx, `
		SELECT is_active AND expiry_date >= CURRENT_DATE AND stock_qty >= $2
		FROM items WHERE id = $1`, id, qty).Scan(&ok)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check availability: %w", err)
	}
	return ok, nil
}

// DeductStock locks the item row, verifies stock, and decrements it. The
// row lock serializes concurrent deductions so stock_qty can never go
// negative even when two orders race for the last units.
func (Store) DeductStock(ctx context.Context, q postgres.Querier, id string, qty int) error {
	var stock int
	err := q.QueryRow(ctx, `SELECT stock_qty FROM items WHERE id = $1 FOR UPDATE`, id).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("item %s: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("lock item: %w", err)
	}
	if stock < qty {
		return fmt.Errorf("item %s has %d in stock, need %d: %w", id, stock, qty, errs.ErrInsufficientStock)
	}
	_, err = q.Exec(ctx, `UPDATE items SET stock_qty = stock_qty - $2, updated_at = now() WHERE id = $1`, id, qty)
	if err != nil {
		return fmt.Errorf("deduct stock: %w", err)
	}
	return nil
}

func (Store) RestoreStock(ctx context.Context, q postgres.Querier, id string, qty int) error {
	ct, err := q.Exec(ctx, `UPDATE items SET stock_qty = stock_qty + $2, updated_at = now() WHERE id = $1`, id, qty)
	if err != nil {
		return fmt.Errorf("restore stock: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("item %s: %w", id, errs.ErrNotFound)
	}
	return nil
}

// FindExpiring returns stocked items whose expiry date falls within the
// next `days` days (inclusive of today). days=0 means expiring today.
func (Store) FindExpiring(ctx context.Context, q postgres.Querier, days int) ([]Item, error) {
	rows, err := q.Query(ctx, `
		SELECT `+itemCols+`
		FROM items i JOIN categories c ON c.id = i.category_id
		WHERE i.stock_qty > 0
		  AND i.expiry_date >= CURRENT_DATE
		  AND i.expiry_date <= CURRENT_DATE + $1 * INTERVAL '1 day'
		ORDER BY i.expiry_date`, days)
	if err != nil {
		return nil, fmt.Errorf("find expiring: %w", err)
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// expiry_date is a DATE column; normalize for payloads and JSON.
func DateOnly(t time.Time) string { return t.Format("2006-01-02") }
