package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mkurnia/pos-orders/internal/catalog"
	"github.com/mkurnia/pos-orders/internal/errs"
	kafkax "github.com/mkurnia/pos-orders/internal/kafka"
	"github.com/mkurnia/pos-orders/internal/postgres"
	"github.com/mkurnia/pos-orders/internal/users"
)

// ItemStore is the slice of the catalog the engine needs: lookups,
// availability checks and atomic stock adjustment.
type ItemStore interface {
	Get(ctx context.Context, q postgres.Querier, id string) (catalog.Item, error)
	CheckAvailability(ctx context.Context, q postgres.Querier, id string, qty int) (bool, error)
	DeductStock(ctx context.Context, q postgres.Querier, id string, qty int) error
	RestoreStock(ctx context.Context, q postgres.Querier, id string, qty int) error
}

// OrderStore persists orders and their lines. GetForUpdate holds a row lock
// on the order until the transaction ends; mutations read through it so the
// total and status they act on cannot go stale mid-transaction.
type OrderStore interface {
	Insert(ctx context.Context, q postgres.Querier, o Order) error
	Get(ctx context.Context, q postgres.Querier, id string) (Order, error)
	GetForUpdate(ctx context.Context, q postgres.Querier, id string) (Order, error)
	List(ctx context.Context, q postgres.Querier, query ListQuery) ([]Order, int, error)
	Delete(ctx context.Context, q postgres.Querier, id string) error
	UpdateTotal(ctx context.Context, q postgres.Querier, id string, total decimal.Decimal) error
	UpdateStatus(ctx context.Context, q postgres.Querier, id string, from, to Status) error
	SetWaiter(ctx context.Context, q postgres.Querier, id, waiterID string) error
	GetLine(ctx context.Context, q postgres.Querier, orderID, itemID string) (Line, error)
	InsertLine(ctx context.Context, q postgres.Querier, l Line) error
	BumpLineQty(ctx context.Context, q postgres.Querier, orderID, itemID string, delta int) error
	DeleteLine(ctx context.Context, q postgres.Querier, orderID, itemID string) error
	ExpireStale(ctx context.Context, q postgres.Querier, cutoff time.Time) ([]string, error)
}

// UserStore resolves cashier and waiter references.
type UserStore interface {
	Get(ctx context.Context, q postgres.Querier, id string) (users.User, error)
}

// Publisher is the notification collaborator. Delivery is best effort;
// the engine never fails an operation because an event did not go out.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// Engine orchestrates the order lifecycle. Every mutation runs as one
// transaction: order row, line rows and stock adjustments commit together
// or not at all.
type Engine struct {
	db      postgres.TxRunner
	items   ItemStore
	orders  OrderStore
	users   UserStore
	events  Publisher // nil disables events
	log     *zap.Logger
	service string

	// OrderTTL is the age at which a pending order expires.
	OrderTTL time.Duration

	// Now is swappable in tests.
	Now func() time.Time
}

func NewEngine(db postgres.TxRunner, items ItemStore, orderStore OrderStore, userStore UserStore, events Publisher, log *zap.Logger, service string) *Engine {
	return &Engine{
		db:       db,
		items:    items,
		orders:   orderStore,
		users:    userStore,
		events:   events,
		log:      log,
		service:  service,
		OrderTTL: 4 * time.Hour,
		Now:      time.Now,
	}
}

// mergeLines collapses duplicate item ids in one request into a single line
// and validates quantities. Input order of first appearance is kept.
func mergeLines(in []LineInput) ([]LineInput, error) {
	idx := make(map[string]int, len(in))
	out := make([]LineInput, 0, len(in))
	for _, l := range in {
		if l.ItemID == "" {
			return nil, fmt.Errorf("%w: item_id is required", errs.ErrValidation)
		}
		if l.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity for item %s must be positive", errs.ErrValidation, l.ItemID)
		}
		if i, ok := idx[l.ItemID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		idx[l.ItemID] = len(out)
		out = append(out, l)
	}
	return out, nil
}

// Create builds a pending order: validates cashier (and waiter, when given),
// freezes each line's unit price at the current catalog price, deducts stock
// per line and computes the total, all in one transaction.
func (e *Engine) Create(ctx context.Context, in CreateOrderInput) (Order, error) {
	if len(in.Lines) == 0 {
		return Order{}, fmt.Errorf("%w: order needs at least one item", errs.ErrValidation)
	}
	merged, err := mergeLines(in.Lines)
	if err != nil {
		return Order{}, err
	}

	var out Order
	err = e.db.RunTx(ctx, func(q postgres.Querier) error {
		if _, err := e.users.Get(ctx, q, in.CashierID); err != nil {
			return fmt.Errorf("cashier: %w", err)
		}
		if in.WaiterID != nil {
			if _, err := e.users.Get(ctx, q, *in.WaiterID); err != nil {
				return fmt.Errorf("waiter: %w", err)
			}
		}

		total := decimal.Zero
		lines := make([]Line, 0, len(merged))
		for _, l := range merged {
			item, err := e.items.Get(ctx, q, l.ItemID)
			if err != nil {
				return err
			}
			ok, err := e.items.CheckAvailability(ctx, q, l.ItemID, l.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("item %q for quantity %d: %w", item.Name, l.Quantity, errs.ErrUnavailable)
			}
			line := Line{ItemID: l.ItemID, Quantity: l.Quantity, UnitPrice: item.Price}
			total = total.Add(line.Cost())
			lines = append(lines, line)
		}

		o := Order{
			ID:        uuid.NewString(),
			Status:    StatusPending,
			TotalCost: total,
			CashierID: in.CashierID,
			WaiterID:  in.WaiterID,
			CreatedAt: e.Now().UTC(),
		}
		if err := e.orders.Insert(ctx, q, o); err != nil {
			return err
		}
		for _, l := range lines {
			l.OrderID = o.ID
			if err := e.orders.InsertLine(ctx, q, l); err != nil {
				return err
			}
			if err := e.items.DeductStock(ctx, q, l.ItemID, l.Quantity); err != nil {
				return err
			}
		}

		out, err = e.orders.Get(ctx, q, o.ID)
		return err
	})
	if err != nil {
		return Order{}, err
	}

	e.publish(EventOrderCreated, out.ID, OrderCreatedPayload{
		OrderID:   out.ID,
		CashierID: out.CashierID,
		WaiterID:  deref(out.WaiterID),
		TotalCost: out.TotalCost.StringFixed(2),
		LineCount: len(out.Lines),
	})
	return out, nil
}

func (e *Engine) Get(ctx context.Context, id string) (Order, error) {
	var out Order
	err := e.db.RunTx(ctx, func(q postgres.Querier) error {
		var err error
		out, err = e.orders.Get(ctx, q, id)
		return err
	})
	return out, err
}

func (e *Engine) List(ctx context.Context, query ListQuery) ([]Order, int, error) {
	var (
		out   []Order
		total int
	)
	err := e.db.RunTx(ctx, func(q postgres.Querier) error {
		var err error
		out, total, err = e.orders.List(ctx, q, query)
		return err
	})
	return out, total, err
}

// AddItem puts quantity more of an item on a pending order. An existing line
// keeps its frozen unit price and only grows its quantity; a new line
// freezes the current catalog price. Availability is always checked against
// current stock, regardless of what the order already holds.
func (e *Engine) AddItem(ctx context.Context, orderID, itemID string, qty int) (Order, error) {
	if qty <= 0 {
		return Order{}, fmt.Errorf("%w: quantity must be positive", errs.ErrValidation)
	}

	var out Order
	err := e.db.RunTx(ctx, func(q postgres.Querier) error {
		o, err := e.orders.GetForUpdate(ctx, q, orderID)
		if err != nil {
			return err
		}
		if o.Status != StatusPending {
			return fmt.Errorf("cannot add items to a %s order: %w", o.Status, errs.ErrInvalidStateTransition)
		}

		item, err := e.items.Get(ctx, q, itemID)
		if err != nil {
			return err
		}
		ok, err := e.items.CheckAvailability(ctx, q, itemID, qty)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("item %q for quantity %d: %w", item.Name, qty, errs.ErrUnavailable)
		}

		var delta decimal.Decimal
		line, err := e.orders.GetLine(ctx, q, orderID, itemID)
		switch {
		case err == nil:
			if err := e.orders.BumpLineQty(ctx, q, orderID, itemID, qty); err != nil {
				return err
			}
			delta = line.UnitPrice.Mul(decimal.NewFromInt(int64(qty)))
		case isNotFound(err):
			l := Line{OrderID: orderID, ItemID: itemID, Quantity: qty, UnitPrice: item.Price}
			if err := e.orders.InsertLine(ctx, q, l); err != nil {
				return err
			}
			delta = l.Cost()
		default:
			return err
		}

		if err := e.orders.UpdateTotal(ctx, q, orderID, o.TotalCost.Add(delta)); err != nil {
			return err
		}
		if err := e.items.DeductStock(ctx, q, itemID, qty); err != nil {
			return err
		}

		out, err = e.orders.Get(ctx, q, orderID)
		return err
	})
	return out, err
}

// RemoveItem removes a whole line from a pending order and returns its
// quantity to stock. Partial decrements are not supported.
func (e *Engine) RemoveItem(ctx context.Context, orderID, itemID string) (Order, error) {
	var out Order
	err := e.db.RunTx(ctx, func(q postgres.Querier) error {
		o, err := e.orders.GetForUpdate(ctx, q, orderID)
		if err != nil {
			return err
		}
		if o.Status != StatusPending {
			return fmt.Errorf("cannot remove items from a %s order: %w", o.Status, errs.ErrInvalidStateTransition)
		}

		line, err := e.orders.GetLine(ctx, q, orderID, itemID)
		if err != nil {
			return err
		}
		if err := e.orders.DeleteLine(ctx, q, orderID, itemID); err != nil {
			return err
		}
		if err := e.orders.UpdateTotal(ctx, q, orderID, o.TotalCost.Sub(line.Cost())); err != nil {
			return err
		}
		if err := e.items.RestoreStock(ctx, q, itemID, line.Quantity); err != nil {
			return err
		}

		out, err = e.orders.Get(ctx, q, orderID)
		return err
	})
	return out, err
}

// Complete moves a pending order to completed. Stock was already deducted
// when the items were added, so nothing else changes.
func (e *Engine) Complete(ctx context.Context, id string) (Order, error) {
	var out Order
	err := e.db.RunTx(ctx, func(q postgres.Querier) error {
		o, err := e.orders.GetForUpdate(ctx, q, id)
		if err != nil {
			return err
		}
		if !CanTransition(o.Status, StatusCompleted) {
			return fmt.Errorf("cannot complete a %s order: %w", o.Status, errs.ErrInvalidStateTransition)
		}
		if err := e.orders.UpdateStatus(ctx, q, id, StatusPending, StatusCompleted); err != nil {
			return err
		}
		out, err = e.orders.Get(ctx, q, id)
		return err
	})
	if err != nil {
		return Order{}, err
	}

	e.publish(EventOrderCompleted, out.ID, OrderCompletedPayload{
		OrderID:   out.ID,
		TotalCost: out.TotalCost.StringFixed(2),
	})
	return out, nil
}

// Delete removes a pending order with its lines and returns every line's
// quantity to stock. The original system dropped the stock on delete; that
// leaked reserved units, so deletion restores it here.
func (e *Engine) Delete(ctx context.Context, id string) error {
	return e.db.RunTx(ctx, func(q postgres.Querier) error {
		o, err := e.orders.GetForUpdate(ctx, q, id)
		if err != nil {
			return err
		}
		if o.Status != StatusPending {
			return fmt.Errorf("only pending orders can be deleted, order is %s: %w", o.Status, errs.ErrInvalidStateTransition)
		}
		for _, l := range o.Lines {
			if err := e.items.RestoreStock(ctx, q, l.ItemID, l.Quantity); err != nil {
				return err
			}
		}
		return e.orders.Delete(ctx, q, id)
	})
}

// AssignWaiter sets the waiter on an order. Assignment is allowed in any
// status so a completed order can still be attributed for commission.
func (e *Engine) AssignWaiter(ctx context.Context, orderID, waiterID string) (Order, error) {
	var out Order
	err := e.db.RunTx(ctx, func(q postgres.Querier) error {
		if _, err := e.orders.GetForUpdate(ctx, q, orderID); err != nil {
			return err
		}
		u, err := e.users.Get(ctx, q, waiterID)
		if err != nil {
			return fmt.Errorf("waiter: %w", err)
		}
		if u.Role != users.RoleWaiter {
			return fmt.Errorf("%w: user %s is not a waiter", errs.ErrValidation, waiterID)
		}
		if err := e.orders.SetWaiter(ctx, q, orderID, waiterID); err != nil {
			return err
		}
		out, err = e.orders.Get(ctx, q, orderID)
		return err
	})
	return out, err
}

// ExpireStale transitions every pending order older than OrderTTL to
// expired and returns how many it touched. Running it again immediately
// finds nothing: the statement only matches pending rows.
func (e *Engine) ExpireStale(ctx context.Context) (int, error) {
	cutoff := e.Now().UTC().Add(-e.OrderTTL)

	var ids []string
	err := e.db.RunTx(ctx, func(q postgres.Querier) error {
		var err error
		ids, err = e.orders.ExpireStale(ctx, q, cutoff)
		return err
	})
	if err != nil {
		return 0, err
	}

	for _, id := range ids {
		e.publish(EventOrderExpired, id, OrderExpiredPayload{OrderID: id})
	}
	if len(ids) > 0 {
		e.log.Info("expired stale orders", zap.Int("count", len(ids)), zap.Time("cutoff", cutoff))
	}
	return len(ids), nil
}

func (e *Engine) publish(eventType, orderID string, payload any) {
	if e.events == nil {
		return
	}
	env := kafkax.Envelope{
		EventID:      uuid.NewString(),
		EventType:    eventType,
		EventVersion: 1,
		OccurredAt:   e.Now().UTC(),
		Producer:     e.service,
		Payload:      kafkax.MustMarshal(payload),
	}
	e.events.Publish(PartitionKey(orderID), kafkax.MustMarshal(env),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func isNotFound(err error) bool { return errors.Is(err, errs.ErrNotFound) }

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
