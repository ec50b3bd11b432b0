package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mkurnia/pos-orders/internal/orders"
	"github.com/mkurnia/pos-orders/internal/redisx"
	"github.com/mkurnia/pos-orders/internal/users"
)

type OrdersHandler struct {
	Engine *orders.Engine
	Redis  *redisx.Client
	Log    *zap.Logger
}

type addItemReq struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

type assignWaiterReq struct {
	WaiterID string `json:"waiter_id"`
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Route("/orders", func(r chi.Router) {
		r.Use(WithCaller)
		r.With(Require(users.ActionCreateOrder)).Post("/", h.create)
		r.With(Require(users.ActionListOrders)).Get("/", h.list)
		r.With(Require(users.ActionViewOrder)).Get("/{id}", h.get)
		r.With(Require(users.ActionDeleteOrder)).Delete("/{id}", h.delete)
		r.With(Require(users.ActionMutateOrder)).Post("/{id}/items", h.addItem)
		r.With(Require(users.ActionMutateOrder)).Delete("/{id}/items/{itemID}", h.removeItem)
		r.With(Require(users.ActionMutateOrder)).Patch("/{id}/complete", h.complete)
		r.With(Require(users.ActionMutateOrder)).Patch("/{id}/assign-waiter", h.assignWaiter)
	})
}

func (h *OrdersHandler) create(w http.ResponseWriter, r *http.Request) {
	var req orders.CreateOrderInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Engine.Create(ctx, req)
	if err != nil {
		h.fail(w, "create order", err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	key := fmt.Sprintf(redisx.KeyOrderCache, id)
	if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(s))
		return
	}

	o, err := h.Engine.Get(ctx, id)
	if err != nil {
		h.fail(w, "get order", err)
		return
	}
	if b, err := json.Marshal(o); err == nil {
		_ = h.Redis.Set(ctx, key, b, redisx.TTLOrderCache).Err()
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	q := orders.ListQuery{
		CashierID: r.URL.Query().Get("cashier_id"),
		WaiterID:  r.URL.Query().Get("waiter_id"),
		SortBy:    r.URL.Query().Get("sort_by"),
		SortOrder: r.URL.Query().Get("sort_order"),
		Page:      atoiOr(r.URL.Query().Get("page"), 1),
		Limit:     atoiOr(r.URL.Query().Get("limit"), 10),
	}
	if s := r.URL.Query().Get("status"); s != "" {
		st := orders.Status(s)
		if !st.Valid() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown status " + s})
			return
		}
		q.Status = st
	}
	if t, ok := parseDate(r.URL.Query().Get("start_date")); ok {
		q.From = &t
	}
	if t, ok := parseDate(r.URL.Query().Get("end_date")); ok {
		end := t.Add(24*time.Hour - time.Nanosecond)
		q.To = &end
	}

	list, total, err := h.Engine.List(ctx, q)
	if err != nil {
		h.fail(w, "list orders", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"orders": list,
		"total":  total,
		"page":   q.Page,
		"limit":  q.Limit,
	})
}

func (h *OrdersHandler) addItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req addItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Engine.AddItem(ctx, id, req.ItemID, req.Quantity)
	if err != nil {
		h.fail(w, "add item", err)
		return
	}
	h.dropCache(ctx, id)
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	itemID := chi.URLParam(r, "itemID")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Engine.RemoveItem(ctx, id, itemID)
	if err != nil {
		h.fail(w, "remove item", err)
		return
	}
	h.dropCache(ctx, id)
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) complete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Engine.Complete(ctx, id)
	if err != nil {
		h.fail(w, "complete order", err)
		return
	}
	h.dropCache(ctx, id)
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Engine.Delete(ctx, id); err != nil {
		h.fail(w, "delete order", err)
		return
	}
	h.dropCache(ctx, id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrdersHandler) assignWaiter(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req assignWaiterReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Engine.AssignWaiter(ctx, id, req.WaiterID)
	if err != nil {
		h.fail(w, "assign waiter", err)
		return
	}
	h.dropCache(ctx, id)
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) dropCache(ctx context.Context, orderID string) {
	_ = h.Redis.Drop(ctx, fmt.Sprintf(redisx.KeyOrderCache, orderID))
}

func (h *OrdersHandler) fail(w http.ResponseWriter, op string, err error) {
	h.Log.Warn(op+" failed", zap.Error(err))
	writeErr(w, err)
}
