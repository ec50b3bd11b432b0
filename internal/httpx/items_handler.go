package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mkurnia/pos-orders/internal/catalog"
	"github.com/mkurnia/pos-orders/internal/errs"
	"github.com/mkurnia/pos-orders/internal/postgres"
	"github.com/mkurnia/pos-orders/internal/users"
)

var (
	errBadPrice = fmt.Errorf("%w: invalid price", errs.ErrValidation)
	errBadDate  = fmt.Errorf("%w: invalid expiry_date, want YYYY-MM-DD", errs.ErrValidation)
)

type ItemsHandler struct {
	DB    *postgres.DB
	Store catalog.Store
	Log   *zap.Logger
}

type itemReq struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Price       *string `json:"price"`
	ExpiryDate  *string `json:"expiry_date"`
	StockQty    *int    `json:"stock_qty"`
	IsActive    *bool   `json:"is_active"`
	CategoryID  *string `json:"category_id"`
}

func (h *ItemsHandler) Register(r *chi.Mux) {
	r.Route("/items", func(r chi.Router) {
		r.Use(WithCaller)
		r.With(Require(users.ActionViewItems)).Get("/", h.list)
		r.With(Require(users.ActionViewItems)).Get("/{id}", h.get)
		r.With(Require(users.ActionManageItems)).Post("/", h.create)
		r.With(Require(users.ActionManageItems)).Put("/{id}", h.update)
		r.With(Require(users.ActionManageItems)).Delete("/{id}", h.delete)
	})
}

func (h *ItemsHandler) list(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFrom(r.Context())
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	q := catalog.ListQuery{
		Category:  r.URL.Query().Get("category"),
		SortBy:    r.URL.Query().Get("sort_by"),
		SortOrder: r.URL.Query().Get("sort_order"),
		Page:      atoiOr(r.URL.Query().Get("page"), 1),
		Limit:     atoiOr(r.URL.Query().Get("limit"), 10),
	}
	// Waiters only ever see what they can actually sell.
	if caller.Role == users.RoleWaiter {
		q.OnlyAvailable = true
	}

	items, total, err := h.Store.List(ctx, h.DB, q)
	if err != nil {
		h.Log.Warn("list items failed", zap.Error(err))
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"total": total,
		"page":  q.Page,
		"limit": q.Limit,
	})
}

func (h *ItemsHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	it, err := h.Store.Get(ctx, h.DB, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (h *ItemsHandler) create(w http.ResponseWriter, r *http.Request) {
	var req itemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	it, ok := req.toItem(w)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var out catalog.Item
	err := h.DB.RunTx(ctx, func(q postgres.Querier) error {
		var err error
		out, err = h.Store.Create(ctx, q, it)
		return err
	})
	if err != nil {
		h.Log.Warn("create item failed", zap.Error(err))
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// update does an explicit read-modify-write of the item row in one
// transaction; absent fields keep their current values.
func (h *ItemsHandler) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req itemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var out catalog.Item
	err := h.DB.RunTx(ctx, func(q postgres.Querier) error {
		it, err := h.Store.Get(ctx, q, id)
		if err != nil {
			return err
		}
		if req.Name != "" {
			it.Name = req.Name
		}
		if req.Description != nil {
			it.Description = req.Description
		}
		if req.Price != nil {
			p, err := decimal.NewFromString(*req.Price)
			if err != nil {
				return errBadPrice
			}
			it.Price = p
		}
		if req.ExpiryDate != nil {
			t, err := time.Parse("2006-01-02", *req.ExpiryDate)
			if err != nil {
				return errBadDate
			}
			it.ExpiryDate = t
		}
		if req.StockQty != nil {
			it.StockQty = *req.StockQty
		}
		if req.IsActive != nil {
			it.IsActive = *req.IsActive
		}
		if req.CategoryID != nil {
			it.CategoryID = *req.CategoryID
		}
		if err := h.Store.Save(ctx, q, it); err != nil {
			return err
		}
		out, err = h.Store.Get(ctx, q, id)
		return err
	})
	if err != nil {
		h.Log.Warn("update item failed", zap.Error(err))
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ItemsHandler) delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Store.Delete(ctx, h.DB, chi.URLParam(r, "id")); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (req itemReq) toItem(w http.ResponseWriter) (catalog.Item, bool) {
	bad := func(msg string) (catalog.Item, bool) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return catalog.Item{}, false
	}
	if req.Name == "" {
		return bad("name is required")
	}
	if req.Price == nil {
		return bad("price is required")
	}
	price, err := decimal.NewFromString(*req.Price)
	if err != nil {
		return bad("invalid price")
	}
	if req.ExpiryDate == nil {
		return bad("expiry_date is required")
	}
	expiry, err := time.Parse("2006-01-02", *req.ExpiryDate)
	if err != nil {
		return bad("invalid expiry_date, want YYYY-MM-DD")
	}
	if req.CategoryID == nil {
		return bad("category_id is required")
	}

	it := catalog.Item{
		Name:        req.Name,
		Description: req.Description,
		Price:       price,
		ExpiryDate:  expiry,
		IsActive:    true,
		CategoryID:  *req.CategoryID,
	}
	if req.StockQty != nil {
		it.StockQty = *req.StockQty
	}
	if req.IsActive != nil {
		it.IsActive = *req.IsActive
	}
	return it, true
}
