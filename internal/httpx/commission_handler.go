package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mkurnia/pos-orders/internal/commission"
	"github.com/mkurnia/pos-orders/internal/users"
)

type CommissionHandler struct {
	Aggregator *commission.Aggregator
	Log        *zap.Logger
}

func (h *CommissionHandler) Register(r *chi.Mux) {
	r.Route("/commission", func(r chi.Router) {
		r.Use(WithCaller)
		r.With(Require(users.ActionViewCommission)).Get("/report", h.report)
	})
}

func (h *CommissionHandler) report(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFrom(r.Context())

	start, ok := parseDate(r.URL.Query().Get("start_date"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "start_date is required (YYYY-MM-DD)"})
		return
	}
	end, ok := parseDate(r.URL.Query().Get("end_date"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "end_date is required (YYYY-MM-DD)"})
		return
	}

	q := commission.Query{
		Start:      start,
		End:        end.Add(24*time.Hour - time.Nanosecond),
		WaiterName: r.URL.Query().Get("waiter_name"),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	rows, err := h.Aggregator.Report(ctx, q, caller.Role, caller.ID)
	if err != nil {
		h.Log.Warn("commission report failed", zap.Error(err))
		writeErr(w, err)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="commission_report.csv"`)
		_, _ = w.Write([]byte(commission.ExportCSV(rows)))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"report": rows})
}
