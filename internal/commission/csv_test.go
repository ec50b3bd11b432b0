package commission

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/mkurnia/pos-orders/internal/errs"
	"github.com/mkurnia/pos-orders/internal/users"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestExportCSV_Empty(t *testing.T) {
	out := ExportCSV(nil)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	require.Equal(t, strings.Join(csvHeader, ","), lines[0])
	require.Equal(t, "No data available", lines[1])
}

func TestExportCSV_Rows(t *testing.T) {
	rows := []Row{
		{
			WaiterID:            "w-1",
			WaiterName:          "Bayu, Jr.",
			WaiterEmail:         "bayu@example.com",
			TotalItemsSold:      12,
			OthersItems:         2,
			FoodItems:           6,
			BeveragesItems:      4,
			TotalRevenue:        dec("150"),
			OthersCommission:    dec("0.05"),
			FoodCommission:      dec("0.9"),
			BeveragesCommission: dec("0.25"),
			TotalCommission:     dec("1.2"),
		},
	}

	out := ExportCSV(rows)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	require.Len(t, strings.Split(lines[0], ","), 12)

	// Names are quoted so the embedded comma stays in one field, and
	// money is rendered with two decimal places.
	require.Equal(t, `w-1,"Bayu, Jr.","bayu@example.com",12,2,6,4,150.00,0.05,0.90,0.25,1.20`, lines[1])
}

func TestReport_RejectsInvertedRange(t *testing.T) {
	a := NewAggregator(nil)
	_, err := a.Report(context.Background(), Query{
		Start: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}, users.RoleManager, "m-1")
	require.ErrorIs(t, err, errs.ErrValidation)
}
