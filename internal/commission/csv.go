package commission

import (
	"fmt"
	"strings"
)

var csvHeader = []string{
	"Waiter ID",
	"Waiter Name",
	"Waiter Email",
	"Total Items Sold",
	"Others Items",
	"Food Items",
	"Beverages Items",
	"Total Revenue",
	"Others Commission",
	"Food Commission",
	"Beverages Commission",
	"Total Commission",
}

// ExportCSV renders the report as a comma-separated table with a fixed
// 12-column header. An empty report still emits the header plus a
// "No data available" line.
func ExportCSV(rows []Row) string {
	var b strings.Builder
	b.WriteString(strings.Join(csvHeader, ","))

	if len(rows) == 0 {
		b.WriteString("\nNo data available")
		return b.String()
	}

	for _, r := range rows {
		b.WriteString(fmt.Sprintf("\n%s,%q,%q,%d,%d,%d,%d,%s,%s,%s,%s,%s",
			r.WaiterID, r.WaiterName, r.WaiterEmail,
			r.TotalItemsSold, r.OthersItems, r.FoodItems, r.BeveragesItems,
			r.TotalRevenue.StringFixed(2),
			r.OthersCommission.StringFixed(2),
			r.FoodCommission.StringFixed(2),
			r.BeveragesCommission.StringFixed(2),
			r.TotalCommission.StringFixed(2)))
	}
	return b.String()
}
