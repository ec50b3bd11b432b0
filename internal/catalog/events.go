package catalog

const (
	TopicItemEvents = "pos.item.events"

	EventItemExpiring = "ItemExpiring"
)

// ItemExpiringPayload is published by the daily expiry check for each item
// that will pass its expiry date within DaysLeft days.
type ItemExpiringPayload struct {
	ItemID     string `json:"item_id"`
	Name       string `json:"name"`
	ExpiryDate string `json:"expiry_date"`
	StockQty   int    `json:"stock_qty"`
	DaysLeft   int    `json:"days_left"`
}
