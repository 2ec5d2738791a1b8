package core

import "time"

// OrderRecord is one row of a raw vendor order export. Channel and
// Payment carry the free-text labels exactly as exported; classification
// into the closed enums happens during aggregation.
type OrderRecord struct {
	Date        time.Time // calendar date column; never used for window filtering
	TimeOfDay   ClockTime
	TimeValid   bool   // false when the time cell could not be parsed
	OrderNumber string // opaque, diagnostics only
	Channel     string // e.g. "Pickup", "To Go", "Delivery"
	Payment     string // e.g. "Cash", "Visa", "MC"
	Total       Money
	Tip         Money
}
