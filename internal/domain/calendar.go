package domain

import "cloud.google.com/go/civil"

// CalendarItemType tags the source entity of a calendar item.
type CalendarItemType string

const (
	CalendarItemBooking CalendarItemType = "booking"
	CalendarItemTask    CalendarItemType = "task"
	CalendarItemPlan    CalendarItemType = "plan"
)

// CalendarItem is the normalized, derived view value produced by calendar
// aggregation. It is never persisted and never mutated in place: every
// aggregation call produces fresh items.
type CalendarItem struct {
	ID   string
	Type CalendarItemType

	DateStart civil.Date
	DateEnd   *civil.Date // nil for single-day items (tasks, plans)

	Title    string
	Status   string
	Priority Priority

	// Meta carries source-specific display fields (guest name, platform).
	Meta map[string]string
}
