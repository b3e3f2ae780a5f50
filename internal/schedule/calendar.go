package schedule

import (
	"fmt"
	"strconv"

	"cloud.google.com/go/civil"

	"github.com/rezkam/stayops/internal/domain"
)

// Window is the inclusive date window of a calendar view.
type Window struct {
	Start civil.Date
	End   civil.Date
}

// NewWindow validates that end does not precede start.
func NewWindow(start, end civil.Date) (Window, error) {
	if end.Before(start) {
		return Window{}, fmt.Errorf("%w: [%s, %s]", domain.ErrInvalidWindow, start, end)
	}
	return Window{Start: start, End: end}, nil
}

// contains reports whether the date falls inside the inclusive window.
func (w Window) contains(d civil.Date) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

// Aggregate merges bookings, tasks, and maintenance plans into one list of
// normalized calendar items for the window.
//
// Normalization: a booking becomes one multi-day item spanning
// [CheckIn, CheckOut); a task or plan becomes one single-day item at its
// next occurrence, and only while still open/active. Arrival order is
// preserved per source and the three groups are concatenated; any sorting
// or grouping across types belongs to the presentation layer.
//
// The function is a pure transformation: callers pre-filter the inputs to
// the property and (with padding for multi-day bookings) to the window.
func Aggregate(window Window, bookings []*domain.Booking, tasks []*domain.Task, plans []*domain.MaintenancePlan) []domain.CalendarItem {
	items := make([]domain.CalendarItem, 0, len(bookings)+len(tasks)+len(plans))

	for _, b := range bookings {
		stay := DateRange{Start: b.CheckIn, End: b.CheckOut}
		// The window is inclusive on both ends; widen it by a day on the
		// right to compare against the half-open stay.
		if !stay.Overlaps(DateRange{Start: window.Start, End: window.End.AddDays(1)}) {
			continue
		}
		end := b.CheckOut
		items = append(items, domain.CalendarItem{
			ID:        b.ID,
			Type:      domain.CalendarItemBooking,
			DateStart: b.CheckIn,
			DateEnd:   &end,
			Title:     b.GuestName,
			Status:    string(b.Status),
			Meta: map[string]string{
				"platform":           b.Platform,
				"total_amount_cents": strconv.FormatInt(b.TotalAmountCents, 10),
			},
		})
	}

	for _, t := range tasks {
		if !t.Status.Open() {
			continue
		}
		if !window.contains(t.NextDue) {
			continue
		}
		items = append(items, domain.CalendarItem{
			ID:        t.ID,
			Type:      domain.CalendarItemTask,
			DateStart: t.NextDue,
			Title:     t.Title,
			Status:    string(t.Status),
			Priority:  t.Priority,
			Meta: map[string]string{
				"cadence": domain.TaskLabel(t.Cadence),
			},
		})
	}

	for _, p := range plans {
		if !p.IsActive {
			continue
		}
		if !window.contains(p.NextRun) {
			continue
		}
		meta := map[string]string{}
		if p.Cadence != nil {
			meta["cadence"] = p.Cadence.String()
		}
		items = append(items, domain.CalendarItem{
			ID:        p.ID,
			Type:      domain.CalendarItemPlan,
			DateStart: p.NextRun,
			Title:     p.Title,
			Status:    "active",
			Priority:  p.Priority,
			Meta:      meta,
		})
	}

	return items
}
