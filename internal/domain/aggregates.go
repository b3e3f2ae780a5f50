package domain

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// Dates in this package are civil dates (year/month/day, no time-of-day,
// no timezone). Recurrence arithmetic and booking occupancy are calendar
// concepts; representing them as timestamps invites off-by-one errors across
// timezones. Operational timestamps (CreatedAt, UpdatedAt, CompletedAt)
// remain time.Time and are always UTC.

// Property is the aggregate root that owns tasks, plans, and bookings.
type Property struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Task is a one-off or recurring to-do owned by a property.
//
// A nil Cadence means one-off: completing it is terminal and NextDue keeps
// the fulfilled date as history. A non-nil Cadence advances NextDue on every
// completion, counted from the completion date (late completion shifts the
// following occurrence).
type Task struct {
	ID         string
	PropertyID string
	Title      string
	Notes      string

	Cadence *CadenceSpec // nil = one-off

	StartDate     civil.Date  // anchor date recurrence is based on
	NextDue       civil.Date  // next (or last fulfilled, once done) occurrence
	LastCompleted *civil.Date // nil until first completion

	Status   TaskStatus
	Priority Priority

	CreatedAt time.Time
	UpdatedAt time.Time

	// Optimistic locking version for concurrent update protection.
	Version int
}

// Etag returns the entity tag for this task, used for optimistic
// concurrency control.
func (t *Task) Etag() string {
	return fmt.Sprintf("%d", t.Version)
}

// Overdue reports whether the task is still open past its due date.
func (t *Task) Overdue(today civil.Date) bool {
	return t.Status.Open() && t.NextDue.Before(today)
}

// MaintenancePlan is a recurring upkeep schedule owned by a property.
//
// Unlike tasks, a plan's cadence is counted from the scheduled occurrence,
// not from the completion date: completing early or late does not drift the
// schedule.
type MaintenancePlan struct {
	ID         string
	PropertyID string
	Title      string
	Notes      string

	Cadence *CadenceSpec // nil = one-off

	StartDate     civil.Date // anchor date recurrence is based on
	NextRun       civil.Date
	LastCompleted *civil.Date

	IsActive bool
	Priority Priority

	CreatedAt time.Time
	UpdatedAt time.Time

	// Optimistic locking version for concurrent update protection.
	Version int
}

// Etag returns the entity tag for this plan.
func (p *MaintenancePlan) Etag() string {
	return fmt.Sprintf("%d", p.Version)
}

// Booking is a property reservation over the half-open range
// [CheckIn, CheckOut): the night of CheckOut is not occupied, so
// back-to-back stays sharing a turnover day are legal.
type Booking struct {
	ID         string
	PropertyID string
	GuestName  string
	Platform   string

	CheckIn  civil.Date
	CheckOut civil.Date // exclusive

	Status BookingStatus

	// TotalAmountCents is the gross booking amount in minor currency units.
	TotalAmountCents int64

	CreatedAt time.Time
	UpdatedAt time.Time

	// Optimistic locking version for concurrent update protection.
	Version int
}

// Etag returns the entity tag for this booking.
func (b *Booking) Etag() string {
	return fmt.Sprintf("%d", b.Version)
}

// Occupies reports whether the booking blocks its date range.
// Only cancellation frees the range; completed stays keep it.
func (b *Booking) Occupies() bool {
	return b.Status != BookingStatusCancelled
}

// Nights returns the number of occupied nights.
func (b *Booking) Nights() int {
	return b.CheckOut.DaysSince(b.CheckIn)
}

// RunRecord is an append-only audit entry created each time an obligation
// occurrence is fulfilled. Records are immutable once created and never
// recomputed; they distinguish "this cadence has already advanced" from
// "not yet processed".
type RunRecord struct {
	ID             string
	ObligationKind ObligationKind
	ObligationID   string

	ScheduledDate  civil.Date // the occurrence that was fulfilled
	CompletionDate civil.Date // the date the work was done, as reported by the user
	CompletedAt    time.Time  // wall-clock instant the completion was recorded
	Outcome        RunOutcome

	CreatedAt time.Time
}
