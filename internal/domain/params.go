package domain

import (
	"fmt"
	"slices"

	"cloud.google.com/go/civil"
)

// Field names for update masks. Constants keep mask handling typo-safe.
const (
	FieldTitle    = "title"
	FieldNotes    = "notes"
	FieldCadence  = "cadence"
	FieldNextDue  = "next_due"
	FieldNextRun  = "next_run"
	FieldStatus   = "status"
	FieldPriority = "priority"
	FieldIsActive = "is_active"

	FieldGuestName   = "guest_name"
	FieldPlatform    = "platform"
	FieldCheckIn     = "check_in"
	FieldCheckOut    = "check_out"
	FieldTotalAmount = "total_amount_cents"
)

var (
	taskUpdatableFields = []string{
		FieldTitle, FieldNotes, FieldCadence, FieldNextDue, FieldStatus, FieldPriority,
	}
	planUpdatableFields = []string{
		FieldTitle, FieldNotes, FieldCadence, FieldNextRun, FieldIsActive, FieldPriority,
	}
	bookingUpdatableFields = []string{
		FieldGuestName, FieldPlatform, FieldCheckIn, FieldCheckOut, FieldStatus, FieldTotalAmount,
	}
)

func validateMask(mask, allowed []string) error {
	if len(mask) == 0 {
		return fmt.Errorf("update mask must not be empty")
	}
	for _, field := range mask {
		if !slices.Contains(allowed, field) {
			return fmt.Errorf("unknown update field %q", field)
		}
	}
	return nil
}

// UpdateTaskParams contains parameters for updating a task with field mask
// support and optional etag for optimistic concurrency control.
type UpdateTaskParams struct {
	TaskID     string
	PropertyID string

	// Etag is the expected version. If provided and it doesn't match the
	// current version, the update fails with ErrVersionConflict.
	Etag *string

	// UpdateMask specifies which fields to update; only listed fields are
	// modified.
	UpdateMask []string

	Title    *string
	Notes    *string
	Cadence  *CadenceSpec // with "cadence" in the mask, nil clears to one-off
	NextDue  *civil.Date
	Status   *TaskStatus
	Priority *Priority
}

// Validate checks the update mask against the task's updatable fields.
func (p UpdateTaskParams) Validate() error {
	return validateMask(p.UpdateMask, taskUpdatableFields)
}

// UpdatePlanParams contains parameters for updating a maintenance plan with
// field mask support and optional etag.
type UpdatePlanParams struct {
	PlanID     string
	PropertyID string

	Etag       *string
	UpdateMask []string

	Title    *string
	Notes    *string
	Cadence  *CadenceSpec
	NextRun  *civil.Date
	IsActive *bool
	Priority *Priority
}

// Validate checks the update mask against the plan's updatable fields.
func (p UpdatePlanParams) Validate() error {
	return validateMask(p.UpdateMask, planUpdatableFields)
}

// UpdateBookingParams contains parameters for updating a booking with field
// mask support and optional etag. Date changes re-run conflict validation
// against all other non-cancelled bookings of the property.
type UpdateBookingParams struct {
	BookingID  string
	PropertyID string

	Etag       *string
	UpdateMask []string

	GuestName        *string
	Platform         *string
	CheckIn          *civil.Date
	CheckOut         *civil.Date
	Status           *BookingStatus
	TotalAmountCents *int64
}

// Validate checks the update mask against the booking's updatable fields.
func (p UpdateBookingParams) Validate() error {
	return validateMask(p.UpdateMask, bookingUpdatableFields)
}

// ChangesDates reports whether the mask touches the booking's date range.
func (p UpdateBookingParams) ChangesDates() bool {
	return slices.Contains(p.UpdateMask, FieldCheckIn) ||
		slices.Contains(p.UpdateMask, FieldCheckOut)
}

// ListTasksParams contains filters and pagination for listing tasks.
type ListTasksParams struct {
	PropertyID string

	// Optional filters (nil = no filter applied)
	Status    *TaskStatus
	Priority  *Priority
	DueBefore *civil.Date
	DueAfter  *civil.Date

	// Pagination
	Limit  int
	Offset int
}

// PagedTasks contains tasks matching ListTasksParams, ordered by next due
// date ascending.
type PagedTasks struct {
	Tasks      []*Task
	TotalCount int
	HasMore    bool
}

// ListPlansParams contains filters and pagination for listing plans.
type ListPlansParams struct {
	PropertyID string

	ActiveOnly bool
	Priority   *Priority

	Limit  int
	Offset int
}

// PagedPlans contains plans matching ListPlansParams, ordered by next run
// date ascending.
type PagedPlans struct {
	Plans      []*MaintenancePlan
	TotalCount int
	HasMore    bool
}

// ListBookingsParams contains filters and pagination for listing bookings.
type ListBookingsParams struct {
	PropertyID string

	// Optional filters (nil = no filter applied)
	Status *BookingStatus

	// Bookings whose [CheckIn, CheckOut) range intersects [From, Until].
	From  *civil.Date
	Until *civil.Date

	Limit  int
	Offset int
}

// PagedBookings contains bookings matching ListBookingsParams, ordered by
// check-in descending.
type PagedBookings struct {
	Bookings   []*Booking
	TotalCount int
	HasMore    bool
}
