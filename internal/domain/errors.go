package domain

import "errors"

// Sentinel errors returned by services and repository implementations.
// Repositories translate store-level failures into these so callers can
// branch with errors.Is without knowing the storage engine.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrPropertyNotFound indicates the specified property does not exist.
	ErrPropertyNotFound = errors.New("property not found")

	// ErrTaskNotFound indicates the specified task does not exist.
	ErrTaskNotFound = errors.New("task not found")

	// ErrPlanNotFound indicates the specified maintenance plan does not exist.
	ErrPlanNotFound = errors.New("maintenance plan not found")

	// ErrBookingNotFound indicates the specified booking does not exist.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrInvalidID indicates the provided ID format is invalid.
	ErrInvalidID = errors.New("invalid ID format")

	// ErrTitleRequired indicates a missing or blank title.
	ErrTitleRequired = errors.New("title is required")

	// ErrTitleTooLong indicates a title longer than 255 characters.
	ErrTitleTooLong = errors.New("title must be 255 characters or less")

	// ErrGuestNameRequired indicates a booking without a guest name.
	ErrGuestNameRequired = errors.New("guest name is required")

	// ErrInvalidTaskStatus indicates an unknown task status value.
	ErrInvalidTaskStatus = errors.New("invalid task status")

	// ErrInvalidBookingStatus indicates an unknown booking status value.
	ErrInvalidBookingStatus = errors.New("invalid booking status")

	// ErrInvalidPriority indicates an unknown priority value.
	ErrInvalidPriority = errors.New("invalid priority level")

	// ErrInvalidCadence indicates a cadence with an unknown unit or an
	// interval below 1. Rejected before any state mutation.
	ErrInvalidCadence = errors.New("invalid cadence")

	// ErrCompletionBeforeAnchor indicates a completion date earlier than the
	// obligation's anchor date. Completion cannot predate the obligation.
	ErrCompletionBeforeAnchor = errors.New("completion date precedes anchor date")

	// ErrInvalidDateRange indicates a booking whose check-out is not strictly
	// after its check-in.
	ErrInvalidDateRange = errors.New("check-out must be after check-in")

	// ErrInvalidWindow indicates a calendar window whose end precedes its start.
	ErrInvalidWindow = errors.New("window end precedes window start")

	// ErrVersionConflict indicates the entity changed since it was read.
	// Retryable: the caller should re-fetch current state and, if still
	// applicable, retry the action.
	ErrVersionConflict = errors.New("version conflict: resource was modified")

	// ErrOccurrenceConsumed indicates the occurrence being completed already
	// has a run record: a concurrent or repeated completion consumed it.
	// Advancing again would skip an occurrence, so the attempt is rejected.
	ErrOccurrenceConsumed = errors.New("occurrence already completed")

	// ErrScheduleConflict indicates a booking range overlaps an existing
	// non-cancelled booking for the same property. Never silently resolved.
	ErrScheduleConflict = errors.New("booking dates overlap an existing booking")

	// ErrInvalidEtagFormat indicates a malformed etag value.
	ErrInvalidEtagFormat = errors.New("invalid etag format")
)
