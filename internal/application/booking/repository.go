package booking

import (
	"context"

	"cloud.google.com/go/civil"

	"github.com/rezkam/stayops/internal/domain"
)

// Repository defines storage operations for bookings. The store carries its
// own overlap exclusion on non-cancelled bookings per property, so Create and
// UpdateBooking may return domain.ErrScheduleConflict even after the service
// layer's own validation passed; that constraint is the final authority under
// concurrent writes.
type Repository interface {
	// CreateBooking creates a new booking.
	// Returns domain.ErrScheduleConflict if the range is already occupied.
	CreateBooking(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)

	// FindBookingByID retrieves a booking.
	// Returns domain.ErrBookingNotFound if it doesn't exist.
	FindBookingByID(ctx context.Context, id string) (*domain.Booking, error)

	// FindBookings lists bookings with filtering and pagination.
	FindBookings(ctx context.Context, params domain.ListBookingsParams) (*domain.PagedBookings, error)

	// FindOccupying returns the property's non-cancelled bookings whose
	// range intersects [from, until).
	FindOccupying(ctx context.Context, propertyID string, from, until civil.Date) ([]*domain.Booking, error)

	// UpdateBooking updates a booking using a field mask and optional etag.
	// Returns domain.ErrVersionConflict if the etag doesn't match and
	// domain.ErrScheduleConflict if a date change collides.
	UpdateBooking(ctx context.Context, params domain.UpdateBookingParams) (*domain.Booking, error)

	// CancelBooking sets the booking's status to cancelled, conditioned on
	// the expected version, freeing its date range.
	CancelBooking(ctx context.Context, id string, expectedVersion int) (*domain.Booking, error)

	// DeleteBooking removes a booking.
	DeleteBooking(ctx context.Context, id string) error
}
