// Package booking provides business logic for property reservations,
// including double-booking prevention over half-open date ranges.
package booking

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/rezkam/stayops/internal/domain"
	"github.com/rezkam/stayops/internal/schedule"
)

// Default configuration values.
const (
	DefaultPageSize = 25
	MaxPageSize     = 100
)

// Config holds configuration for the Service.
type Config struct {
	DefaultPageSize int
	MaxPageSize     int
}

// Service orchestrates booking operations. Conflict checking happens twice:
// the service validates against a read of the property's occupying bookings
// so the caller gets a named conflict, and the store's exclusion constraint
// settles races that slip between the read and the write.
type Service struct {
	repo   Repository
	config Config
}

// NewService creates a new booking service, applying defaults for zero or
// invalid config values.
func NewService(repo Repository, config Config) *Service {
	if config.DefaultPageSize <= 0 {
		config.DefaultPageSize = DefaultPageSize
	}
	if config.MaxPageSize <= 0 {
		config.MaxPageSize = MaxPageSize
	}

	return &Service{
		repo:   repo,
		config: config,
	}
}

func checkEtag(etag *string, currentVersion int) error {
	if etag == nil {
		return nil
	}
	version, err := strconv.Atoi(*etag)
	if err != nil || version < 1 {
		return domain.ErrInvalidEtagFormat
	}
	if version != currentVersion {
		return fmt.Errorf("%w: expected version %d, current version %d",
			domain.ErrVersionConflict, version, currentVersion)
	}
	return nil
}

// validateRange builds the candidate range and checks it against the
// property's occupying bookings, excluding the booking being edited.
func (s *Service) validateRange(ctx context.Context, propertyID string, candidate schedule.DateRange, excludeID string) error {
	existing, err := s.repo.FindOccupying(ctx, propertyID, candidate.Start, candidate.End)
	if err != nil {
		return fmt.Errorf("failed to load occupying bookings: %w", err)
	}

	if conflict := schedule.FindConflict(candidate, existing, excludeID); conflict != nil {
		return fmt.Errorf("%w: overlaps booking %s [%s, %s)",
			domain.ErrScheduleConflict, conflict.ID, conflict.CheckIn, conflict.CheckOut)
	}
	return nil
}

// Create creates a booking after validating its date range against the
// property's existing non-cancelled bookings.
func (s *Service) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	if booking.PropertyID == "" {
		return nil, domain.ErrPropertyNotFound
	}
	if booking.GuestName == "" {
		return nil, domain.ErrGuestNameRequired
	}

	candidate, err := schedule.NewDateRange(booking.CheckIn, booking.CheckOut)
	if err != nil {
		return nil, err
	}

	if booking.Status == "" {
		booking.Status = domain.BookingStatusConfirmed
	} else if _, err := domain.NewBookingStatus(string(booking.Status)); err != nil {
		return nil, err
	}

	if booking.Occupies() {
		if err := s.validateRange(ctx, booking.PropertyID, candidate, ""); err != nil {
			return nil, err
		}
	}

	if booking.ID == "" {
		idObj, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("failed to generate id: %w", err)
		}
		booking.ID = idObj.String()
	}

	now := time.Now().UTC()
	booking.CreatedAt = now
	booking.UpdatedAt = now

	created, err := s.repo.CreateBooking(ctx, booking)
	if err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	return created, nil
}

// Get retrieves a booking, verifying property ownership.
func (s *Service) Get(ctx context.Context, propertyID, bookingID string) (*domain.Booking, error) {
	if bookingID == "" {
		return nil, domain.ErrBookingNotFound
	}

	booking, err := s.repo.FindBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.PropertyID != propertyID {
		return nil, domain.ErrBookingNotFound
	}

	return booking, nil
}

// List lists bookings with filtering and pagination.
func (s *Service) List(ctx context.Context, params domain.ListBookingsParams) (*domain.PagedBookings, error) {
	if params.PropertyID == "" {
		return nil, domain.ErrPropertyNotFound
	}
	if params.Offset < 0 {
		params.Offset = 0
	}
	if params.Limit <= 0 {
		params.Limit = s.config.DefaultPageSize
	}
	params.Limit = min(params.Limit, s.config.MaxPageSize)

	result, err := s.repo.FindBookings(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	return result, nil
}

// Update updates a booking using a field mask and optional etag. A date
// change re-runs conflict validation with the booking's own record excluded,
// using the new range merged over the stored one.
func (s *Service) Update(ctx context.Context, params domain.UpdateBookingParams) (*domain.Booking, error) {
	if params.BookingID == "" {
		return nil, domain.ErrBookingNotFound
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if params.Status != nil {
		if _, err := domain.NewBookingStatus(string(*params.Status)); err != nil {
			return nil, err
		}
	}

	existing, err := s.Get(ctx, params.PropertyID, params.BookingID)
	if err != nil {
		return nil, err
	}
	if err := checkEtag(params.Etag, existing.Version); err != nil {
		return nil, err
	}

	if params.ChangesDates() {
		checkIn := existing.CheckIn
		checkOut := existing.CheckOut
		if params.CheckIn != nil {
			checkIn = *params.CheckIn
		}
		if params.CheckOut != nil {
			checkOut = *params.CheckOut
		}

		candidate, err := schedule.NewDateRange(checkIn, checkOut)
		if err != nil {
			return nil, err
		}

		stillOccupies := existing.Occupies()
		if params.Status != nil {
			stillOccupies = *params.Status != domain.BookingStatusCancelled
		}
		if stillOccupies {
			if err := s.validateRange(ctx, params.PropertyID, candidate, params.BookingID); err != nil {
				return nil, err
			}
		}
	}

	return s.repo.UpdateBooking(ctx, params)
}

// Cancel cancels a booking, freeing its date range for new reservations.
// Cancelling an already-cancelled booking is a no-op.
func (s *Service) Cancel(ctx context.Context, propertyID, bookingID string, etag *string) (*domain.Booking, error) {
	booking, err := s.Get(ctx, propertyID, bookingID)
	if err != nil {
		return nil, err
	}
	if err := checkEtag(etag, booking.Version); err != nil {
		return nil, err
	}

	if booking.Status == domain.BookingStatusCancelled {
		return booking, nil
	}

	return s.repo.CancelBooking(ctx, bookingID, booking.Version)
}

// Delete removes a booking entirely. Prefer Cancel: deletion erases the
// record from history as well as from the calendar.
func (s *Service) Delete(ctx context.Context, propertyID, bookingID string) error {
	booking, err := s.repo.FindBookingByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.PropertyID != propertyID {
		return domain.ErrBookingNotFound
	}

	return s.repo.DeleteBooking(ctx, bookingID)
}
