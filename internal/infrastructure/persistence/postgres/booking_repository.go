package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/rezkam/stayops/internal/domain"
)

// isExclusionViolation checks if an error is a PostgreSQL exclusion
// constraint violation. The bookings table uses one to forbid overlapping
// non-cancelled ranges per property.
func isExclusionViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 23P01 is exclusion_violation
		return pgErr.Code == "23P01"
	}
	return false
}

const bookingColumns = `id, property_id, guest_name, platform, check_in, check_out,
	status, total_amount_cents, created_at, updated_at, version`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var (
		booking        domain.Booking
		id, propertyID pgtype.UUID
		checkIn        pgtype.Date
		checkOut       pgtype.Date
		status         string
		createdAt      pgtype.Timestamptz
		updatedAt      pgtype.Timestamptz
	)

	err := row.Scan(&id, &propertyID, &booking.GuestName, &booking.Platform,
		&checkIn, &checkOut, &status, &booking.TotalAmountCents,
		&createdAt, &updatedAt, &booking.Version)
	if err != nil {
		return nil, err
	}

	booking.ID = uuid.UUID(id.Bytes).String()
	booking.PropertyID = uuid.UUID(propertyID.Bytes).String()
	booking.CheckIn = pgtypeToCivilDate(checkIn)
	booking.CheckOut = pgtypeToCivilDate(checkOut)
	booking.Status = domain.BookingStatus(status)
	booking.CreatedAt = pgtypeToTime(createdAt)
	booking.UpdatedAt = pgtypeToTime(updatedAt)

	return &booking, nil
}

// CreateBooking creates a new booking. An exclusion constraint violation
// means a concurrent writer took the range first.
func (s *Store) CreateBooking(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	id, err := uuid.Parse(booking.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidID, err)
	}
	propertyID, err := uuid.Parse(booking.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidID, err)
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO bookings (id, property_id, guest_name, platform, check_in, check_out,
			status, total_amount_cents, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+bookingColumns,
		id, propertyID, booking.GuestName, booking.Platform,
		civilDateToPgtype(booking.CheckIn), civilDateToPgtype(booking.CheckOut),
		string(booking.Status), booking.TotalAmountCents,
		timeToPgtype(booking.CreatedAt), timeToPgtype(booking.UpdatedAt))

	created, err := scanBooking(row)
	if err != nil {
		if isExclusionViolation(err) {
			return nil, fmt.Errorf("%w: [%s, %s)", domain.ErrScheduleConflict,
				booking.CheckIn, booking.CheckOut)
		}
		if isForeignKeyViolation(err, "property_id") {
			return nil, fmt.Errorf("%w: %s", domain.ErrPropertyNotFound, booking.PropertyID)
		}
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}
	return created, nil
}

// FindBookingByID retrieves a booking by its ID.
func (s *Store) FindBookingByID(ctx context.Context, id string) (*domain.Booking, error) {
	bookingUUID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidID, err)
	}

	row := s.db.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, bookingUUID)

	booking, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: booking %s", domain.ErrBookingNotFound, id)
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

// FindBookings lists bookings with filtering and pagination, ordered by
// check-in descending.
func (s *Store) FindBookings(ctx context.Context, params domain.ListBookingsParams) (*domain.PagedBookings, error) {
	propertyID, err := uuid.Parse(params.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidID, err)
	}

	where := []string{"property_id = $1"}
	args := []any{propertyID}

	if params.Status != nil {
		args = append(args, string(*params.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if params.From != nil {
		args = append(args, civilDateToPgtype(*params.From))
		where = append(where, fmt.Sprintf("check_out > $%d", len(args)))
	}
	if params.Until != nil {
		args = append(args, civilDateToPgtype(*params.Until))
		where = append(where, fmt.Sprintf("check_in <= $%d", len(args)))
	}

	whereClause := strings.Join(where, " AND ")

	var totalCount int
	if err := s.db.QueryRow(ctx,
		`SELECT count(*) FROM bookings WHERE `+whereClause, args...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("failed to count bookings: %w", err)
	}

	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE %s
		ORDER BY check_in DESC, created_at DESC
		LIMIT $%d OFFSET $%d`, bookingColumns, whereClause, len(args)-1, len(args))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]*domain.Booking, 0)
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}

	return &domain.PagedBookings{
		Bookings:   bookings,
		TotalCount: totalCount,
		HasMore:    params.Offset+params.Limit < totalCount,
	}, nil
}

// FindOccupying returns the property's non-cancelled bookings whose
// [check_in, check_out) range intersects [from, until).
func (s *Store) FindOccupying(ctx context.Context, propertyID string, from, until civil.Date) ([]*domain.Booking, error) {
	propertyUUID, err := uuid.Parse(propertyID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidID, err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE property_id = $1
		  AND status <> 'cancelled'
		  AND check_in < $3
		  AND check_out > $2
		ORDER BY check_in ASC`,
		propertyUUID, civilDateToPgtype(from), civilDateToPgtype(until))
	if err != nil {
		return nil, fmt.Errorf("failed to find occupying bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]*domain.Booking, 0)
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}

	return bookings, nil
}

// UpdateBooking updates a booking using a field mask. With an etag the
// update is version-conditioned. Date changes can trip the overlap
// exclusion constraint.
func (s *Store) UpdateBooking(ctx context.Context, params domain.UpdateBookingParams) (*domain.Booking, error) {
	bookingUUID, err := uuid.Parse(params.BookingID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidID, err)
	}
	expectedVersion, err := parseEtag(params.Etag)
	if err != nil {
		return nil, err
	}

	set := []string{"updated_at = now()", "version = version + 1"}
	args := []any{bookingUUID}

	for _, field := range params.UpdateMask {
		switch field {
		case domain.FieldGuestName:
			if params.GuestName != nil {
				args = append(args, *params.GuestName)
				set = append(set, fmt.Sprintf("guest_name = $%d", len(args)))
			}
		case domain.FieldPlatform:
			if params.Platform != nil {
				args = append(args, *params.Platform)
				set = append(set, fmt.Sprintf("platform = $%d", len(args)))
			}
		case domain.FieldCheckIn:
			if params.CheckIn != nil {
				args = append(args, civilDateToPgtype(*params.CheckIn))
				set = append(set, fmt.Sprintf("check_in = $%d", len(args)))
			}
		case domain.FieldCheckOut:
			if params.CheckOut != nil {
				args = append(args, civilDateToPgtype(*params.CheckOut))
				set = append(set, fmt.Sprintf("check_out = $%d", len(args)))
			}
		case domain.FieldStatus:
			if params.Status != nil {
				args = append(args, string(*params.Status))
				set = append(set, fmt.Sprintf("status = $%d", len(args)))
			}
		case domain.FieldTotalAmount:
			if params.TotalAmountCents != nil {
				args = append(args, *params.TotalAmountCents)
				set = append(set, fmt.Sprintf("total_amount_cents = $%d", len(args)))
			}
		}
	}

	where := "id = $1"
	if expectedVersion != nil {
		args = append(args, *expectedVersion)
		where += fmt.Sprintf(" AND version = $%d", len(args))
	}

	query := fmt.Sprintf(`UPDATE bookings SET %s WHERE %s RETURNING %s`,
		strings.Join(set, ", "), where, bookingColumns)

	updated, err := scanBooking(s.db.QueryRow(ctx, query, args...))
	if err != nil {
		if isExclusionViolation(err) {
			return nil, fmt.Errorf("%w: booking %s", domain.ErrScheduleConflict, params.BookingID)
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.bookingMissOrConflict(ctx, params.BookingID)
		}
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}
	return updated, nil
}

// bookingMissOrConflict resolves a zero-row conditional update: the booking
// is either gone or was modified concurrently.
func (s *Store) bookingMissOrConflict(ctx context.Context, id string) error {
	if _, err := s.FindBookingByID(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("%w: booking %s", domain.ErrVersionConflict, id)
}

// CancelBooking sets the booking's status to cancelled, conditioned on the
// expected version. The exclusion constraint stops covering it, freeing the
// range.
func (s *Store) CancelBooking(ctx context.Context, id string, expectedVersion int) (*domain.Booking, error) {
	bookingUUID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidID, err)
	}

	row := s.db.QueryRow(ctx, `
		UPDATE bookings
		SET status = 'cancelled',
			updated_at = now(),
			version = version + 1
		WHERE id = $1 AND version = $2
		RETURNING `+bookingColumns,
		bookingUUID, expectedVersion)

	cancelled, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.bookingMissOrConflict(ctx, id)
		}
		return nil, fmt.Errorf("failed to cancel booking: %w", err)
	}
	return cancelled, nil
}

// DeleteBooking removes a booking.
func (s *Store) DeleteBooking(ctx context.Context, id string) error {
	bookingUUID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidID, err)
	}

	tag, err := s.db.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, bookingUUID)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: booking %s", domain.ErrBookingNotFound, id)
	}
	return nil
}
