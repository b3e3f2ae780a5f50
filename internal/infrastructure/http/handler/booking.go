package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rezkam/stayops/internal/domain"
	"github.com/rezkam/stayops/internal/infrastructure/http/response"
)

type createBookingRequest struct {
	GuestName        string `json:"guest_name"`
	Platform         string `json:"platform"`
	CheckIn          string `json:"check_in"`
	CheckOut         string `json:"check_out"`
	Status           string `json:"status"`
	TotalAmountCents int64  `json:"total_amount_cents"`
}

// CreateBooking handles POST /v1/properties/{propertyID}/bookings.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON")
		return
	}

	checkIn, ok := parseDateField(w, "check_in", req.CheckIn)
	if !ok {
		return
	}
	checkOut, ok := parseDateField(w, "check_out", req.CheckOut)
	if !ok {
		return
	}

	booking := &domain.Booking{
		PropertyID:       chi.URLParam(r, "propertyID"),
		GuestName:        req.GuestName,
		Platform:         req.Platform,
		CheckIn:          checkIn,
		CheckOut:         checkOut,
		Status:           domain.BookingStatus(req.Status),
		TotalAmountCents: req.TotalAmountCents,
	}

	created, err := h.bookings.Create(r.Context(), booking)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to create booking via HTTP",
			"property_id", booking.PropertyID,
			"check_in", req.CheckIn,
			"check_out", req.CheckOut,
			"error", err)
		response.FromDomainError(w, r, err)
		return
	}

	response.Created(w, MapBookingToDTO(created))
}

// GetBooking handles GET /v1/properties/{propertyID}/bookings/{bookingID}.
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := h.bookings.Get(r.Context(), chi.URLParam(r, "propertyID"), chi.URLParam(r, "bookingID"))
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	response.OK(w, MapBookingToDTO(booking))
}

type listBookingsResponse struct {
	Bookings      []BookingDTO `json:"bookings"`
	TotalCount    int          `json:"total_count"`
	NextPageToken *string      `json:"next_page_token,omitempty"`
}

// ListBookings handles GET /v1/properties/{propertyID}/bookings.
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	params := domain.ListBookingsParams{
		PropertyID: chi.URLParam(r, "propertyID"),
		Limit:      limit,
		Offset:     offset,
	}

	q := r.URL.Query()
	if raw := q.Get("status"); raw != "" {
		status, err := domain.NewBookingStatus(raw)
		if err != nil {
			response.FromDomainError(w, r, err)
			return
		}
		params.Status = &status
	}
	if raw := q.Get("from"); raw != "" {
		d, ok := parseDateField(w, "from", raw)
		if !ok {
			return
		}
		params.From = &d
	}
	if raw := q.Get("until"); raw != "" {
		d, ok := parseDateField(w, "until", raw)
		if !ok {
			return
		}
		params.Until = &d
	}

	result, err := h.bookings.List(r.Context(), params)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	dtos := make([]BookingDTO, len(result.Bookings))
	for i, booking := range result.Bookings {
		dtos[i] = MapBookingToDTO(booking)
	}

	response.OK(w, listBookingsResponse{
		Bookings:      dtos,
		TotalCount:    result.TotalCount,
		NextPageToken: generatePageToken(offset+len(result.Bookings), result.HasMore),
	})
}

type updateBookingRequest struct {
	UpdateMask       []string `json:"update_mask"`
	GuestName        *string  `json:"guest_name"`
	Platform         *string  `json:"platform"`
	CheckIn          *string  `json:"check_in"`
	CheckOut         *string  `json:"check_out"`
	Status           *string  `json:"status"`
	TotalAmountCents *int64   `json:"total_amount_cents"`
}

// UpdateBooking handles PATCH /v1/properties/{propertyID}/bookings/{bookingID}.
// The If-Match header carries the expected etag. Date changes re-run
// conflict validation.
func (h *Handler) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	var req updateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON")
		return
	}

	params := domain.UpdateBookingParams{
		BookingID:        chi.URLParam(r, "bookingID"),
		PropertyID:       chi.URLParam(r, "propertyID"),
		Etag:             etagFromRequest(r),
		UpdateMask:       req.UpdateMask,
		GuestName:        req.GuestName,
		Platform:         req.Platform,
		TotalAmountCents: req.TotalAmountCents,
	}
	if req.CheckIn != nil {
		d, ok := parseDateField(w, "check_in", *req.CheckIn)
		if !ok {
			return
		}
		params.CheckIn = &d
	}
	if req.CheckOut != nil {
		d, ok := parseDateField(w, "check_out", *req.CheckOut)
		if !ok {
			return
		}
		params.CheckOut = &d
	}
	if req.Status != nil {
		status := domain.BookingStatus(*req.Status)
		params.Status = &status
	}

	updated, err := h.bookings.Update(r.Context(), params)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to update booking via HTTP",
			"booking_id", params.BookingID,
			"error", err)
		response.FromDomainError(w, r, err)
		return
	}

	response.OK(w, MapBookingToDTO(updated))
}

// CancelBooking handles POST /v1/properties/{propertyID}/bookings/{bookingID}/cancel.
// Cancellation frees the booking's date range for new reservations.
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingID")
	cancelled, err := h.bookings.Cancel(r.Context(),
		chi.URLParam(r, "propertyID"), bookingID, etagFromRequest(r))
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to cancel booking via HTTP",
			"booking_id", bookingID,
			"error", err)
		response.FromDomainError(w, r, err)
		return
	}

	response.OK(w, MapBookingToDTO(cancelled))
}

// DeleteBooking handles DELETE /v1/properties/{propertyID}/bookings/{bookingID}.
func (h *Handler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	err := h.bookings.Delete(r.Context(), chi.URLParam(r, "propertyID"), chi.URLParam(r, "bookingID"))
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	response.NoContent(w)
}
