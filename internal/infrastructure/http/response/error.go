package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rezkam/stayops/internal/domain"
)

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Details []ErrorField `json:"details,omitempty"`
}

// ErrorField describes a field-specific error.
type ErrorField struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// BadRequest sends a 400 Bad Request error.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, "INVALID_REQUEST", message, http.StatusBadRequest)
}

// ValidationError sends a 400 validation error with field details.
func ValidationError(w http.ResponseWriter, field, issue string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error: ErrorDetail{
			Code:    "VALIDATION_ERROR",
			Message: "validation failed",
			Details: []ErrorField{
				{Field: field, Issue: issue},
			},
		},
	})
}

// NotFound sends a 404 Not Found error.
func NotFound(w http.ResponseWriter, resource string) {
	Error(w, "NOT_FOUND", resource+" not found", http.StatusNotFound)
}

// Conflict sends a 409 Conflict error with a machine-readable code.
func Conflict(w http.ResponseWriter, code, message string) {
	Error(w, code, message, http.StatusConflict)
}

// InternalError sends a 500 Internal Server Error. Logs the error
// server-side but returns a generic message to the client to prevent
// information disclosure.
func InternalError(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		slog.ErrorContext(r.Context(), "internal server error", "error", err)
	}

	Error(w, "INTERNAL_ERROR", "an internal error occurred", http.StatusInternalServerError)
}

// Error sends a generic error response.
func Error(w http.ResponseWriter, code, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// FromDomainError maps domain errors to HTTP responses.
func FromDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	// Validation errors (400)
	case errors.Is(err, domain.ErrTitleRequired):
		ValidationError(w, "title", "required field missing")
	case errors.Is(err, domain.ErrTitleTooLong):
		ValidationError(w, "title", "must be 255 characters or less")
	case errors.Is(err, domain.ErrGuestNameRequired):
		ValidationError(w, "guest_name", "required field missing")
	case errors.Is(err, domain.ErrInvalidID):
		ValidationError(w, "id", "invalid ID format")
	case errors.Is(err, domain.ErrInvalidTaskStatus):
		ValidationError(w, "status", "invalid task status")
	case errors.Is(err, domain.ErrInvalidBookingStatus):
		ValidationError(w, "status", "invalid booking status")
	case errors.Is(err, domain.ErrInvalidPriority):
		ValidationError(w, "priority", "invalid priority level")
	case errors.Is(err, domain.ErrInvalidCadence):
		ValidationError(w, "cadence", "unknown unit or interval below 1")
	case errors.Is(err, domain.ErrCompletionBeforeAnchor):
		ValidationError(w, "completion_date", "precedes the obligation's start date")
	case errors.Is(err, domain.ErrInvalidDateRange):
		ValidationError(w, "check_out", "must be after check_in")
	case errors.Is(err, domain.ErrInvalidWindow):
		ValidationError(w, "window", "end precedes start")
	case errors.Is(err, domain.ErrInvalidEtagFormat):
		ValidationError(w, "etag", "invalid etag format")

	// Not found errors (404)
	case errors.Is(err, domain.ErrPropertyNotFound):
		NotFound(w, "property")
	case errors.Is(err, domain.ErrTaskNotFound):
		NotFound(w, "task")
	case errors.Is(err, domain.ErrPlanNotFound):
		NotFound(w, "maintenance plan")
	case errors.Is(err, domain.ErrBookingNotFound):
		NotFound(w, "booking")
	case errors.Is(err, domain.ErrNotFound):
		NotFound(w, "resource")

	// Concurrency and scheduling conflicts (409)
	case errors.Is(err, domain.ErrVersionConflict):
		Conflict(w, "VERSION_CONFLICT", err.Error())
	case errors.Is(err, domain.ErrOccurrenceConsumed):
		Conflict(w, "OCCURRENCE_CONSUMED", err.Error())
	case errors.Is(err, domain.ErrScheduleConflict):
		Conflict(w, "SCHEDULE_CONFLICT", err.Error())

	// Unknown errors (500): log server-side, return generic message
	default:
		InternalError(w, r, err)
	}
}
