package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rezkam/stayops/internal/infrastructure/http/response"
)

type calendarResponse struct {
	Items []CalendarItemDTO `json:"items"`
}

// GetCalendar handles GET /v1/properties/{propertyID}/calendar.
// Query parameters start and end bound the inclusive window.
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("start") == "" || q.Get("end") == "" {
		response.ValidationError(w, "start", "start and end query parameters are required")
		return
	}
	start, ok := parseDateField(w, "start", q.Get("start"))
	if !ok {
		return
	}
	end, ok := parseDateField(w, "end", q.Get("end"))
	if !ok {
		return
	}

	items, err := h.calendar.View(r.Context(), chi.URLParam(r, "propertyID"), start, end)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	dtos := make([]CalendarItemDTO, len(items))
	for i, item := range items {
		dtos[i] = MapCalendarItemToDTO(item)
	}
	response.OK(w, calendarResponse{Items: dtos})
}
