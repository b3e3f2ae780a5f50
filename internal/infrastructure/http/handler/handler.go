// Package handler adapts HTTP requests to application service calls.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rezkam/stayops/internal/application/booking"
	"github.com/rezkam/stayops/internal/application/calendar"
	"github.com/rezkam/stayops/internal/application/property"
	"github.com/rezkam/stayops/internal/application/upkeep"
)

// Handler holds the application services the HTTP API fronts.
type Handler struct {
	properties *property.Service
	upkeep     *upkeep.Service
	bookings   *booking.Service
	calendar   *calendar.Service
}

// New creates a new HTTP API handler.
func New(properties *property.Service, upkeepService *upkeep.Service, bookings *booking.Service, calendarService *calendar.Service) *Handler {
	return &Handler{
		properties: properties,
		upkeep:     upkeepService,
		bookings:   bookings,
		calendar:   calendarService,
	}
}

// Routes builds the API router. Everything lives under a property except
// property management itself.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Route("/v1/properties", func(r chi.Router) {
		r.Post("/", h.CreateProperty)
		r.Get("/", h.ListProperties)

		r.Route("/{propertyID}", func(r chi.Router) {
			r.Get("/", h.GetProperty)
			r.Delete("/", h.DeleteProperty)

			r.Get("/calendar", h.GetCalendar)

			r.Route("/tasks", func(r chi.Router) {
				r.Post("/", h.CreateTask)
				r.Get("/", h.ListTasks)

				r.Route("/{taskID}", func(r chi.Router) {
					r.Get("/", h.GetTask)
					r.Patch("/", h.UpdateTask)
					r.Delete("/", h.DeleteTask)
					r.Post("/complete", h.CompleteTask)
					r.Get("/runs", h.ListTaskRuns)
				})
			})

			r.Route("/plans", func(r chi.Router) {
				r.Post("/", h.CreatePlan)
				r.Get("/", h.ListPlans)

				r.Route("/{planID}", func(r chi.Router) {
					r.Get("/", h.GetPlan)
					r.Patch("/", h.UpdatePlan)
					r.Delete("/", h.DeletePlan)
					r.Post("/complete", h.CompletePlan)
					r.Get("/preview", h.PreviewPlan)
					r.Get("/runs", h.ListPlanRuns)
				})
			})

			r.Route("/bookings", func(r chi.Router) {
				r.Post("/", h.CreateBooking)
				r.Get("/", h.ListBookings)

				r.Route("/{bookingID}", func(r chi.Router) {
					r.Get("/", h.GetBooking)
					r.Patch("/", h.UpdateBooking)
					r.Delete("/", h.DeleteBooking)
					r.Post("/cancel", h.CancelBooking)
				})
			})
		})
	})

	return r
}

// etagFromRequest reads the optional If-Match header used for optimistic
// concurrency control.
func etagFromRequest(r *http.Request) *string {
	etag := r.Header.Get("If-Match")
	if etag == "" {
		return nil
	}
	return &etag
}
