// Package calendar assembles the property calendar from bookings, tasks, and
// maintenance plans.
package calendar

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"
	"golang.org/x/sync/errgroup"

	"github.com/rezkam/stayops/internal/domain"
	"github.com/rezkam/stayops/internal/schedule"
)

// Sources are the read-side dependencies of the calendar. Each source hands
// back the property's rows near the window; filtering to the exact window is
// the aggregator's job.
type (
	// BookingSource lists a property's non-cancelled bookings intersecting
	// [from, until).
	BookingSource interface {
		FindOccupying(ctx context.Context, propertyID string, from, until civil.Date) ([]*domain.Booking, error)
	}

	// TaskSource lists a property's tasks.
	TaskSource interface {
		FindTasks(ctx context.Context, params domain.ListTasksParams) (*domain.PagedTasks, error)
	}

	// PlanSource lists a property's maintenance plans.
	PlanSource interface {
		FindPlans(ctx context.Context, params domain.ListPlansParams) (*domain.PagedPlans, error)
	}
)

// sourcePageSize bounds each per-source fetch. Calendars are bounded views,
// not exhaustive listings.
const sourcePageSize = 500

// Service builds the unified calendar view.
type Service struct {
	bookings BookingSource
	tasks    TaskSource
	plans    PlanSource
}

// NewService creates a new calendar service.
func NewService(bookings BookingSource, tasks TaskSource, plans PlanSource) *Service {
	return &Service{
		bookings: bookings,
		tasks:    tasks,
		plans:    plans,
	}
}

// View fetches the three sources concurrently and merges them into calendar
// items for the inclusive window [start, end]. Items keep per-source arrival
// order; no cross-type sorting is applied.
func (s *Service) View(ctx context.Context, propertyID string, start, end civil.Date) ([]domain.CalendarItem, error) {
	if propertyID == "" {
		return nil, domain.ErrPropertyNotFound
	}

	window, err := schedule.NewWindow(start, end)
	if err != nil {
		return nil, err
	}

	var (
		bookings []*domain.Booking
		tasks    []*domain.Task
		plans    []*domain.MaintenancePlan
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// The booking range query is half-open, so stretch the right edge
		// one day past the inclusive window end.
		got, err := s.bookings.FindOccupying(gctx, propertyID, start, end.AddDays(1))
		if err != nil {
			return fmt.Errorf("failed to load bookings: %w", err)
		}
		bookings = got
		return nil
	})

	g.Go(func() error {
		due := end
		got, err := s.tasks.FindTasks(gctx, domain.ListTasksParams{
			PropertyID: propertyID,
			DueBefore:  &due,
			Limit:      sourcePageSize,
		})
		if err != nil {
			return fmt.Errorf("failed to load tasks: %w", err)
		}
		tasks = got.Tasks
		return nil
	})

	g.Go(func() error {
		got, err := s.plans.FindPlans(gctx, domain.ListPlansParams{
			PropertyID: propertyID,
			ActiveOnly: true,
			Limit:      sourcePageSize,
		})
		if err != nil {
			return fmt.Errorf("failed to load plans: %w", err)
		}
		plans = got.Plans
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return schedule.Aggregate(window, bookings, tasks, plans), nil
}
