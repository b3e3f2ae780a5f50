package handler

import (
	"time"

	"cloud.google.com/go/civil"

	"github.com/rezkam/stayops/internal/domain"
	"github.com/rezkam/stayops/internal/ptr"
)

// DTOs use string dates in RFC 3339 full-date form (2024-06-01) and RFC 3339
// timestamps for operational times.

// CadenceDTO is the JSON shape of a recurrence cadence.
type CadenceDTO struct {
	Unit     string `json:"unit"`
	Interval int    `json:"interval"`
}

// PropertyDTO is the JSON shape of a property.
type PropertyDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

// TaskDTO is the JSON shape of a task.
type TaskDTO struct {
	ID            string      `json:"id"`
	PropertyID    string      `json:"property_id"`
	Title         string      `json:"title"`
	Notes         string      `json:"notes,omitempty"`
	Cadence       *CadenceDTO `json:"cadence,omitempty"`
	StartDate     string      `json:"start_date"`
	NextDue       string      `json:"next_due"`
	LastCompleted *string     `json:"last_completed,omitempty"`
	Status        string      `json:"status"`
	Priority      string      `json:"priority"`
	Overdue       bool        `json:"overdue"`
	CreatedAt     string      `json:"created_at"`
	UpdatedAt     string      `json:"updated_at"`
	Etag          string      `json:"etag"`
}

// PlanDTO is the JSON shape of a maintenance plan.
type PlanDTO struct {
	ID            string      `json:"id"`
	PropertyID    string      `json:"property_id"`
	Title         string      `json:"title"`
	Notes         string      `json:"notes,omitempty"`
	Cadence       *CadenceDTO `json:"cadence,omitempty"`
	StartDate     string      `json:"start_date"`
	NextRun       string      `json:"next_run"`
	LastCompleted *string     `json:"last_completed,omitempty"`
	IsActive      bool        `json:"is_active"`
	Priority      string      `json:"priority"`
	CreatedAt     string      `json:"created_at"`
	UpdatedAt     string      `json:"updated_at"`
	Etag          string      `json:"etag"`
}

// BookingDTO is the JSON shape of a booking.
type BookingDTO struct {
	ID               string `json:"id"`
	PropertyID       string `json:"property_id"`
	GuestName        string `json:"guest_name"`
	Platform         string `json:"platform,omitempty"`
	CheckIn          string `json:"check_in"`
	CheckOut         string `json:"check_out"`
	Nights           int    `json:"nights"`
	Status           string `json:"status"`
	TotalAmountCents int64  `json:"total_amount_cents"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
	Etag             string `json:"etag"`
}

// RunRecordDTO is the JSON shape of a run record.
type RunRecordDTO struct {
	ID             string `json:"id"`
	ObligationKind string `json:"obligation_kind"`
	ObligationID   string `json:"obligation_id"`
	ScheduledDate  string `json:"scheduled_date"`
	CompletionDate string `json:"completion_date"`
	CompletedAt    string `json:"completed_at"`
	Outcome        string `json:"outcome"`
}

// CalendarItemDTO is the JSON shape of a calendar entry.
type CalendarItemDTO struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	DateStart string            `json:"date_start"`
	DateEnd   *string           `json:"date_end,omitempty"`
	Title     string            `json:"title"`
	Status    string            `json:"status"`
	Priority  string            `json:"priority,omitempty"`
	Meta      map[string]string `json:"meta,omitempty"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatDatePtr(d *civil.Date) *string {
	if d == nil {
		return nil
	}
	return ptr.To(d.String())
}

func mapCadenceToDTO(c *domain.CadenceSpec) *CadenceDTO {
	if c == nil {
		return nil
	}
	return &CadenceDTO{
		Unit:     string(c.Unit),
		Interval: c.Interval,
	}
}

// MapPropertyToDTO converts a domain property to its DTO.
func MapPropertyToDTO(p *domain.Property) PropertyDTO {
	return PropertyDTO{
		ID:        p.ID,
		Name:      p.Name,
		CreatedAt: formatTime(p.CreatedAt),
	}
}

// MapTaskToDTO converts a domain task to its DTO.
func MapTaskToDTO(t *domain.Task) TaskDTO {
	return TaskDTO{
		ID:            t.ID,
		PropertyID:    t.PropertyID,
		Title:         t.Title,
		Notes:         t.Notes,
		Cadence:       mapCadenceToDTO(t.Cadence),
		StartDate:     t.StartDate.String(),
		NextDue:       t.NextDue.String(),
		LastCompleted: formatDatePtr(t.LastCompleted),
		Status:        string(t.Status),
		Priority:      string(t.Priority),
		Overdue:       t.Overdue(civil.DateOf(time.Now().UTC())),
		CreatedAt:     formatTime(t.CreatedAt),
		UpdatedAt:     formatTime(t.UpdatedAt),
		Etag:          t.Etag(),
	}
}

// MapPlanToDTO converts a domain maintenance plan to its DTO.
func MapPlanToDTO(p *domain.MaintenancePlan) PlanDTO {
	return PlanDTO{
		ID:            p.ID,
		PropertyID:    p.PropertyID,
		Title:         p.Title,
		Notes:         p.Notes,
		Cadence:       mapCadenceToDTO(p.Cadence),
		StartDate:     p.StartDate.String(),
		NextRun:       p.NextRun.String(),
		LastCompleted: formatDatePtr(p.LastCompleted),
		IsActive:      p.IsActive,
		Priority:      string(p.Priority),
		CreatedAt:     formatTime(p.CreatedAt),
		UpdatedAt:     formatTime(p.UpdatedAt),
		Etag:          p.Etag(),
	}
}

// MapBookingToDTO converts a domain booking to its DTO.
func MapBookingToDTO(b *domain.Booking) BookingDTO {
	return BookingDTO{
		ID:               b.ID,
		PropertyID:       b.PropertyID,
		GuestName:        b.GuestName,
		Platform:         b.Platform,
		CheckIn:          b.CheckIn.String(),
		CheckOut:         b.CheckOut.String(),
		Nights:           b.Nights(),
		Status:           string(b.Status),
		TotalAmountCents: b.TotalAmountCents,
		CreatedAt:        formatTime(b.CreatedAt),
		UpdatedAt:        formatTime(b.UpdatedAt),
		Etag:             b.Etag(),
	}
}

// MapRunToDTO converts a domain run record to its DTO.
func MapRunToDTO(r *domain.RunRecord) RunRecordDTO {
	return RunRecordDTO{
		ID:             r.ID,
		ObligationKind: string(r.ObligationKind),
		ObligationID:   r.ObligationID,
		ScheduledDate:  r.ScheduledDate.String(),
		CompletionDate: r.CompletionDate.String(),
		CompletedAt:    formatTime(r.CompletedAt),
		Outcome:        string(r.Outcome),
	}
}

// MapCalendarItemToDTO converts a domain calendar item to its DTO.
func MapCalendarItemToDTO(item domain.CalendarItem) CalendarItemDTO {
	return CalendarItemDTO{
		ID:        item.ID,
		Type:      string(item.Type),
		DateStart: item.DateStart.String(),
		DateEnd:   formatDatePtr(item.DateEnd),
		Title:     item.Title,
		Status:    item.Status,
		Priority:  string(item.Priority),
		Meta:      item.Meta,
	}
}
