package domain

import (
	"fmt"
	"strings"
)

// Title is a validated title value object (1-255 characters).
type Title struct {
	value string
}

// NewTitle creates a new Title, validating the input.
func NewTitle(s string) (Title, error) {
	s = strings.TrimSpace(s)

	if s == "" {
		return Title{}, ErrTitleRequired
	}

	if len(s) > 255 {
		return Title{}, ErrTitleTooLong
	}

	return Title{value: s}, nil
}

// String returns the title value.
func (t Title) String() string {
	return t.value
}

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
)

// NewTaskStatus validates and creates a TaskStatus.
func NewTaskStatus(s string) (TaskStatus, error) {
	status := TaskStatus(strings.ToLower(s))

	switch status {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusDone:
		return status, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidTaskStatus, s)
	}
}

// Open reports whether the status still counts toward future-looking views.
func (s TaskStatus) Open() bool {
	return s == TaskStatusPending || s == TaskStatusInProgress
}

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// NewBookingStatus validates and creates a BookingStatus.
func NewBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(strings.ToLower(s))

	switch status {
	case BookingStatusConfirmed, BookingStatusCompleted, BookingStatusCancelled:
		return status, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidBookingStatus, s)
	}
}

// Priority is the urgency classification shared by tasks and plans.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// NewPriority validates and creates a Priority.
// An empty string defaults to medium.
func NewPriority(s string) (Priority, error) {
	if s == "" {
		return PriorityMedium, nil
	}

	priority := Priority(strings.ToLower(s))

	switch priority {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return priority, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidPriority, s)
	}
}

// ObligationKind distinguishes the two recurring obligation types.
type ObligationKind string

const (
	ObligationTask ObligationKind = "task"
	ObligationPlan ObligationKind = "plan"
)

// RunOutcome is the terminal state recorded for a fulfilled occurrence.
type RunOutcome string

const (
	RunOutcomeCompleted RunOutcome = "completed"
)
