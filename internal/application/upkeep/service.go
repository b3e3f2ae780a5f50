// Package upkeep provides business logic for recurring obligations: tasks
// and maintenance plans, their completion lifecycle, and the run-record
// audit trail.
package upkeep

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/rezkam/stayops/internal/domain"
	"github.com/rezkam/stayops/internal/recurring"
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

// Service orchestrates task and maintenance plan operations through the
// Repository interface. Completion follows the write order that keeps the
// audit trail repairable: run record first, state advance second.
type Service struct {
	repo   Repository
	config Config
}

// NewService creates a new upkeep service, applying defaults for zero or
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

// checkEtag validates an optional etag against the entity's current version.
// Returns domain.ErrInvalidEtagFormat for malformed values and
// domain.ErrVersionConflict on mismatch.
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

func (s *Service) clampPage(limit, offset int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = s.config.DefaultPageSize
	}
	limit = min(limit, s.config.MaxPageSize)
	return limit, offset
}

// === Tasks ===

// CreateTask creates a new task for a property. A missing next-due date
// defaults to the start date; a missing start date defaults to today.
func (s *Service) CreateTask(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task.PropertyID == "" {
		return nil, domain.ErrPropertyNotFound
	}

	title, err := domain.NewTitle(task.Title)
	if err != nil {
		return nil, err
	}
	task.Title = title.String()

	if task.Cadence != nil {
		if err := task.Cadence.Validate(); err != nil {
			return nil, err
		}
	}

	priority, err := domain.NewPriority(string(task.Priority))
	if err != nil {
		return nil, err
	}
	task.Priority = priority

	if task.ID == "" {
		idObj, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("failed to generate id: %w", err)
		}
		task.ID = idObj.String()
	}

	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	if !task.StartDate.IsValid() {
		task.StartDate = civil.DateOf(now)
	}
	if !task.NextDue.IsValid() {
		task.NextDue = task.StartDate
	}
	if task.Status == "" {
		task.Status = domain.TaskStatusPending
	} else if _, err := domain.NewTaskStatus(string(task.Status)); err != nil {
		return nil, err
	}

	created, err := s.repo.CreateTask(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return created, nil
}

// GetTask retrieves a task, verifying property ownership.
func (s *Service) GetTask(ctx context.Context, propertyID, taskID string) (*domain.Task, error) {
	if taskID == "" {
		return nil, domain.ErrTaskNotFound
	}

	task, err := s.repo.FindTaskByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	// Return NotFound rather than leaking cross-property existence.
	if task.PropertyID != propertyID {
		return nil, domain.ErrTaskNotFound
	}

	return task, nil
}

// ListTasks lists tasks with filtering and pagination.
func (s *Service) ListTasks(ctx context.Context, params domain.ListTasksParams) (*domain.PagedTasks, error) {
	if params.PropertyID == "" {
		return nil, domain.ErrPropertyNotFound
	}
	params.Limit, params.Offset = s.clampPage(params.Limit, params.Offset)

	result, err := s.repo.FindTasks(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return result, nil
}

// UpdateTask updates a task using a field mask and optional etag.
// Completion state is not editable here; use CompleteTask.
func (s *Service) UpdateTask(ctx context.Context, params domain.UpdateTaskParams) (*domain.Task, error) {
	if params.TaskID == "" {
		return nil, domain.ErrTaskNotFound
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	if params.Title != nil {
		title, err := domain.NewTitle(*params.Title)
		if err != nil {
			return nil, err
		}
		v := title.String()
		params.Title = &v
	}
	if params.Cadence != nil {
		if err := params.Cadence.Validate(); err != nil {
			return nil, err
		}
	}
	if params.Status != nil {
		if _, err := domain.NewTaskStatus(string(*params.Status)); err != nil {
			return nil, err
		}
	}
	if params.Priority != nil {
		if _, err := domain.NewPriority(string(*params.Priority)); err != nil {
			return nil, err
		}
	}

	existing, err := s.repo.FindTaskByID(ctx, params.TaskID)
	if err != nil {
		return nil, err
	}
	if existing.PropertyID != params.PropertyID {
		return nil, domain.ErrTaskNotFound
	}

	return s.repo.UpdateTask(ctx, params)
}

// DeleteTask removes a task and its run history.
func (s *Service) DeleteTask(ctx context.Context, propertyID, taskID string) error {
	task, err := s.repo.FindTaskByID(ctx, taskID)
	if err != nil {
		return err
	}
	if task.PropertyID != propertyID {
		return domain.ErrTaskNotFound
	}

	return s.repo.DeleteTask(ctx, taskID)
}

// CompleteTask marks the task's current occurrence fulfilled.
//
// One-off tasks move to done; recurring tasks advance their next due date
// counted from the completion date and reset to pending. The run record is
// written before the state advance: if the advance then loses a concurrent
// race, the audit trail still shows the occurrence as consumed, which the
// reconciliation worker can detect and repair.
//
// Completing the same occurrence twice is rejected: a duplicate run record
// means another request already consumed it, and a version mismatch on the
// advance means the task changed since it was read. Both surface as
// retryable conflicts.
func (s *Service) CompleteTask(ctx context.Context, propertyID, taskID string, completionDate civil.Date, etag *string) (*domain.Task, *domain.RunRecord, error) {
	task, err := s.GetTask(ctx, propertyID, taskID)
	if err != nil {
		return nil, nil, err
	}
	if err := checkEtag(etag, task.Version); err != nil {
		return nil, nil, err
	}

	runID, err := uuid.NewV7()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate run id: %w", err)
	}

	result, err := ProcessCompletion(SnapshotTask(task), completionDate, time.Now().UTC(), runID.String())
	if err != nil {
		return nil, nil, err
	}

	inserted, err := s.repo.InsertRunRecord(ctx, &result.Run)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to record run: %w", err)
	}
	if !inserted {
		return nil, nil, fmt.Errorf("%w: task %s occurrence %s",
			domain.ErrOccurrenceConsumed, taskID, task.NextDue)
	}

	updated, err := s.repo.AdvanceTask(ctx, AdvanceParams{
		ID:              taskID,
		ExpectedVersion: task.Version,
		NextOccurrence:  result.NextOccurrence,
		LastCompleted:   result.LastCompleted,
		Closed:          result.Closed,
	})
	if err != nil {
		// The run record exists but the state advance did not land. That
		// side is the repairable one: the reconciliation worker replays
		// advances for consumed occurrences.
		slog.WarnContext(ctx, "run record written but task advance failed",
			"task_id", taskID,
			"scheduled_date", result.Run.ScheduledDate.String(),
			"error", err)
		return nil, nil, err
	}

	return updated, &result.Run, nil
}

// === Maintenance plans ===

// CreatePlan creates a new maintenance plan for a property.
func (s *Service) CreatePlan(ctx context.Context, plan *domain.MaintenancePlan) (*domain.MaintenancePlan, error) {
	if plan.PropertyID == "" {
		return nil, domain.ErrPropertyNotFound
	}

	title, err := domain.NewTitle(plan.Title)
	if err != nil {
		return nil, err
	}
	plan.Title = title.String()

	if plan.Cadence != nil {
		if err := plan.Cadence.Validate(); err != nil {
			return nil, err
		}
	}

	priority, err := domain.NewPriority(string(plan.Priority))
	if err != nil {
		return nil, err
	}
	plan.Priority = priority

	if plan.ID == "" {
		idObj, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("failed to generate id: %w", err)
		}
		plan.ID = idObj.String()
	}

	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now
	plan.IsActive = true

	if !plan.StartDate.IsValid() {
		plan.StartDate = civil.DateOf(now)
	}
	if !plan.NextRun.IsValid() {
		plan.NextRun = plan.StartDate
	}

	created, err := s.repo.CreatePlan(ctx, plan)
	if err != nil {
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}

	return created, nil
}

// GetPlan retrieves a maintenance plan, verifying property ownership.
func (s *Service) GetPlan(ctx context.Context, propertyID, planID string) (*domain.MaintenancePlan, error) {
	if planID == "" {
		return nil, domain.ErrPlanNotFound
	}

	plan, err := s.repo.FindPlanByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.PropertyID != propertyID {
		return nil, domain.ErrPlanNotFound
	}

	return plan, nil
}

// ListPlans lists maintenance plans with filtering and pagination.
func (s *Service) ListPlans(ctx context.Context, params domain.ListPlansParams) (*domain.PagedPlans, error) {
	if params.PropertyID == "" {
		return nil, domain.ErrPropertyNotFound
	}
	params.Limit, params.Offset = s.clampPage(params.Limit, params.Offset)

	result, err := s.repo.FindPlans(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}

	return result, nil
}

// UpdatePlan updates a maintenance plan using a field mask and optional etag.
func (s *Service) UpdatePlan(ctx context.Context, params domain.UpdatePlanParams) (*domain.MaintenancePlan, error) {
	if params.PlanID == "" {
		return nil, domain.ErrPlanNotFound
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	if params.Title != nil {
		title, err := domain.NewTitle(*params.Title)
		if err != nil {
			return nil, err
		}
		v := title.String()
		params.Title = &v
	}
	if params.Cadence != nil {
		if err := params.Cadence.Validate(); err != nil {
			return nil, err
		}
	}
	if params.Priority != nil {
		if _, err := domain.NewPriority(string(*params.Priority)); err != nil {
			return nil, err
		}
	}

	existing, err := s.repo.FindPlanByID(ctx, params.PlanID)
	if err != nil {
		return nil, err
	}
	if existing.PropertyID != params.PropertyID {
		return nil, domain.ErrPlanNotFound
	}

	return s.repo.UpdatePlan(ctx, params)
}

// DeletePlan removes a maintenance plan and its run history.
func (s *Service) DeletePlan(ctx context.Context, propertyID, planID string) error {
	plan, err := s.repo.FindPlanByID(ctx, planID)
	if err != nil {
		return err
	}
	if plan.PropertyID != propertyID {
		return domain.ErrPlanNotFound
	}

	return s.repo.DeletePlan(ctx, planID)
}

// CompletePlan marks the plan's current occurrence fulfilled.
//
// Unlike tasks, a plan's next run is counted from the scheduled date, so
// completing early or late never drifts the maintenance schedule. One-off
// plans become inactive. Write order and conflict semantics match
// CompleteTask.
func (s *Service) CompletePlan(ctx context.Context, propertyID, planID string, completionDate civil.Date, etag *string) (*domain.MaintenancePlan, *domain.RunRecord, error) {
	plan, err := s.GetPlan(ctx, propertyID, planID)
	if err != nil {
		return nil, nil, err
	}
	if err := checkEtag(etag, plan.Version); err != nil {
		return nil, nil, err
	}

	runID, err := uuid.NewV7()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate run id: %w", err)
	}

	result, err := ProcessCompletion(SnapshotPlan(plan), completionDate, time.Now().UTC(), runID.String())
	if err != nil {
		return nil, nil, err
	}

	inserted, err := s.repo.InsertRunRecord(ctx, &result.Run)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to record run: %w", err)
	}
	if !inserted {
		return nil, nil, fmt.Errorf("%w: plan %s occurrence %s",
			domain.ErrOccurrenceConsumed, planID, plan.NextRun)
	}

	updated, err := s.repo.AdvancePlan(ctx, AdvanceParams{
		ID:              planID,
		ExpectedVersion: plan.Version,
		NextOccurrence:  result.NextOccurrence,
		LastCompleted:   result.LastCompleted,
		Closed:          result.Closed,
	})
	if err != nil {
		slog.WarnContext(ctx, "run record written but plan advance failed",
			"plan_id", planID,
			"scheduled_date", result.Run.ScheduledDate.String(),
			"error", err)
		return nil, nil, err
	}

	return updated, &result.Run, nil
}

// PreviewPlan expands a plan's upcoming occurrences inside the window,
// walking the cadence forward from the plan's next run. Expansion is
// bounded; truncated reports that the window held more occurrences than
// the bound allowed.
func (s *Service) PreviewPlan(ctx context.Context, propertyID, planID string, start, end civil.Date) (occurrences []civil.Date, truncated bool, err error) {
	plan, err := s.GetPlan(ctx, propertyID, planID)
	if err != nil {
		return nil, false, err
	}

	if end.Before(start) {
		return nil, false, fmt.Errorf("%w: [%s, %s]", domain.ErrInvalidWindow, start, end)
	}

	if plan.Cadence == nil {
		// One-off: at most the single pending occurrence.
		if !plan.NextRun.Before(start) && !plan.NextRun.After(end) {
			return []civil.Date{plan.NextRun}, false, nil
		}
		return nil, false, nil
	}

	occurrences, truncated = recurring.OccurrencesBetween(*plan.Cadence, plan.NextRun, start, end)
	return occurrences, truncated, nil
}

// ListRuns lists the run history for an obligation, newest first.
func (s *Service) ListRuns(ctx context.Context, kind domain.ObligationKind, obligationID string, limit, offset int) ([]*domain.RunRecord, error) {
	if obligationID == "" {
		return nil, domain.ErrNotFound
	}
	limit, offset = s.clampPage(limit, offset)

	runs, err := s.repo.FindRunRecords(ctx, kind, obligationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	return runs, nil
}
