package upkeep

import (
	"context"

	"cloud.google.com/go/civil"

	"github.com/rezkam/stayops/internal/domain"
)

// AdvanceParams applies the outcome of a completion to an obligation's
// stored state. The write is conditioned on ExpectedVersion: if the row's
// version changed since the snapshot was read, the update affects no rows
// and the repository returns domain.ErrVersionConflict.
type AdvanceParams struct {
	ID              string
	ExpectedVersion int

	NextOccurrence civil.Date
	LastCompleted  civil.Date

	// Closed marks a one-off obligation terminal: tasks move to done,
	// plans become inactive. When false the obligation is reset for the
	// next cycle (tasks back to pending, plans stay active).
	Closed bool
}

// Repository defines storage operations for tasks, maintenance plans, and
// run records. All create/update operations return the entity as persisted,
// including its version.
type Repository interface {
	// === Task operations ===

	// CreateTask creates a new task.
	CreateTask(ctx context.Context, task *domain.Task) (*domain.Task, error)

	// FindTaskByID retrieves a task.
	// Returns domain.ErrTaskNotFound if it doesn't exist.
	FindTaskByID(ctx context.Context, id string) (*domain.Task, error)

	// FindTasks lists tasks with filtering and pagination.
	FindTasks(ctx context.Context, params domain.ListTasksParams) (*domain.PagedTasks, error)

	// UpdateTask updates a task using a field mask and optional etag.
	// Returns domain.ErrVersionConflict if the etag doesn't match.
	UpdateTask(ctx context.Context, params domain.UpdateTaskParams) (*domain.Task, error)

	// DeleteTask removes a task and its run history.
	DeleteTask(ctx context.Context, id string) error

	// AdvanceTask applies a completion outcome to a task, conditioned on
	// the version the snapshot was read at.
	// Returns domain.ErrVersionConflict if the row changed since the read.
	AdvanceTask(ctx context.Context, params AdvanceParams) (*domain.Task, error)

	// === Maintenance plan operations ===

	// CreatePlan creates a new maintenance plan.
	CreatePlan(ctx context.Context, plan *domain.MaintenancePlan) (*domain.MaintenancePlan, error)

	// FindPlanByID retrieves a plan.
	// Returns domain.ErrPlanNotFound if it doesn't exist.
	FindPlanByID(ctx context.Context, id string) (*domain.MaintenancePlan, error)

	// FindPlans lists plans with filtering and pagination.
	FindPlans(ctx context.Context, params domain.ListPlansParams) (*domain.PagedPlans, error)

	// UpdatePlan updates a plan using a field mask and optional etag.
	UpdatePlan(ctx context.Context, params domain.UpdatePlanParams) (*domain.MaintenancePlan, error)

	// DeletePlan removes a plan and its run history.
	DeletePlan(ctx context.Context, id string) error

	// AdvancePlan applies a completion outcome to a plan, conditioned on
	// the version the snapshot was read at.
	AdvancePlan(ctx context.Context, params AdvanceParams) (*domain.MaintenancePlan, error)

	// === Run record operations ===

	// InsertRunRecord appends an immutable run record. At most one record
	// exists per (kind, obligation, scheduled date); inserting a duplicate
	// is a no-op and returns inserted=false, which callers treat as "this
	// occurrence was already consumed".
	InsertRunRecord(ctx context.Context, run *domain.RunRecord) (inserted bool, err error)

	// FindRunRecords lists run records for an obligation, newest first.
	FindRunRecords(ctx context.Context, kind domain.ObligationKind, obligationID string, limit, offset int) ([]*domain.RunRecord, error)
}
