package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/rezkam/stayops/internal/application/upkeep"
	"github.com/rezkam/stayops/internal/domain"
)

// isForeignKeyViolation checks if an error is a PostgreSQL FK violation,
// optionally scoped to a column.
func isForeignKeyViolation(err error, column string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 23503 is foreign_key_violation
		if pgErr.Code == "23503" {
			if column == "" {
				return true
			}
			return strings.Contains(pgErr.ConstraintName, column) ||
				strings.Contains(pgErr.Message, column)
		}
	}
	return false
}

// parseEtag converts an optional etag into an optional expected version.
func parseEtag(etag *string) (*int, error) {
	if etag == nil {
		return nil, nil
	}
	version, err := strconv.Atoi(*etag)
	if err != nil || version < 1 {
		return nil, domain.ErrInvalidEtagFormat
	}
	return &version, nil
}

const taskColumns = `id, property_id, title, notes, cadence_unit, cadence_interval,
	start_date, next_due, last_completed, status, priority, created_at, updated_at, version`

func scanTask(row pgx.Row) (*domain.Task, error) {
	var (
		task            domain.Task
		id, propertyID  pgtype.UUID
		cadenceUnit     *string
		cadenceInterval *int
		startDate       pgtype.Date
		nextDue         pgtype.Date
		lastCompleted   pgtype.Date
		status          string
		priority        string
		createdAt       pgtype.Timestamptz
		updatedAt       pgtype.Timestamptz
	)

	err := row.Scan(&id, &propertyID, &task.Title, &task.Notes,
		&cadenceUnit, &cadenceInterval,
		&startDate, &nextDue, &lastCompleted,
		&status, &priority, &createdAt, &updatedAt, &task.Version)
	if err != nil {
		return nil, err
	}

	task.ID = uuid.UUID(id.Bytes).String()
	task.PropertyID = uuid.UUID(propertyID.Bytes).String()
	task.Cadence = dbToCadence(cadenceUnit, cadenceInterval)
	task.StartDate = pgtypeToCivilDate(startDate)
	task.NextDue = pgtypeToCivilDate(nextDue)
	task.LastCompleted = pgtypeToCivilDatePtr(lastCompleted)
	task.Status = domain.TaskStatus(status)
	task.Priority = domain.Priority(priority)
	task.CreatedAt = pgtypeToTime(createdAt)
	task.UpdatedAt = pgtypeToTime(updatedAt)

	return &task, nil
}

// CreateTask creates a new task.
func (s *Store) CreateTask(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	id, err := uuid.Parse(task.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidID, err)
	}
	propertyID, err := uuid.Parse(task.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidID, err)
	}

	cadenceUnit, cadenceInterval := cadenceToDB(task.Cadence)

	row := s.db.QueryRow(ctx, `
		INSERT INTO tasks (id, property_id, title, notes, cadence_unit, cadence_interval,
			start_date, next_due, status, priority, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+taskColumns,
		id, propertyID, task.Title, task.Notes, cadenceUnit, cadenceInterval,
		civilDateToPgtype(task.StartDate), civilDateToPgtype(task.NextDue),
		string(task.Status), string(task.Priority),
		timeToPgtype(task.CreatedAt), timeToPgtype(task.UpdatedAt))

	created, err := scanTask(row)
	if err != nil {
		if isForeignKeyViolation(err, "property_id") {
			return nil, fmt.Errorf("%w: %s", domain.ErrPropertyNotFound, task.PropertyID)
		}
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return created, nil
}

// FindTaskByID retrieves a task by its ID.
func (s *Store) FindTaskByID(ctx context.Context, id string) (*domain.Task, error) {
	taskUUID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidID, err)
	}

	row := s.db.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1`, taskUUID)

	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: task %s", domain.ErrTaskNotFound, id)
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// FindTasks lists tasks with filtering and pagination, ordered by next due
// date ascending.
func (s *Store) FindTasks(ctx context.Context, params domain.ListTasksParams) (*domain.PagedTasks, error) {
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
	if params.Priority != nil {
		args = append(args, string(*params.Priority))
		where = append(where, fmt.Sprintf("priority = $%d", len(args)))
	}
	if params.DueBefore != nil {
		args = append(args, civilDateToPgtype(*params.DueBefore))
		where = append(where, fmt.Sprintf("next_due <= $%d", len(args)))
	}
	if params.DueAfter != nil {
		args = append(args, civilDateToPgtype(*params.DueAfter))
		where = append(where, fmt.Sprintf("next_due >= $%d", len(args)))
	}

	whereClause := strings.Join(where, " AND ")

	var totalCount int
	if err := s.db.QueryRow(ctx,
		`SELECT count(*) FROM tasks WHERE `+whereClause, args...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}

	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE %s
		ORDER BY next_due ASC, created_at ASC
		LIMIT $%d OFFSET $%d`, taskColumns, whereClause, len(args)-1, len(args))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}

	return &domain.PagedTasks{
		Tasks:      tasks,
		TotalCount: totalCount,
		HasMore:    params.Offset+params.Limit < totalCount,
	}, nil
}

// UpdateTask updates a task using a field mask. With an etag the update is
// version-conditioned; zero rows affected then distinguishes "gone" from
// "changed underneath".
func (s *Store) UpdateTask(ctx context.Context, params domain.UpdateTaskParams) (*domain.Task, error) {
	taskUUID, err := uuid.Parse(params.TaskID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidID, err)
	}
	expectedVersion, err := parseEtag(params.Etag)
	if err != nil {
		return nil, err
	}

	set := []string{"updated_at = now()", "version = version + 1"}
	args := []any{taskUUID}

	for _, field := range params.UpdateMask {
		switch field {
		case domain.FieldTitle:
			if params.Title != nil {
				args = append(args, *params.Title)
				set = append(set, fmt.Sprintf("title = $%d", len(args)))
			}
		case domain.FieldNotes:
			if params.Notes != nil {
				args = append(args, *params.Notes)
				set = append(set, fmt.Sprintf("notes = $%d", len(args)))
			}
		case domain.FieldCadence:
			unit, interval := cadenceToDB(params.Cadence)
			args = append(args, unit)
			set = append(set, fmt.Sprintf("cadence_unit = $%d", len(args)))
			args = append(args, interval)
			set = append(set, fmt.Sprintf("cadence_interval = $%d", len(args)))
		case domain.FieldNextDue:
			if params.NextDue != nil {
				args = append(args, civilDateToPgtype(*params.NextDue))
				set = append(set, fmt.Sprintf("next_due = $%d", len(args)))
			}
		case domain.FieldStatus:
			if params.Status != nil {
				args = append(args, string(*params.Status))
				set = append(set, fmt.Sprintf("status = $%d", len(args)))
			}
		case domain.FieldPriority:
			if params.Priority != nil {
				args = append(args, string(*params.Priority))
				set = append(set, fmt.Sprintf("priority = $%d", len(args)))
			}
		}
	}

	where := "id = $1"
	if expectedVersion != nil {
		args = append(args, *expectedVersion)
		where += fmt.Sprintf(" AND version = $%d", len(args))
	}

	query := fmt.Sprintf(`UPDATE tasks SET %s WHERE %s RETURNING %s`,
		strings.Join(set, ", "), where, taskColumns)

	updated, err := scanTask(s.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.taskMissOrConflict(ctx, params.TaskID)
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return updated, nil
}

// taskMissOrConflict resolves a zero-row conditional update: the task is
// either gone or was modified concurrently.
func (s *Store) taskMissOrConflict(ctx context.Context, id string) error {
	if _, err := s.FindTaskByID(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("%w: task %s", domain.ErrVersionConflict, id)
}

// DeleteTask removes a task and its run history.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	taskUUID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidID, err)
	}

	return s.executeInTransaction(ctx, "delete_task", func(txStore *Store) error {
		if _, err := txStore.db.Exec(ctx,
			`DELETE FROM run_records WHERE obligation_kind = 'task' AND obligation_id = $1`,
			taskUUID); err != nil {
			return fmt.Errorf("failed to delete task runs: %w", err)
		}

		tag, err := txStore.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, taskUUID)
		if err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: task %s", domain.ErrTaskNotFound, id)
		}
		return nil
	})
}

// AdvanceTask applies a completion outcome, conditioned on the version the
// snapshot was read at. Closed tasks move to done; recurring ones reset to
// pending for the next cycle.
func (s *Store) AdvanceTask(ctx context.Context, params upkeep.AdvanceParams) (*domain.Task, error) {
	taskUUID, err := uuid.Parse(params.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidID, err)
	}

	status := string(domain.TaskStatusPending)
	if params.Closed {
		status = string(domain.TaskStatusDone)
	}

	row := s.db.QueryRow(ctx, `
		UPDATE tasks
		SET next_due = $1,
			last_completed = $2,
			status = $3,
			updated_at = now(),
			version = version + 1
		WHERE id = $4 AND version = $5
		RETURNING `+taskColumns,
		civilDateToPgtype(params.NextOccurrence),
		civilDateToPgtype(params.LastCompleted),
		status, taskUUID, params.ExpectedVersion)

	updated, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.taskMissOrConflict(ctx, params.ID)
		}
		return nil, fmt.Errorf("failed to advance task: %w", err)
	}
	return updated, nil
}
