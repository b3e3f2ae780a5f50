package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/rezkam/stayops/internal/application/upkeep"
	"github.com/rezkam/stayops/internal/domain"
)

const planColumns = `id, property_id, title, notes, cadence_unit, cadence_interval,
	start_date, next_run, last_completed, is_active, priority, created_at, updated_at, version`

func scanPlan(row pgx.Row) (*domain.MaintenancePlan, error) {
	var (
		plan            domain.MaintenancePlan
		id, propertyID  pgtype.UUID
		cadenceUnit     *string
		cadenceInterval *int
		startDate       pgtype.Date
		nextRun         pgtype.Date
		lastCompleted   pgtype.Date
		priority        string
		createdAt       pgtype.Timestamptz
		updatedAt       pgtype.Timestamptz
	)

	err := row.Scan(&id, &propertyID, &plan.Title, &plan.Notes,
		&cadenceUnit, &cadenceInterval,
		&startDate, &nextRun, &lastCompleted,
		&plan.IsActive, &priority, &createdAt, &updatedAt, &plan.Version)
	if err != nil {
		return nil, err
	}

	plan.ID = uuid.UUID(id.Bytes).String()
	plan.PropertyID = uuid.UUID(propertyID.Bytes).String()
	plan.Cadence = dbToCadence(cadenceUnit, cadenceInterval)
	plan.StartDate = pgtypeToCivilDate(startDate)
	plan.NextRun = pgtypeToCivilDate(nextRun)
	plan.LastCompleted = pgtypeToCivilDatePtr(lastCompleted)
	plan.Priority = domain.Priority(priority)
	plan.CreatedAt = pgtypeToTime(createdAt)
	plan.UpdatedAt = pgtypeToTime(updatedAt)

	return &plan, nil
}

// CreatePlan creates a new maintenance plan.
func (s *Store) CreatePlan(ctx context.Context, plan *domain.MaintenancePlan) (*domain.MaintenancePlan, error) {
	id, err := uuid.Parse(plan.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidID, err)
	}
	propertyID, err := uuid.Parse(plan.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidID, err)
	}

	cadenceUnit, cadenceInterval := cadenceToDB(plan.Cadence)

	row := s.db.QueryRow(ctx, `
		INSERT INTO maintenance_plans (id, property_id, title, notes, cadence_unit, cadence_interval,
			start_date, next_run, is_active, priority, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+planColumns,
		id, propertyID, plan.Title, plan.Notes, cadenceUnit, cadenceInterval,
		civilDateToPgtype(plan.StartDate), civilDateToPgtype(plan.NextRun),
		plan.IsActive, string(plan.Priority),
		timeToPgtype(plan.CreatedAt), timeToPgtype(plan.UpdatedAt))

	created, err := scanPlan(row)
	if err != nil {
		if isForeignKeyViolation(err, "property_id") {
			return nil, fmt.Errorf("%w: %s", domain.ErrPropertyNotFound, plan.PropertyID)
		}
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}
	return created, nil
}

// FindPlanByID retrieves a maintenance plan by its ID.
func (s *Store) FindPlanByID(ctx context.Context, id string) (*domain.MaintenancePlan, error) {
	planUUID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidID, err)
	}

	row := s.db.QueryRow(ctx,
		`SELECT `+planColumns+` FROM maintenance_plans WHERE id = $1`, planUUID)

	plan, err := scanPlan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: plan %s", domain.ErrPlanNotFound, id)
		}
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return plan, nil
}

// FindPlans lists maintenance plans with filtering and pagination, ordered by
// next run date ascending.
func (s *Store) FindPlans(ctx context.Context, params domain.ListPlansParams) (*domain.PagedPlans, error) {
	propertyID, err := uuid.Parse(params.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidID, err)
	}

	where := []string{"property_id = $1"}
	args := []any{propertyID}

	if params.ActiveOnly {
		where = append(where, "is_active")
	}
	if params.Priority != nil {
		args = append(args, string(*params.Priority))
		where = append(where, fmt.Sprintf("priority = $%d", len(args)))
	}

	whereClause := strings.Join(where, " AND ")

	var totalCount int
	if err := s.db.QueryRow(ctx,
		`SELECT count(*) FROM maintenance_plans WHERE `+whereClause, args...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("failed to count plans: %w", err)
	}

	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`SELECT %s FROM maintenance_plans WHERE %s
		ORDER BY next_run ASC, created_at ASC
		LIMIT $%d OFFSET $%d`, planColumns, whereClause, len(args)-1, len(args))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find plans: %w", err)
	}
	defer rows.Close()

	plans := make([]*domain.MaintenancePlan, 0)
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate plans: %w", err)
	}

	return &domain.PagedPlans{
		Plans:      plans,
		TotalCount: totalCount,
		HasMore:    params.Offset+params.Limit < totalCount,
	}, nil
}

// UpdatePlan updates a maintenance plan using a field mask. With an etag the
// update is version-conditioned.
func (s *Store) UpdatePlan(ctx context.Context, params domain.UpdatePlanParams) (*domain.MaintenancePlan, error) {
	planUUID, err := uuid.Parse(params.PlanID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidID, err)
	}
	expectedVersion, err := parseEtag(params.Etag)
	if err != nil {
		return nil, err
	}

	set := []string{"updated_at = now()", "version = version + 1"}
	args := []any{planUUID}

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
		case domain.FieldNextRun:
			if params.NextRun != nil {
				args = append(args, civilDateToPgtype(*params.NextRun))
				set = append(set, fmt.Sprintf("next_run = $%d", len(args)))
			}
		case domain.FieldIsActive:
			if params.IsActive != nil {
				args = append(args, *params.IsActive)
				set = append(set, fmt.Sprintf("is_active = $%d", len(args)))
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

	query := fmt.Sprintf(`UPDATE maintenance_plans SET %s WHERE %s RETURNING %s`,
		strings.Join(set, ", "), where, planColumns)

	updated, err := scanPlan(s.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.planMissOrConflict(ctx, params.PlanID)
		}
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}
	return updated, nil
}

// planMissOrConflict resolves a zero-row conditional update: the plan is
// either gone or was modified concurrently.
func (s *Store) planMissOrConflict(ctx context.Context, id string) error {
	if _, err := s.FindPlanByID(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("%w: plan %s", domain.ErrVersionConflict, id)
}

// DeletePlan removes a maintenance plan and its run history.
func (s *Store) DeletePlan(ctx context.Context, id string) error {
	planUUID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidID, err)
	}

	return s.executeInTransaction(ctx, "delete_plan", func(txStore *Store) error {
		if _, err := txStore.db.Exec(ctx,
			`DELETE FROM run_records WHERE obligation_kind = 'plan' AND obligation_id = $1`,
			planUUID); err != nil {
			return fmt.Errorf("failed to delete plan runs: %w", err)
		}

		tag, err := txStore.db.Exec(ctx, `DELETE FROM maintenance_plans WHERE id = $1`, planUUID)
		if err != nil {
			return fmt.Errorf("failed to delete plan: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: plan %s", domain.ErrPlanNotFound, id)
		}
		return nil
	})
}

// AdvancePlan applies a completion outcome, conditioned on the version the
// snapshot was read at. Closed plans become inactive.
func (s *Store) AdvancePlan(ctx context.Context, params upkeep.AdvanceParams) (*domain.MaintenancePlan, error) {
	planUUID, err := uuid.Parse(params.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidID, err)
	}

	row := s.db.QueryRow(ctx, `
		UPDATE maintenance_plans
		SET next_run = $1,
			last_completed = $2,
			is_active = $3,
			updated_at = now(),
			version = version + 1
		WHERE id = $4 AND version = $5
		RETURNING `+planColumns,
		civilDateToPgtype(params.NextOccurrence),
		civilDateToPgtype(params.LastCompleted),
		!params.Closed, planUUID, params.ExpectedVersion)

	updated, err := scanPlan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.planMissOrConflict(ctx, params.ID)
		}
		return nil, fmt.Errorf("failed to advance plan: %w", err)
	}
	return updated, nil
}
