package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/rezkam/stayops/internal/application/audit"
	"github.com/rezkam/stayops/internal/domain"
)

const runColumns = `id, obligation_kind, obligation_id, scheduled_date, completion_date, completed_at, outcome, created_at`

func scanRun(row pgx.Row) (*domain.RunRecord, error) {
	var (
		run            domain.RunRecord
		id             pgtype.UUID
		kind           string
		obligationID   pgtype.UUID
		scheduledDate  pgtype.Date
		completionDate pgtype.Date
		completedAt    pgtype.Timestamptz
		outcome        string
		createdAt      pgtype.Timestamptz
	)

	err := row.Scan(&id, &kind, &obligationID, &scheduledDate, &completionDate, &completedAt, &outcome, &createdAt)
	if err != nil {
		return nil, err
	}

	run.ID = uuid.UUID(id.Bytes).String()
	run.ObligationKind = domain.ObligationKind(kind)
	run.ObligationID = uuid.UUID(obligationID.Bytes).String()
	run.ScheduledDate = pgtypeToCivilDate(scheduledDate)
	run.CompletionDate = pgtypeToCivilDate(completionDate)
	run.CompletedAt = pgtypeToTime(completedAt)
	run.Outcome = domain.RunOutcome(outcome)
	run.CreatedAt = pgtypeToTime(createdAt)

	return &run, nil
}

// InsertRunRecord appends an immutable run record. The unique constraint on
// (kind, obligation, scheduled date) makes a duplicate insert a silent no-op
// reported as inserted=false; callers treat that as "this occurrence was
// already consumed".
func (s *Store) InsertRunRecord(ctx context.Context, run *domain.RunRecord) (bool, error) {
	id, err := uuid.Parse(run.ID)
	if err != nil {
		return false, fmt.Errorf("%w: %w", domain.ErrInvalidID, err)
	}
	obligationID, err := uuid.Parse(run.ObligationID)
	if err != nil {
		return false, fmt.Errorf("%w: %w", domain.ErrInvalidID, err)
	}

	tag, err := s.db.Exec(ctx, `
		INSERT INTO run_records (id, obligation_kind, obligation_id, scheduled_date, completion_date, completed_at, outcome)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT ON CONSTRAINT run_records_one_per_occurrence DO NOTHING`,
		id, string(run.ObligationKind), obligationID,
		civilDateToPgtype(run.ScheduledDate), civilDateToPgtype(run.CompletionDate),
		timeToPgtype(run.CompletedAt), string(run.Outcome))
	if err != nil {
		return false, fmt.Errorf("failed to insert run record: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// FindRunRecords lists run records for an obligation, newest first.
func (s *Store) FindRunRecords(ctx context.Context, kind domain.ObligationKind, obligationID string, limit, offset int) ([]*domain.RunRecord, error) {
	obligationUUID, err := uuid.Parse(obligationID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidID, err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT `+runColumns+` FROM run_records
		WHERE obligation_kind = $1 AND obligation_id = $2
		ORDER BY completed_at DESC
		LIMIT $3 OFFSET $4`,
		string(kind), obligationUUID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to find run records: %w", err)
	}
	defer rows.Close()

	runs := make([]*domain.RunRecord, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run record: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate run records: %w", err)
	}

	return runs, nil
}

// FindStalledObligations finds obligations whose current occurrence already
// has a run record: the completion was recorded but the advance never
// landed. Only open tasks and active plans qualify. Obligations written to
// after the run record was recorded are excluded: the run record being the
// newer write is what distinguishes a lost advance from a deliberate edit
// that pointed the obligation back at a consumed date.
func (s *Store) FindStalledObligations(ctx context.Context, kind domain.ObligationKind, limit int) ([]audit.Stalled, error) {
	var query string
	switch kind {
	case domain.ObligationTask:
		query = `
			SELECT t.id, r.scheduled_date, r.completion_date, r.completed_at
			FROM tasks t
			JOIN run_records r
			  ON r.obligation_kind = 'task'
			 AND r.obligation_id = t.id
			 AND r.scheduled_date = t.next_due
			WHERE t.status <> 'done'
			  AND r.completed_at > t.updated_at
			ORDER BY r.completed_at ASC
			LIMIT $1`
	case domain.ObligationPlan:
		query = `
			SELECT p.id, r.scheduled_date, r.completion_date, r.completed_at
			FROM maintenance_plans p
			JOIN run_records r
			  ON r.obligation_kind = 'plan'
			 AND r.obligation_id = p.id
			 AND r.scheduled_date = p.next_run
			WHERE p.is_active
			  AND r.completed_at > p.updated_at
			ORDER BY r.completed_at ASC
			LIMIT $1`
	default:
		return nil, fmt.Errorf("unknown obligation kind %q", kind)
	}

	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find stalled obligations: %w", err)
	}
	defer rows.Close()

	stalled := make([]audit.Stalled, 0)
	for rows.Next() {
		var (
			id             pgtype.UUID
			scheduledDate  pgtype.Date
			completionDate pgtype.Date
			completedAt    pgtype.Timestamptz
		)
		if err := rows.Scan(&id, &scheduledDate, &completionDate, &completedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stalled obligation: %w", err)
		}
		stalled = append(stalled, audit.Stalled{
			ObligationID:   uuid.UUID(id.Bytes).String(),
			ObligationKind: kind,
			ScheduledDate:  pgtypeToCivilDate(scheduledDate),
			CompletionDate: pgtypeToCivilDate(completionDate),
			CompletedAt:    pgtypeToTime(completedAt),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stalled obligations: %w", err)
	}

	return stalled, nil
}
