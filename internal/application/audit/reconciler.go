// Package audit repairs the gap the completion write order can leave behind:
// a run record exists but the obligation's state advance never landed. The
// run record side is authoritative, so reconciliation replays the advance.
package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/civil"

	"github.com/rezkam/stayops/internal/application/upkeep"
	"github.com/rezkam/stayops/internal/domain"
)

// Stalled identifies an obligation whose latest run record consumed the
// occurrence the obligation still points at.
type Stalled struct {
	ObligationID   string
	ObligationKind domain.ObligationKind
	ScheduledDate  civil.Date

	// CompletionDate is the user-reported date stored on the run record.
	// Replaying from it reproduces the advance the original completion
	// computed, even when the completion was backdated.
	CompletionDate civil.Date

	// CompletedAt is the instant the run record was written. An obligation
	// updated after this instant was deliberately edited back to the
	// consumed date and must not be re-advanced.
	CompletedAt time.Time
}

// Repository finds obligations needing repair. An obligation is stalled when
// it is still open (task) or active (plan) and its current occurrence equals
// the scheduled date of an existing run record.
type Repository interface {
	FindStalledObligations(ctx context.Context, kind domain.ObligationKind, limit int) ([]Stalled, error)
}

// batchSize bounds one reconciliation sweep.
const batchSize = 100

// Reconciler replays missing advances. Safe to run repeatedly: a repaired
// obligation no longer matches the stalled predicate, and version-conditioned
// advances lose harmlessly to concurrent writers.
type Reconciler struct {
	audit  Repository
	upkeep upkeep.Repository
}

// NewReconciler creates a new reconciler.
func NewReconciler(audit Repository, upkeepRepo upkeep.Repository) *Reconciler {
	return &Reconciler{
		audit:  audit,
		upkeep: upkeepRepo,
	}
}

// Reconcile sweeps both obligation kinds and returns how many advances were
// replayed. Per-obligation failures are logged and skipped so one bad row
// cannot wedge the sweep.
func (r *Reconciler) Reconcile(ctx context.Context) (int, error) {
	repaired := 0

	for _, kind := range []domain.ObligationKind{domain.ObligationTask, domain.ObligationPlan} {
		stalled, err := r.audit.FindStalledObligations(ctx, kind, batchSize)
		if err != nil {
			return repaired, fmt.Errorf("failed to find stalled %ss: %w", kind, err)
		}

		for _, s := range stalled {
			applied, err := r.repair(ctx, s)
			if err != nil {
				// Version conflicts mean someone else just advanced it.
				if errors.Is(err, domain.ErrVersionConflict) {
					continue
				}
				slog.ErrorContext(ctx, "failed to repair stalled obligation",
					"kind", string(s.ObligationKind),
					"obligation_id", s.ObligationID,
					"scheduled_date", s.ScheduledDate.String(),
					"error", err)
				continue
			}
			if !applied {
				continue
			}
			repaired++

			slog.InfoContext(ctx, "replayed missing advance",
				"kind", string(s.ObligationKind),
				"obligation_id", s.ObligationID,
				"scheduled_date", s.ScheduledDate.String())
		}
	}

	return repaired, nil
}

// repair recomputes the completion outcome from the stored run record and
// applies the state advance that originally failed. The run record is not
// rewritten. Returns false when the obligation already advanced between
// detection and repair, or was edited after the run record was written.
func (r *Reconciler) repair(ctx context.Context, s Stalled) (bool, error) {
	var snapshot upkeep.ObligationSnapshot

	switch s.ObligationKind {
	case domain.ObligationTask:
		task, err := r.upkeep.FindTaskByID(ctx, s.ObligationID)
		if err != nil {
			return false, err
		}
		if task.NextDue != s.ScheduledDate || task.UpdatedAt.After(s.CompletedAt) {
			return false, nil
		}
		snapshot = upkeep.SnapshotTask(task)
	case domain.ObligationPlan:
		plan, err := r.upkeep.FindPlanByID(ctx, s.ObligationID)
		if err != nil {
			return false, err
		}
		if plan.NextRun != s.ScheduledDate || plan.UpdatedAt.After(s.CompletedAt) {
			return false, nil
		}
		snapshot = upkeep.SnapshotPlan(plan)
	default:
		return false, fmt.Errorf("unknown obligation kind %q", s.ObligationKind)
	}

	next, lastCompleted, closed, err := upkeep.ReplayAdvance(snapshot, s.CompletionDate)
	if err != nil {
		return false, err
	}

	params := upkeep.AdvanceParams{
		ID:              s.ObligationID,
		ExpectedVersion: snapshot.Version,
		NextOccurrence:  next,
		LastCompleted:   lastCompleted,
		Closed:          closed,
	}

	if s.ObligationKind == domain.ObligationTask {
		_, err = r.upkeep.AdvanceTask(ctx, params)
	} else {
		_, err = r.upkeep.AdvancePlan(ctx, params)
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
