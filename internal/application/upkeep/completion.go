package upkeep

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/rezkam/stayops/internal/domain"
	"github.com/rezkam/stayops/internal/recurring"
)

// ObligationSnapshot is the normalized view of a recurring obligation that
// completion processing operates on. Tasks and maintenance plans differ in
// field names and status vocabulary; snapshotting them lets one algorithm
// serve both.
type ObligationSnapshot struct {
	ID      string
	Kind    domain.ObligationKind
	Cadence *domain.CadenceSpec // nil = one-off
	Anchor  civil.Date          // date recurrence is counted from
	Next    civil.Date          // the occurrence being fulfilled
	Version int                 // version the snapshot was read at
}

// SnapshotTask normalizes a task for completion processing.
func SnapshotTask(t *domain.Task) ObligationSnapshot {
	return ObligationSnapshot{
		ID:      t.ID,
		Kind:    domain.ObligationTask,
		Cadence: t.Cadence,
		Anchor:  t.StartDate,
		Next:    t.NextDue,
		Version: t.Version,
	}
}

// SnapshotPlan normalizes a maintenance plan for completion processing.
func SnapshotPlan(p *domain.MaintenancePlan) ObligationSnapshot {
	return ObligationSnapshot{
		ID:      p.ID,
		Kind:    domain.ObligationPlan,
		Cadence: p.Cadence,
		Anchor:  p.StartDate,
		Next:    p.NextRun,
		Version: p.Version,
	}
}

// CompletionResult is the state mutation plus audit record produced by one
// completion. The caller persists the run record first, then applies the
// state change conditioned on the snapshot version.
type CompletionResult struct {
	// NextOccurrence is the advanced occurrence for recurring obligations.
	// For one-off obligations it equals the fulfilled occurrence: the value
	// is left unchanged and becomes historical.
	NextOccurrence civil.Date

	LastCompleted civil.Date

	// Closed is true for one-off obligations: the obligation is terminal
	// and must not reappear in future-looking views.
	Closed bool

	Run domain.RunRecord
}

// ProcessCompletion computes the outcome of completing one occurrence.
//
// The run record always references the occurrence that was scheduled
// (snapshot.Next), not the completion date. Recurring obligations advance
// from a kind-specific basis: tasks count the cadence from the completion
// date (doing it late pushes the next one out), while plans count from the
// scheduled date (the maintenance schedule does not drift with early or
// late completion).
//
// Pure computation; no state is mutated and nothing is written.
func ProcessCompletion(snapshot ObligationSnapshot, completionDate civil.Date, completedAt time.Time, runID string) (CompletionResult, error) {
	if !completionDate.IsValid() {
		return CompletionResult{}, fmt.Errorf("%w: completion date %s", domain.ErrInvalidDateRange, completionDate)
	}
	if completionDate.Before(snapshot.Anchor) {
		return CompletionResult{}, fmt.Errorf("%w: completed %s, anchor %s",
			domain.ErrCompletionBeforeAnchor, completionDate, snapshot.Anchor)
	}

	result := CompletionResult{
		NextOccurrence: snapshot.Next,
		LastCompleted:  completionDate,
		Run: domain.RunRecord{
			ID:             runID,
			ObligationKind: snapshot.Kind,
			ObligationID:   snapshot.ID,
			ScheduledDate:  snapshot.Next,
			CompletionDate: completionDate,
			CompletedAt:    completedAt,
			Outcome:        domain.RunOutcomeCompleted,
		},
	}

	if snapshot.Cadence == nil {
		result.Closed = true
		return result, nil
	}

	if err := snapshot.Cadence.Validate(); err != nil {
		return CompletionResult{}, err
	}

	basis := advanceBasis(snapshot, completionDate)
	result.NextOccurrence = recurring.NextOccurrence(*snapshot.Cadence, basis)

	return result, nil
}

// ReplayAdvance recomputes the state mutation for an occurrence whose run
// record already exists, without producing a new record. Used by
// reconciliation to apply an advance that was recorded but never landed.
func ReplayAdvance(snapshot ObligationSnapshot, completionDate civil.Date) (next civil.Date, lastCompleted civil.Date, closed bool, err error) {
	if !completionDate.IsValid() {
		return civil.Date{}, civil.Date{}, false,
			fmt.Errorf("%w: completion date %s", domain.ErrInvalidDateRange, completionDate)
	}

	if snapshot.Cadence == nil {
		return snapshot.Next, completionDate, true, nil
	}
	if err := snapshot.Cadence.Validate(); err != nil {
		return civil.Date{}, civil.Date{}, false, err
	}

	basis := advanceBasis(snapshot, completionDate)
	return recurring.NextOccurrence(*snapshot.Cadence, basis), completionDate, false, nil
}

// advanceBasis returns the date the next occurrence is counted from.
func advanceBasis(snapshot ObligationSnapshot, completionDate civil.Date) civil.Date {
	if snapshot.Kind == domain.ObligationPlan {
		return snapshot.Next
	}
	return completionDate
}
