package upkeep

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/stayops/internal/domain"
)

func date(y int, m int, d int) civil.Date {
	return civil.Date{Year: y, Month: time.Month(m), Day: d}
}

func weeklyTask(start, next civil.Date) ObligationSnapshot {
	return ObligationSnapshot{
		ID:      "task-1",
		Kind:    domain.ObligationTask,
		Cadence: &domain.CadenceSpec{Unit: domain.CadenceWeek, Interval: 1},
		Anchor:  start,
		Next:    next,
		Version: 1,
	}
}

func TestProcessCompletion(t *testing.T) {
	completedAt := time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC)

	t.Run("recurring task advances from completion date", func(t *testing.T) {
		// Weekly task due Mar 8, completed late on Mar 10: the next
		// occurrence counts from the completion, not the schedule.
		snapshot := weeklyTask(date(2024, 3, 1), date(2024, 3, 8))

		result, err := ProcessCompletion(snapshot, date(2024, 3, 10), completedAt, "run-1")
		require.NoError(t, err)

		assert.Equal(t, date(2024, 3, 17), result.NextOccurrence)
		assert.Equal(t, date(2024, 3, 10), result.LastCompleted)
		assert.False(t, result.Closed)
	})

	t.Run("recurring plan advances from scheduled date", func(t *testing.T) {
		// Quarterly plan scheduled Jan 31, completed Feb 15: the schedule
		// does not drift, and the month-end clamp applies to the result.
		snapshot := ObligationSnapshot{
			ID:      "plan-1",
			Kind:    domain.ObligationPlan,
			Cadence: &domain.CadenceSpec{Unit: domain.CadenceMonth, Interval: 3},
			Anchor:  date(2024, 1, 31),
			Next:    date(2024, 1, 31),
			Version: 1,
		}

		result, err := ProcessCompletion(snapshot, date(2024, 2, 15), completedAt, "run-2")
		require.NoError(t, err)

		assert.Equal(t, date(2024, 4, 30), result.NextOccurrence)
		assert.Equal(t, date(2024, 2, 15), result.LastCompleted)
		assert.False(t, result.Closed)
	})

	t.Run("one-off closes without advancing", func(t *testing.T) {
		snapshot := ObligationSnapshot{
			ID:     "task-2",
			Kind:   domain.ObligationTask,
			Anchor: date(2024, 3, 1),
			Next:   date(2024, 3, 8),
		}

		result, err := ProcessCompletion(snapshot, date(2024, 3, 10), completedAt, "run-3")
		require.NoError(t, err)

		assert.True(t, result.Closed)
		// The fulfilled occurrence stays put as history.
		assert.Equal(t, date(2024, 3, 8), result.NextOccurrence)
		assert.Equal(t, date(2024, 3, 10), result.LastCompleted)
	})

	t.Run("run record references the scheduled occurrence", func(t *testing.T) {
		snapshot := weeklyTask(date(2024, 3, 1), date(2024, 3, 8))

		result, err := ProcessCompletion(snapshot, date(2024, 3, 10), completedAt, "run-4")
		require.NoError(t, err)

		run := result.Run
		assert.Equal(t, "run-4", run.ID)
		assert.Equal(t, domain.ObligationTask, run.ObligationKind)
		assert.Equal(t, "task-1", run.ObligationID)
		assert.Equal(t, date(2024, 3, 8), run.ScheduledDate)
		assert.Equal(t, date(2024, 3, 10), run.CompletionDate)
		assert.Equal(t, completedAt, run.CompletedAt)
		assert.Equal(t, domain.RunOutcomeCompleted, run.Outcome)
	})

	t.Run("backdated completion keeps its reported date on the record", func(t *testing.T) {
		// Work done Mar 10, request recorded Mar 12: the record carries the
		// reported date so a later replay advances from Mar 10, not Mar 12.
		snapshot := weeklyTask(date(2024, 3, 1), date(2024, 3, 8))
		recordedAt := time.Date(2024, 3, 12, 9, 30, 0, 0, time.UTC)

		result, err := ProcessCompletion(snapshot, date(2024, 3, 10), recordedAt, "run-9")
		require.NoError(t, err)

		assert.Equal(t, date(2024, 3, 17), result.NextOccurrence)
		assert.Equal(t, date(2024, 3, 10), result.Run.CompletionDate)
		assert.Equal(t, recordedAt, result.Run.CompletedAt)

		next, lastCompleted, closed, err := ReplayAdvance(snapshot, result.Run.CompletionDate)
		require.NoError(t, err)
		assert.Equal(t, result.NextOccurrence, next)
		assert.Equal(t, date(2024, 3, 10), lastCompleted)
		assert.False(t, closed)
	})

	t.Run("completion before anchor is rejected", func(t *testing.T) {
		snapshot := weeklyTask(date(2024, 3, 1), date(2024, 3, 8))

		_, err := ProcessCompletion(snapshot, date(2024, 2, 28), completedAt, "run-5")
		assert.ErrorIs(t, err, domain.ErrCompletionBeforeAnchor)
	})

	t.Run("completion on anchor day is accepted", func(t *testing.T) {
		snapshot := weeklyTask(date(2024, 3, 1), date(2024, 3, 1))

		result, err := ProcessCompletion(snapshot, date(2024, 3, 1), completedAt, "run-6")
		require.NoError(t, err)
		assert.Equal(t, date(2024, 3, 8), result.NextOccurrence)
	})

	t.Run("invalid completion date is rejected", func(t *testing.T) {
		snapshot := weeklyTask(date(2024, 3, 1), date(2024, 3, 8))

		_, err := ProcessCompletion(snapshot, civil.Date{}, completedAt, "run-7")
		assert.ErrorIs(t, err, domain.ErrInvalidDateRange)
	})

	t.Run("invalid cadence is rejected", func(t *testing.T) {
		snapshot := weeklyTask(date(2024, 3, 1), date(2024, 3, 8))
		snapshot.Cadence = &domain.CadenceSpec{Unit: domain.CadenceWeek, Interval: 0}

		_, err := ProcessCompletion(snapshot, date(2024, 3, 10), completedAt, "run-8")
		assert.ErrorIs(t, err, domain.ErrInvalidCadence)
	})
}

func TestSnapshotTask(t *testing.T) {
	task := &domain.Task{
		ID:        "task-9",
		Cadence:   &domain.CadenceSpec{Unit: domain.CadenceDay, Interval: 2},
		StartDate: date(2024, 1, 1),
		NextDue:   date(2024, 1, 5),
		Version:   3,
	}

	got := SnapshotTask(task)
	assert.Equal(t, domain.ObligationTask, got.Kind)
	assert.Equal(t, date(2024, 1, 1), got.Anchor)
	assert.Equal(t, date(2024, 1, 5), got.Next)
	assert.Equal(t, 3, got.Version)
}

func TestSnapshotPlan(t *testing.T) {
	plan := &domain.MaintenancePlan{
		ID:        "plan-9",
		StartDate: date(2024, 1, 1),
		NextRun:   date(2024, 2, 1),
		Version:   7,
	}

	got := SnapshotPlan(plan)
	assert.Equal(t, domain.ObligationPlan, got.Kind)
	assert.Nil(t, got.Cadence)
	assert.Equal(t, date(2024, 2, 1), got.Next)
	assert.Equal(t, 7, got.Version)
}
