package upkeep

import (
	"context"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/stayops/internal/domain"
)

// mockRepository implements Repository with function fields. Methods without
// a configured function panic, so a test only stubs what it exercises.
type mockRepository struct {
	createTaskFn   func(ctx context.Context, task *domain.Task) (*domain.Task, error)
	findTaskFn     func(ctx context.Context, id string) (*domain.Task, error)
	findTasksFn    func(ctx context.Context, params domain.ListTasksParams) (*domain.PagedTasks, error)
	updateTaskFn   func(ctx context.Context, params domain.UpdateTaskParams) (*domain.Task, error)
	deleteTaskFn   func(ctx context.Context, id string) error
	advanceTaskFn  func(ctx context.Context, params AdvanceParams) (*domain.Task, error)
	createPlanFn   func(ctx context.Context, plan *domain.MaintenancePlan) (*domain.MaintenancePlan, error)
	findPlanFn     func(ctx context.Context, id string) (*domain.MaintenancePlan, error)
	findPlansFn    func(ctx context.Context, params domain.ListPlansParams) (*domain.PagedPlans, error)
	updatePlanFn   func(ctx context.Context, params domain.UpdatePlanParams) (*domain.MaintenancePlan, error)
	deletePlanFn   func(ctx context.Context, id string) error
	advancePlanFn  func(ctx context.Context, params AdvanceParams) (*domain.MaintenancePlan, error)
	insertRunFn    func(ctx context.Context, run *domain.RunRecord) (bool, error)
	findRunsFn     func(ctx context.Context, kind domain.ObligationKind, obligationID string, limit, offset int) ([]*domain.RunRecord, error)
}

func (m *mockRepository) CreateTask(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if m.createTaskFn == nil {
		panic("CreateTask not stubbed")
	}
	return m.createTaskFn(ctx, task)
}

func (m *mockRepository) FindTaskByID(ctx context.Context, id string) (*domain.Task, error) {
	if m.findTaskFn == nil {
		panic("FindTaskByID not stubbed")
	}
	return m.findTaskFn(ctx, id)
}

func (m *mockRepository) FindTasks(ctx context.Context, params domain.ListTasksParams) (*domain.PagedTasks, error) {
	if m.findTasksFn == nil {
		panic("FindTasks not stubbed")
	}
	return m.findTasksFn(ctx, params)
}

func (m *mockRepository) UpdateTask(ctx context.Context, params domain.UpdateTaskParams) (*domain.Task, error) {
	if m.updateTaskFn == nil {
		panic("UpdateTask not stubbed")
	}
	return m.updateTaskFn(ctx, params)
}

func (m *mockRepository) DeleteTask(ctx context.Context, id string) error {
	if m.deleteTaskFn == nil {
		panic("DeleteTask not stubbed")
	}
	return m.deleteTaskFn(ctx, id)
}

func (m *mockRepository) AdvanceTask(ctx context.Context, params AdvanceParams) (*domain.Task, error) {
	if m.advanceTaskFn == nil {
		panic("AdvanceTask not stubbed")
	}
	return m.advanceTaskFn(ctx, params)
}

func (m *mockRepository) CreatePlan(ctx context.Context, plan *domain.MaintenancePlan) (*domain.MaintenancePlan, error) {
	if m.createPlanFn == nil {
		panic("CreatePlan not stubbed")
	}
	return m.createPlanFn(ctx, plan)
}

func (m *mockRepository) FindPlanByID(ctx context.Context, id string) (*domain.MaintenancePlan, error) {
	if m.findPlanFn == nil {
		panic("FindPlanByID not stubbed")
	}
	return m.findPlanFn(ctx, id)
}

func (m *mockRepository) FindPlans(ctx context.Context, params domain.ListPlansParams) (*domain.PagedPlans, error) {
	if m.findPlansFn == nil {
		panic("FindPlans not stubbed")
	}
	return m.findPlansFn(ctx, params)
}

func (m *mockRepository) UpdatePlan(ctx context.Context, params domain.UpdatePlanParams) (*domain.MaintenancePlan, error) {
	if m.updatePlanFn == nil {
		panic("UpdatePlan not stubbed")
	}
	return m.updatePlanFn(ctx, params)
}

func (m *mockRepository) DeletePlan(ctx context.Context, id string) error {
	if m.deletePlanFn == nil {
		panic("DeletePlan not stubbed")
	}
	return m.deletePlanFn(ctx, id)
}

func (m *mockRepository) AdvancePlan(ctx context.Context, params AdvanceParams) (*domain.MaintenancePlan, error) {
	if m.advancePlanFn == nil {
		panic("AdvancePlan not stubbed")
	}
	return m.advancePlanFn(ctx, params)
}

func (m *mockRepository) InsertRunRecord(ctx context.Context, run *domain.RunRecord) (bool, error) {
	if m.insertRunFn == nil {
		panic("InsertRunRecord not stubbed")
	}
	return m.insertRunFn(ctx, run)
}

func (m *mockRepository) FindRunRecords(ctx context.Context, kind domain.ObligationKind, obligationID string, limit, offset int) ([]*domain.RunRecord, error) {
	if m.findRunsFn == nil {
		panic("FindRunRecords not stubbed")
	}
	return m.findRunsFn(ctx, kind, obligationID, limit, offset)
}

func storedTask() *domain.Task {
	return &domain.Task{
		ID:         "task-1",
		PropertyID: "prop-1",
		Title:      "Deep clean",
		Cadence:    &domain.CadenceSpec{Unit: domain.CadenceWeek, Interval: 1},
		StartDate:  date(2024, 3, 1),
		NextDue:    date(2024, 3, 8),
		Status:     domain.TaskStatusPending,
		Priority:   domain.PriorityMedium,
		Version:    2,
	}
}

func TestCreateTask(t *testing.T) {
	repo := &mockRepository{
		createTaskFn: func(ctx context.Context, task *domain.Task) (*domain.Task, error) {
			return task, nil
		},
	}
	svc := NewService(repo, Config{})

	t.Run("defaults are applied", func(t *testing.T) {
		created, err := svc.CreateTask(context.Background(), &domain.Task{
			PropertyID: "prop-1",
			Title:      "  Deep clean  ",
		})
		require.NoError(t, err)

		assert.NotEmpty(t, created.ID)
		assert.Equal(t, "Deep clean", created.Title)
		assert.Equal(t, domain.TaskStatusPending, created.Status)
		assert.Equal(t, domain.PriorityMedium, created.Priority)
		assert.True(t, created.StartDate.IsValid())
		assert.Equal(t, created.StartDate, created.NextDue)
	})

	t.Run("empty title is rejected", func(t *testing.T) {
		_, err := svc.CreateTask(context.Background(), &domain.Task{
			PropertyID: "prop-1",
			Title:      "   ",
		})
		assert.ErrorIs(t, err, domain.ErrTitleRequired)
	})

	t.Run("invalid cadence is rejected", func(t *testing.T) {
		_, err := svc.CreateTask(context.Background(), &domain.Task{
			PropertyID: "prop-1",
			Title:      "Deep clean",
			Cadence:    &domain.CadenceSpec{Unit: "fortnight", Interval: 1},
		})
		assert.ErrorIs(t, err, domain.ErrInvalidCadence)
	})

	t.Run("missing property is rejected", func(t *testing.T) {
		_, err := svc.CreateTask(context.Background(), &domain.Task{Title: "Deep clean"})
		assert.ErrorIs(t, err, domain.ErrPropertyNotFound)
	})
}

func TestGetTask(t *testing.T) {
	repo := &mockRepository{
		findTaskFn: func(ctx context.Context, id string) (*domain.Task, error) {
			if id != "task-1" {
				return nil, domain.ErrTaskNotFound
			}
			return storedTask(), nil
		},
	}
	svc := NewService(repo, Config{})

	t.Run("found", func(t *testing.T) {
		got, err := svc.GetTask(context.Background(), "prop-1", "task-1")
		require.NoError(t, err)
		assert.Equal(t, "task-1", got.ID)
	})

	t.Run("wrong property looks like not found", func(t *testing.T) {
		_, err := svc.GetTask(context.Background(), "prop-2", "task-1")
		assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	})
}

func TestCompleteTask(t *testing.T) {
	ctx := context.Background()

	t.Run("recurring completion advances and records a run", func(t *testing.T) {
		var insertedRun *domain.RunRecord
		var advance AdvanceParams

		repo := &mockRepository{
			findTaskFn: func(ctx context.Context, id string) (*domain.Task, error) {
				return storedTask(), nil
			},
			insertRunFn: func(ctx context.Context, run *domain.RunRecord) (bool, error) {
				insertedRun = run
				return true, nil
			},
			advanceTaskFn: func(ctx context.Context, params AdvanceParams) (*domain.Task, error) {
				advance = params
				updated := storedTask()
				updated.NextDue = params.NextOccurrence
				updated.Version = params.ExpectedVersion + 1
				return updated, nil
			},
		}
		svc := NewService(repo, Config{})

		updated, run, err := svc.CompleteTask(ctx, "prop-1", "task-1", date(2024, 3, 10), nil)
		require.NoError(t, err)

		require.NotNil(t, insertedRun)
		assert.Equal(t, date(2024, 3, 8), insertedRun.ScheduledDate)
		assert.Equal(t, date(2024, 3, 10), insertedRun.CompletionDate)

		assert.Equal(t, 2, advance.ExpectedVersion)
		assert.Equal(t, date(2024, 3, 17), advance.NextOccurrence)
		assert.False(t, advance.Closed)

		assert.Equal(t, date(2024, 3, 17), updated.NextDue)
		assert.Equal(t, date(2024, 3, 8), run.ScheduledDate)
	})

	t.Run("duplicate run record means the occurrence is consumed", func(t *testing.T) {
		repo := &mockRepository{
			findTaskFn: func(ctx context.Context, id string) (*domain.Task, error) {
				return storedTask(), nil
			},
			insertRunFn: func(ctx context.Context, run *domain.RunRecord) (bool, error) {
				return false, nil
			},
		}
		svc := NewService(repo, Config{})

		_, _, err := svc.CompleteTask(ctx, "prop-1", "task-1", date(2024, 3, 10), nil)
		assert.ErrorIs(t, err, domain.ErrOccurrenceConsumed)
	})

	t.Run("advance conflict surfaces after the run is recorded", func(t *testing.T) {
		runRecorded := false
		repo := &mockRepository{
			findTaskFn: func(ctx context.Context, id string) (*domain.Task, error) {
				return storedTask(), nil
			},
			insertRunFn: func(ctx context.Context, run *domain.RunRecord) (bool, error) {
				runRecorded = true
				return true, nil
			},
			advanceTaskFn: func(ctx context.Context, params AdvanceParams) (*domain.Task, error) {
				return nil, domain.ErrVersionConflict
			},
		}
		svc := NewService(repo, Config{})

		_, _, err := svc.CompleteTask(ctx, "prop-1", "task-1", date(2024, 3, 10), nil)
		assert.ErrorIs(t, err, domain.ErrVersionConflict)
		assert.True(t, runRecorded)
	})

	t.Run("stale etag is rejected before any write", func(t *testing.T) {
		repo := &mockRepository{
			findTaskFn: func(ctx context.Context, id string) (*domain.Task, error) {
				return storedTask(), nil
			},
		}
		svc := NewService(repo, Config{})

		stale := "1"
		_, _, err := svc.CompleteTask(ctx, "prop-1", "task-1", date(2024, 3, 10), &stale)
		assert.ErrorIs(t, err, domain.ErrVersionConflict)
	})

	t.Run("malformed etag is rejected", func(t *testing.T) {
		repo := &mockRepository{
			findTaskFn: func(ctx context.Context, id string) (*domain.Task, error) {
				return storedTask(), nil
			},
		}
		svc := NewService(repo, Config{})

		bad := "abc"
		_, _, err := svc.CompleteTask(ctx, "prop-1", "task-1", date(2024, 3, 10), &bad)
		assert.ErrorIs(t, err, domain.ErrInvalidEtagFormat)
	})

	t.Run("one-off completion closes the task", func(t *testing.T) {
		var advance AdvanceParams
		repo := &mockRepository{
			findTaskFn: func(ctx context.Context, id string) (*domain.Task, error) {
				oneOff := storedTask()
				oneOff.Cadence = nil
				return oneOff, nil
			},
			insertRunFn: func(ctx context.Context, run *domain.RunRecord) (bool, error) {
				return true, nil
			},
			advanceTaskFn: func(ctx context.Context, params AdvanceParams) (*domain.Task, error) {
				advance = params
				done := storedTask()
				done.Status = domain.TaskStatusDone
				return done, nil
			},
		}
		svc := NewService(repo, Config{})

		_, _, err := svc.CompleteTask(ctx, "prop-1", "task-1", date(2024, 3, 10), nil)
		require.NoError(t, err)
		assert.True(t, advance.Closed)
		assert.Equal(t, date(2024, 3, 8), advance.NextOccurrence)
	})
}

func TestCompletePlan(t *testing.T) {
	quarterly := func() *domain.MaintenancePlan {
		return &domain.MaintenancePlan{
			ID:         "plan-1",
			PropertyID: "prop-1",
			Title:      "Boiler service",
			Cadence:    &domain.CadenceSpec{Unit: domain.CadenceMonth, Interval: 3},
			StartDate:  date(2024, 1, 31),
			NextRun:    date(2024, 1, 31),
			IsActive:   true,
			Priority:   domain.PriorityHigh,
			Version:    1,
		}
	}

	t.Run("advance counts from the scheduled date", func(t *testing.T) {
		var advance AdvanceParams
		repo := &mockRepository{
			findPlanFn: func(ctx context.Context, id string) (*domain.MaintenancePlan, error) {
				return quarterly(), nil
			},
			insertRunFn: func(ctx context.Context, run *domain.RunRecord) (bool, error) {
				return true, nil
			},
			advancePlanFn: func(ctx context.Context, params AdvanceParams) (*domain.MaintenancePlan, error) {
				advance = params
				updated := quarterly()
				updated.NextRun = params.NextOccurrence
				updated.Version = 2
				return updated, nil
			},
		}
		svc := NewService(repo, Config{})

		updated, run, err := svc.CompletePlan(context.Background(), "prop-1", "plan-1", date(2024, 2, 15), nil)
		require.NoError(t, err)

		// Jan 31 + 3 months clamps to Apr 30, regardless of the Feb 15
		// completion date.
		assert.Equal(t, date(2024, 4, 30), advance.NextOccurrence)
		assert.Equal(t, date(2024, 4, 30), updated.NextRun)
		assert.Equal(t, date(2024, 1, 31), run.ScheduledDate)
		assert.Equal(t, domain.ObligationPlan, run.ObligationKind)
	})

	t.Run("duplicate completion is rejected", func(t *testing.T) {
		repo := &mockRepository{
			findPlanFn: func(ctx context.Context, id string) (*domain.MaintenancePlan, error) {
				return quarterly(), nil
			},
			insertRunFn: func(ctx context.Context, run *domain.RunRecord) (bool, error) {
				return false, nil
			},
		}
		svc := NewService(repo, Config{})

		_, _, err := svc.CompletePlan(context.Background(), "prop-1", "plan-1", date(2024, 2, 15), nil)
		assert.ErrorIs(t, err, domain.ErrOccurrenceConsumed)
	})
}

func TestPreviewPlan(t *testing.T) {
	quarterly := &domain.MaintenancePlan{
		ID:         "plan-1",
		PropertyID: "prop-1",
		Title:      "Gutter clean",
		Cadence:    &domain.CadenceSpec{Unit: domain.CadenceMonth, Interval: 3},
		NextRun:    date(2024, 1, 31),
		IsActive:   true,
		Version:    1,
	}

	repo := &mockRepository{
		findPlanFn: func(ctx context.Context, id string) (*domain.MaintenancePlan, error) {
			return quarterly, nil
		},
	}
	svc := NewService(repo, Config{})

	t.Run("expands occurrences inside the window", func(t *testing.T) {
		got, truncated, err := svc.PreviewPlan(context.Background(), "prop-1", "plan-1",
			date(2024, 1, 1), date(2024, 12, 31))
		require.NoError(t, err)
		assert.False(t, truncated)

		assert.Equal(t, []civil.Date{
			date(2024, 1, 31),
			date(2024, 4, 30),
			date(2024, 7, 30),
			date(2024, 10, 30),
		}, got)
	})

	t.Run("inverted window is rejected", func(t *testing.T) {
		_, _, err := svc.PreviewPlan(context.Background(), "prop-1", "plan-1",
			date(2024, 12, 31), date(2024, 1, 1))
		assert.ErrorIs(t, err, domain.ErrInvalidWindow)
	})

	t.Run("one-off yields at most its pending occurrence", func(t *testing.T) {
		oneOff := &domain.MaintenancePlan{
			ID:         "plan-2",
			PropertyID: "prop-1",
			NextRun:    date(2024, 6, 15),
			IsActive:   true,
		}
		repo := &mockRepository{
			findPlanFn: func(ctx context.Context, id string) (*domain.MaintenancePlan, error) {
				return oneOff, nil
			},
		}
		svc := NewService(repo, Config{})

		got, truncated, err := svc.PreviewPlan(context.Background(), "prop-1", "plan-2",
			date(2024, 6, 1), date(2024, 6, 30))
		require.NoError(t, err)
		assert.False(t, truncated)
		assert.Equal(t, []civil.Date{date(2024, 6, 15)}, got)

		got, _, err = svc.PreviewPlan(context.Background(), "prop-1", "plan-2",
			date(2024, 7, 1), date(2024, 7, 31))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("oversized window reports truncation", func(t *testing.T) {
		daily := &domain.MaintenancePlan{
			ID:         "plan-3",
			PropertyID: "prop-1",
			Cadence:    &domain.CadenceSpec{Unit: domain.CadenceDay, Interval: 1},
			NextRun:    date(2024, 1, 1),
			IsActive:   true,
		}
		repo := &mockRepository{
			findPlanFn: func(ctx context.Context, id string) (*domain.MaintenancePlan, error) {
				return daily, nil
			},
		}
		svc := NewService(repo, Config{})

		got, truncated, err := svc.PreviewPlan(context.Background(), "prop-1", "plan-3",
			date(2024, 1, 1), date(2030, 1, 1))
		require.NoError(t, err)
		assert.True(t, truncated)
		assert.Len(t, got, 1000)
	})
}

func TestListTasksPagination(t *testing.T) {
	var seen domain.ListTasksParams
	repo := &mockRepository{
		findTasksFn: func(ctx context.Context, params domain.ListTasksParams) (*domain.PagedTasks, error) {
			seen = params
			return &domain.PagedTasks{}, nil
		},
	}
	svc := NewService(repo, Config{DefaultPageSize: 10, MaxPageSize: 50})

	_, err := svc.ListTasks(context.Background(), domain.ListTasksParams{PropertyID: "prop-1"})
	require.NoError(t, err)
	assert.Equal(t, 10, seen.Limit)

	_, err = svc.ListTasks(context.Background(), domain.ListTasksParams{PropertyID: "prop-1", Limit: 500, Offset: -3})
	require.NoError(t, err)
	assert.Equal(t, 50, seen.Limit)
	assert.Equal(t, 0, seen.Offset)
}
