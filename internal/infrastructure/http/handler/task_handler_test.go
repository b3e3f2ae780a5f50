package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/stayops/internal/application/upkeep"
	"github.com/rezkam/stayops/internal/domain"
)

// fakeUpkeepRepo implements the slice of upkeep.Repository the task routes
// exercise; unimplemented methods panic via the embedded interface.
type fakeUpkeepRepo struct {
	upkeep.Repository

	task         *domain.Task
	runInserted  bool
	insertResult bool
}

func (f *fakeUpkeepRepo) FindTaskByID(ctx context.Context, id string) (*domain.Task, error) {
	if f.task == nil || f.task.ID != id {
		return nil, domain.ErrTaskNotFound
	}
	clone := *f.task
	return &clone, nil
}

func (f *fakeUpkeepRepo) CreateTask(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	return task, nil
}

func (f *fakeUpkeepRepo) InsertRunRecord(ctx context.Context, run *domain.RunRecord) (bool, error) {
	f.runInserted = true
	return f.insertResult, nil
}

func (f *fakeUpkeepRepo) AdvanceTask(ctx context.Context, params upkeep.AdvanceParams) (*domain.Task, error) {
	updated := *f.task
	updated.NextDue = params.NextOccurrence
	updated.Version = params.ExpectedVersion + 1
	return &updated, nil
}

func newTaskTestHandler(repo upkeep.Repository) *Handler {
	return New(nil, upkeep.NewService(repo, upkeep.Config{}), nil, nil)
}

func seedTask() *domain.Task {
	return &domain.Task{
		ID:         "0198a6a0-0000-7000-8000-000000000001",
		PropertyID: "0198a6a0-0000-7000-8000-0000000000aa",
		Title:      "Deep clean",
		Cadence:    &domain.CadenceSpec{Unit: domain.CadenceWeek, Interval: 1},
		StartDate:  civil.Date{Year: 2024, Month: time.March, Day: 1},
		NextDue:    civil.Date{Year: 2024, Month: time.March, Day: 8},
		Status:     domain.TaskStatusPending,
		Priority:   domain.PriorityMedium,
		Version:    2,
	}
}

func TestCompleteTaskHandler(t *testing.T) {
	task := seedTask()
	base := "/v1/properties/" + task.PropertyID + "/tasks/" + task.ID + "/complete"

	t.Run("completion advances and returns the run", func(t *testing.T) {
		repo := &fakeUpkeepRepo{task: task, insertResult: true}
		router := newTaskTestHandler(repo).Routes()

		req := httptest.NewRequest(http.MethodPost, base,
			strings.NewReader(`{"completion_date":"2024-03-10"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp completeTaskResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "2024-03-17", resp.Task.NextDue)
		assert.Equal(t, "3", resp.Task.Etag)
		assert.Equal(t, "2024-03-08", resp.Run.ScheduledDate)
		assert.True(t, repo.runInserted)
	})

	t.Run("duplicate completion maps to 409", func(t *testing.T) {
		repo := &fakeUpkeepRepo{task: task, insertResult: false}
		router := newTaskTestHandler(repo).Routes()

		req := httptest.NewRequest(http.MethodPost, base,
			strings.NewReader(`{"completion_date":"2024-03-10"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "OCCURRENCE_CONSUMED")
	})

	t.Run("stale If-Match maps to 409", func(t *testing.T) {
		repo := &fakeUpkeepRepo{task: task, insertResult: true}
		router := newTaskTestHandler(repo).Routes()

		req := httptest.NewRequest(http.MethodPost, base,
			strings.NewReader(`{"completion_date":"2024-03-10"}`))
		req.Header.Set("If-Match", "1")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "VERSION_CONFLICT")
	})

	t.Run("missing completion date maps to 400", func(t *testing.T) {
		repo := &fakeUpkeepRepo{task: task, insertResult: true}
		router := newTaskTestHandler(repo).Routes()

		req := httptest.NewRequest(http.MethodPost, base, strings.NewReader(`{}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("early completion maps to 400", func(t *testing.T) {
		repo := &fakeUpkeepRepo{task: task, insertResult: true}
		router := newTaskTestHandler(repo).Routes()

		req := httptest.NewRequest(http.MethodPost, base,
			strings.NewReader(`{"completion_date":"2024-02-01"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "completion_date")
	})
}

func TestGetTaskHandler(t *testing.T) {
	task := seedTask()
	repo := &fakeUpkeepRepo{task: task}
	router := newTaskTestHandler(repo).Routes()

	t.Run("found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet,
			"/v1/properties/"+task.PropertyID+"/tasks/"+task.ID, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var dto TaskDTO
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&dto))
		assert.Equal(t, "Deep clean", dto.Title)
		require.NotNil(t, dto.Cadence)
		assert.Equal(t, "week", dto.Cadence.Unit)
	})

	t.Run("wrong property maps to 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet,
			"/v1/properties/other-prop/tasks/"+task.ID, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCreateTaskHandler(t *testing.T) {
	repo := &fakeUpkeepRepo{}
	router := newTaskTestHandler(repo).Routes()

	t.Run("creates with defaults", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost,
			"/v1/properties/prop-1/tasks",
			strings.NewReader(`{"title":"Restock soap","cadence":{"unit":"week","interval":2}}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		var dto TaskDTO
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&dto))
		assert.Equal(t, "Restock soap", dto.Title)
		assert.Equal(t, "pending", dto.Status)
		assert.Equal(t, dto.StartDate, dto.NextDue)
	})

	t.Run("bad cadence maps to 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost,
			"/v1/properties/prop-1/tasks",
			strings.NewReader(`{"title":"Restock soap","cadence":{"unit":"fortnight","interval":1}}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed date maps to 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost,
			"/v1/properties/prop-1/tasks",
			strings.NewReader(`{"title":"Restock soap","start_date":"03/01/2024"}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
