package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"cloud.google.com/go/civil"
	"github.com/go-chi/chi/v5"

	"github.com/rezkam/stayops/internal/domain"
	"github.com/rezkam/stayops/internal/infrastructure/http/response"
)

func dtoToCadence(dto *CadenceDTO) *domain.CadenceSpec {
	if dto == nil {
		return nil
	}
	return &domain.CadenceSpec{
		Unit:     domain.CadenceUnit(dto.Unit),
		Interval: dto.Interval,
	}
}

// parseDateField parses an optional RFC 3339 full-date string. An empty
// string yields the zero date.
func parseDateField(w http.ResponseWriter, field, raw string) (civil.Date, bool) {
	if raw == "" {
		return civil.Date{}, true
	}
	d, err := civil.ParseDate(raw)
	if err != nil {
		response.ValidationError(w, field, "must be a date in YYYY-MM-DD form")
		return civil.Date{}, false
	}
	return d, true
}

type createTaskRequest struct {
	Title     string      `json:"title"`
	Notes     string      `json:"notes"`
	Cadence   *CadenceDTO `json:"cadence"`
	StartDate string      `json:"start_date"`
	NextDue   string      `json:"next_due"`
	Priority  string      `json:"priority"`
}

// CreateTask handles POST /v1/properties/{propertyID}/tasks.
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON")
		return
	}

	startDate, ok := parseDateField(w, "start_date", req.StartDate)
	if !ok {
		return
	}
	nextDue, ok := parseDateField(w, "next_due", req.NextDue)
	if !ok {
		return
	}

	task := &domain.Task{
		PropertyID: chi.URLParam(r, "propertyID"),
		Title:      req.Title,
		Notes:      req.Notes,
		Cadence:    dtoToCadence(req.Cadence),
		StartDate:  startDate,
		NextDue:    nextDue,
		Priority:   domain.Priority(req.Priority),
	}

	created, err := h.upkeep.CreateTask(r.Context(), task)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to create task via HTTP",
			"property_id", task.PropertyID,
			"error", err)
		response.FromDomainError(w, r, err)
		return
	}

	response.Created(w, MapTaskToDTO(created))
}

// GetTask handles GET /v1/properties/{propertyID}/tasks/{taskID}.
func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.upkeep.GetTask(r.Context(), chi.URLParam(r, "propertyID"), chi.URLParam(r, "taskID"))
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	response.OK(w, MapTaskToDTO(task))
}

type listTasksResponse struct {
	Tasks         []TaskDTO `json:"tasks"`
	TotalCount    int       `json:"total_count"`
	NextPageToken *string   `json:"next_page_token,omitempty"`
}

// ListTasks handles GET /v1/properties/{propertyID}/tasks.
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	params := domain.ListTasksParams{
		PropertyID: chi.URLParam(r, "propertyID"),
		Limit:      limit,
		Offset:     offset,
	}

	q := r.URL.Query()
	if raw := q.Get("status"); raw != "" {
		status, err := domain.NewTaskStatus(raw)
		if err != nil {
			response.FromDomainError(w, r, err)
			return
		}
		params.Status = &status
	}
	if raw := q.Get("priority"); raw != "" {
		priority, err := domain.NewPriority(raw)
		if err != nil {
			response.FromDomainError(w, r, err)
			return
		}
		params.Priority = &priority
	}
	if raw := q.Get("due_before"); raw != "" {
		d, ok := parseDateField(w, "due_before", raw)
		if !ok {
			return
		}
		params.DueBefore = &d
	}
	if raw := q.Get("due_after"); raw != "" {
		d, ok := parseDateField(w, "due_after", raw)
		if !ok {
			return
		}
		params.DueAfter = &d
	}

	result, err := h.upkeep.ListTasks(r.Context(), params)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	dtos := make([]TaskDTO, len(result.Tasks))
	for i, task := range result.Tasks {
		dtos[i] = MapTaskToDTO(task)
	}

	response.OK(w, listTasksResponse{
		Tasks:         dtos,
		TotalCount:    result.TotalCount,
		NextPageToken: generatePageToken(offset+len(result.Tasks), result.HasMore),
	})
}

type updateTaskRequest struct {
	UpdateMask []string    `json:"update_mask"`
	Title      *string     `json:"title"`
	Notes      *string     `json:"notes"`
	Cadence    *CadenceDTO `json:"cadence"`
	NextDue    *string     `json:"next_due"`
	Status     *string     `json:"status"`
	Priority   *string     `json:"priority"`
}

// UpdateTask handles PATCH /v1/properties/{propertyID}/tasks/{taskID}.
// The If-Match header carries the expected etag.
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var req updateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON")
		return
	}

	params := domain.UpdateTaskParams{
		TaskID:     chi.URLParam(r, "taskID"),
		PropertyID: chi.URLParam(r, "propertyID"),
		Etag:       etagFromRequest(r),
		UpdateMask: req.UpdateMask,
		Title:      req.Title,
		Notes:      req.Notes,
		Cadence:    dtoToCadence(req.Cadence),
	}
	if req.NextDue != nil {
		d, ok := parseDateField(w, "next_due", *req.NextDue)
		if !ok {
			return
		}
		params.NextDue = &d
	}
	if req.Status != nil {
		status := domain.TaskStatus(*req.Status)
		params.Status = &status
	}
	if req.Priority != nil {
		priority := domain.Priority(*req.Priority)
		params.Priority = &priority
	}

	updated, err := h.upkeep.UpdateTask(r.Context(), params)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to update task via HTTP",
			"task_id", params.TaskID,
			"error", err)
		response.FromDomainError(w, r, err)
		return
	}

	response.OK(w, MapTaskToDTO(updated))
}

// DeleteTask handles DELETE /v1/properties/{propertyID}/tasks/{taskID}.
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	err := h.upkeep.DeleteTask(r.Context(), chi.URLParam(r, "propertyID"), chi.URLParam(r, "taskID"))
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	response.NoContent(w)
}

type completeRequest struct {
	CompletionDate string `json:"completion_date"`
}

type completeTaskResponse struct {
	Task TaskDTO      `json:"task"`
	Run  RunRecordDTO `json:"run"`
}

// CompleteTask handles POST /v1/properties/{propertyID}/tasks/{taskID}/complete.
func (h *Handler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON")
		return
	}
	if req.CompletionDate == "" {
		response.ValidationError(w, "completion_date", "required field missing")
		return
	}
	completionDate, ok := parseDateField(w, "completion_date", req.CompletionDate)
	if !ok {
		return
	}

	taskID := chi.URLParam(r, "taskID")
	updated, run, err := h.upkeep.CompleteTask(r.Context(),
		chi.URLParam(r, "propertyID"), taskID, completionDate, etagFromRequest(r))
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to complete task via HTTP",
			"task_id", taskID,
			"completion_date", completionDate.String(),
			"error", err)
		response.FromDomainError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "task completed via HTTP",
		"task_id", taskID,
		"next_due", updated.NextDue.String())

	response.OK(w, completeTaskResponse{
		Task: MapTaskToDTO(updated),
		Run:  MapRunToDTO(run),
	})
}

type listRunsResponse struct {
	Runs []RunRecordDTO `json:"runs"`
}

// ListTaskRuns handles GET /v1/properties/{propertyID}/tasks/{taskID}/runs.
func (h *Handler) ListTaskRuns(w http.ResponseWriter, r *http.Request) {
	// Ownership check before exposing history.
	task, err := h.upkeep.GetTask(r.Context(), chi.URLParam(r, "propertyID"), chi.URLParam(r, "taskID"))
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	limit, offset := pageParams(r)
	runs, err := h.upkeep.ListRuns(r.Context(), domain.ObligationTask, task.ID, limit, offset)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	dtos := make([]RunRecordDTO, len(runs))
	for i, run := range runs {
		dtos[i] = MapRunToDTO(run)
	}
	response.OK(w, listRunsResponse{Runs: dtos})
}
