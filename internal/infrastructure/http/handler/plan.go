package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rezkam/stayops/internal/domain"
	"github.com/rezkam/stayops/internal/infrastructure/http/response"
)

type createPlanRequest struct {
	Title     string      `json:"title"`
	Notes     string      `json:"notes"`
	Cadence   *CadenceDTO `json:"cadence"`
	StartDate string      `json:"start_date"`
	NextRun   string      `json:"next_run"`
	Priority  string      `json:"priority"`
}

// CreatePlan handles POST /v1/properties/{propertyID}/plans.
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req createPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON")
		return
	}

	startDate, ok := parseDateField(w, "start_date", req.StartDate)
	if !ok {
		return
	}
	nextRun, ok := parseDateField(w, "next_run", req.NextRun)
	if !ok {
		return
	}

	plan := &domain.MaintenancePlan{
		PropertyID: chi.URLParam(r, "propertyID"),
		Title:      req.Title,
		Notes:      req.Notes,
		Cadence:    dtoToCadence(req.Cadence),
		StartDate:  startDate,
		NextRun:    nextRun,
		Priority:   domain.Priority(req.Priority),
	}

	created, err := h.upkeep.CreatePlan(r.Context(), plan)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to create plan via HTTP",
			"property_id", plan.PropertyID,
			"error", err)
		response.FromDomainError(w, r, err)
		return
	}

	response.Created(w, MapPlanToDTO(created))
}

// GetPlan handles GET /v1/properties/{propertyID}/plans/{planID}.
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.upkeep.GetPlan(r.Context(), chi.URLParam(r, "propertyID"), chi.URLParam(r, "planID"))
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	response.OK(w, MapPlanToDTO(plan))
}

type listPlansResponse struct {
	Plans         []PlanDTO `json:"plans"`
	TotalCount    int       `json:"total_count"`
	NextPageToken *string   `json:"next_page_token,omitempty"`
}

// ListPlans handles GET /v1/properties/{propertyID}/plans.
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	params := domain.ListPlansParams{
		PropertyID: chi.URLParam(r, "propertyID"),
		ActiveOnly: r.URL.Query().Get("active_only") == "true",
		Limit:      limit,
		Offset:     offset,
	}

	if raw := r.URL.Query().Get("priority"); raw != "" {
		priority, err := domain.NewPriority(raw)
		if err != nil {
			response.FromDomainError(w, r, err)
			return
		}
		params.Priority = &priority
	}

	result, err := h.upkeep.ListPlans(r.Context(), params)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	dtos := make([]PlanDTO, len(result.Plans))
	for i, plan := range result.Plans {
		dtos[i] = MapPlanToDTO(plan)
	}

	response.OK(w, listPlansResponse{
		Plans:         dtos,
		TotalCount:    result.TotalCount,
		NextPageToken: generatePageToken(offset+len(result.Plans), result.HasMore),
	})
}

type updatePlanRequest struct {
	UpdateMask []string    `json:"update_mask"`
	Title      *string     `json:"title"`
	Notes      *string     `json:"notes"`
	Cadence    *CadenceDTO `json:"cadence"`
	NextRun    *string     `json:"next_run"`
	IsActive   *bool       `json:"is_active"`
	Priority   *string     `json:"priority"`
}

// UpdatePlan handles PATCH /v1/properties/{propertyID}/plans/{planID}.
// The If-Match header carries the expected etag.
func (h *Handler) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	var req updatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON")
		return
	}

	params := domain.UpdatePlanParams{
		PlanID:     chi.URLParam(r, "planID"),
		PropertyID: chi.URLParam(r, "propertyID"),
		Etag:       etagFromRequest(r),
		UpdateMask: req.UpdateMask,
		Title:      req.Title,
		Notes:      req.Notes,
		Cadence:    dtoToCadence(req.Cadence),
		IsActive:   req.IsActive,
	}
	if req.NextRun != nil {
		d, ok := parseDateField(w, "next_run", *req.NextRun)
		if !ok {
			return
		}
		params.NextRun = &d
	}
	if req.Priority != nil {
		priority := domain.Priority(*req.Priority)
		params.Priority = &priority
	}

	updated, err := h.upkeep.UpdatePlan(r.Context(), params)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to update plan via HTTP",
			"plan_id", params.PlanID,
			"error", err)
		response.FromDomainError(w, r, err)
		return
	}

	response.OK(w, MapPlanToDTO(updated))
}

// DeletePlan handles DELETE /v1/properties/{propertyID}/plans/{planID}.
func (h *Handler) DeletePlan(w http.ResponseWriter, r *http.Request) {
	err := h.upkeep.DeletePlan(r.Context(), chi.URLParam(r, "propertyID"), chi.URLParam(r, "planID"))
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	response.NoContent(w)
}

type completePlanResponse struct {
	Plan PlanDTO      `json:"plan"`
	Run  RunRecordDTO `json:"run"`
}

// CompletePlan handles POST /v1/properties/{propertyID}/plans/{planID}/complete.
func (h *Handler) CompletePlan(w http.ResponseWriter, r *http.Request) {
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

	planID := chi.URLParam(r, "planID")
	updated, run, err := h.upkeep.CompletePlan(r.Context(),
		chi.URLParam(r, "propertyID"), planID, completionDate, etagFromRequest(r))
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to complete plan via HTTP",
			"plan_id", planID,
			"completion_date", completionDate.String(),
			"error", err)
		response.FromDomainError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "plan completed via HTTP",
		"plan_id", planID,
		"next_run", updated.NextRun.String())

	response.OK(w, completePlanResponse{
		Plan: MapPlanToDTO(updated),
		Run:  MapRunToDTO(run),
	})
}

type previewPlanResponse struct {
	Occurrences []string `json:"occurrences"`

	// Truncated is true when the window held more occurrences than the
	// expansion bound; the list covers only the earliest stretch.
	Truncated bool `json:"truncated"`
}

// PreviewPlan handles GET /v1/properties/{propertyID}/plans/{planID}/preview.
// Query parameters start and end bound the inclusive window.
func (h *Handler) PreviewPlan(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("start") == "" || q.Get("end") == "" {
		response.ValidationError(w, "start", "start and end query parameters are required")
		return
	}
	start, ok := parseDateField(w, "start", q.Get("start"))
	if !ok {
		return
	}
	end, ok := parseDateField(w, "end", q.Get("end"))
	if !ok {
		return
	}

	occurrences, truncated, err := h.upkeep.PreviewPlan(r.Context(),
		chi.URLParam(r, "propertyID"), chi.URLParam(r, "planID"), start, end)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	dates := make([]string, len(occurrences))
	for i, d := range occurrences {
		dates[i] = d.String()
	}
	response.OK(w, previewPlanResponse{Occurrences: dates, Truncated: truncated})
}

// ListPlanRuns handles GET /v1/properties/{propertyID}/plans/{planID}/runs.
func (h *Handler) ListPlanRuns(w http.ResponseWriter, r *http.Request) {
	plan, err := h.upkeep.GetPlan(r.Context(), chi.URLParam(r, "propertyID"), chi.URLParam(r, "planID"))
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	limit, offset := pageParams(r)
	runs, err := h.upkeep.ListRuns(r.Context(), domain.ObligationPlan, plan.ID, limit, offset)
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
