package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rezkam/stayops/internal/infrastructure/http/response"
)

type createPropertyRequest struct {
	Name string `json:"name"`
}

// CreateProperty handles POST /v1/properties.
func (h *Handler) CreateProperty(w http.ResponseWriter, r *http.Request) {
	var req createPropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON")
		return
	}

	created, err := h.properties.Create(r.Context(), req.Name)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to create property via HTTP",
			"name", req.Name,
			"error", err)
		response.FromDomainError(w, r, err)
		return
	}

	response.Created(w, MapPropertyToDTO(created))
}

// GetProperty handles GET /v1/properties/{propertyID}.
func (h *Handler) GetProperty(w http.ResponseWriter, r *http.Request) {
	property, err := h.properties.Get(r.Context(), chi.URLParam(r, "propertyID"))
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	response.OK(w, MapPropertyToDTO(property))
}

type listPropertiesResponse struct {
	Properties []PropertyDTO `json:"properties"`
}

// ListProperties handles GET /v1/properties.
func (h *Handler) ListProperties(w http.ResponseWriter, r *http.Request) {
	properties, err := h.properties.List(r.Context())
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	dtos := make([]PropertyDTO, len(properties))
	for i, property := range properties {
		dtos[i] = MapPropertyToDTO(property)
	}
	response.OK(w, listPropertiesResponse{Properties: dtos})
}

// DeleteProperty handles DELETE /v1/properties/{propertyID}.
func (h *Handler) DeleteProperty(w http.ResponseWriter, r *http.Request) {
	if err := h.properties.Delete(r.Context(), chi.URLParam(r, "propertyID")); err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	response.NoContent(w)
}
