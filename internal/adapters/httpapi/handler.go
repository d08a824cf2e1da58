// Package httpapi exposes the planning pipeline over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/transitops/shuttleplan-go/internal/application/common"
	"github.com/transitops/shuttleplan-go/internal/application/planner"
	"github.com/transitops/shuttleplan-go/internal/domain/shared"
)

// Planner runs the route planning pipeline.
type Planner interface {
	Plan(ctx context.Context, req *planner.PlanRequest) (*planner.PlanResponse, error)
}

// Handler serves the planning API endpoints.
type Handler struct {
	Planner Planner
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response
func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	h.writeJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// HandlePlanRoutes runs the planning pipeline on a JSON plan request.
func (h *Handler) HandlePlanRoutes(w http.ResponseWriter, r *http.Request) {
	var req planner.PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_BODY", "request body is not valid JSON", nil)
		return
	}

	resp, err := h.Planner.Plan(r.Context(), &req)
	if err != nil {
		h.writePlanError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// writePlanError maps pipeline failures onto HTTP statuses. Validation
// problems are the caller's fault; road backend failures are retryable.
func (h *Handler) writePlanError(w http.ResponseWriter, r *http.Request, err error) {
	logger := common.LoggerFromContext(r.Context())

	var vErr *shared.ValidationError
	if errors.As(err, &vErr) {
		h.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", vErr.Message, map[string]interface{}{
			"field": vErr.Field,
		})
		return
	}

	var rErr *shared.RoadServiceError
	if errors.As(err, &rErr) {
		logger.Log("ERROR", "Road service unavailable", map[string]interface{}{
			"op":   rErr.Op,
			"city": rErr.City,
		})
		h.writeError(w, http.StatusServiceUnavailable, "ROAD_SERVICE_UNAVAILABLE", err.Error(), nil)
		return
	}

	logger.Log("ERROR", "Plan request failed", map[string]interface{}{
		"error": err.Error(),
	})
	h.writeError(w, http.StatusInternalServerError, "PLANNING_FAILED", err.Error(), nil)
}

// HandleHealthCheck reports service liveness.
func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
