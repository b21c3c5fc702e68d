// Package http exposes the combine pipeline over a JSON API.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "gridmerge/internal/errors"
	"gridmerge/internal/infrastructure"
	"gridmerge/internal/operations"
	"gridmerge/internal/timeseries"
)

// CombineHandler handles combine job requests.
type CombineHandler struct {
	manager      *operations.Manager
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewCombineHandler creates a combine handler. The request context bounds
// one synchronous combine run; the router's timeout middleware sets the
// deadline.
func NewCombineHandler(manager *operations.Manager, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *CombineHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CombineHandler{
		manager:      manager,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "combine")),
	}
}

// CombineResponse is the synchronous combine result.
type CombineResponse struct {
	OperationID string               `json:"operation_id"`
	Status      string               `json:"status"`
	Timestamps  []string             `json:"timestamps"`
	Columns     []string             `json:"columns"`
	Units       []string             `json:"units"`
	Rows        [][]any              `json:"rows"`
	Warnings    []timeseries.Warning `json:"warnings,omitempty"`
}

// Combine handles POST /api/combine. The job runs synchronously; clients
// watching the websocket see per-step progress while this request is in
// flight.
func (h *CombineHandler) Combine(w http.ResponseWriter, r *http.Request) {
	logger := infrastructure.LoggerWithContext(r.Context(), h.logger)

	var job operations.JobSpec
	if err := render.DecodeJSON(r.Body, &job); err != nil {
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.InvalidRequestWithError(err)))
		return
	}
	if err := job.Validate(); err != nil {
		logger.Warn("combine job rejected", slog.String("error", err.Error()))
		render.Render(w, r, apierrors.NewErrorResponse(
			apierrors.NewWithDetails(http.StatusBadRequest, "VALIDATION_FAILED",
				"Request validation failed", err.Error())))
		return
	}

	logger.Info("combine job accepted",
		slog.Int("sources", len(job.Sources)),
		slog.Int("stacks", len(job.Stacks)))

	state, err := h.manager.Run(r.Context(), &job)
	if err != nil {
		// The timeout middleware already answered a timed-out request.
		if r.Context().Err() != nil {
			return
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, buildCombineResponse(state))
}

// ListOperations handles GET /api/operations.
func (h *CombineHandler) ListOperations(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.manager.List())
}

// GetOperation handles GET /api/operations/{id}.
func (h *CombineHandler) GetOperation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	state, ok := h.manager.Get(id)
	if !ok {
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.ErrOperationNotFound))
		return
	}
	render.JSON(w, r, state.Snapshot())
}

func buildCombineResponse(state *operations.OperationState) CombineResponse {
	resp := CombineResponse{
		OperationID: state.ID,
		Status:      string(state.CurrentStatus()),
		Warnings:    state.Warnings,
	}

	combined := state.Combined
	if combined == nil {
		return resp
	}

	resp.Columns = combined.Columns
	resp.Units = combined.Units
	resp.Timestamps = make([]string, 0, combined.Grid.Len())
	for _, at := range combined.Grid.Times() {
		resp.Timestamps = append(resp.Timestamps, at.Format(time.RFC3339))
	}
	resp.Rows = make([][]any, len(combined.Rows))
	for i, row := range combined.Rows {
		out := make([]any, len(row))
		for j, cell := range row {
			out[j] = cellValue(cell)
		}
		resp.Rows[i] = out
	}
	return resp
}

// cellValue maps a cell onto JSON: numbers stay numbers, text stays
// text, missing becomes null.
func cellValue(v timeseries.Value) any {
	if v.IsMissing() {
		return nil
	}
	if f, ok := v.Float(); ok {
		return f
	}
	return v.String()
}
