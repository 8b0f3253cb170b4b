package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"gorm.io/gorm"

	"github.com/triagedesk/triagedesk/internal/api"
	"github.com/triagedesk/triagedesk/internal/database"
	"github.com/triagedesk/triagedesk/internal/services"
)

// handleAnalyze handles POST /api/analyze. The body is optional: no body or
// an empty ticketIds list means "analyze all pending tickets".
func (h *APIHandler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req api.AnalyzeRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		// An absent body is a valid "analyze everything pending" request.
		if !errors.Is(err, io.EOF) && err.Error() != "request body is empty" {
			api.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	run, err := h.analysisService.StartAnalysis(req.TicketIDs)
	if err != nil {
		if errors.Is(err, services.ErrNoEligibleTickets) {
			api.RespondError(w, http.StatusBadRequest, "No tickets to analyze")
			return
		}
		api.RespondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to start analysis: %v", err))
		return
	}

	api.RespondJSON(w, http.StatusCreated, api.RunToResponse(run, database.RunStatusProcessing))
}

// handleRunStatus handles GET /api/analyze/{run_id}/status
func (h *APIHandler) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	runID, err := strconv.ParseUint(r.PathValue("run_id"), 10, 32)
	if err != nil {
		api.RespondError(w, http.StatusBadRequest, "Invalid run ID")
		return
	}

	status, ticketIDs, err := h.analysisService.ResolveRunStatus(uint(runID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			api.RespondError(w, http.StatusNotFound, "Analysis run not found")
			return
		}
		api.RespondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to resolve run status: %v", err))
		return
	}

	if ticketIDs == nil {
		ticketIDs = []uint{}
	}

	api.RespondJSON(w, http.StatusOK, api.AnalysisStatusResponse{
		AnalysisRunID: uint(runID),
		Status:        status,
		TicketIDs:     ticketIDs,
	})
}

// handleActiveRuns handles GET /api/analyze/active
func (h *APIHandler) handleActiveRuns(w http.ResponseWriter, r *http.Request) {
	active, err := h.analysisService.ActiveRuns()
	if err != nil {
		api.RespondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to list active runs: %v", err))
		return
	}

	items := make([]api.AnalysisStatusResponse, 0, len(active))
	for _, item := range active {
		ticketIDs := item.TicketIDs
		if ticketIDs == nil {
			ticketIDs = []uint{}
		}
		items = append(items, api.AnalysisStatusResponse{
			AnalysisRunID: item.Run.ID,
			Status:        item.Status,
			TicketIDs:     ticketIDs,
		})
	}

	api.RespondJSON(w, http.StatusOK, items)
}

// handleListRuns handles GET /api/analyze/runs with pagination
func (h *APIHandler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	p := api.ParsePagination(r)

	runs, total, err := h.analysisService.ListRuns(p.Offset(), p.PageSize)
	if err != nil {
		api.RespondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to list runs: %v", err))
		return
	}

	items := make([]api.AnalysisRunListItem, 0, len(runs))
	for _, item := range runs {
		items = append(items, api.RunToListItem(item.Run, item.Status, len(item.TicketIDs)))
	}

	api.RespondJSON(w, http.StatusOK, api.AnalysisRunListResponse{
		Items:      items,
		Total:      total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: p.TotalPages(total),
	})
}
