package handlers

import (
	"net/http"

	"github.com/triagedesk/triagedesk/internal/api"
	"github.com/triagedesk/triagedesk/internal/jobs"
	"github.com/triagedesk/triagedesk/internal/services"
)

// APIHandler handles the ticket and analysis API endpoints
type APIHandler struct {
	ticketService   *services.TicketService
	analysisService *services.AnalysisService
	runner          *jobs.Runner
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(ticketService *services.TicketService, analysisService *services.AnalysisService, runner *jobs.Runner) *APIHandler {
	return &APIHandler{
		ticketService:   ticketService,
		analysisService: analysisService,
		runner:          runner,
	}
}

// SetupRoutes sets up all API routes
func (h *APIHandler) SetupRoutes(mux *http.ServeMux) {
	// Tickets
	mux.HandleFunc("POST /api/tickets", h.handleCreateTickets)
	mux.HandleFunc("GET /api/tickets", h.handleListTickets)

	// Analysis
	mux.HandleFunc("POST /api/analyze", h.handleAnalyze)
	mux.HandleFunc("GET /api/analyze/runs", h.handleListRuns)
	mux.HandleFunc("GET /api/analyze/active", h.handleActiveRuns)
	mux.HandleFunc("GET /api/analyze/{run_id}/status", h.handleRunStatus)

	// Background job failures
	mux.HandleFunc("GET /api/jobs/failures", h.handleJobFailures)
}

// handleJobFailures handles GET /api/jobs/failures
func (h *APIHandler) handleJobFailures(w http.ResponseWriter, r *http.Request) {
	failures := h.runner.Failures()
	if failures == nil {
		failures = []jobs.TaskFailure{}
	}
	api.RespondJSON(w, http.StatusOK, failures)
}
