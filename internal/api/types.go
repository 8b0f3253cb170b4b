package api

import (
	"time"

	"github.com/triagedesk/triagedesk/internal/database"
)

// ========== Ticket Types ==========

// CreateTicketRequest is one element of the POST /api/tickets body.
type CreateTicketRequest struct {
	Title       string `json:"title" validate:"required,min=1,max=255"`
	Description string `json:"description" validate:"required,min=1"`
}

// TicketListResponse is the response body for GET /api/tickets.
type TicketListResponse struct {
	Items      []database.Ticket `json:"items"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

// ========== Analysis Types ==========

// AnalyzeRequest is the request body for POST /api/analyze. A nil or empty
// TicketIDs means "analyze all pending tickets".
type AnalyzeRequest struct {
	TicketIDs []uint `json:"ticketIds"`
}

// AnalysisRunResponse is the representation of a run returned by
// POST /api/analyze. Status is derived, never stored.
type AnalysisRunResponse struct {
	ID             uint                      `json:"id"`
	UUID           string                    `json:"uuid"`
	CreatedAt      time.Time                 `json:"created_at"`
	Summary        string                    `json:"summary"`
	Status         database.RunStatus        `json:"status"`
	TicketAnalyses []database.TicketAnalysis `json:"ticket_analyses"`
}

// AnalysisStatusResponse is the response body for
// GET /api/analyze/{run_id}/status and the elements of GET /api/analyze/active.
type AnalysisStatusResponse struct {
	AnalysisRunID uint               `json:"analysis_run_id"`
	Status        database.RunStatus `json:"status"`
	TicketIDs     []uint             `json:"ticket_ids"`
}

// AnalysisRunListItem is a compact representation of a run for list views.
type AnalysisRunListItem struct {
	ID          uint               `json:"id"`
	UUID        string             `json:"uuid"`
	CreatedAt   time.Time          `json:"created_at"`
	Summary     string             `json:"summary"`
	Status      database.RunStatus `json:"status"`
	TicketCount int                `json:"ticket_count"`
}

// AnalysisRunListResponse is the response body for GET /api/analyze/runs.
type AnalysisRunListResponse struct {
	Items      []AnalysisRunListItem `json:"items"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalPages int                   `json:"total_pages"`
}

// ========== Pagination Types ==========

// PaginationMeta contains pagination metadata for list responses.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}
