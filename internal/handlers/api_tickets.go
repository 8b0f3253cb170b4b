package handlers

import (
	"fmt"
	"net/http"

	"github.com/triagedesk/triagedesk/internal/api"
	"github.com/triagedesk/triagedesk/internal/database"
	"github.com/triagedesk/triagedesk/internal/services"
)

// handleCreateTickets handles POST /api/tickets. The body is a JSON array;
// every created ticket starts in pending status.
func (h *APIHandler) handleCreateTickets(w http.ResponseWriter, r *http.Request) {
	var reqs []api.CreateTicketRequest
	if err := api.DecodeJSON(r, &reqs); err != nil {
		api.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if len(reqs) == 0 {
		api.RespondError(w, http.StatusBadRequest, "At least one ticket is required")
		return
	}

	for i, req := range reqs {
		if fieldErrors := api.Validate(req); fieldErrors != nil {
			for field, msg := range fieldErrors {
				delete(fieldErrors, field)
				fieldErrors[fmt.Sprintf("[%d].%s", i, field)] = msg
			}
			api.RespondValidationError(w, fieldErrors)
			return
		}
	}

	drafts := make([]services.TicketDraft, len(reqs))
	for i, req := range reqs {
		drafts[i] = services.TicketDraft{
			Title:       req.Title,
			Description: req.Description,
		}
	}

	tickets, err := h.ticketService.CreateTickets(drafts)
	if err != nil {
		api.RespondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to create tickets: %v", err))
		return
	}

	api.RespondJSON(w, http.StatusCreated, tickets)
}

// handleListTickets handles GET /api/tickets with optional status filter and
// pagination.
func (h *APIHandler) handleListTickets(w http.ResponseWriter, r *http.Request) {
	var status database.TicketStatus
	if v := r.URL.Query().Get("status"); v != "" {
		if !database.IsValidTicketStatus(v) {
			api.RespondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid status filter: %s", v))
			return
		}
		status = database.TicketStatus(v)
	}

	p := api.ParsePagination(r)

	tickets, total, err := h.ticketService.ListTickets(status, p.Offset(), p.PageSize)
	if err != nil {
		api.RespondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to list tickets: %v", err))
		return
	}

	if tickets == nil {
		tickets = []database.Ticket{}
	}

	api.RespondJSON(w, http.StatusOK, api.TicketListResponse{
		Items:      tickets,
		Total:      total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: p.TotalPages(total),
	})
}
