package services

import (
	"gorm.io/gorm"

	"github.com/triagedesk/triagedesk/internal/database"
)

// TicketDraft is the caller-supplied content of a new ticket.
type TicketDraft struct {
	Title       string
	Description string
}

// TicketService handles ticket intake and listing.
type TicketService struct {
	db *gorm.DB
}

// NewTicketService creates a new TicketService
func NewTicketService(db *gorm.DB) *TicketService {
	return &TicketService{db: db}
}

// CreateTickets stores a batch of new tickets. Every created ticket starts
// in pending status regardless of input.
func (s *TicketService) CreateTickets(drafts []TicketDraft) ([]database.Ticket, error) {
	tickets := make([]database.Ticket, len(drafts))
	for i, d := range drafts {
		tickets[i] = database.Ticket{
			Title:       d.Title,
			Description: d.Description,
		}
	}
	if err := database.CreateTickets(s.db, tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}

// ListTickets returns a page of tickets, newest first, optionally filtered
// by status.
func (s *TicketService) ListTickets(status database.TicketStatus, offset, limit int) ([]database.Ticket, int64, error) {
	return database.ListTickets(s.db, status, offset, limit)
}
