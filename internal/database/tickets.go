package database

import (
	"gorm.io/gorm"
)

// CreateTickets inserts a batch of tickets, all starting as pending.
// Accepts a db parameter (rather than the global DB) to support dependency
// injection, transaction contexts, and easier testing.
func CreateTickets(db *gorm.DB, tickets []Ticket) error {
	for i := range tickets {
		tickets[i].Status = TicketStatusPending
	}
	return db.Create(&tickets).Error
}

// ListTickets returns a page of tickets newest-first, optionally filtered by
// status, along with the total count for the filter.
func ListTickets(db *gorm.DB, status TicketStatus, offset, limit int) ([]Ticket, int64, error) {
	query := db.Model(&Ticket{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tickets []Ticket
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&tickets).Error; err != nil {
		return nil, 0, err
	}
	return tickets, total, nil
}

// GetTicketsByIDs loads tickets by id. Missing ids are silently absent from
// the result set.
func GetTicketsByIDs(db *gorm.DB, ids []uint) ([]Ticket, error) {
	var tickets []Ticket
	if len(ids) == 0 {
		return tickets, nil
	}
	if err := db.Where("id IN ?", ids).Find(&tickets).Error; err != nil {
		return nil, err
	}
	return tickets, nil
}

// ClaimPendingTicket transitions one ticket from pending to processing.
// The status guard in the WHERE clause means a ticket already claimed by a
// concurrent run is simply not claimed again; the return value reports
// whether this caller won the claim.
func ClaimPendingTicket(db *gorm.DB, id uint) (bool, error) {
	res := db.Model(&Ticket{}).
		Where("id = ? AND status = ?", id, TicketStatusPending).
		Update("status", TicketStatusProcessing)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// SetTicketStatus updates the status of a single ticket
func SetTicketStatus(db *gorm.DB, id uint, status TicketStatus) error {
	return db.Model(&Ticket{}).Where("id = ?", id).Update("status", status).Error
}

// SetTicketStatuses updates the status of a batch of tickets in one write
func SetTicketStatuses(db *gorm.DB, ids []uint, status TicketStatus) error {
	if len(ids) == 0 {
		return nil
	}
	return db.Model(&Ticket{}).Where("id IN ?", ids).Update("status", status).Error
}

// SelectPendingTickets returns tickets eligible for analysis: status pending,
// optionally intersected with an explicit id list. Ids that do not exist or
// are not pending simply do not appear in the result.
func SelectPendingTickets(db *gorm.DB, ids []uint) ([]Ticket, error) {
	query := db.Where("status = ?", TicketStatusPending)
	if len(ids) > 0 {
		query = query.Where("id IN ?", ids)
	}

	var tickets []Ticket
	if err := query.Order("id ASC").Find(&tickets).Error; err != nil {
		return nil, err
	}
	return tickets, nil
}
