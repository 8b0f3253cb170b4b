package database

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateRun inserts a new analysis run with the given initial summary
func CreateRun(db *gorm.DB, summary string) (*AnalysisRun, error) {
	run := &AnalysisRun{
		UUID:    uuid.New().String(),
		Summary: summary,
	}
	if err := db.Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

// GetRun retrieves an analysis run by id with its analyses preloaded.
// Returns gorm.ErrRecordNotFound for unknown ids.
func GetRun(db *gorm.DB, id uint) (*AnalysisRun, error) {
	var run AnalysisRun
	if err := db.Preload("TicketAnalyses").Preload("TicketAnalyses.Ticket").First(&run, id).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns a page of analysis runs newest-first with analyses
// preloaded, along with the total run count.
func ListRuns(db *gorm.DB, offset, limit int) ([]AnalysisRun, int64, error) {
	var total int64
	if err := db.Model(&AnalysisRun{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var runs []AnalysisRun
	if err := db.Preload("TicketAnalyses").
		Order("created_at DESC").Offset(offset).Limit(limit).
		Find(&runs).Error; err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}

// UpdateRunSummary overwrites the summary of a run
func UpdateRunSummary(db *gorm.DB, id uint, summary string) error {
	return db.Model(&AnalysisRun{}).Where("id = ?", id).Update("summary", summary).Error
}

// AddRunTickets records run membership for the given tickets. Membership is
// written at selection time, before background dispatch, so status queries
// can always resolve which tickets belong to a run.
func AddRunTickets(db *gorm.DB, runID uint, ticketIDs []uint) error {
	if len(ticketIDs) == 0 {
		return nil
	}
	members := make([]AnalysisRunTicket, len(ticketIDs))
	for i, id := range ticketIDs {
		members[i] = AnalysisRunTicket{AnalysisRunID: runID, TicketID: id}
	}
	return db.Create(&members).Error
}

// GetRunTicketIDs returns the ids of all tickets selected into a run,
// in selection order.
func GetRunTicketIDs(db *gorm.DB, runID uint) ([]uint, error) {
	var ids []uint
	err := db.Model(&AnalysisRunTicket{}).
		Where("analysis_run_id = ?", runID).
		Order("ticket_id ASC").
		Pluck("ticket_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// GetRunsWithProcessingTickets returns runs that still have at least one
// member ticket in processing status, newest-first. These are the runs
// considered active.
func GetRunsWithProcessingTickets(db *gorm.DB) ([]AnalysisRun, error) {
	var runs []AnalysisRun
	err := db.
		Joins("JOIN analysis_run_tickets ON analysis_run_tickets.analysis_run_id = analysis_runs.id").
		Joins("JOIN tickets ON tickets.id = analysis_run_tickets.ticket_id").
		Where("tickets.status = ?", TicketStatusProcessing).
		Distinct("analysis_runs.*").
		Order("analysis_runs.created_at DESC").
		Find(&runs).Error
	if err != nil {
		return nil, err
	}
	return runs, nil
}
