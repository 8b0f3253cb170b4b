package services

import (
	"github.com/triagedesk/triagedesk/internal/database"
)

// foldStatuses derives a run status from the statuses of its member tickets.
// The run stores no status of its own; this fold is the single source of
// truth and is safe to evaluate at any time.
func foldStatuses(tickets []database.Ticket) database.RunStatus {
	if len(tickets) == 0 {
		return database.RunStatusPending
	}

	analyzed := 0
	anyFailed := false
	anyProcessing := false
	for _, t := range tickets {
		switch t.Status {
		case database.TicketStatusAnalyzed:
			analyzed++
		case database.TicketStatusFailed:
			anyFailed = true
		case database.TicketStatusProcessing:
			anyProcessing = true
		}
	}

	switch {
	case analyzed == len(tickets):
		return database.RunStatusCompleted
	case anyFailed:
		return database.RunStatusFailed
	case anyProcessing:
		return database.RunStatusProcessing
	default:
		return database.RunStatusPending
	}
}

// ResolveRunStatus derives the current status of a run from its member
// tickets and returns the member ticket ids alongside. Returns
// gorm.ErrRecordNotFound when the run does not exist.
func (s *AnalysisService) ResolveRunStatus(runID uint) (database.RunStatus, []uint, error) {
	var run database.AnalysisRun
	if err := s.db.First(&run, runID).Error; err != nil {
		return "", nil, err
	}

	ticketIDs, err := database.GetRunTicketIDs(s.db, runID)
	if err != nil {
		return "", nil, err
	}

	tickets, err := database.GetTicketsByIDs(s.db, ticketIDs)
	if err != nil {
		return "", nil, err
	}

	return foldStatuses(tickets), ticketIDs, nil
}

// RunWithStatus pairs a run with its derived status and member tickets.
type RunWithStatus struct {
	Run       database.AnalysisRun
	Status    database.RunStatus
	TicketIDs []uint
}

// ActiveRuns returns runs that still have tickets in processing, with
// derived statuses.
func (s *AnalysisService) ActiveRuns() ([]RunWithStatus, error) {
	runs, err := database.GetRunsWithProcessingTickets(s.db)
	if err != nil {
		return nil, err
	}
	return s.withStatuses(runs)
}

// ListRuns returns a page of runs, newest first, each with its derived
// status and member count.
func (s *AnalysisService) ListRuns(offset, limit int) ([]RunWithStatus, int64, error) {
	runs, total, err := database.ListRuns(s.db, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	items, err := s.withStatuses(runs)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *AnalysisService) withStatuses(runs []database.AnalysisRun) ([]RunWithStatus, error) {
	items := make([]RunWithStatus, 0, len(runs))
	for _, run := range runs {
		ticketIDs, err := database.GetRunTicketIDs(s.db, run.ID)
		if err != nil {
			return nil, err
		}
		tickets, err := database.GetTicketsByIDs(s.db, ticketIDs)
		if err != nil {
			return nil, err
		}
		items = append(items, RunWithStatus{
			Run:       run,
			Status:    foldStatuses(tickets),
			TicketIDs: ticketIDs,
		})
	}
	return items, nil
}
