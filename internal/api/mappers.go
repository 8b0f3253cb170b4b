package api

import "github.com/triagedesk/triagedesk/internal/database"

// RunToResponse converts a database AnalysisRun and its derived status to an
// AnalysisRunResponse.
func RunToResponse(run *database.AnalysisRun, status database.RunStatus) AnalysisRunResponse {
	analyses := run.TicketAnalyses
	if analyses == nil {
		analyses = []database.TicketAnalysis{}
	}
	return AnalysisRunResponse{
		ID:             run.ID,
		UUID:           run.UUID,
		CreatedAt:      run.CreatedAt,
		Summary:        run.Summary,
		Status:         status,
		TicketAnalyses: analyses,
	}
}

// RunToListItem converts a database AnalysisRun to a compact list
// representation. It omits the analyses to reduce response size.
func RunToListItem(run database.AnalysisRun, status database.RunStatus, ticketCount int) AnalysisRunListItem {
	return AnalysisRunListItem{
		ID:          run.ID,
		UUID:        run.UUID,
		CreatedAt:   run.CreatedAt,
		Summary:     run.Summary,
		Status:      status,
		TicketCount: ticketCount,
	}
}
