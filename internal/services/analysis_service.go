package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"gorm.io/gorm"

	"github.com/triagedesk/triagedesk/internal/database"
	"github.com/triagedesk/triagedesk/internal/jobs"
)

// ErrNoEligibleTickets is returned when an analysis request matches no
// pending tickets. Surfaced to clients as a 400, never retried.
var ErrNoEligibleTickets = errors.New("no tickets to analyze")

// AnalysisService orchestrates the analysis pipeline: it claims pending
// tickets, creates the run, dispatches background processing, and applies
// classifier results back onto tickets.
type AnalysisService struct {
	db         *gorm.DB
	classifier Classifier
	runner     *jobs.Runner
}

// NewAnalysisService creates a new AnalysisService. The classifier is
// injected so tests can substitute a fake.
func NewAnalysisService(db *gorm.DB, classifier Classifier, runner *jobs.Runner) *AnalysisService {
	return &AnalysisService{
		db:         db,
		classifier: classifier,
		runner:     runner,
	}
}

// StartAnalysis selects eligible tickets, claims them, creates a run with
// its membership rows, and schedules background processing. It returns the
// created run immediately; completion is observed by polling.
//
// Only pending tickets are eligible. The claim is a per-row conditional
// update guarded on pending status, so two concurrent submissions can never
// select the same ticket: whichever transaction writes first wins the row.
func (s *AnalysisService) StartAnalysis(ticketIDs []uint) (*database.AnalysisRun, error) {
	var run *database.AnalysisRun
	var claimed []uint

	err := s.db.Transaction(func(tx *gorm.DB) error {
		candidates, err := database.SelectPendingTickets(tx, ticketIDs)
		if err != nil {
			return err
		}

		for _, t := range candidates {
			won, err := database.ClaimPendingTicket(tx, t.ID)
			if err != nil {
				return err
			}
			if won {
				claimed = append(claimed, t.ID)
			}
		}

		if len(claimed) == 0 {
			return ErrNoEligibleTickets
		}

		run, err = database.CreateRun(tx, fmt.Sprintf("Analyzing %d ticket(s)", len(claimed)))
		if err != nil {
			return err
		}

		// Membership is persisted before background dispatch so status
		// queries can always resolve the run's tickets.
		return database.AddRunTickets(tx, run.ID, claimed)
	})
	if err != nil {
		return nil, err
	}

	runID := run.ID
	s.runner.Go(fmt.Sprintf("analysis-run-%d", runID), func(ctx context.Context) error {
		return s.ProcessRun(ctx, runID)
	})

	log.Printf("Started analysis run %d with %d ticket(s)", runID, len(claimed))

	run.TicketAnalyses = []database.TicketAnalysis{}
	return run, nil
}

// ProcessRun executes the background half of an analysis run. It re-selects
// the run's tickets that are still processing rather than trusting any
// in-memory list, invokes the classifier with the whole batch, and applies
// results per ticket.
//
// Failure semantics are asymmetric on purpose: a classifier-level failure is
// fatal for the whole run (every selected ticket fails), while a per-ticket
// mismatch or write failure is isolated and the batch continues.
func (s *AnalysisService) ProcessRun(ctx context.Context, runID uint) error {
	memberIDs, err := database.GetRunTicketIDs(s.db, runID)
	if err != nil {
		return fmt.Errorf("failed to load membership for run %d: %w", runID, err)
	}

	var tickets []database.Ticket
	if err := s.db.Where("id IN ? AND status = ?", memberIDs, database.TicketStatusProcessing).
		Order("id ASC").Find(&tickets).Error; err != nil {
		return fmt.Errorf("failed to load tickets for run %d: %w", runID, err)
	}

	// Nothing left in flight (another worker finished, or the run was
	// empty): not an error.
	if len(tickets) == 0 {
		return nil
	}

	inputs := make([]TicketInput, len(tickets))
	selectedIDs := make([]uint, len(tickets))
	for i, t := range tickets {
		inputs[i] = TicketInput{
			Ref:         ticketRef(t.ID),
			Title:       t.Title,
			Description: t.Description,
		}
		selectedIDs[i] = t.ID
	}

	result, err := s.classifier.ClassifyBatch(ctx, inputs)
	if err != nil {
		// Classifier failed as a unit: every selected ticket fails.
		if dbErr := database.SetTicketStatuses(s.db, selectedIDs, database.TicketStatusFailed); dbErr != nil {
			log.Printf("Failed to mark tickets failed for run %d: %v", runID, dbErr)
		}
		if dbErr := database.UpdateRunSummary(s.db, runID, fmt.Sprintf("Analysis failed: %v", err)); dbErr != nil {
			log.Printf("Failed to update summary for run %d: %v", runID, dbErr)
		}
		return fmt.Errorf("classification failed for run %d: %w", runID, err)
	}

	byRef := make(map[string]TicketClassification, len(result.Classifications))
	for _, cls := range result.Classifications {
		byRef[cls.Ref] = cls
	}

	successCount := 0
	failedCount := 0
	for _, ticket := range tickets {
		cls, ok := byRef[ticketRef(ticket.ID)]
		if !ok {
			log.Printf("No classification returned for ticket %d in run %d", ticket.ID, runID)
			s.failTicket(runID, ticket.ID)
			failedCount++
			continue
		}
		if !cls.Category.IsValid() || !cls.Priority.IsValid() {
			log.Printf("Invalid classification for ticket %d in run %d: category=%q priority=%q",
				ticket.ID, runID, cls.Category, cls.Priority)
			s.failTicket(runID, ticket.ID)
			failedCount++
			continue
		}

		analysis := database.TicketAnalysis{
			AnalysisRunID: runID,
			TicketID:      ticket.ID,
			Category:      cls.Category,
			Priority:      cls.Priority,
			Notes:         cls.Notes,
		}
		if err := s.db.Create(&analysis).Error; err != nil {
			log.Printf("Failed to store analysis for ticket %d in run %d: %v", ticket.ID, runID, err)
			s.failTicket(runID, ticket.ID)
			failedCount++
			continue
		}

		if err := database.SetTicketStatus(s.db, ticket.ID, database.TicketStatusAnalyzed); err != nil {
			log.Printf("Failed to mark ticket %d analyzed in run %d: %v", ticket.ID, runID, err)
			s.failTicket(runID, ticket.ID)
			failedCount++
			continue
		}
		successCount++
	}

	summary := result.Summary
	if successCount > 0 {
		if summary == "" {
			summary = fmt.Sprintf("Analyzed %d ticket(s)", successCount)
		}
	} else {
		summary = "Analysis completed with no successful results"
	}
	if failedCount > 0 {
		summary += fmt.Sprintf(", %d failed", failedCount)
	}

	if err := database.UpdateRunSummary(s.db, runID, summary); err != nil {
		return fmt.Errorf("failed to update summary for run %d: %w", runID, err)
	}

	log.Printf("Analysis run %d finished: %d analyzed, %d failed", runID, successCount, failedCount)
	return nil
}

// failTicket marks a single ticket failed, logging rather than propagating
// storage errors so one ticket's failure never aborts the batch.
func (s *AnalysisService) failTicket(runID, ticketID uint) {
	if err := database.SetTicketStatus(s.db, ticketID, database.TicketStatusFailed); err != nil {
		log.Printf("Failed to mark ticket %d failed in run %d: %v", ticketID, runID, err)
	}
}

// GetRun loads a run with its analyses. Returns gorm.ErrRecordNotFound for
// unknown ids.
func (s *AnalysisService) GetRun(runID uint) (*database.AnalysisRun, error) {
	return database.GetRun(s.db, runID)
}

// ticketRef renders a ticket id as the opaque correlation token carried
// through the classifier boundary
func ticketRef(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
