package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/triagedesk/triagedesk/internal/database"
	"github.com/triagedesk/triagedesk/internal/jobs"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	err = db.AutoMigrate(
		&database.Ticket{},
		&database.AnalysisRun{},
		&database.TicketAnalysis{},
		&database.AnalysisRunTicket{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// fakeClassifier returns canned results. If classify is set it is called
// instead; if gate is set, ClassifyBatch blocks until the channel is closed.
type fakeClassifier struct {
	result   *BatchResult
	err      error
	gate     chan struct{}
	classify func(tickets []TicketInput) (*BatchResult, error)
	inputs   []TicketInput
}

func (f *fakeClassifier) ClassifyBatch(ctx context.Context, tickets []TicketInput) (*BatchResult, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.inputs = tickets
	if f.classify != nil {
		return f.classify(tickets)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// classifyAll builds a classifier that returns one classification per input
func classifyAll(summary string) *fakeClassifier {
	f := &fakeClassifier{}
	f.classify = func(tickets []TicketInput) (*BatchResult, error) {
		result := &BatchResult{Summary: summary}
		for _, ticket := range tickets {
			result.Classifications = append(result.Classifications, TicketClassification{
				Ref:      ticket.Ref,
				Category: database.TicketCategoryBug,
				Priority: database.TicketPriorityMedium,
				Notes:    "test note",
			})
		}
		return result, nil
	}
	return f
}

func newTestService(db *gorm.DB, classifier Classifier) (*AnalysisService, *jobs.Runner) {
	runner := jobs.NewRunner()
	return NewAnalysisService(db, classifier, runner), runner
}

func createPending(t *testing.T, db *gorm.DB, n int) []database.Ticket {
	t.Helper()
	tickets := make([]database.Ticket, n)
	for i := range tickets {
		tickets[i] = database.Ticket{Title: "t", Description: "d", Status: database.TicketStatusPending}
		if err := db.Create(&tickets[i]).Error; err != nil {
			t.Fatalf("failed to create ticket: %v", err)
		}
	}
	return tickets
}

func TestStartAnalysis_NoEligibleTickets(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestService(db, classifyAll(""))

	_, err := svc.StartAnalysis(nil)
	if !errors.Is(err, ErrNoEligibleTickets) {
		t.Errorf("expected ErrNoEligibleTickets, got %v", err)
	}
}

func TestStartAnalysis_OnlyNonPendingRequested(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestService(db, classifyAll(""))

	ticket := database.Ticket{Title: "t", Description: "d", Status: database.TicketStatusAnalyzed}
	db.Create(&ticket)

	_, err := svc.StartAnalysis([]uint{ticket.ID})
	if !errors.Is(err, ErrNoEligibleTickets) {
		t.Errorf("expected ErrNoEligibleTickets, got %v", err)
	}
}

func TestStartAnalysis_ClaimsTicketsBeforeReturn(t *testing.T) {
	db := setupTestDB(t)

	classifier := classifyAll("summary")
	classifier.gate = make(chan struct{})
	svc, runner := newTestService(db, classifier)

	createPending(t, db, 3)
	extra := database.Ticket{Title: "t", Description: "d", Status: database.TicketStatusFailed}
	db.Create(&extra)

	run, err := svc.StartAnalysis(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if run.Summary != "Analyzing 3 ticket(s)" {
		t.Errorf("expected summary 'Analyzing 3 ticket(s)', got %q", run.Summary)
	}
	if len(run.TicketAnalyses) != 0 {
		t.Errorf("expected no analyses on the initial run, got %d", len(run.TicketAnalyses))
	}

	// Background processing is blocked on the gate: every claimed ticket
	// must already be processing.
	var count int64
	db.Model(&database.Ticket{}).Where("status = ?", database.TicketStatusProcessing).Count(&count)
	if count != 3 {
		t.Errorf("expected 3 processing tickets, got %d", count)
	}

	// The failed ticket is untouched.
	var stored database.Ticket
	db.First(&stored, extra.ID)
	if stored.Status != database.TicketStatusFailed {
		t.Errorf("expected failed ticket untouched, got %s", stored.Status)
	}

	close(classifier.gate)
	runner.Wait()
}

func TestStartAnalysis_MembershipPersisted(t *testing.T) {
	db := setupTestDB(t)
	svc, runner := newTestService(db, classifyAll(""))

	tickets := createPending(t, db, 2)

	run, err := svc.StartAnalysis([]uint{tickets[0].ID, tickets[1].ID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	runner.Wait()

	ids, err := database.GetRunTicketIDs(db, run.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("expected 2 member tickets, got %d", len(ids))
	}
}

func TestProcessRun_Success(t *testing.T) {
	db := setupTestDB(t)
	svc, runner := newTestService(db, classifyAll("Two bug reports, medium priority"))

	createPending(t, db, 2)

	run, err := svc.StartAnalysis(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	runner.Wait()

	var tickets []database.Ticket
	db.Find(&tickets)
	for _, ticket := range tickets {
		if ticket.Status != database.TicketStatusAnalyzed {
			t.Errorf("expected ticket %d analyzed, got %s", ticket.ID, ticket.Status)
		}
	}

	var analyses []database.TicketAnalysis
	db.Where("analysis_run_id = ?", run.ID).Find(&analyses)
	if len(analyses) != 2 {
		t.Fatalf("expected 2 analyses, got %d", len(analyses))
	}
	for _, a := range analyses {
		if a.Category != database.TicketCategoryBug || a.Priority != database.TicketPriorityMedium {
			t.Errorf("unexpected classification: %s/%s", a.Category, a.Priority)
		}
	}

	got, _ := database.GetRun(db, run.ID)
	if got.Summary != "Two bug reports, medium priority" {
		t.Errorf("expected adapter summary, got %q", got.Summary)
	}
}

func TestProcessRun_SummaryFallback(t *testing.T) {
	db := setupTestDB(t)
	svc, runner := newTestService(db, classifyAll(""))

	createPending(t, db, 2)

	run, err := svc.StartAnalysis(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	runner.Wait()

	got, _ := database.GetRun(db, run.ID)
	if got.Summary != "Analyzed 2 ticket(s)" {
		t.Errorf("expected fallback summary, got %q", got.Summary)
	}
}

func TestProcessRun_ClassifierFailure(t *testing.T) {
	db := setupTestDB(t)
	classifier := &fakeClassifier{err: errors.New("model unavailable")}
	svc, runner := newTestService(db, classifier)

	createPending(t, db, 2)

	run, err := svc.StartAnalysis(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	runner.Wait()

	var tickets []database.Ticket
	db.Find(&tickets)
	for _, ticket := range tickets {
		if ticket.Status != database.TicketStatusFailed {
			t.Errorf("expected ticket %d failed, got %s", ticket.ID, ticket.Status)
		}
	}

	got, _ := database.GetRun(db, run.ID)
	if !strings.HasPrefix(got.Summary, "Analysis failed:") {
		t.Errorf("expected 'Analysis failed:' summary, got %q", got.Summary)
	}
	if !strings.Contains(got.Summary, "model unavailable") {
		t.Errorf("expected summary to carry the error, got %q", got.Summary)
	}

	var analyses []database.TicketAnalysis
	db.Find(&analyses)
	if len(analyses) != 0 {
		t.Errorf("expected no analyses on failure, got %d", len(analyses))
	}

	// The runner dead-letters the processing error.
	failures := runner.Failures()
	if len(failures) != 1 {
		t.Fatalf("expected 1 recorded failure, got %d", len(failures))
	}
	if !strings.Contains(failures[0].Error, "model unavailable") {
		t.Errorf("expected failure to carry the error, got %q", failures[0].Error)
	}
}

func TestProcessRun_PartialResults(t *testing.T) {
	db := setupTestDB(t)

	// Classify every ticket except the first input.
	classifier := &fakeClassifier{}
	classifier.classify = func(tickets []TicketInput) (*BatchResult, error) {
		result := &BatchResult{Summary: "partial batch"}
		for _, ticket := range tickets[1:] {
			result.Classifications = append(result.Classifications, TicketClassification{
				Ref:      ticket.Ref,
				Category: database.TicketCategorySupport,
				Priority: database.TicketPriorityLow,
			})
		}
		return result, nil
	}
	svc, runner := newTestService(db, classifier)

	createPending(t, db, 3)

	run, err := svc.StartAnalysis(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	runner.Wait()

	var analyzed, failed int64
	db.Model(&database.Ticket{}).Where("status = ?", database.TicketStatusAnalyzed).Count(&analyzed)
	db.Model(&database.Ticket{}).Where("status = ?", database.TicketStatusFailed).Count(&failed)
	if analyzed != 2 {
		t.Errorf("expected 2 analyzed tickets, got %d", analyzed)
	}
	if failed != 1 {
		t.Errorf("expected 1 failed ticket, got %d", failed)
	}

	var analyses []database.TicketAnalysis
	db.Find(&analyses)
	if len(analyses) != 2 {
		t.Errorf("expected 2 analyses, got %d", len(analyses))
	}

	got, _ := database.GetRun(db, run.ID)
	if got.Summary != "partial batch, 1 failed" {
		t.Errorf("expected summary with failed suffix, got %q", got.Summary)
	}
}

func TestProcessRun_NoSuccessfulResults(t *testing.T) {
	db := setupTestDB(t)

	// A successful call that matched nothing.
	classifier := &fakeClassifier{result: &BatchResult{Summary: "ignored"}}
	svc, runner := newTestService(db, classifier)

	createPending(t, db, 2)

	run, err := svc.StartAnalysis(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	runner.Wait()

	got, _ := database.GetRun(db, run.ID)
	if !strings.HasPrefix(got.Summary, "Analysis completed with no successful results") {
		t.Errorf("expected no-results summary, got %q", got.Summary)
	}
	if !strings.Contains(got.Summary, "2 failed") {
		t.Errorf("expected failed suffix, got %q", got.Summary)
	}
}

func TestProcessRun_InvalidClassificationIsolated(t *testing.T) {
	db := setupTestDB(t)

	classifier := &fakeClassifier{}
	classifier.classify = func(tickets []TicketInput) (*BatchResult, error) {
		return &BatchResult{
			Classifications: []TicketClassification{
				{Ref: tickets[0].Ref, Category: "nonsense", Priority: database.TicketPriorityLow},
				{Ref: tickets[1].Ref, Category: database.TicketCategoryBilling, Priority: database.TicketPriorityHigh},
			},
		}, nil
	}
	svc, runner := newTestService(db, classifier)

	tickets := createPending(t, db, 2)

	_, err := svc.StartAnalysis(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	runner.Wait()

	var first, second database.Ticket
	db.First(&first, tickets[0].ID)
	db.First(&second, tickets[1].ID)
	if first.Status != database.TicketStatusFailed {
		t.Errorf("expected invalid classification to fail the ticket, got %s", first.Status)
	}
	if second.Status != database.TicketStatusAnalyzed {
		t.Errorf("expected valid classification to proceed, got %s", second.Status)
	}
}

func TestStartAnalysis_ConcurrentSubmissionsShareNothing(t *testing.T) {
	db := setupTestDB(t)

	classifier := classifyAll("")
	classifier.gate = make(chan struct{})
	svc, runner := newTestService(db, classifier)

	tickets := createPending(t, db, 1)

	first, err := svc.StartAnalysis([]uint{tickets[0].ID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Second submission for the same ticket must find nothing eligible.
	_, err = svc.StartAnalysis([]uint{tickets[0].ID})
	if !errors.Is(err, ErrNoEligibleTickets) {
		t.Errorf("expected ErrNoEligibleTickets, got %v", err)
	}

	close(classifier.gate)
	runner.Wait()

	ids, _ := database.GetRunTicketIDs(db, first.ID)
	if len(ids) != 1 {
		t.Errorf("expected the first run to own the ticket, got %v", ids)
	}
}

func TestProcessRun_NothingInFlight(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestService(db, classifyAll(""))

	run, err := database.CreateRun(db, "empty")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := svc.ProcessRun(ctx, run.ID); err != nil {
		t.Errorf("expected no-op for run with no processing tickets, got %v", err)
	}
}
