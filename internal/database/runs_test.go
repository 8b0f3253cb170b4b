package database

import (
	"errors"
	"testing"

	"gorm.io/gorm"
)

func TestCreateRun_AssignsUUID(t *testing.T) {
	db := setupTestDB(t)

	run, err := CreateRun(db, "Analyzing 2 ticket(s)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run.ID == 0 {
		t.Error("expected run ID to be assigned")
	}
	if run.UUID == "" {
		t.Error("expected run UUID to be assigned")
	}
	if run.Summary != "Analyzing 2 ticket(s)" {
		t.Errorf("expected summary 'Analyzing 2 ticket(s)', got %s", run.Summary)
	}
}

func TestGetRun_NotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := GetRun(db, 9999)
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestGetRun_PreloadsAnalyses(t *testing.T) {
	db := setupTestDB(t)

	ticket := Ticket{Title: "t", Description: "d", Status: TicketStatusAnalyzed}
	db.Create(&ticket)

	run, err := CreateRun(db, "s")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	db.Create(&TicketAnalysis{
		AnalysisRunID: run.ID,
		TicketID:      ticket.ID,
		Category:      TicketCategoryBug,
		Priority:      TicketPriorityHigh,
	})

	got, err := GetRun(db, run.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.TicketAnalyses) != 1 {
		t.Fatalf("expected 1 analysis, got %d", len(got.TicketAnalyses))
	}
	if got.TicketAnalyses[0].Ticket.ID != ticket.ID {
		t.Errorf("expected analysis to preload ticket %d", ticket.ID)
	}
}

func TestAddRunTickets_AndGetRunTicketIDs(t *testing.T) {
	db := setupTestDB(t)

	t1 := Ticket{Title: "t1", Description: "d"}
	t2 := Ticket{Title: "t2", Description: "d"}
	db.Create(&t1)
	db.Create(&t2)

	run, _ := CreateRun(db, "s")
	if err := AddRunTickets(db, run.ID, []uint{t1.ID, t2.ID}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ids, err := GetRunTicketIDs(db, run.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 ticket ids, got %d", len(ids))
	}
	if ids[0] != t1.ID || ids[1] != t2.ID {
		t.Errorf("expected ids [%d %d], got %v", t1.ID, t2.ID, ids)
	}
}

func TestListRuns_NewestFirst(t *testing.T) {
	db := setupTestDB(t)

	first, _ := CreateRun(db, "first")
	second, _ := CreateRun(db, "second")

	runs, total, err := ListRuns(db, 0, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 {
		t.Errorf("expected total 2, got %d", total)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != second.ID || runs[1].ID != first.ID {
		t.Errorf("expected newest first, got %d then %d", runs[0].ID, runs[1].ID)
	}
}

func TestUpdateRunSummary(t *testing.T) {
	db := setupTestDB(t)

	run, _ := CreateRun(db, "Analyzing 1 ticket(s)")
	if err := UpdateRunSummary(db, run.ID, "Analyzed 1 ticket(s)"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := GetRun(db, run.ID)
	if got.Summary != "Analyzed 1 ticket(s)" {
		t.Errorf("expected updated summary, got %s", got.Summary)
	}
}

func TestGetRunsWithProcessingTickets(t *testing.T) {
	db := setupTestDB(t)

	processing := Ticket{Title: "p", Description: "d", Status: TicketStatusProcessing}
	analyzed := Ticket{Title: "a", Description: "d", Status: TicketStatusAnalyzed}
	db.Create(&processing)
	db.Create(&analyzed)

	activeRun, _ := CreateRun(db, "active")
	AddRunTickets(db, activeRun.ID, []uint{processing.ID})

	doneRun, _ := CreateRun(db, "done")
	AddRunTickets(db, doneRun.ID, []uint{analyzed.ID})

	runs, err := GetRunsWithProcessingTickets(db)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 active run, got %d", len(runs))
	}
	if runs[0].ID != activeRun.ID {
		t.Errorf("expected run %d, got %d", activeRun.ID, runs[0].ID)
	}
}
