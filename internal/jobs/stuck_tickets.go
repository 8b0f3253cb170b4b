package jobs

import (
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/triagedesk/triagedesk/internal/database"
)

// StuckTicketSweep periodically fails tickets left in processing status for
// too long. A background analysis that dies before its error path runs (for
// example on process exit) leaves its tickets processing forever; because
// run status is derived from ticket statuses, failing the tickets is enough
// to surface the run as failed.
type StuckTicketSweep struct {
	db       *gorm.DB
	maxAge   time.Duration
	interval time.Duration
}

// NewStuckTicketSweep creates a sweep that fails tickets processing for
// longer than maxAge, checking every interval
func NewStuckTicketSweep(db *gorm.DB, maxAge, interval time.Duration) *StuckTicketSweep {
	return &StuckTicketSweep{
		db:       db,
		maxAge:   maxAge,
		interval: interval,
	}
}

// Run executes one sweep iteration. Returns the number of tickets failed.
func (j *StuckTicketSweep) Run() (int, error) {
	cutoff := time.Now().Add(-j.maxAge)

	res := j.db.Model(&database.Ticket{}).
		Where("status = ? AND updated_at < ?", database.TicketStatusProcessing, cutoff).
		Update("status", database.TicketStatusFailed)
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}

// Start begins the periodic sweep. It returns when stop is closed.
func (j *StuckTicketSweep) Start(stop <-chan struct{}) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			failed, err := j.Run()
			if err != nil {
				log.Printf("Stuck ticket sweep error: %v", err)
			} else if failed > 0 {
				log.Printf("Stuck ticket sweep: failed %d ticket(s) stuck in processing", failed)
			}

		case <-stop:
			log.Println("Stuck ticket sweep stopped")
			return
		}
	}
}
