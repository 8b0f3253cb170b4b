package database

import (
	"time"
)

// TicketStatus represents the lifecycle status of a ticket
type TicketStatus string

const (
	TicketStatusPending    TicketStatus = "pending"
	TicketStatusProcessing TicketStatus = "processing"
	TicketStatusAnalyzed   TicketStatus = "analyzed"
	TicketStatusFailed     TicketStatus = "failed"
)

// ValidTicketStatuses returns all ticket statuses accepted by the list filter
func ValidTicketStatuses() []TicketStatus {
	return []TicketStatus{
		TicketStatusPending,
		TicketStatusProcessing,
		TicketStatusAnalyzed,
		TicketStatusFailed,
	}
}

// IsValidTicketStatus reports whether s is a known ticket status
func IsValidTicketStatus(s string) bool {
	for _, v := range ValidTicketStatuses() {
		if string(v) == s {
			return true
		}
	}
	return false
}

// TicketCategory is the classification category assigned by the analyzer
type TicketCategory string

const (
	TicketCategoryBilling        TicketCategory = "billing"
	TicketCategoryBug            TicketCategory = "bug"
	TicketCategoryFeatureRequest TicketCategory = "feature_request"
	TicketCategorySupport        TicketCategory = "support"
	TicketCategoryTechnical      TicketCategory = "technical"
	TicketCategoryAccount        TicketCategory = "account"
)

// IsValid reports whether the category is one of the known values
func (c TicketCategory) IsValid() bool {
	switch c {
	case TicketCategoryBilling, TicketCategoryBug, TicketCategoryFeatureRequest,
		TicketCategorySupport, TicketCategoryTechnical, TicketCategoryAccount:
		return true
	}
	return false
}

// TicketPriority is the priority assigned by the analyzer
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
)

// IsValid reports whether the priority is one of the known values
func (p TicketPriority) IsValid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh:
		return true
	}
	return false
}

// RunStatus is the derived status of an analysis run. It is never stored;
// it is folded from the statuses of the run's member tickets.
type RunStatus string

const (
	RunStatusPending    RunStatus = "pending"
	RunStatusProcessing RunStatus = "processing"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusFailed     RunStatus = "failed"
)

// Ticket represents a submitted support ticket
type Ticket struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Title       string       `gorm:"type:varchar(255);not null" json:"title"`
	Description string       `gorm:"type:text;not null" json:"description"`
	Status      TicketStatus `gorm:"type:varchar(50);not null;default:'pending';index" json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`

	// Relationships
	Analyses []TicketAnalysis `gorm:"foreignKey:TicketID;constraint:OnDelete:CASCADE" json:"analyses,omitempty"`
}

func (Ticket) TableName() string {
	return "tickets"
}

// AnalysisRun represents one batch invocation of the analysis pipeline.
// Its status is derived from member ticket statuses, not stored.
type AnalysisRun struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UUID      string    `gorm:"uniqueIndex;size:36;not null" json:"uuid"`
	Summary   string    `gorm:"type:text" json:"summary"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships - the run owns its analyses and membership rows
	TicketAnalyses []TicketAnalysis  `gorm:"foreignKey:AnalysisRunID;constraint:OnDelete:CASCADE" json:"ticket_analyses"`
	Members        []AnalysisRunTicket `gorm:"foreignKey:AnalysisRunID;constraint:OnDelete:CASCADE" json:"-"`
}

func (AnalysisRun) TableName() string {
	return "analysis_runs"
}

// TicketAnalysis is one successful classification of a ticket within a run
type TicketAnalysis struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	AnalysisRunID uint           `gorm:"not null;index" json:"analysis_run_id"`
	TicketID      uint           `gorm:"not null;index" json:"ticket_id"`
	Category      TicketCategory `gorm:"type:varchar(100);not null" json:"category"`
	Priority      TicketPriority `gorm:"type:varchar(50);not null" json:"priority"`
	Notes         string         `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`

	// Relationships
	Ticket Ticket `gorm:"foreignKey:TicketID" json:"ticket,omitempty"`
}

func (TicketAnalysis) TableName() string {
	return "ticket_analyses"
}

// AnalysisRunTicket records which tickets were selected into a run. Rows are
// created at selection time, before background dispatch, so run membership is
// known even while tickets are still in flight and no TicketAnalysis rows
// exist yet.
type AnalysisRunTicket struct {
	AnalysisRunID uint      `gorm:"primaryKey" json:"analysis_run_id"`
	TicketID      uint      `gorm:"primaryKey" json:"ticket_id"`
	CreatedAt     time.Time `json:"created_at"`
}

func (AnalysisRunTicket) TableName() string {
	return "analysis_run_tickets"
}
