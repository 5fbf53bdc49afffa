package models

import (
	"time"

	"github.com/google/uuid"
)

type PhaseStatus string

const (
	PhaseStatusNotStarted PhaseStatus = "not-started"
	PhaseStatusInProgress PhaseStatus = "in-progress"
	PhaseStatusCompleted  PhaseStatus = "completed"
)

func (s PhaseStatus) Valid() bool {
	switch s {
	case PhaseStatusNotStarted, PhaseStatusInProgress, PhaseStatusCompleted:
		return true
	}
	return false
}

type Phase struct {
	ID            uuid.UUID   `json:"id"`
	ProjectID     uuid.UUID   `json:"project_id"`
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	Status        PhaseStatus `json:"status"`
	DueDate       *time.Time  `json:"due_date,omitempty"`
	CompletedDate *time.Time  `json:"completed_date,omitempty"`
	Order         int         `json:"order"`
	TemplateKey   *string     `json:"template_key,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}
