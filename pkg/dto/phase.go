package dto

import (
	"time"

	"github.com/collabdoor/collabdoor-api/internal/models"
	"github.com/google/uuid"
)

type CreatePhaseRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Order       *int       `json:"order,omitempty"`
}

type UpdatePhaseRequest struct {
	Title       *string             `json:"title,omitempty"`
	Description *string             `json:"description,omitempty"`
	DueDate     *time.Time          `json:"due_date,omitempty"`
	Status      *models.PhaseStatus `json:"status,omitempty"`
}

type PhaseResponse struct {
	ID            uuid.UUID          `json:"id"`
	ProjectID     uuid.UUID          `json:"project_id"`
	Title         string             `json:"title"`
	Description   string             `json:"description"`
	Status        models.PhaseStatus `json:"status"`
	DueDate       *time.Time         `json:"due_date,omitempty"`
	CompletedDate *time.Time         `json:"completed_date,omitempty"`
	Order         int                `json:"order"`
}

func NewPhaseResponse(p *models.Phase) PhaseResponse {
	return PhaseResponse{
		ID:            p.ID,
		ProjectID:     p.ProjectID,
		Title:         p.Title,
		Description:   p.Description,
		Status:        p.Status,
		DueDate:       p.DueDate,
		CompletedDate: p.CompletedDate,
		Order:         p.Order,
	}
}

func NewPhaseResponses(phases []models.Phase) []PhaseResponse {
	return mapSlice(phases, func(p models.Phase) PhaseResponse { return NewPhaseResponse(&p) })
}
