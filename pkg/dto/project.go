package dto

import (
	"time"

	"github.com/collabdoor/collabdoor-api/internal/models"
	"github.com/google/uuid"
)

type CreateProjectRequest struct {
	Title            string                   `json:"title"`
	Description      string                   `json:"description"`
	OrganizationID   *uuid.UUID               `json:"organization_id,omitempty"`
	PartnershipTypes []models.PartnershipType `json:"partnership_types"`
}

type UpdateProjectRequest struct {
	Title            *string                  `json:"title,omitempty"`
	Description      *string                  `json:"description,omitempty"`
	PartnershipTypes []models.PartnershipType `json:"partnership_types,omitempty"`
}

type UpdateProjectStatusRequest struct {
	Status models.ProjectStatus `json:"status"`
}

type ProjectResponse struct {
	ID               uuid.UUID                `json:"id"`
	Title            string                   `json:"title"`
	Description      string                   `json:"description"`
	OrganizerID      uuid.UUID                `json:"organizer_id"`
	OrganizationID   *uuid.UUID               `json:"organization_id,omitempty"`
	Status           models.ProjectStatus     `json:"status"`
	PartnershipTypes []models.PartnershipType `json:"partnership_types"`
	CompletedAt      *time.Time               `json:"completed_at,omitempty"`
	CreatedAt        time.Time                `json:"created_at"`
	UpdatedAt        time.Time                `json:"updated_at"`
}

type ProjectOverviewResponse struct {
	Project      ProjectResponse       `json:"project"`
	Phases       []PhaseResponse       `json:"phases"`
	Applications []ApplicationResponse `json:"applications"`
}

func NewProjectResponse(p *models.Project) ProjectResponse {
	types := p.PartnershipTypes
	if types == nil {
		types = []models.PartnershipType{}
	}
	return ProjectResponse{
		ID:               p.ID,
		Title:            p.Title,
		Description:      p.Description,
		OrganizerID:      p.OrganizerID,
		OrganizationID:   p.OrganizationID,
		Status:           p.Status,
		PartnershipTypes: types,
		CompletedAt:      p.CompletedAt,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func NewProjectResponses(projects []models.Project) []ProjectResponse {
	return mapSlice(projects, func(p models.Project) ProjectResponse { return NewProjectResponse(&p) })
}

func NewProjectOverviewResponse(o *models.ProjectOverview) ProjectOverviewResponse {
	return ProjectOverviewResponse{
		Project:      NewProjectResponse(o.Project),
		Phases:       NewPhaseResponses(o.Phases),
		Applications: NewApplicationResponses(o.Applications),
	}
}
