package dto

import (
	"time"

	"github.com/collabdoor/collabdoor-api/internal/models"
	"github.com/google/uuid"
)

type ApplyRequest struct {
	PartnershipType models.PartnershipType `json:"partnership_type"`
	Message         *string                `json:"message,omitempty"`
	OrganizationID  *uuid.UUID             `json:"organization_id,omitempty"`
}

type UpdateApplicationStatusRequest struct {
	Status models.ApplicationStatus `json:"status"`
}

type ApplicationResponse struct {
	ID              uuid.UUID                `json:"id"`
	ProjectID       uuid.UUID                `json:"project_id"`
	UserID          uuid.UUID                `json:"user_id"`
	OrganizationID  *uuid.UUID               `json:"organization_id,omitempty"`
	PartnershipType models.PartnershipType   `json:"partnership_type"`
	Status          models.ApplicationStatus `json:"status"`
	Message         *string                  `json:"message,omitempty"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
	User            *PublicUserResponse      `json:"user,omitempty"`
}

// ApplicationStatusResponse answers "have I applied to this project?".
type ApplicationStatusResponse struct {
	Applied     bool                 `json:"applied"`
	Application *ApplicationResponse `json:"application,omitempty"`
}

func NewApplicationResponse(a *models.Application) ApplicationResponse {
	return ApplicationResponse{
		ID:              a.ID,
		ProjectID:       a.ProjectID,
		UserID:          a.UserID,
		OrganizationID:  a.OrganizationID,
		PartnershipType: a.PartnershipType,
		Status:          a.Status,
		Message:         a.Message,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
		User:            NewPublicUser(a.User),
	}
}

func NewApplicationResponses(apps []models.Application) []ApplicationResponse {
	return mapSlice(apps, func(a models.Application) ApplicationResponse { return NewApplicationResponse(&a) })
}

func NewApplicationStatusResponse(a *models.Application) ApplicationStatusResponse {
	if a == nil {
		return ApplicationStatusResponse{}
	}
	resp := NewApplicationResponse(a)
	return ApplicationStatusResponse{Applied: true, Application: &resp}
}
