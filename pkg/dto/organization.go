package dto

import (
	"time"

	"github.com/collabdoor/collabdoor-api/internal/models"
	"github.com/google/uuid"
)

type CreateOrganizationRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

type UpdateOrganizationRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

type OrganizationResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Role        string    `json:"role,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type OrganizationMemberResponse struct {
	UserID   uuid.UUID `json:"user_id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

type JoinRequestRequest struct {
	Message *string `json:"message,omitempty"`
}

type JoinRequestResponse struct {
	ID             uuid.UUID           `json:"id"`
	OrganizationID uuid.UUID           `json:"organization_id"`
	UserID         uuid.UUID           `json:"user_id"`
	Message        *string             `json:"message,omitempty"`
	Status         string              `json:"status"`
	CreatedAt      time.Time           `json:"created_at"`
	User           *PublicUserResponse `json:"user,omitempty"`
}

func NewOrganizationResponse(o *models.Organization, role string) OrganizationResponse {
	return OrganizationResponse{
		ID:          o.ID,
		Name:        o.Name,
		Description: o.Description,
		OwnerID:     o.OwnerID,
		Role:        role,
		CreatedAt:   o.CreatedAt,
	}
}

func NewOrganizationMemberResponses(members []models.OrganizationMember) []OrganizationMemberResponse {
	return mapSlice(members, func(m models.OrganizationMember) OrganizationMemberResponse {
		resp := OrganizationMemberResponse{UserID: m.UserID, Role: m.Role, JoinedAt: m.CreatedAt}
		if m.User != nil {
			resp.Name = m.User.Name
			resp.Email = m.User.Email
		}
		return resp
	})
}

func NewJoinRequestResponse(r *models.JoinRequest) JoinRequestResponse {
	return JoinRequestResponse{
		ID:             r.ID,
		OrganizationID: r.OrganizationID,
		UserID:         r.UserID,
		Message:        r.Message,
		Status:         r.Status,
		CreatedAt:      r.CreatedAt,
		User:           NewPublicUser(r.User),
	}
}

func NewJoinRequestResponses(requests []models.JoinRequest) []JoinRequestResponse {
	return mapSlice(requests, func(r models.JoinRequest) JoinRequestResponse { return NewJoinRequestResponse(&r) })
}
