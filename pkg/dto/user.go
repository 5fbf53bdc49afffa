package dto

import (
	"github.com/collabdoor/collabdoor-api/internal/models"
	"github.com/ecodeclub/ekit/slice"
	"github.com/google/uuid"
)

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	Provider  string    `json:"provider"`
}

type UpdateUserRequest struct {
	Name string `json:"name"`
}

// PublicUserResponse is what other users see; it leaves out the e-mail address.
type PublicUserResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
}

type UserReviewsResponse struct {
	UserID        uuid.UUID        `json:"user_id"`
	Count         int              `json:"count"`
	AverageRating float64          `json:"average_rating"`
	Reviews       []ReviewResponse `json:"reviews"`
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		AvatarURL: u.AvatarURL,
		Provider:  u.Provider,
	}
}

func NewPublicUser(u *models.User) *PublicUserResponse {
	if u == nil {
		return nil
	}
	return &PublicUserResponse{ID: u.ID, Name: u.Name, AvatarURL: u.AvatarURL}
}

func NewUserReviewsResponse(summary *models.ReviewSummary, reviews []models.Review) UserReviewsResponse {
	return UserReviewsResponse{
		UserID:        summary.UserID,
		Count:         summary.Count,
		AverageRating: summary.AverageRating,
		Reviews:       NewReviewResponses(reviews),
	}
}

func mapSlice[S, D any](src []S, fn func(S) D) []D {
	if len(src) == 0 {
		return []D{}
	}
	return slice.Map(src, func(_ int, s S) D { return fn(s) })
}
