package dto

import (
	"time"

	"github.com/collabdoor/collabdoor-api/internal/models"
	"github.com/google/uuid"
)

type SubmitReviewRequest struct {
	RevieweeID uuid.UUID `json:"reviewee_id"`
	Rating     int       `json:"rating"`
	Comment    *string   `json:"comment,omitempty"`
}

type SkipReviewRequest struct {
	RevieweeID uuid.UUID `json:"reviewee_id"`
}

type ReviewResponse struct {
	ID                uuid.UUID `json:"id"`
	ProjectID         uuid.UUID `json:"project_id"`
	ReviewerID        uuid.UUID `json:"reviewer_id"`
	RevieweeID        uuid.UUID `json:"reviewee_id"`
	Rating            int       `json:"rating"`
	Comment           *string   `json:"comment,omitempty"`
	IsOrganizerReview bool      `json:"is_organizer_review"`
	CreatedAt         time.Time `json:"created_at"`
}

type PendingReviewResponse struct {
	ProjectID  uuid.UUID           `json:"project_id"`
	RevieweeID uuid.UUID           `json:"reviewee_id"`
	Position   int                 `json:"position"`
	Reviewee   *PublicUserResponse `json:"reviewee,omitempty"`
}

func NewReviewResponse(r *models.Review) ReviewResponse {
	return ReviewResponse{
		ID:                r.ID,
		ProjectID:         r.ProjectID,
		ReviewerID:        r.ReviewerID,
		RevieweeID:        r.RevieweeID,
		Rating:            r.Rating,
		Comment:           r.Comment,
		IsOrganizerReview: r.IsOrganizerReview,
		CreatedAt:         r.CreatedAt,
	}
}

func NewReviewResponses(reviews []models.Review) []ReviewResponse {
	return mapSlice(reviews, func(r models.Review) ReviewResponse { return NewReviewResponse(&r) })
}

func NewPendingReviewResponses(queue []models.PendingReview) []PendingReviewResponse {
	return mapSlice(queue, func(p models.PendingReview) PendingReviewResponse {
		return PendingReviewResponse{
			ProjectID:  p.ProjectID,
			RevieweeID: p.RevieweeID,
			Position:   p.Position,
			Reviewee:   NewPublicUser(p.Reviewee),
		}
	})
}
