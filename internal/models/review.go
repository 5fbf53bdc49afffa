package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	MinRating = 1
	MaxRating = 5
)

type Review struct {
	ID                uuid.UUID `json:"id"`
	ProjectID         uuid.UUID `json:"project_id"`
	ReviewerID        uuid.UUID `json:"reviewer_id"`
	RevieweeID        uuid.UUID `json:"reviewee_id"`
	Rating            int       `json:"rating"`
	Comment           *string   `json:"comment,omitempty"`
	IsOrganizerReview bool      `json:"is_organizer_review"`
	CreatedAt         time.Time `json:"created_at"`
}

type PendingReviewStatus string

const (
	PendingReviewPending   PendingReviewStatus = "pending"
	PendingReviewSubmitted PendingReviewStatus = "submitted"
	PendingReviewSkipped   PendingReviewStatus = "skipped"
)

// PendingReview is one entry of a reviewer's persisted queue for a completed project.
type PendingReview struct {
	ID         uuid.UUID           `json:"id"`
	ProjectID  uuid.UUID           `json:"project_id"`
	ReviewerID uuid.UUID           `json:"reviewer_id"`
	RevieweeID uuid.UUID           `json:"reviewee_id"`
	Position   int                 `json:"position"`
	Status     PendingReviewStatus `json:"status"`
	CreatedAt  time.Time           `json:"created_at"`
	Reviewee   *User               `json:"reviewee,omitempty"`
}

type ReviewSummary struct {
	UserID        uuid.UUID `json:"user_id"`
	Count         int       `json:"count"`
	AverageRating float64   `json:"average_rating"`
}
