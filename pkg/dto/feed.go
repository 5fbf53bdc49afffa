package dto

import (
	"time"

	"github.com/collabdoor/collabdoor-api/internal/models"
	"github.com/google/uuid"
)

type CreatePostRequest struct {
	Content         string      `json:"content"`
	ImageURL        *string     `json:"image_url,omitempty"`
	OrganizationIDs []uuid.UUID `json:"organization_ids,omitempty"`
}

type CreateCommentRequest struct {
	Content string `json:"content"`
}

type PostResponse struct {
	ID              uuid.UUID           `json:"id"`
	Content         string              `json:"content"`
	ImageURL        *string             `json:"image_url,omitempty"`
	OrganizationIDs []uuid.UUID         `json:"organization_ids"`
	LikeCount       int                 `json:"like_count"`
	CommentCount    int                 `json:"comment_count"`
	Liked           bool                `json:"liked"`
	Author          *PublicUserResponse `json:"author,omitempty"`
	AuthorID        uuid.UUID           `json:"author_id"`
	CreatedAt       time.Time           `json:"created_at"`
}

type CommentResponse struct {
	ID        uuid.UUID           `json:"id"`
	PostID    uuid.UUID           `json:"post_id"`
	Content   string              `json:"content"`
	AuthorID  uuid.UUID           `json:"author_id"`
	Author    *PublicUserResponse `json:"author,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

type LikeResponse struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
}

func NewPostResponse(p *models.FeedPost) PostResponse {
	orgs := p.OrganizationIDs
	if orgs == nil {
		orgs = []uuid.UUID{}
	}
	return PostResponse{
		ID:              p.ID,
		Content:         p.Content,
		ImageURL:        p.ImageURL,
		OrganizationIDs: orgs,
		LikeCount:       p.LikeCount,
		CommentCount:    p.CommentCount,
		Liked:           p.LikedByViewer,
		Author:          NewPublicUser(p.Author),
		AuthorID:        p.AuthorID,
		CreatedAt:       p.CreatedAt,
	}
}

func NewPostResponses(posts []models.FeedPost) []PostResponse {
	return mapSlice(posts, func(p models.FeedPost) PostResponse { return NewPostResponse(&p) })
}

func NewCommentResponse(c *models.FeedComment) CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		PostID:    c.PostID,
		Content:   c.Content,
		AuthorID:  c.AuthorID,
		Author:    NewPublicUser(c.Author),
		CreatedAt: c.CreatedAt,
	}
}

func NewCommentResponses(comments []models.FeedComment) []CommentResponse {
	return mapSlice(comments, func(c models.FeedComment) CommentResponse { return NewCommentResponse(&c) })
}
