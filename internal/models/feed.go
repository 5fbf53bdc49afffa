package models

import (
	"time"

	"github.com/google/uuid"
)

type FeedPost struct {
	ID              uuid.UUID   `json:"id"`
	AuthorID        uuid.UUID   `json:"author_id"`
	Content         string      `json:"content"`
	ImageURL        *string     `json:"image_url,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
	LikeCount       int         `json:"like_count"`
	CommentCount    int         `json:"comment_count"`
	LikedByViewer   bool        `json:"liked_by_viewer"`
	OrganizationIDs []uuid.UUID `json:"organization_ids,omitempty"`
	Author          *User       `json:"author,omitempty"`
}

type FeedComment struct {
	ID        uuid.UUID `json:"id"`
	PostID    uuid.UUID `json:"post_id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Author    *User     `json:"author,omitempty"`
}
