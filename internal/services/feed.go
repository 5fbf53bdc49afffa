package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/collabdoor/collabdoor-api/internal/database"
	"github.com/collabdoor/collabdoor-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrPostNotFound          = errors.New("post not found")
	ErrCommentNotFound       = errors.New("comment not found")
	ErrNotAuthor             = errors.New("only the author can delete this")
	ErrContentRequired       = errors.New("content is required")
	ErrNotOrganizationMember = errors.New("not a member of every tagged organization")
)

const (
	defaultFeedLimit = 20
	maxFeedLimit     = 100
)

type FeedService struct {
	db *database.DB
}

func NewFeedService(db *database.DB) *FeedService {
	return &FeedService{db: db}
}

// CreatePost publishes a post, tagged with organizations the author belongs to.
func (s *FeedService) CreatePost(ctx context.Context, authorID uuid.UUID, content string, imageURL *string, organizationIDs []uuid.UUID) (*models.FeedPost, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrContentRequired
	}
	orgs := uniqueIDs(organizationIDs)

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if len(orgs) > 0 {
		var memberships int
		err := tx.QueryRow(ctx, `
			SELECT COUNT(*) FROM organization_members
			WHERE user_id = $1 AND organization_id = ANY($2)
		`, authorID, orgs).Scan(&memberships)
		if err != nil {
			return nil, fmt.Errorf("failed to check memberships: %w", err)
		}
		if memberships != len(orgs) {
			return nil, ErrNotOrganizationMember
		}
	}

	var post models.FeedPost
	err = tx.QueryRow(ctx, `
		INSERT INTO feed_posts (author_id, content, image_url)
		VALUES ($1, $2, $3)
		RETURNING id, author_id, content, image_url, created_at, updated_at
	`, authorID, content, imageURL).Scan(&post.ID, &post.AuthorID, &post.Content, &post.ImageURL, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	if len(orgs) > 0 {
		_, err = tx.Exec(ctx, `
			INSERT INTO feed_post_organizations (post_id, organization_id)
			SELECT $1, organization_id FROM unnest($2::uuid[]) AS organization_id
		`, post.ID, orgs)
		if err != nil {
			return nil, fmt.Errorf("failed to tag organizations: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	post.OrganizationIDs = orgs
	return &post, nil
}

// ListPosts returns the newest posts with counters and whether viewerID liked
// each one. A nil organizationID lists the whole feed.
func (s *FeedService) ListPosts(ctx context.Context, viewerID uuid.UUID, organizationID *uuid.UUID, limit, offset int) ([]models.FeedPost, error) {
	if limit <= 0 {
		limit = defaultFeedLimit
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.Pool.Query(ctx, `
		SELECT p.id, p.author_id, p.content, p.image_url, p.created_at, p.updated_at,
		       (SELECT COUNT(*) FROM feed_likes l WHERE l.post_id = p.id),
		       (SELECT COUNT(*) FROM feed_comments c WHERE c.post_id = p.id),
		       EXISTS(SELECT 1 FROM feed_likes l WHERE l.post_id = p.id AND l.user_id = $1),
		       COALESCE((SELECT array_agg(o.organization_id) FROM feed_post_organizations o WHERE o.post_id = p.id), '{}'),
		       u.id, u.email, u.name, u.avatar_url, u.provider, u.created_at, u.updated_at
		FROM feed_posts p
		JOIN users u ON p.author_id = u.id
		WHERE $2::uuid IS NULL
		   OR EXISTS(SELECT 1 FROM feed_post_organizations o WHERE o.post_id = p.id AND o.organization_id = $2)
		ORDER BY p.created_at DESC
		LIMIT $3 OFFSET $4
	`, viewerID, organizationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts := []models.FeedPost{}
	for rows.Next() {
		var p models.FeedPost
		var u models.User
		if err := rows.Scan(
			&p.ID, &p.AuthorID, &p.Content, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt,
			&p.LikeCount, &p.CommentCount, &p.LikedByViewer, &p.OrganizationIDs,
			&u.ID, &u.Email, &u.Name, &u.AvatarURL, &u.Provider, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		p.Author = &u
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (s *FeedService) DeletePost(ctx context.Context, postID, userID uuid.UUID) error {
	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM feed_posts WHERE id = $1 AND author_id = $2`, postID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	return s.missingOrForeign(ctx, `SELECT EXISTS(SELECT 1 FROM feed_posts WHERE id = $1)`, postID, ErrPostNotFound)
}

// ToggleLike likes the post, or removes the like when the user already liked
// it, and returns the resulting state with the post's like count.
func (s *FeedService) ToggleLike(ctx context.Context, postID, userID uuid.UUID) (bool, int, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return false, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `DELETE FROM feed_likes WHERE post_id = $1 AND user_id = $2`, postID, userID)
	if err != nil {
		return false, 0, fmt.Errorf("failed to unlike post: %w", err)
	}

	liked := false
	if tag.RowsAffected() == 0 {
		_, err = tx.Exec(ctx, `
			INSERT INTO feed_likes (post_id, user_id) VALUES ($1, $2)
			ON CONFLICT (post_id, user_id) DO NOTHING
		`, postID, userID)
		if database.IsForeignKeyViolation(err) {
			return false, 0, ErrPostNotFound
		}
		if err != nil {
			return false, 0, fmt.Errorf("failed to like post: %w", err)
		}
		liked = true
	}

	var count int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM feed_likes WHERE post_id = $1`, postID).Scan(&count); err != nil {
		return false, 0, fmt.Errorf("failed to count likes: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return liked, count, nil
}

func (s *FeedService) AddComment(ctx context.Context, postID, authorID uuid.UUID, content string) (*models.FeedComment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrContentRequired
	}

	var c models.FeedComment
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO feed_comments (post_id, author_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, post_id, author_id, content, created_at
	`, postID, authorID, content).Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Content, &c.CreatedAt)
	if database.IsForeignKeyViolation(err) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}
	return &c, nil
}

func (s *FeedService) ListComments(ctx context.Context, postID uuid.UUID) ([]models.FeedComment, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT c.id, c.post_id, c.author_id, c.content, c.created_at,
		       u.id, u.email, u.name, u.avatar_url, u.provider, u.created_at, u.updated_at
		FROM feed_comments c
		JOIN users u ON c.author_id = u.id
		WHERE c.post_id = $1
		ORDER BY c.created_at
	`, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := []models.FeedComment{}
	for rows.Next() {
		var c models.FeedComment
		var u models.User
		if err := rows.Scan(
			&c.ID, &c.PostID, &c.AuthorID, &c.Content, &c.CreatedAt,
			&u.ID, &u.Email, &u.Name, &u.AvatarURL, &u.Provider, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		c.Author = &u
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (s *FeedService) DeleteComment(ctx context.Context, commentID, userID uuid.UUID) error {
	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM feed_comments WHERE id = $1 AND author_id = $2`, commentID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	return s.missingOrForeign(ctx, `SELECT EXISTS(SELECT 1 FROM feed_comments WHERE id = $1)`, commentID, ErrCommentNotFound)
}

// missingOrForeign explains a delete that matched nothing: the row is gone, or
// it belongs to someone else.
func (s *FeedService) missingOrForeign(ctx context.Context, existsSQL string, id uuid.UUID, notFound error) error {
	var exists bool
	err := s.db.Pool.QueryRow(ctx, existsSQL, id).Scan(&exists)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	if !exists {
		return notFound
	}
	return ErrNotAuthor
}
