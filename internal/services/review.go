package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/collabdoor/collabdoor-api/internal/cache"
	"github.com/collabdoor/collabdoor-api/internal/database"
	"github.com/collabdoor/collabdoor-api/internal/logger"
	"github.com/collabdoor/collabdoor-api/internal/metrics"
	"github.com/collabdoor/collabdoor-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrInvalidRating         = errors.New("rating must be between 1 and 5")
	ErrProjectNotCompleted   = errors.New("project is not completed")
	ErrNotParticipant        = errors.New("reviewer and reviewee must be the organizer and an approved partner of the project")
	ErrAlreadyReviewed       = errors.New("review already submitted")
	ErrPendingReviewNotFound = errors.New("pending review not found")
	ErrSelfReview            = errors.New("cannot review yourself")
)

const reviewColumns = `id, project_id, reviewer_id, reviewee_id, rating, comment, is_organizer_review, created_at`

type ReviewService struct {
	db       *database.DB
	cache    cache.QueryCache
	notifier Notifier
	now      func() time.Time
	log      *slog.Logger
}

func NewReviewService(db *database.DB, qc cache.QueryCache, notifier Notifier) *ReviewService {
	if qc == nil {
		qc = cache.Noop{}
	}
	return &ReviewService{
		db:       db,
		cache:    qc,
		notifier: notifier,
		now:      time.Now,
		log:      logger.WithService("reviews"),
	}
}

func scanReview(row pgx.Row) (*models.Review, error) {
	var r models.Review
	err := row.Scan(&r.ID, &r.ProjectID, &r.ReviewerID, &r.RevieweeID, &r.Rating, &r.Comment, &r.IsOrganizerReview, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// SeedQueue queues the review round of a completed project: the organizer
// reviews every approved partner in approval order, and each partner reviews
// the organizer.
func (s *ReviewService) SeedQueue(ctx context.Context, q database.Querier, projectID, organizerID uuid.UUID) (int, error) {
	rows, err := q.Query(ctx, `
		SELECT user_id FROM project_applications
		WHERE project_id = $1 AND status = $2 AND user_id <> $3
		ORDER BY updated_at, created_at
	`, projectID, models.ApplicationStatusApproved, organizerID)
	if err != nil {
		return 0, fmt.Errorf("failed to load partners: %w", err)
	}
	var partners []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan partner: %w", err)
		}
		partners = append(partners, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to load partners: %w", err)
	}

	queued := 0
	enqueue := func(reviewer, reviewee uuid.UUID, position int) error {
		tag, err := q.Exec(ctx, `
			INSERT INTO pending_reviews (project_id, reviewer_id, reviewee_id, position, status)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (project_id, reviewer_id, reviewee_id) DO NOTHING
		`, projectID, reviewer, reviewee, position, models.PendingReviewPending)
		if err != nil {
			return fmt.Errorf("failed to queue review: %w", err)
		}
		queued += int(tag.RowsAffected())
		return nil
	}

	for i, partner := range partners {
		if err := enqueue(organizerID, partner, i); err != nil {
			return 0, err
		}
	}
	for _, partner := range partners {
		if err := enqueue(partner, organizerID, 0); err != nil {
			return 0, err
		}
	}
	return queued, nil
}

// Queue returns the reviewer's outstanding reviews for a project; the first is current.
func (s *ReviewService) Queue(ctx context.Context, projectID, reviewerID uuid.UUID) ([]models.PendingReview, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT pr.id, pr.project_id, pr.reviewer_id, pr.reviewee_id, pr.position, pr.status, pr.created_at,
		       u.id, u.email, u.name, u.avatar_url, u.provider, u.created_at, u.updated_at
		FROM pending_reviews pr
		JOIN users u ON pr.reviewee_id = u.id
		WHERE pr.project_id = $1 AND pr.reviewer_id = $2 AND pr.status = $3
		ORDER BY pr.position, pr.created_at
	`, projectID, reviewerID, models.PendingReviewPending)
	if err != nil {
		return nil, fmt.Errorf("failed to load review queue: %w", err)
	}
	defer rows.Close()

	queue := []models.PendingReview{}
	for rows.Next() {
		var pr models.PendingReview
		var u models.User
		if err := rows.Scan(
			&pr.ID, &pr.ProjectID, &pr.ReviewerID, &pr.RevieweeID, &pr.Position, &pr.Status, &pr.CreatedAt,
			&u.ID, &u.Email, &u.Name, &u.AvatarURL, &u.Provider, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan pending review: %w", err)
		}
		pr.Reviewee = &u
		queue = append(queue, pr)
	}
	return queue, rows.Err()
}

func (s *ReviewService) Submit(ctx context.Context, projectID, reviewerID, revieweeID uuid.UUID, rating int, comment *string) (*models.Review, error) {
	if rating < models.MinRating || rating > models.MaxRating {
		return nil, ErrInvalidRating
	}
	if reviewerID == revieweeID {
		return nil, ErrSelfReview
	}

	var (
		organizerID uuid.UUID
		title       string
		status      models.ProjectStatus
	)
	err := s.db.Pool.QueryRow(ctx, `
		SELECT organizer_id, title, status FROM projects WHERE id = $1
	`, projectID).Scan(&organizerID, &title, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	if status != models.ProjectStatusCompleted {
		return nil, ErrProjectNotCompleted
	}

	isOrganizerReview := reviewerID == organizerID
	partnerID := reviewerID
	if isOrganizerReview {
		partnerID = revieweeID
	} else if revieweeID != organizerID {
		return nil, ErrNotParticipant
	}

	var approved bool
	err = s.db.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM project_applications WHERE project_id = $1 AND user_id = $2 AND status = $3)
	`, projectID, partnerID, models.ApplicationStatusApproved).Scan(&approved)
	if err != nil {
		return nil, fmt.Errorf("failed to check participant: %w", err)
	}
	if !approved {
		return nil, ErrNotParticipant
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	review, err := scanReview(tx.QueryRow(ctx, `
		INSERT INTO reviews (project_id, reviewer_id, reviewee_id, rating, comment, is_organizer_review)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+reviewColumns,
		projectID, reviewerID, revieweeID, rating, comment, isOrganizerReview))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrAlreadyReviewed
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE pending_reviews SET status = $4, updated_at = NOW()
		WHERE project_id = $1 AND reviewer_id = $2 AND reviewee_id = $3
	`, projectID, reviewerID, revieweeID, models.PendingReviewSubmitted)
	if err != nil {
		return nil, fmt.Errorf("failed to update review queue: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	metrics.ReviewsSubmitted.Inc()
	if err := s.cache.Invalidate(ctx, cache.ReviewSummaryKey(revieweeID)); err != nil {
		s.log.Warn("failed to invalidate review summary", "user_id", revieweeID, "error", err)
	}
	if s.notifier != nil {
		s.notifier.NotifyReviewReceived(ctx, revieweeID, projectID, title)
	}
	return review, nil
}

func (s *ReviewService) Skip(ctx context.Context, projectID, reviewerID, revieweeID uuid.UUID) error {
	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE pending_reviews SET status = $4, updated_at = NOW()
		WHERE project_id = $1 AND reviewer_id = $2 AND reviewee_id = $3 AND status = $5
	`, projectID, reviewerID, revieweeID, models.PendingReviewSkipped, models.PendingReviewPending)
	if err != nil {
		return fmt.Errorf("failed to skip review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPendingReviewNotFound
	}
	return nil
}

func (s *ReviewService) ListForUser(ctx context.Context, revieweeID uuid.UUID) ([]models.Review, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+reviewColumns+`
		FROM reviews
		WHERE reviewee_id = $1
		ORDER BY created_at DESC
	`, revieweeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []models.Review{}
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, *r)
	}
	return reviews, rows.Err()
}

func (s *ReviewService) Summary(ctx context.Context, userID uuid.UUID) (*models.ReviewSummary, error) {
	key := cache.ReviewSummaryKey(userID)

	var cached models.ReviewSummary
	if err := s.cache.GetJSON(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	summary := models.ReviewSummary{UserID: userID}
	err := s.db.Pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(AVG(rating), 0)::float8 FROM reviews WHERE reviewee_id = $1
	`, userID).Scan(&summary.Count, &summary.AverageRating)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize reviews: %w", err)
	}

	if err := s.cache.SetJSON(ctx, key, summary); err != nil {
		s.log.Warn("failed to cache review summary", "user_id", userID, "error", err)
	}
	return &summary, nil
}

// Outstanding lists queue items still pending after the given age.
func (s *ReviewService) Outstanding(ctx context.Context, olderThan time.Duration) ([]models.PendingReview, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, project_id, reviewer_id, reviewee_id, position, status, created_at
		FROM pending_reviews
		WHERE status = $1 AND created_at < $2
		ORDER BY reviewer_id, project_id, position
	`, models.PendingReviewPending, s.now().Add(-olderThan))
	if err != nil {
		return nil, fmt.Errorf("failed to list outstanding reviews: %w", err)
	}
	defer rows.Close()

	var pending []models.PendingReview
	for rows.Next() {
		var pr models.PendingReview
		if err := rows.Scan(&pr.ID, &pr.ProjectID, &pr.ReviewerID, &pr.RevieweeID, &pr.Position, &pr.Status, &pr.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pending review: %w", err)
		}
		pending = append(pending, pr)
	}
	return pending, rows.Err()
}
