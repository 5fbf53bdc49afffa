package services

import (
	"context"
	"testing"
	"time"

	"github.com/collabdoor/collabdoor-api/internal/cache"
	"github.com/collabdoor/collabdoor-api/internal/database"
	"github.com/collabdoor/collabdoor-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupReviewService(t *testing.T) (*ReviewService, pgxmock.PgxPoolIface, *recordingNotifier, *cache.ECache) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	qc := cache.NewMemory(64, time.Minute)
	notifier := &recordingNotifier{}
	return NewReviewService(&database.DB{Pool: mock}, qc, notifier), mock, notifier, qc
}

func expectCompletedProject(mock pgxmock.PgxPoolIface, projectID, organizerID uuid.UUID, status models.ProjectStatus) {
	mock.ExpectQuery(`SELECT organizer_id, title, status FROM projects WHERE id`).
		WithArgs(projectID).
		WillReturnRows(pgxmock.NewRows([]string{"organizer_id", "title", "status"}).
			AddRow(organizerID, "River Cleanup", status))
}

func TestReviewService_SeedQueue(t *testing.T) {
	svc, mock, _, _ := setupReviewService(t)
	projectID, organizerID := uuid.New(), uuid.New()
	p1, p2 := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT user_id FROM project_applications`).
		WithArgs(projectID, models.ApplicationStatusApproved, organizerID).
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(p1).AddRow(p2))
	for i, partner := range []uuid.UUID{p1, p2} {
		mock.ExpectExec(`INSERT INTO pending_reviews`).
			WithArgs(projectID, organizerID, partner, i, models.PendingReviewPending).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
	for _, partner := range []uuid.UUID{p1, p2} {
		mock.ExpectExec(`INSERT INTO pending_reviews`).
			WithArgs(projectID, partner, organizerID, 0, models.PendingReviewPending).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}

	n, err := svc.SeedQueue(context.Background(), mock, projectID, organizerID)

	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewService_SeedQueue_NoPartners(t *testing.T) {
	svc, mock, _, _ := setupReviewService(t)
	projectID, organizerID := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT user_id FROM project_applications`).
		WithArgs(projectID, models.ApplicationStatusApproved, organizerID).
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}))

	n, err := svc.SeedQueue(context.Background(), mock, projectID, organizerID)

	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewService_Submit_OrganizerReviewsPartner(t *testing.T) {
	svc, mock, notifier, qc := setupReviewService(t)
	ctx := context.Background()
	projectID, organizerID, partnerID := uuid.New(), uuid.New(), uuid.New()
	comment := "Great work"

	require.NoError(t, qc.SetJSON(ctx, cache.ReviewSummaryKey(partnerID), models.ReviewSummary{Count: 1}))

	expectCompletedProject(mock, projectID, organizerID, models.ProjectStatusCompleted)
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(projectID, partnerID, models.ApplicationStatusApproved).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO reviews`).
		WithArgs(projectID, organizerID, partnerID, 5, &comment, true).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "project_id", "reviewer_id", "reviewee_id", "rating", "comment", "is_organizer_review", "created_at",
		}).AddRow(uuid.New(), projectID, organizerID, partnerID, 5, &comment, true, time.Now()))
	mock.ExpectExec(`UPDATE pending_reviews SET status`).
		WithArgs(projectID, organizerID, partnerID, models.PendingReviewSubmitted).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	review, err := svc.Submit(ctx, projectID, organizerID, partnerID, 5, &comment)

	require.NoError(t, err)
	assert.True(t, review.IsOrganizerReview)
	require.Len(t, notifier.calls, 1)
	assert.Equal(t, notifyCall{"review_received", partnerID, "River Cleanup"}, notifier.calls[0])

	var cached models.ReviewSummary
	assert.ErrorIs(t, qc.GetJSON(ctx, cache.ReviewSummaryKey(partnerID), &cached), cache.ErrMiss)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewService_Submit_Duplicate(t *testing.T) {
	svc, mock, notifier, _ := setupReviewService(t)
	projectID, organizerID, partnerID := uuid.New(), uuid.New(), uuid.New()

	expectCompletedProject(mock, projectID, organizerID, models.ProjectStatusCompleted)
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(projectID, partnerID, models.ApplicationStatusApproved).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO reviews`).
		WithArgs(projectID, partnerID, organizerID, 4, (*string)(nil), false).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	_, err := svc.Submit(context.Background(), projectID, partnerID, organizerID, 4, nil)

	assert.ErrorIs(t, err, ErrAlreadyReviewed)
	assert.Empty(t, notifier.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewService_Submit_Validation(t *testing.T) {
	svc, mock, _, _ := setupReviewService(t)
	projectID, organizerID, partnerID, stranger := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	_, err := svc.Submit(context.Background(), projectID, organizerID, partnerID, 0, nil)
	assert.ErrorIs(t, err, ErrInvalidRating)
	_, err = svc.Submit(context.Background(), projectID, organizerID, partnerID, 6, nil)
	assert.ErrorIs(t, err, ErrInvalidRating)
	_, err = svc.Submit(context.Background(), projectID, organizerID, organizerID, 3, nil)
	assert.ErrorIs(t, err, ErrSelfReview)

	expectCompletedProject(mock, projectID, organizerID, models.ProjectStatusInProgress)
	_, err = svc.Submit(context.Background(), projectID, organizerID, partnerID, 3, nil)
	assert.ErrorIs(t, err, ErrProjectNotCompleted)

	expectCompletedProject(mock, projectID, organizerID, models.ProjectStatusCompleted)
	_, err = svc.Submit(context.Background(), projectID, partnerID, stranger, 3, nil)
	assert.ErrorIs(t, err, ErrNotParticipant)

	expectCompletedProject(mock, projectID, organizerID, models.ProjectStatusCompleted)
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(projectID, stranger, models.ApplicationStatusApproved).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	_, err = svc.Submit(context.Background(), projectID, organizerID, stranger, 3, nil)
	assert.ErrorIs(t, err, ErrNotParticipant)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewService_Skip(t *testing.T) {
	svc, mock, _, _ := setupReviewService(t)
	projectID, reviewerID, revieweeID := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectExec(`UPDATE pending_reviews SET status`).
		WithArgs(projectID, reviewerID, revieweeID, models.PendingReviewSkipped, models.PendingReviewPending).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE pending_reviews SET status`).
		WithArgs(projectID, reviewerID, revieweeID, models.PendingReviewSkipped, models.PendingReviewPending).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	assert.NoError(t, svc.Skip(context.Background(), projectID, reviewerID, revieweeID))
	assert.ErrorIs(t, svc.Skip(context.Background(), projectID, reviewerID, revieweeID), ErrPendingReviewNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewService_Queue(t *testing.T) {
	svc, mock, _, _ := setupReviewService(t)
	projectID, reviewerID := uuid.New(), uuid.New()
	a, b := uuid.New(), uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT .+ FROM pending_reviews pr JOIN users u`).
		WithArgs(projectID, reviewerID, models.PendingReviewPending).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "project_id", "reviewer_id", "reviewee_id", "position", "status", "created_at",
			"u_id", "email", "name", "avatar_url", "provider", "u_created_at", "u_updated_at",
		}).
			AddRow(uuid.New(), projectID, reviewerID, a, 0, models.PendingReviewPending, now, a, "a@example.com", "A", nil, "github", now, now).
			AddRow(uuid.New(), projectID, reviewerID, b, 1, models.PendingReviewPending, now, b, "b@example.com", "B", nil, "google", now, now))

	queue, err := svc.Queue(context.Background(), projectID, reviewerID)

	require.NoError(t, err)
	require.Len(t, queue, 2)
	assert.Equal(t, a, queue[0].RevieweeID)
	assert.Equal(t, "B", queue[1].Reviewee.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewService_Summary_Cached(t *testing.T) {
	svc, mock, _, _ := setupReviewService(t)
	userID := uuid.New()

	mock.ExpectQuery(`SELECT COUNT\(\*\), COALESCE\(AVG\(rating\), 0\)`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"count", "avg"}).AddRow(4, 4.5))

	first, err := svc.Summary(context.Background(), userID)
	require.NoError(t, err)
	second, err := svc.Summary(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, 4, first.Count)
	assert.InDelta(t, 4.5, first.AverageRating, 0.0001)
	assert.Equal(t, first, second)
	assert.NoError(t, mock.ExpectationsWereMet())
}
