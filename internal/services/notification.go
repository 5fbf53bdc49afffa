package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/collabdoor/collabdoor-api/internal/cache"
	"github.com/collabdoor/collabdoor-api/internal/database"
	"github.com/collabdoor/collabdoor-api/internal/logger"
	"github.com/collabdoor/collabdoor-api/internal/metrics"
	"github.com/collabdoor/collabdoor-api/internal/models"
	"github.com/collabdoor/collabdoor-api/internal/sse"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrNotificationNotFound = errors.New("notification not found")

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 200
)

const notificationColumns = `id, user_id, title, message, link, read, created_at`

// Notifier is the dispatch surface other services depend on. Every method is
// best-effort: failures are logged and reported as false, never returned.
type Notifier interface {
	NotifyNewApplication(ctx context.Context, organizerID, applicantID, projectID uuid.UUID, projectTitle string) bool
	NotifyPartnershipStatus(ctx context.Context, userID, projectID uuid.UUID, projectTitle string, status models.ApplicationStatus) bool
	NotifyProjectPartners(ctx context.Context, projectID uuid.UUID, title, message string, exclude uuid.UUID) bool
	NotifyJoinRequest(ctx context.Context, ownerID, requesterID, organizationID uuid.UUID, organizationName string) bool
	NotifyJoinRequestDecision(ctx context.Context, userID, organizationID uuid.UUID, organizationName string, approved bool) bool
	NotifyReviewReceived(ctx context.Context, revieweeID, projectID uuid.UUID, projectTitle string) bool
}

// UserPusher delivers realtime events to a user's open streams.
type UserPusher interface {
	SendToUser(userID uuid.UUID, eventType string, data interface{})
}

type NotificationService struct {
	db          *database.DB
	cache       cache.QueryCache
	pusher      UserPusher
	email       *EmailService
	frontendURL string
	log         *slog.Logger
}

func NewNotificationService(db *database.DB, qc cache.QueryCache, pusher UserPusher, email *EmailService, frontendURL string) *NotificationService {
	if qc == nil {
		qc = cache.Noop{}
	}
	return &NotificationService{
		db:          db,
		cache:       qc,
		pusher:      pusher,
		email:       email,
		frontendURL: frontendURL,
		log:         logger.WithService("notifications"),
	}
}

func scanNotification(row pgx.Row) (*models.Notification, error) {
	var n models.Notification
	if err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Link, &n.Read, &n.CreatedAt); err != nil {
		return nil, err
	}
	return &n, nil
}

// Create inserts one notification and reports whether it was stored.
func (s *NotificationService) Create(ctx context.Context, userID uuid.UUID, title, message string, link *string) bool {
	n, err := scanNotification(s.db.Pool.QueryRow(ctx, `
		INSERT INTO notifications (user_id, title, message, link)
		VALUES ($1, $2, $3, $4)
		RETURNING `+notificationColumns,
		userID, title, message, link))
	if err != nil {
		metrics.NotificationsCreated.WithLabelValues("failed").Inc()
		s.log.Error("failed to create notification", "user_id", userID, "title", title, "error", err)
		return false
	}

	metrics.NotificationsCreated.WithLabelValues("created").Inc()
	s.delivered(ctx, []models.Notification{*n})
	return true
}

// CreateMultiple sends the same notification to every recipient in one statement.
// An empty recipient list succeeds without touching the database.
func (s *NotificationService) CreateMultiple(ctx context.Context, userIDs []uuid.UUID, title, message string, link *string) bool {
	recipients := uniqueIDs(userIDs)
	if len(recipients) == 0 {
		return true
	}

	rows, err := s.db.Pool.Query(ctx, `
		INSERT INTO notifications (user_id, title, message, link)
		SELECT recipient, $2, $3, $4 FROM unnest($1::uuid[]) AS recipient
		RETURNING `+notificationColumns,
		recipients, title, message, link)
	if err != nil {
		metrics.NotificationsCreated.WithLabelValues("failed").Add(float64(len(recipients)))
		s.log.Error("failed to create notifications", "recipients", len(recipients), "title", title, "error", err)
		return false
	}
	defer rows.Close()

	var created []models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			s.log.Error("failed to scan notification", "error", err)
			return false
		}
		created = append(created, *n)
	}
	if err := rows.Err(); err != nil {
		s.log.Error("failed to create notifications", "recipients", len(recipients), "error", err)
		return false
	}

	metrics.NotificationsCreated.WithLabelValues("created").Add(float64(len(created)))
	s.delivered(ctx, created)
	return true
}

func (s *NotificationService) delivered(ctx context.Context, created []models.Notification) {
	keys := make([]string, 0, len(created))
	for i := range created {
		keys = append(keys, cache.UnreadCountKey(created[i].UserID))
		if s.pusher != nil {
			s.pusher.SendToUser(created[i].UserID, sse.EventNotification, created[i])
		}
	}
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		s.log.Warn("failed to invalidate unread counts", "error", err)
	}
}

func (s *NotificationService) NotifyNewMessage(ctx context.Context, recipientID uuid.UUID, senderName string, link *string) bool {
	return s.Create(ctx, recipientID, "New message", fmt.Sprintf("%s sent you a message", senderName), link)
}

func (s *NotificationService) NotifyPartnershipStatus(ctx context.Context, userID, projectID uuid.UUID, projectTitle string, status models.ApplicationStatus) bool {
	title := "Application " + string(status)
	message := fmt.Sprintf("Your application to %q has been %s.", projectTitle, status)
	link := projectLink(projectID)

	ok := s.Create(ctx, userID, title, message, &link)

	if s.email != nil && s.email.IsConfigured() {
		if to, err := s.userEmail(ctx, userID); err != nil {
			s.log.Warn("failed to look up applicant email", "user_id", userID, "error", err)
		} else if err := s.email.SendPartnershipStatus(to, projectTitle, string(status), s.frontendURL+link); err != nil {
			s.log.Warn("failed to email applicant", "user_id", userID, "error", err)
		}
	}
	return ok
}

// NotifyProjectPartners notifies every approved partner of a project except exclude.
func (s *NotificationService) NotifyProjectPartners(ctx context.Context, projectID uuid.UUID, title, message string, exclude uuid.UUID) bool {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT DISTINCT user_id FROM project_applications
		WHERE project_id = $1 AND status = $2 AND user_id <> $3
	`, projectID, models.ApplicationStatusApproved, exclude)
	if err != nil {
		s.log.Error("failed to load project partners", "project_id", projectID, "error", err)
		return false
	}
	defer rows.Close()

	var partners []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			s.log.Error("failed to scan partner", "project_id", projectID, "error", err)
			return false
		}
		partners = append(partners, id)
	}
	if err := rows.Err(); err != nil {
		s.log.Error("failed to load project partners", "project_id", projectID, "error", err)
		return false
	}

	link := projectLink(projectID)
	return s.CreateMultiple(ctx, partners, title, message, &link)
}

func (s *NotificationService) NotifyNewApplication(ctx context.Context, organizerID, applicantID, projectID uuid.UUID, projectTitle string) bool {
	link := projectLink(projectID) + "/applications"
	message := fmt.Sprintf("%s applied to %q.", s.displayName(ctx, applicantID), projectTitle)
	return s.Create(ctx, organizerID, "New application", message, &link)
}

func (s *NotificationService) NotifyJoinRequest(ctx context.Context, ownerID, requesterID, organizationID uuid.UUID, organizationName string) bool {
	link := organizationLink(organizationID) + "/join-requests"
	message := fmt.Sprintf("%s asked to join %s.", s.displayName(ctx, requesterID), organizationName)
	return s.Create(ctx, ownerID, "New join request", message, &link)
}

func (s *NotificationService) NotifyJoinRequestDecision(ctx context.Context, userID, organizationID uuid.UUID, organizationName string, approved bool) bool {
	outcome := "declined"
	if approved {
		outcome = "approved"
	}
	link := organizationLink(organizationID)
	ok := s.Create(ctx, userID, "Join request "+outcome, fmt.Sprintf("Your request to join %s was %s.", organizationName, outcome), &link)

	if s.email != nil && s.email.IsConfigured() {
		if to, err := s.userEmail(ctx, userID); err != nil {
			s.log.Warn("failed to look up requester email", "user_id", userID, "error", err)
		} else if err := s.email.SendJoinRequestDecision(to, organizationName, approved, s.frontendURL+link); err != nil {
			s.log.Warn("failed to email requester", "user_id", userID, "error", err)
		}
	}
	return ok
}

func (s *NotificationService) NotifyReviewReceived(ctx context.Context, revieweeID, projectID uuid.UUID, projectTitle string) bool {
	link := "/profile/reviews"
	return s.Create(ctx, revieweeID, "New review", fmt.Sprintf("You received a review for %q.", projectTitle), &link)
}

func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	if limit > maxNotificationLimit {
		limit = maxNotificationLimit
	}

	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE user_id = $1 AND (NOT $2 OR read = FALSE)
		ORDER BY created_at DESC
		LIMIT $3
	`, userID, unreadOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, *n)
	}
	return notifications, rows.Err()
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	key := cache.UnreadCountKey(userID)

	var count int
	if err := s.cache.GetJSON(ctx, key, &count); err == nil {
		return count, nil
	}

	err := s.db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = FALSE
	`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	if err := s.cache.SetJSON(ctx, key, count); err != nil {
		s.log.Warn("failed to cache unread count", "user_id", userID, "error", err)
	}
	return count, nil
}

func (s *NotificationService) MarkAsRead(ctx context.Context, notificationID, userID uuid.UUID) error {
	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE notifications SET read = TRUE
		WHERE id = $1 AND user_id = $2
	`, notificationID, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	_ = s.cache.Invalidate(ctx, cache.UnreadCountKey(userID))
	return nil
}

// MarkAllAsRead flips every unread notification of the user and returns how
// many changed. A repeated call changes nothing.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE notifications SET read = TRUE
		WHERE user_id = $1 AND read = FALSE
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	_ = s.cache.Invalidate(ctx, cache.UnreadCountKey(userID))
	return tag.RowsAffected(), nil
}

func (s *NotificationService) displayName(ctx context.Context, userID uuid.UUID) string {
	var name string
	if err := s.db.Pool.QueryRow(ctx, `SELECT name FROM users WHERE id = $1`, userID).Scan(&name); err != nil || name == "" {
		return "Someone"
	}
	return name
}

func (s *NotificationService) userEmail(ctx context.Context, userID uuid.UUID) (string, error) {
	var email string
	err := s.db.Pool.QueryRow(ctx, `SELECT email FROM users WHERE id = $1`, userID).Scan(&email)
	return email, err
}

func projectLink(projectID uuid.UUID) string {
	return "/projects/" + projectID.String()
}

func organizationLink(organizationID uuid.UUID) string {
	return "/organizations/" + organizationID.String()
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
