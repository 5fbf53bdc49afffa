package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/collabdoor/collabdoor-api/internal/database"
	"github.com/collabdoor/collabdoor-api/internal/logger"
	"github.com/collabdoor/collabdoor-api/internal/metrics"
	"github.com/collabdoor/collabdoor-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrInvalidProjectID         = errors.New("invalid project id")
	ErrInvalidPartnershipType   = errors.New("invalid partnership type")
	ErrInvalidApplicationStatus = errors.New("invalid application status")
	ErrApplicationNotFound      = errors.New("application not found")
	ErrProjectCompleted         = errors.New("project is completed and no longer accepts applications")
)

const applicationColumns = `id, project_id, user_id, organization_id, partnership_type, status, message, created_at, updated_at`

// PhaseGenerator seeds template phases as part of a caller's transaction.
type PhaseGenerator interface {
	Generate(ctx context.Context, q database.Querier, projectID uuid.UUID, pt models.PartnershipType) (int, error)
	Invalidate(ctx context.Context, projectID uuid.UUID)
}

type ApplyInput struct {
	PartnershipType models.PartnershipType
	Message         *string
	OrganizationID  *uuid.UUID
}

type ApplicationService struct {
	db       *database.DB
	phases   PhaseGenerator
	notifier Notifier
	log      *slog.Logger
}

func NewApplicationService(db *database.DB, phases PhaseGenerator, notifier Notifier) *ApplicationService {
	return &ApplicationService{
		db:       db,
		phases:   phases,
		notifier: notifier,
		log:      logger.WithService("applications"),
	}
}

func scanApplication(row pgx.Row) (*models.Application, error) {
	var a models.Application
	err := row.Scan(&a.ID, &a.ProjectID, &a.UserID, &a.OrganizationID, &a.PartnershipType,
		&a.Status, &a.Message, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CheckStatus returns the user's application to a project, or nil when there is none.
func (s *ApplicationService) CheckStatus(ctx context.Context, projectID string, userID uuid.UUID) (*models.Application, error) {
	pid, err := uuid.Parse(projectID)
	if err != nil {
		return nil, ErrInvalidProjectID
	}
	return s.find(ctx, s.db.Pool, pid, userID)
}

func (s *ApplicationService) find(ctx context.Context, q database.Querier, projectID, userID uuid.UUID) (*models.Application, error) {
	a, err := scanApplication(q.QueryRow(ctx, `
		SELECT `+applicationColumns+`
		FROM project_applications
		WHERE project_id = $1 AND user_id = $2
	`, projectID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check application: %w", err)
	}
	return a, nil
}

// Apply submits a pending application. Applying twice returns the first
// application unchanged.
func (s *ApplicationService) Apply(ctx context.Context, projectID string, userID uuid.UUID, input ApplyInput) (*models.Application, error) {
	pid, err := uuid.Parse(projectID)
	if err != nil {
		return nil, ErrInvalidProjectID
	}
	if !input.PartnershipType.Valid() {
		return nil, ErrInvalidPartnershipType
	}

	var (
		organizerID uuid.UUID
		title       string
		status      models.ProjectStatus
	)
	err = s.db.Pool.QueryRow(ctx, `
		SELECT organizer_id, title, status FROM projects WHERE id = $1
	`, pid).Scan(&organizerID, &title, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	if status == models.ProjectStatusCompleted {
		return nil, ErrProjectCompleted
	}

	existing, err := s.find(ctx, s.db.Pool, pid, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	// The status is checked again on insert so a project completed in the
	// meantime takes no new applications.
	app, err := scanApplication(s.db.Pool.QueryRow(ctx, `
		INSERT INTO project_applications (project_id, user_id, organization_id, partnership_type, status, message)
		SELECT id, $2::uuid, $3::uuid, $4::varchar, $5::varchar, $6::text
		FROM projects WHERE id = $1 AND status <> $7
		ON CONFLICT (project_id, user_id) DO NOTHING
		RETURNING `+applicationColumns,
		pid, userID, input.OrganizationID, input.PartnershipType, models.ApplicationStatusPending, input.Message,
		models.ProjectStatusCompleted))
	if errors.Is(err, pgx.ErrNoRows) {
		// either a concurrent submit won or the project was completed
		existing, err := s.find(ctx, s.db.Pool, pid, userID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, ErrProjectCompleted
		}
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}

	metrics.ApplicationsSubmitted.WithLabelValues(string(app.PartnershipType)).Inc()
	if s.notifier != nil {
		s.notifier.NotifyNewApplication(ctx, organizerID, userID, pid, title)
	}
	return app, nil
}

// UpdateStatus approves or rejects an application. Approval seeds the project
// phases in the same transaction; the applicant is notified after commit.
func (s *ApplicationService) UpdateStatus(ctx context.Context, applicationID uuid.UUID, status models.ApplicationStatus) (*models.Application, error) {
	if !status.Valid() {
		return nil, ErrInvalidApplicationStatus
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := scanApplication(tx.QueryRow(ctx, `
		SELECT `+applicationColumns+` FROM project_applications WHERE id = $1 FOR UPDATE
	`, applicationID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrApplicationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load application: %w", err)
	}

	if err := models.CheckApplicationTransition(current.Status, status); err != nil {
		return nil, err
	}

	app, err := scanApplication(tx.QueryRow(ctx, `
		UPDATE project_applications SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+applicationColumns,
		applicationID, status))
	if err != nil {
		return nil, fmt.Errorf("failed to update application: %w", err)
	}

	var projectTitle string
	if err := tx.QueryRow(ctx, `SELECT title FROM projects WHERE id = $1`, app.ProjectID).Scan(&projectTitle); err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	generated := 0
	if status == models.ApplicationStatusApproved {
		generated, err = s.phases.Generate(ctx, tx, app.ProjectID, app.PartnershipType)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if generated > 0 {
		s.phases.Invalidate(ctx, app.ProjectID)
	}
	metrics.ApplicationDecisions.WithLabelValues(string(status)).Inc()
	s.log.Info("application status changed",
		"application_id", app.ID, "project_id", app.ProjectID, "status", status, "phases_generated", generated)

	if s.notifier != nil {
		s.notifier.NotifyPartnershipStatus(ctx, app.UserID, app.ProjectID, projectTitle, status)
	}
	return app, nil
}

func (s *ApplicationService) GetByID(ctx context.Context, applicationID uuid.UUID) (*models.Application, error) {
	a, err := scanApplication(s.db.Pool.QueryRow(ctx, `
		SELECT `+applicationColumns+` FROM project_applications WHERE id = $1
	`, applicationID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrApplicationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return a, nil
}

// ListByProject returns every application to a project with the applicant attached.
func (s *ApplicationService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Application, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT a.id, a.project_id, a.user_id, a.organization_id, a.partnership_type, a.status, a.message,
		       a.created_at, a.updated_at,
		       u.id, u.email, u.name, u.avatar_url, u.provider, u.created_at, u.updated_at
		FROM project_applications a
		JOIN users u ON a.user_id = u.id
		WHERE a.project_id = $1
		ORDER BY a.created_at
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	apps := []models.Application{}
	for rows.Next() {
		var a models.Application
		var u models.User
		if err := rows.Scan(
			&a.ID, &a.ProjectID, &a.UserID, &a.OrganizationID, &a.PartnershipType, &a.Status, &a.Message,
			&a.CreatedAt, &a.UpdatedAt,
			&u.ID, &u.Email, &u.Name, &u.AvatarURL, &u.Provider, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		a.User = &u
		apps = append(apps, a)
	}
	return apps, rows.Err()
}

func (s *ApplicationService) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Application, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+applicationColumns+`
		FROM project_applications
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	apps := []models.Application{}
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, *a)
	}
	return apps, rows.Err()
}
