package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/collabdoor/collabdoor-api/internal/database"
	"github.com/collabdoor/collabdoor-api/internal/logger"
	"github.com/collabdoor/collabdoor-api/internal/models"
	"github.com/ecodeclub/ekit/slice"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"
)

var (
	ErrProjectNotFound      = errors.New("project not found")
	ErrProjectTitleRequired = errors.New("project title is required")
	ErrInvalidProjectStatus = errors.New("invalid project status")
)

const projectColumns = `id, title, description, organizer_id, organization_id, status, partnership_types, completed_at, created_at, updated_at`

const (
	defaultProjectLimit = 20
	maxProjectLimit     = 100
)

type PhaseLister interface {
	List(ctx context.Context, projectID uuid.UUID) ([]models.Phase, error)
}

type ApplicationLister interface {
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Application, error)
}

// ReviewSeeder queues the post-completion reviews inside the completing transaction.
type ReviewSeeder interface {
	SeedQueue(ctx context.Context, q database.Querier, projectID, organizerID uuid.UUID) (int, error)
}

type ProjectInput struct {
	Title            string
	Description      string
	OrganizationID   *uuid.UUID
	PartnershipTypes []models.PartnershipType
}

type ProjectUpdate struct {
	Title            *string
	Description      *string
	PartnershipTypes []models.PartnershipType
}

type ProjectService struct {
	db           *database.DB
	phases       PhaseLister
	applications ApplicationLister
	reviews      ReviewSeeder
	notifier     Notifier
	now          func() time.Time
	log          *slog.Logger
}

func NewProjectService(db *database.DB, phases PhaseLister, applications ApplicationLister, reviews ReviewSeeder, notifier Notifier) *ProjectService {
	return &ProjectService{
		db:           db,
		phases:       phases,
		applications: applications,
		reviews:      reviews,
		notifier:     notifier,
		now:          time.Now,
		log:          logger.WithService("projects"),
	}
}

func scanProject(row pgx.Row) (*models.Project, error) {
	var p models.Project
	var types []string
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.OrganizerID, &p.OrganizationID,
		&p.Status, &types, &p.CompletedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.PartnershipTypes = slice.Map(types, func(_ int, t string) models.PartnershipType {
		return models.PartnershipType(t)
	})
	return &p, nil
}

func partnershipTypeStrings(types []models.PartnershipType) ([]string, error) {
	for _, t := range types {
		if !t.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPartnershipType, t)
		}
	}
	return slice.Map(types, func(_ int, t models.PartnershipType) string { return string(t) }), nil
}

func (s *ProjectService) Create(ctx context.Context, organizerID uuid.UUID, input ProjectInput) (*models.Project, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrProjectTitleRequired
	}
	types, err := partnershipTypeStrings(input.PartnershipTypes)
	if err != nil {
		return nil, err
	}
	if types == nil {
		types = []string{}
	}

	p, err := scanProject(s.db.Pool.QueryRow(ctx, `
		INSERT INTO projects (title, description, organizer_id, organization_id, status, partnership_types)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+projectColumns,
		title, input.Description, organizerID, input.OrganizationID, models.ProjectStatusDraft, types))
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return p, nil
}

func (s *ProjectService) GetByID(ctx context.Context, projectID uuid.UUID) (*models.Project, error) {
	p, err := scanProject(s.db.Pool.QueryRow(ctx, `
		SELECT `+projectColumns+` FROM projects WHERE id = $1
	`, projectID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return p, nil
}

// ListPublished returns every project past draft, newest first, optionally
// narrowed to those offering a partnership type.
func (s *ProjectService) ListPublished(ctx context.Context, pt models.PartnershipType, limit, offset int) ([]models.Project, error) {
	if limit <= 0 {
		limit = defaultProjectLimit
	}
	if limit > maxProjectLimit {
		limit = maxProjectLimit
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE status <> $1 AND ($2 = '' OR $2 = ANY(partnership_types))
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`, models.ProjectStatusDraft, string(pt), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return collectProjects(rows)
}

func (s *ProjectService) ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]models.Project, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE organizer_id = $1
		ORDER BY created_at DESC
	`, organizerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return collectProjects(rows)
}

func collectProjects(rows pgx.Rows) ([]models.Project, error) {
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

func (s *ProjectService) Update(ctx context.Context, projectID uuid.UUID, input ProjectUpdate) (*models.Project, error) {
	var title *string
	if input.Title != nil {
		t := strings.TrimSpace(*input.Title)
		if t == "" {
			return nil, ErrProjectTitleRequired
		}
		title = &t
	}
	var types []string
	if input.PartnershipTypes != nil {
		var err error
		if types, err = partnershipTypeStrings(input.PartnershipTypes); err != nil {
			return nil, err
		}
	}

	p, err := scanProject(s.db.Pool.QueryRow(ctx, `
		UPDATE projects
		SET title = COALESCE($2, title),
		    description = COALESCE($3, description),
		    partnership_types = COALESCE($4, partnership_types),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+projectColumns,
		projectID, title, input.Description, types))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return p, nil
}

// UpdateStatus moves a project along its lifecycle. Completing it stamps
// completed_at, queues the review round and tells the partners.
func (s *ProjectService) UpdateStatus(ctx context.Context, projectID uuid.UUID, status models.ProjectStatus) (*models.Project, error) {
	if !status.Valid() {
		return nil, ErrInvalidProjectStatus
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := scanProject(tx.QueryRow(ctx, `
		SELECT `+projectColumns+` FROM projects WHERE id = $1 FOR UPDATE
	`, projectID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	if err := models.CheckProjectTransition(current.Status, status); err != nil {
		return nil, err
	}

	var completedAt *time.Time
	if status == models.ProjectStatusCompleted {
		now := s.now()
		completedAt = &now
	}

	updated, err := scanProject(tx.QueryRow(ctx, `
		UPDATE projects SET status = $2, completed_at = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING `+projectColumns,
		projectID, status, completedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to update project status: %w", err)
	}

	queued := 0
	if status == models.ProjectStatusCompleted && s.reviews != nil {
		if queued, err = s.reviews.SeedQueue(ctx, tx, projectID, updated.OrganizerID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.log.Info("project status changed", "project_id", projectID, "status", status, "reviews_queued", queued)

	if status == models.ProjectStatusCompleted && s.notifier != nil {
		s.notifier.NotifyProjectPartners(ctx, projectID, "Project completed",
			fmt.Sprintf("%q is complete. Take a moment to review your collaborators.", updated.Title),
			updated.OrganizerID)
	}
	return updated, nil
}

func (s *ProjectService) Delete(ctx context.Context, projectID uuid.UUID) error {
	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProjectNotFound
	}
	return nil
}

func (s *ProjectService) IsOrganizer(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	var organizerID uuid.UUID
	err := s.db.Pool.QueryRow(ctx, `SELECT organizer_id FROM projects WHERE id = $1`, projectID).Scan(&organizerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, ErrProjectNotFound
	}
	if err != nil {
		return false, err
	}
	return organizerID == userID, nil
}

// CanCollaborate reports whether the user is the organizer or an approved partner.
func (s *ProjectService) CanCollaborate(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	var ok bool
	err := s.db.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM projects WHERE id = $1 AND organizer_id = $2)
		    OR EXISTS(SELECT 1 FROM project_applications WHERE project_id = $1 AND user_id = $2 AND status = $3)
	`, projectID, userID, models.ApplicationStatusApproved).Scan(&ok)
	return ok, err
}

// Overview loads the project with its phases and applications concurrently.
func (s *ProjectService) Overview(ctx context.Context, projectID uuid.UUID) (*models.ProjectOverview, error) {
	var overview models.ProjectOverview
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		p, err := s.GetByID(gctx, projectID)
		overview.Project = p
		return err
	})
	g.Go(func() error {
		list, err := s.phases.List(gctx, projectID)
		overview.Phases = list
		return err
	})
	g.Go(func() error {
		list, err := s.applications.ListByProject(gctx, projectID)
		overview.Applications = list
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &overview, nil
}
