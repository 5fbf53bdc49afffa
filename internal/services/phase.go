package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/collabdoor/collabdoor-api/internal/cache"
	"github.com/collabdoor/collabdoor-api/internal/database"
	"github.com/collabdoor/collabdoor-api/internal/logger"
	"github.com/collabdoor/collabdoor-api/internal/metrics"
	"github.com/collabdoor/collabdoor-api/internal/models"
	"github.com/collabdoor/collabdoor-api/internal/phases"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrPhaseNotFound      = errors.New("phase not found")
	ErrPhaseOrderTaken    = errors.New("phase order already taken")
	ErrPhaseTitleRequired = errors.New("phase title is required")
	ErrInvalidPhaseStatus = errors.New("invalid phase status")
)

const phaseColumns = `id, project_id, title, description, status, due_date, completed_date, phase_order, template_key, created_at, updated_at`

const (
	PhaseActionCreated = "created"
	PhaseActionUpdated = "updated"
	PhaseActionDeleted = "deleted"
)

// PhaseBroadcaster fans phase changes out to clients watching a project.
type PhaseBroadcaster interface {
	BroadcastPhaseChange(projectID, phaseID, changedBy uuid.UUID, action string)
}

type PhaseInput struct {
	Title       string
	Description string
	DueDate     *time.Time
	// Order places the phase explicitly; nil appends after the last phase.
	Order *int
}

// PhaseUpdate carries the fields to change; nil fields are left as they are.
type PhaseUpdate struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	Status      *models.PhaseStatus
}

type PhaseService struct {
	db          *database.DB
	cache       cache.QueryCache
	broadcaster PhaseBroadcaster
	now         func() time.Time
	log         *slog.Logger
}

func NewPhaseService(db *database.DB, qc cache.QueryCache, broadcaster PhaseBroadcaster) *PhaseService {
	if qc == nil {
		qc = cache.Noop{}
	}
	return &PhaseService{
		db:          db,
		cache:       qc,
		broadcaster: broadcaster,
		now:         time.Now,
		log:         logger.WithService("phases"),
	}
}

func scanPhase(row pgx.Row) (*models.Phase, error) {
	var p models.Phase
	err := row.Scan(&p.ID, &p.ProjectID, &p.Title, &p.Description, &p.Status,
		&p.DueDate, &p.CompletedDate, &p.Order, &p.TemplateKey, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Generate seeds the template phases for a partnership type onto a project and
// returns how many were inserted. It runs on q so callers can make it part of
// an approval transaction. A (project, partnership type) pair is seeded at most
// once; later calls insert nothing.
func (s *PhaseService) Generate(ctx context.Context, q database.Querier, projectID uuid.UUID, pt models.PartnershipType) (int, error) {
	tag, err := q.Exec(ctx, `
		INSERT INTO project_phase_seeds (project_id, partnership_type)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, projectID, pt)
	if err != nil {
		return 0, fmt.Errorf("failed to claim phase seed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return 0, nil
	}

	var maxOrder int
	err = q.QueryRow(ctx, `
		SELECT COALESCE(MAX(phase_order), -1) FROM project_phases WHERE project_id = $1
	`, projectID).Scan(&maxOrder)
	if err != nil {
		return 0, fmt.Errorf("failed to read phase order: %w", err)
	}

	tpls := phases.Templates(pt)
	due := phases.Schedule(s.now(), tpls)
	for i, t := range tpls {
		key := t.Key
		_, err := q.Exec(ctx, `
			INSERT INTO project_phases (project_id, title, description, status, due_date, phase_order, template_key)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, projectID, t.Title, t.Description, models.PhaseStatusNotStarted, due[i], maxOrder+1+i, &key)
		if err != nil {
			return 0, fmt.Errorf("failed to insert phase %q: %w", t.Title, err)
		}
	}

	metrics.PhasesGenerated.WithLabelValues(string(pt)).Inc()
	return len(tpls), nil
}

// Backfill seeds a pair outside an approval. The claim and the inserts commit
// together, so a failed run leaves the pair unclaimed for the next attempt.
func (s *PhaseService) Backfill(ctx context.Context, projectID uuid.UUID, pt models.PartnershipType) (int, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	n, err := s.Generate(ctx, tx, projectID, pt)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit phases: %w", err)
	}
	if n > 0 {
		s.Invalidate(ctx, projectID)
	}
	return n, nil
}

func (s *PhaseService) List(ctx context.Context, projectID uuid.UUID) ([]models.Phase, error) {
	key := cache.PhasesKey(projectID)

	var cached []models.Phase
	if err := s.cache.GetJSON(ctx, key, &cached); err == nil {
		return cached, nil
	}

	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+phaseColumns+`
		FROM project_phases
		WHERE project_id = $1
		ORDER BY phase_order
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list phases: %w", err)
	}
	defer rows.Close()

	list := []models.Phase{}
	for rows.Next() {
		p, err := scanPhase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan phase: %w", err)
		}
		list = append(list, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.cache.SetJSON(ctx, key, list); err != nil {
		s.log.Warn("failed to cache phases", "project_id", projectID, "error", err)
	}
	return list, nil
}

func (s *PhaseService) GetByID(ctx context.Context, phaseID uuid.UUID) (*models.Phase, error) {
	p, err := scanPhase(s.db.Pool.QueryRow(ctx, `
		SELECT `+phaseColumns+` FROM project_phases WHERE id = $1
	`, phaseID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPhaseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get phase: %w", err)
	}
	return p, nil
}

func (s *PhaseService) Add(ctx context.Context, projectID, actorID uuid.UUID, input PhaseInput) (*models.Phase, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrPhaseTitleRequired
	}

	var p *models.Phase
	var err error
	if input.Order != nil {
		p, err = scanPhase(s.db.Pool.QueryRow(ctx, `
			INSERT INTO project_phases (project_id, title, description, status, due_date, phase_order)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING `+phaseColumns,
			projectID, title, input.Description, models.PhaseStatusNotStarted, input.DueDate, *input.Order))
	} else {
		p, err = scanPhase(s.db.Pool.QueryRow(ctx, `
			INSERT INTO project_phases (project_id, title, description, status, due_date, phase_order)
			SELECT $1, $2, $3, $4, $5, COALESCE(MAX(phase_order), -1) + 1
			FROM project_phases WHERE project_id = $1
			RETURNING `+phaseColumns,
			projectID, title, input.Description, models.PhaseStatusNotStarted, input.DueDate))
	}
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrPhaseOrderTaken
		}
		return nil, fmt.Errorf("failed to add phase: %w", err)
	}

	s.changed(ctx, p.ProjectID, p.ID, actorID, PhaseActionCreated)
	return p, nil
}

func (s *PhaseService) Update(ctx context.Context, phaseID, actorID uuid.UUID, input PhaseUpdate) (*models.Phase, error) {
	if input.Title != nil && strings.TrimSpace(*input.Title) == "" {
		return nil, ErrPhaseTitleRequired
	}
	if input.Status != nil && !input.Status.Valid() {
		return nil, ErrInvalidPhaseStatus
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := scanPhase(tx.QueryRow(ctx, `
		SELECT `+phaseColumns+` FROM project_phases WHERE id = $1 FOR UPDATE
	`, phaseID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPhaseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load phase: %w", err)
	}

	next := *current
	if input.Title != nil {
		next.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		next.Description = *input.Description
	}
	if input.DueDate != nil {
		next.DueDate = input.DueDate
	}
	if input.Status != nil {
		if err := models.CheckPhaseTransition(current.Status, *input.Status); err != nil {
			return nil, err
		}
		if *input.Status == models.PhaseStatusCompleted && current.Status != models.PhaseStatusCompleted {
			now := s.now()
			next.CompletedDate = &now
		}
		next.Status = *input.Status
	}

	updated, err := scanPhase(tx.QueryRow(ctx, `
		UPDATE project_phases
		SET title = $2, description = $3, due_date = $4, status = $5, completed_date = $6,
		    reminded_at = CASE WHEN due_date IS DISTINCT FROM $4 THEN NULL ELSE reminded_at END,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+phaseColumns,
		phaseID, next.Title, next.Description, next.DueDate, next.Status, next.CompletedDate))
	if err != nil {
		return nil, fmt.Errorf("failed to update phase: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.changed(ctx, updated.ProjectID, updated.ID, actorID, PhaseActionUpdated)
	return updated, nil
}

func (s *PhaseService) Delete(ctx context.Context, phaseID, actorID uuid.UUID) error {
	var projectID uuid.UUID
	err := s.db.Pool.QueryRow(ctx, `
		DELETE FROM project_phases WHERE id = $1 RETURNING project_id
	`, phaseID).Scan(&projectID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrPhaseNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete phase: %w", err)
	}

	s.changed(ctx, projectID, phaseID, actorID, PhaseActionDeleted)
	return nil
}

// ClaimDueReminders marks unfinished phases due within window as reminded and
// returns them. A phase is claimed once per due date.
func (s *PhaseService) ClaimDueReminders(ctx context.Context, window time.Duration) ([]models.Phase, error) {
	now := s.now()
	rows, err := s.db.Pool.Query(ctx, `
		UPDATE project_phases SET reminded_at = $2
		WHERE status <> $1 AND reminded_at IS NULL
		  AND due_date IS NOT NULL AND due_date BETWEEN $2 AND $3
		RETURNING `+phaseColumns,
		models.PhaseStatusCompleted, now, now.Add(window))
	if err != nil {
		return nil, fmt.Errorf("failed to claim due phases: %w", err)
	}
	defer rows.Close()

	var due []models.Phase
	for rows.Next() {
		p, err := scanPhase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan phase: %w", err)
		}
		due = append(due, *p)
	}
	return due, rows.Err()
}

// Invalidate drops the cached phase list of a project.
func (s *PhaseService) Invalidate(ctx context.Context, projectID uuid.UUID) {
	if err := s.cache.Invalidate(ctx, cache.PhasesKey(projectID)); err != nil {
		s.log.Warn("failed to invalidate phases", "project_id", projectID, "error", err)
	}
}

func (s *PhaseService) changed(ctx context.Context, projectID, phaseID, actorID uuid.UUID, action string) {
	s.Invalidate(ctx, projectID)
	if s.broadcaster != nil {
		s.broadcaster.BroadcastPhaseChange(projectID, phaseID, actorID, action)
	}
}
