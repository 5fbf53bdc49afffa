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
	ErrOrganizationNotFound  = errors.New("organization not found")
	ErrOrganizationName      = errors.New("organization name is required")
	ErrCannotRemoveOwner     = errors.New("cannot remove organization owner")
	ErrMemberNotFound        = errors.New("member not found")
	ErrAlreadyMember         = errors.New("user is already an organization member")
	ErrJoinRequestExists     = errors.New("join request already pending")
	ErrJoinRequestNotFound   = errors.New("join request not found")
	ErrJoinRequestNotPending = errors.New("join request already decided")
)

const joinRequestColumns = `id, organization_id, user_id, message, status, created_at, updated_at`

type OrganizationService struct {
	db       *database.DB
	notifier Notifier
}

func NewOrganizationService(db *database.DB, notifier Notifier) *OrganizationService {
	return &OrganizationService{db: db, notifier: notifier}
}

func scanOrganization(row pgx.Row) (*models.Organization, error) {
	var o models.Organization
	if err := row.Scan(&o.ID, &o.Name, &o.Description, &o.OwnerID, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}

func scanJoinRequest(row pgx.Row) (*models.JoinRequest, error) {
	var jr models.JoinRequest
	if err := row.Scan(&jr.ID, &jr.OrganizationID, &jr.UserID, &jr.Message, &jr.Status, &jr.CreatedAt, &jr.UpdatedAt); err != nil {
		return nil, err
	}
	return &jr, nil
}

func (s *OrganizationService) Create(ctx context.Context, name string, description *string, ownerID uuid.UUID) (*models.Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrOrganizationName
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	org, err := scanOrganization(tx.QueryRow(ctx, `
		INSERT INTO organizations (name, description, owner_id)
		VALUES ($1, $2, $3)
		RETURNING id, name, description, owner_id, created_at, updated_at
	`, name, description, ownerID))
	if err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO organization_members (organization_id, user_id, role)
		VALUES ($1, $2, $3)
	`, org.ID, ownerID, models.RoleOwner)
	if err != nil {
		return nil, fmt.Errorf("failed to add owner as member: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return org, nil
}

func (s *OrganizationService) GetByID(ctx context.Context, organizationID uuid.UUID) (*models.Organization, error) {
	org, err := scanOrganization(s.db.Pool.QueryRow(ctx, `
		SELECT id, name, description, owner_id, created_at, updated_at
		FROM organizations WHERE id = $1
	`, organizationID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrganizationNotFound
	}
	if err != nil {
		return nil, err
	}
	return org, nil
}

// ListForUser returns the organizations the user belongs to with the user's role in each.
func (s *OrganizationService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Organization, []string, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT o.id, o.name, o.description, o.owner_id, o.created_at, o.updated_at, om.role
		FROM organizations o
		JOIN organization_members om ON o.id = om.organization_id
		WHERE om.user_id = $1
		ORDER BY o.created_at DESC
	`, userID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var orgs []models.Organization
	var roles []string
	for rows.Next() {
		var o models.Organization
		var role string
		if err := rows.Scan(&o.ID, &o.Name, &o.Description, &o.OwnerID, &o.CreatedAt, &o.UpdatedAt, &role); err != nil {
			return nil, nil, err
		}
		orgs = append(orgs, o)
		roles = append(roles, role)
	}
	return orgs, roles, rows.Err()
}

func (s *OrganizationService) Update(ctx context.Context, organizationID uuid.UUID, name, description *string) (*models.Organization, error) {
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, ErrOrganizationName
		}
		name = &trimmed
	}

	org, err := scanOrganization(s.db.Pool.QueryRow(ctx, `
		UPDATE organizations
		SET name = COALESCE($1, name), description = COALESCE($2, description), updated_at = NOW()
		WHERE id = $3
		RETURNING id, name, description, owner_id, created_at, updated_at
	`, name, description, organizationID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrganizationNotFound
	}
	if err != nil {
		return nil, err
	}
	return org, nil
}

func (s *OrganizationService) Delete(ctx context.Context, organizationID uuid.UUID) error {
	_, err := s.db.Pool.Exec(ctx, `DELETE FROM organizations WHERE id = $1`, organizationID)
	return err
}

func (s *OrganizationService) IsOwner(ctx context.Context, organizationID, userID uuid.UUID) (bool, error) {
	var ownerID uuid.UUID
	err := s.db.Pool.QueryRow(ctx, `SELECT owner_id FROM organizations WHERE id = $1`, organizationID).Scan(&ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, ErrOrganizationNotFound
	}
	if err != nil {
		return false, err
	}
	return ownerID == userID, nil
}

func (s *OrganizationService) IsMember(ctx context.Context, organizationID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM organization_members WHERE organization_id = $1 AND user_id = $2)
	`, organizationID, userID).Scan(&exists)
	return exists, err
}

func (s *OrganizationService) GetMembers(ctx context.Context, organizationID uuid.UUID) ([]models.OrganizationMember, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT om.id, om.organization_id, om.user_id, om.role, om.created_at,
		       u.id, u.email, u.name, u.avatar_url, u.provider, u.created_at, u.updated_at
		FROM organization_members om
		JOIN users u ON om.user_id = u.id
		WHERE om.organization_id = $1
		ORDER BY om.created_at
	`, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []models.OrganizationMember
	for rows.Next() {
		var member models.OrganizationMember
		var user models.User
		if err := rows.Scan(
			&member.ID, &member.OrganizationID, &member.UserID, &member.Role, &member.CreatedAt,
			&user.ID, &user.Email, &user.Name, &user.AvatarURL, &user.Provider, &user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		member.User = &user
		members = append(members, member)
	}
	return members, rows.Err()
}

func (s *OrganizationService) RemoveMember(ctx context.Context, organizationID, userID uuid.UUID) error {
	var role string
	err := s.db.Pool.QueryRow(ctx, `
		SELECT role FROM organization_members WHERE organization_id = $1 AND user_id = $2
	`, organizationID, userID).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrMemberNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to look up member: %w", err)
	}

	if role == models.RoleOwner {
		return ErrCannotRemoveOwner
	}

	_, err = s.db.Pool.Exec(ctx, `
		DELETE FROM organization_members WHERE organization_id = $1 AND user_id = $2
	`, organizationID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	return nil
}

// CreateJoinRequest asks to join an organization. Only a pending request
// blocks a new one; a rejected request, or the approved request of someone
// who has since been removed, is reopened in place.
func (s *OrganizationService) CreateJoinRequest(ctx context.Context, organizationID, userID uuid.UUID, message *string) (*models.JoinRequest, error) {
	org, err := s.GetByID(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	member, err := s.IsMember(ctx, organizationID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if member {
		return nil, ErrAlreadyMember
	}

	jr, err := scanJoinRequest(s.db.Pool.QueryRow(ctx, `
		INSERT INTO organization_join_requests (organization_id, user_id, message, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (organization_id, user_id) DO UPDATE
		SET status = EXCLUDED.status, message = EXCLUDED.message, updated_at = NOW()
		WHERE organization_join_requests.status <> EXCLUDED.status
		RETURNING `+joinRequestColumns,
		organizationID, userID, message, models.JoinRequestStatusPending))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJoinRequestExists
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create join request: %w", err)
	}

	if s.notifier != nil {
		s.notifier.NotifyJoinRequest(ctx, org.OwnerID, userID, org.ID, org.Name)
	}
	return jr, nil
}

func (s *OrganizationService) GetJoinRequest(ctx context.Context, requestID uuid.UUID) (*models.JoinRequest, error) {
	jr, err := scanJoinRequest(s.db.Pool.QueryRow(ctx, `
		SELECT `+joinRequestColumns+` FROM organization_join_requests WHERE id = $1
	`, requestID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJoinRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	return jr, nil
}

// ListJoinRequests returns an organization's requests, narrowed to one status when given.
func (s *OrganizationService) ListJoinRequests(ctx context.Context, organizationID uuid.UUID, status string) ([]models.JoinRequest, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT jr.id, jr.organization_id, jr.user_id, jr.message, jr.status, jr.created_at, jr.updated_at,
		       u.id, u.email, u.name, u.avatar_url, u.provider, u.created_at, u.updated_at
		FROM organization_join_requests jr
		JOIN users u ON jr.user_id = u.id
		WHERE jr.organization_id = $1 AND ($2 = '' OR jr.status = $2)
		ORDER BY jr.created_at DESC
	`, organizationID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := []models.JoinRequest{}
	for rows.Next() {
		var jr models.JoinRequest
		var user models.User
		if err := rows.Scan(
			&jr.ID, &jr.OrganizationID, &jr.UserID, &jr.Message, &jr.Status, &jr.CreatedAt, &jr.UpdatedAt,
			&user.ID, &user.Email, &user.Name, &user.AvatarURL, &user.Provider, &user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		jr.User = &user
		requests = append(requests, jr)
	}
	return requests, rows.Err()
}

func (s *OrganizationService) ApproveJoinRequest(ctx context.Context, requestID uuid.UUID) (*models.JoinRequest, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	jr, err := scanJoinRequest(tx.QueryRow(ctx, `
		SELECT `+joinRequestColumns+` FROM organization_join_requests WHERE id = $1 FOR UPDATE
	`, requestID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJoinRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load join request: %w", err)
	}
	if jr.Status != models.JoinRequestStatusPending {
		return nil, ErrJoinRequestNotPending
	}

	_, err = tx.Exec(ctx, `
		UPDATE organization_join_requests SET status = $1, updated_at = NOW() WHERE id = $2
	`, models.JoinRequestStatusApproved, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to update join request: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO organization_members (organization_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (organization_id, user_id) DO NOTHING
	`, jr.OrganizationID, jr.UserID, models.RoleMember)
	if err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	var orgName string
	if err := tx.QueryRow(ctx, `SELECT name FROM organizations WHERE id = $1`, jr.OrganizationID).Scan(&orgName); err != nil {
		return nil, fmt.Errorf("failed to load organization: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	jr.Status = models.JoinRequestStatusApproved
	if s.notifier != nil {
		s.notifier.NotifyJoinRequestDecision(ctx, jr.UserID, jr.OrganizationID, orgName, true)
	}
	return jr, nil
}

func (s *OrganizationService) RejectJoinRequest(ctx context.Context, requestID uuid.UUID) (*models.JoinRequest, error) {
	jr, err := scanJoinRequest(s.db.Pool.QueryRow(ctx, `
		UPDATE organization_join_requests SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
		RETURNING `+joinRequestColumns,
		models.JoinRequestStatusRejected, requestID, models.JoinRequestStatusPending))
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := s.GetJoinRequest(ctx, requestID); getErr != nil {
			return nil, getErr
		}
		return nil, ErrJoinRequestNotPending
	}
	if err != nil {
		return nil, fmt.Errorf("failed to reject join request: %w", err)
	}

	if s.notifier != nil {
		var orgName string
		if err := s.db.Pool.QueryRow(ctx, `SELECT name FROM organizations WHERE id = $1`, jr.OrganizationID).Scan(&orgName); err == nil {
			s.notifier.NotifyJoinRequestDecision(ctx, jr.UserID, jr.OrganizationID, orgName, false)
		}
	}
	return jr, nil
}
