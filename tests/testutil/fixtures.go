package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/collabdoor/collabdoor-api/internal/database"
	"github.com/collabdoor/collabdoor-api/internal/models"
	"github.com/collabdoor/collabdoor-api/internal/oauth"
	"github.com/google/uuid"
)

// Fixtures inserts rows directly, bypassing services, so tests can start from
// any state. Generated names are unique within one Fixtures value.
type Fixtures struct {
	db  *database.DB
	seq int
}

func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{db: db}
}

func (f *Fixtures) next() int {
	f.seq++
	return f.seq
}

func (f *Fixtures) fail(t *testing.T, what string, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("fixture %s: %v", what, err)
	}
}

type UserOption func(*models.User)

func WithName(name string) UserOption {
	return func(u *models.User) { u.Name = name }
}

// CreateUser inserts a github-backed user.
func (f *Fixtures) CreateUser(t *testing.T, opts ...UserOption) *models.User {
	t.Helper()
	n := f.next()
	u := &models.User{
		Email:      fmt.Sprintf("maker%d@collabdoor.test", n),
		Name:       fmt.Sprintf("Maker %d", n),
		Provider:   "github",
		ProviderID: fmt.Sprintf("gh-%d", n),
	}
	for _, opt := range opts {
		opt(u)
	}

	err := f.db.Pool.QueryRow(context.Background(),
		`INSERT INTO users (email, name, provider, provider_id) VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		u.Email, u.Name, u.Provider, u.ProviderID,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	f.fail(t, "user", err)
	return u
}

// CreateOrganization inserts an organization with owner as its owner member.
func (f *Fixtures) CreateOrganization(t *testing.T, owner *models.User) *models.Organization {
	t.Helper()
	org := &models.Organization{
		Name:    fmt.Sprintf("Workshop Collective %d", f.next()),
		OwnerID: owner.ID,
	}

	err := f.db.Pool.QueryRow(context.Background(), `
		WITH org AS (
			INSERT INTO organizations (name, owner_id) VALUES ($1, $2)
			RETURNING id, created_at, updated_at
		), owner_row AS (
			INSERT INTO organization_members (organization_id, user_id, role)
			SELECT id, $2, $3 FROM org
		)
		SELECT id, created_at, updated_at FROM org`,
		org.Name, org.OwnerID, models.RoleOwner,
	).Scan(&org.ID, &org.CreatedAt, &org.UpdatedAt)
	f.fail(t, "organization", err)
	return org
}

func (f *Fixtures) AddOrganizationMember(t *testing.T, org *models.Organization, user *models.User) {
	t.Helper()
	_, err := f.db.Pool.Exec(context.Background(),
		`INSERT INTO organization_members (organization_id, user_id, role) VALUES ($1, $2, $3)
		 ON CONFLICT (organization_id, user_id) DO NOTHING`,
		org.ID, user.ID, models.RoleMember)
	f.fail(t, "organization member", err)
}

type ProjectOption func(*models.Project)

func WithProjectStatus(status models.ProjectStatus) ProjectOption {
	return func(p *models.Project) { p.Status = status }
}

func WithPartnershipTypes(types ...models.PartnershipType) ProjectOption {
	return func(p *models.Project) { p.PartnershipTypes = types }
}

// CreateProject inserts a published project accepting skilled partners unless
// opts say otherwise.
func (f *Fixtures) CreateProject(t *testing.T, organizer *models.User, opts ...ProjectOption) *models.Project {
	t.Helper()
	p := &models.Project{
		Title:            fmt.Sprintf("Community Garden Build %d", f.next()),
		Description:      "Raised beds and a shared tool shed",
		OrganizerID:      organizer.ID,
		Status:           models.ProjectStatusPublished,
		PartnershipTypes: []models.PartnershipType{models.PartnershipSkilled},
	}
	for _, opt := range opts {
		opt(p)
	}

	types := make([]string, 0, len(p.PartnershipTypes))
	for _, pt := range p.PartnershipTypes {
		types = append(types, string(pt))
	}

	err := f.db.Pool.QueryRow(context.Background(),
		`INSERT INTO projects (title, description, organizer_id, status, partnership_types)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at, updated_at`,
		p.Title, p.Description, p.OrganizerID, p.Status, types,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	f.fail(t, "project", err)
	return p
}

// CreateApplication inserts an application already in status. Approving
// through it does not generate phases.
func (f *Fixtures) CreateApplication(t *testing.T, project *models.Project, user *models.User, pt models.PartnershipType, status models.ApplicationStatus) *models.Application {
	t.Helper()
	a := &models.Application{ProjectID: project.ID, UserID: user.ID, PartnershipType: pt, Status: status}

	err := f.db.Pool.QueryRow(context.Background(),
		`INSERT INTO project_applications (project_id, user_id, partnership_type, status)
		 VALUES ($1, $2, $3, $4) RETURNING id, created_at, updated_at`,
		a.ProjectID, a.UserID, a.PartnershipType, a.Status,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	f.fail(t, "application", err)
	return a
}

// CreateRefreshToken stores an already hashed token.
func (f *Fixtures) CreateRefreshToken(t *testing.T, userID uuid.UUID, tokenHash string, expiresAt time.Time) {
	t.Helper()
	_, err := f.db.Pool.Exec(context.Background(),
		`INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES ($1, $2, $3)`,
		userID, tokenHash, expiresAt)
	f.fail(t, "refresh token", err)
}

// OAuthUserInfo is a provider profile carrying an avatar.
func OAuthUserInfo(email, name, provider, id string) *oauth.UserInfo {
	return &oauth.UserInfo{
		ID:        id,
		Provider:  provider,
		Email:     email,
		Name:      name,
		AvatarURL: "https://avatars.collabdoor.test/" + id + ".png",
	}
}
