package integration

import (
	"net/http"
	"testing"

	"github.com/collabdoor/collabdoor-api/internal/handlers"
	"github.com/collabdoor/collabdoor-api/internal/middleware"
	"github.com/collabdoor/collabdoor-api/internal/models"
	"github.com/collabdoor/collabdoor-api/pkg/dto"
	"github.com/collabdoor/collabdoor-api/tests/testutil"
	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newAPI mounts the partnership routes over real services.
func newAPI(tdb *testutil.TestDB, s *stack) http.Handler {
	projectHandler := handlers.NewProjectHandler(s.projects, s.organizations)
	applicationHandler := handlers.NewApplicationHandler(s.applications, s.projects, s.organizations)
	phaseHandler := handlers.NewPhaseHandler(s.phases, s.projects)
	healthHandler := handlers.NewHealthHandler(tdb.DB)

	app := drift.New()
	app.Use(driftmw.BodyParser())

	api := app.Group("/api/v1")
	api.Get("/health", healthHandler.Check)

	protected := api.Group("")
	protected.Use(middleware.Auth(testutil.TestJWTService()))
	protected.Post("/projects", projectHandler.Create)
	protected.Post("/projects/:id/status", projectHandler.UpdateStatus)
	protected.Post("/projects/:id/applications", applicationHandler.Apply)
	protected.Get("/projects/:id/applications", applicationHandler.ListByProject)
	protected.Post("/applications/:id/status", applicationHandler.UpdateStatus)
	protected.Get("/projects/:id/phases", phaseHandler.List)
	return app
}

func TestAPI_Integration_ApplyApproveTrackPhases(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	api := testutil.NewAPIClient(t, newAPI(tdb, newStack(tdb)), testutil.TestJWTService())

	organizer := api.As(fixtures.CreateUser(t))
	partner := api.As(fixtures.CreateUser(t))

	testutil.Expect(t, api.Get("/api/v1/health"), http.StatusOK, nil)

	var project dto.ProjectResponse
	testutil.Expect(t, organizer.Post("/api/v1/projects", dto.CreateProjectRequest{
		Title:            "Neighbourhood repair cafe",
		Description:      "Monthly repair sessions",
		PartnershipTypes: []models.PartnershipType{models.PartnershipSkilled},
	}), http.StatusCreated, &project)
	assert.Equal(t, models.ProjectStatusDraft, project.Status)
	projectPath := "/api/v1/projects/" + project.ID.String()

	testutil.Expect(t, organizer.Post(projectPath+"/status",
		dto.UpdateProjectStatusRequest{Status: models.ProjectStatusPublished}), http.StatusOK, nil)

	var application dto.ApplicationResponse
	testutil.Expect(t, partner.Post(projectPath+"/applications",
		dto.ApplyRequest{PartnershipType: models.PartnershipSkilled}), http.StatusCreated, &application)
	assert.Equal(t, models.ApplicationStatusPending, application.Status)
	decide := "/api/v1/applications/" + application.ID.String() + "/status"

	// Only the organizer sees the applicant list and decides.
	testutil.Expect(t, partner.Get(projectPath+"/applications"), http.StatusForbidden, nil)
	testutil.Expect(t, partner.Post(decide,
		dto.UpdateApplicationStatusRequest{Status: models.ApplicationStatusApproved}), http.StatusForbidden, nil)

	testutil.Expect(t, organizer.Post(decide,
		dto.UpdateApplicationStatusRequest{Status: models.ApplicationStatusApproved}), http.StatusOK, nil)
	testutil.Expect(t, organizer.Post(decide,
		dto.UpdateApplicationStatusRequest{Status: models.ApplicationStatusRejected}), http.StatusConflict, nil)

	// The approved partner can now follow the generated phases.
	var phases []dto.PhaseResponse
	testutil.Expect(t, partner.Get(projectPath+"/phases"), http.StatusOK, &phases)
	require.Len(t, phases, 4)
	assert.Equal(t, "Kickoff", phases[0].Title)
	assert.Equal(t, "Completion", phases[3].Title)
}

func TestAPI_Integration_RequiresAuth(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	api := testutil.NewAPIClient(t, newAPI(tdb, newStack(tdb)), testutil.TestJWTService())

	testutil.Expect(t, api.Post("/api/v1/projects", dto.CreateProjectRequest{Title: "x"}), http.StatusUnauthorized, nil)
}
