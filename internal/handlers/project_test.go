package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/collabdoor/collabdoor-api/internal/models"
	"github.com/collabdoor/collabdoor-api/internal/services"
	"github.com/collabdoor/collabdoor-api/pkg/dto"
	"github.com/collabdoor/collabdoor-api/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestProjectHandler_Create_Success(t *testing.T) {
	mockProjectService := new(testutil.MockProjectService)
	handler := NewProjectHandler(mockProjectService, new(testutil.MockOrganizationService))
	jwtSvc := newTestJWTService()

	userID := uuid.New()
	input := services.ProjectInput{
		Title:            "Community Garden",
		Description:      "Turn the empty lot into a garden",
		PartnershipTypes: []models.PartnershipType{models.PartnershipVolunteering},
	}
	project := &models.Project{
		ID:               uuid.New(),
		Title:            input.Title,
		Description:      input.Description,
		OrganizerID:      userID,
		Status:           models.ProjectStatusDraft,
		PartnershipTypes: input.PartnershipTypes,
	}

	mockProjectService.On("Create", mock.Anything, userID, input).Return(project, nil)

	token := generateTestToken(t, jwtSvc, userID, "organizer@example.com")
	rec := serve(t, jwtSvc, http.MethodPost, "/projects", handler.Create, "/projects", token, dto.CreateProjectRequest{
		Title:            input.Title,
		Description:      input.Description,
		PartnershipTypes: input.PartnershipTypes,
	})

	assert.Equal(t, http.StatusCreated, rec.Code)

	var response dto.ProjectResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, project.ID, response.ID)
	assert.Equal(t, models.ProjectStatusDraft, response.Status)
	assert.Equal(t, userID, response.OrganizerID)

	mockProjectService.AssertExpectations(t)
}

func TestProjectHandler_Create_NotOrganizationMember(t *testing.T) {
	mockProjectService := new(testutil.MockProjectService)
	mockOrgService := new(testutil.MockOrganizationService)
	handler := NewProjectHandler(mockProjectService, mockOrgService)
	jwtSvc := newTestJWTService()

	userID := uuid.New()
	orgID := uuid.New()
	mockOrgService.On("IsMember", mock.Anything, orgID, userID).Return(false, nil)

	token := generateTestToken(t, jwtSvc, userID, "organizer@example.com")
	rec := serve(t, jwtSvc, http.MethodPost, "/projects", handler.Create, "/projects", token, dto.CreateProjectRequest{
		Title:          "Outreach",
		OrganizationID: &orgID,
	})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	mockProjectService.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	mockOrgService.AssertExpectations(t)
}

func TestProjectHandler_Create_TitleRequired(t *testing.T) {
	mockProjectService := new(testutil.MockProjectService)
	handler := NewProjectHandler(mockProjectService, new(testutil.MockOrganizationService))
	jwtSvc := newTestJWTService()

	userID := uuid.New()
	mockProjectService.On("Create", mock.Anything, userID, mock.Anything).Return(nil, services.ErrProjectTitleRequired)

	token := generateTestToken(t, jwtSvc, userID, "organizer@example.com")
	rec := serve(t, jwtSvc, http.MethodPost, "/projects", handler.Create, "/projects", token, dto.CreateProjectRequest{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	mockProjectService.AssertExpectations(t)
}

func TestProjectHandler_List_FilterByType(t *testing.T) {
	mockProjectService := new(testutil.MockProjectService)
	handler := NewProjectHandler(mockProjectService, new(testutil.MockOrganizationService))
	jwtSvc := newTestJWTService()

	projects := []models.Project{
		{ID: uuid.New(), Title: "Fundraiser", Status: models.ProjectStatusPublished, PartnershipTypes: []models.PartnershipType{models.PartnershipMonetary}},
	}
	mockProjectService.On("ListPublished", mock.Anything, models.PartnershipMonetary, 10, 20).Return(projects, nil)

	token := generateTestToken(t, jwtSvc, uuid.New(), "viewer@example.com")
	rec := serve(t, jwtSvc, http.MethodGet, "/projects", handler.List, "/projects?type=monetary&limit=10&offset=20", token, nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response []dto.ProjectResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response, 1)
	assert.Equal(t, "Fundraiser", response[0].Title)

	mockProjectService.AssertExpectations(t)
}

func TestProjectHandler_List_InvalidType(t *testing.T) {
	mockProjectService := new(testutil.MockProjectService)
	handler := NewProjectHandler(mockProjectService, new(testutil.MockOrganizationService))
	jwtSvc := newTestJWTService()

	token := generateTestToken(t, jwtSvc, uuid.New(), "viewer@example.com")
	rec := serve(t, jwtSvc, http.MethodGet, "/projects", handler.List, "/projects?type=bartering", token, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	mockProjectService.AssertNotCalled(t, "ListPublished", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProjectHandler_Get_NotFound(t *testing.T) {
	mockProjectService := new(testutil.MockProjectService)
	handler := NewProjectHandler(mockProjectService, new(testutil.MockOrganizationService))
	jwtSvc := newTestJWTService()

	projectID := uuid.New()
	mockProjectService.On("GetByID", mock.Anything, projectID).Return(nil, services.ErrProjectNotFound)

	token := generateTestToken(t, jwtSvc, uuid.New(), "viewer@example.com")
	rec := serve(t, jwtSvc, http.MethodGet, "/projects/:id", handler.Get, "/projects/"+projectID.String(), token, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	mockProjectService.AssertExpectations(t)
}

func TestProjectHandler_Overview(t *testing.T) {
	mockProjectService := new(testutil.MockProjectService)
	handler := NewProjectHandler(mockProjectService, new(testutil.MockOrganizationService))
	jwtSvc := newTestJWTService()

	projectID := uuid.New()
	overview := &models.ProjectOverview{
		Project: &models.Project{ID: projectID, Title: "Library Drive", Status: models.ProjectStatusInProgress},
		Phases: []models.Phase{
			{ID: uuid.New(), ProjectID: projectID, Title: "Initial Planning", Order: 1, Status: models.PhaseStatusCompleted},
			{ID: uuid.New(), ProjectID: projectID, Title: "Execution", Order: 2, Status: models.PhaseStatusInProgress},
		},
	}
	mockProjectService.On("Overview", mock.Anything, projectID).Return(overview, nil)

	token := generateTestToken(t, jwtSvc, uuid.New(), "viewer@example.com")
	rec := serve(t, jwtSvc, http.MethodGet, "/projects/:id/overview", handler.Overview, "/projects/"+projectID.String()+"/overview", token, nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.ProjectOverviewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, projectID, response.Project.ID)
	assert.Len(t, response.Phases, 2)
	assert.NotNil(t, response.Applications)

	mockProjectService.AssertExpectations(t)
}

func TestProjectHandler_Update_NotOrganizer(t *testing.T) {
	mockProjectService := new(testutil.MockProjectService)
	handler := NewProjectHandler(mockProjectService, new(testutil.MockOrganizationService))
	jwtSvc := newTestJWTService()

	userID := uuid.New()
	projectID := uuid.New()
	mockProjectService.On("IsOrganizer", mock.Anything, projectID, userID).Return(false, nil)

	title := "Hijacked"
	token := generateTestToken(t, jwtSvc, userID, "partner@example.com")
	rec := serve(t, jwtSvc, http.MethodPatch, "/projects/:id", handler.Update, "/projects/"+projectID.String(), token,
		dto.UpdateProjectRequest{Title: &title})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	mockProjectService.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	mockProjectService.AssertExpectations(t)
}

func TestProjectHandler_Update_Success(t *testing.T) {
	mockProjectService := new(testutil.MockProjectService)
	handler := NewProjectHandler(mockProjectService, new(testutil.MockOrganizationService))
	jwtSvc := newTestJWTService()

	userID := uuid.New()
	projectID := uuid.New()
	title := "Renamed"
	mockProjectService.On("IsOrganizer", mock.Anything, projectID, userID).Return(true, nil)
	mockProjectService.On("Update", mock.Anything, projectID, services.ProjectUpdate{Title: &title}).
		Return(&models.Project{ID: projectID, Title: title, OrganizerID: userID}, nil)

	token := generateTestToken(t, jwtSvc, userID, "organizer@example.com")
	rec := serve(t, jwtSvc, http.MethodPatch, "/projects/:id", handler.Update, "/projects/"+projectID.String(), token,
		dto.UpdateProjectRequest{Title: &title})

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.ProjectResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "Renamed", response.Title)

	mockProjectService.AssertExpectations(t)
}

func TestProjectHandler_UpdateStatus_InvalidTransition(t *testing.T) {
	mockProjectService := new(testutil.MockProjectService)
	handler := NewProjectHandler(mockProjectService, new(testutil.MockOrganizationService))
	jwtSvc := newTestJWTService()

	userID := uuid.New()
	projectID := uuid.New()
	mockProjectService.On("IsOrganizer", mock.Anything, projectID, userID).Return(true, nil)
	mockProjectService.On("UpdateStatus", mock.Anything, projectID, models.ProjectStatusDraft).
		Return(nil, models.ErrInvalidTransition)

	token := generateTestToken(t, jwtSvc, userID, "organizer@example.com")
	rec := serve(t, jwtSvc, http.MethodPatch, "/projects/:id/status", handler.UpdateStatus, "/projects/"+projectID.String()+"/status", token,
		dto.UpdateProjectStatusRequest{Status: models.ProjectStatusDraft})

	assert.Equal(t, http.StatusConflict, rec.Code)
	mockProjectService.AssertExpectations(t)
}

func TestProjectHandler_Delete_Success(t *testing.T) {
	mockProjectService := new(testutil.MockProjectService)
	handler := NewProjectHandler(mockProjectService, new(testutil.MockOrganizationService))
	jwtSvc := newTestJWTService()

	userID := uuid.New()
	projectID := uuid.New()
	mockProjectService.On("IsOrganizer", mock.Anything, projectID, userID).Return(true, nil)
	mockProjectService.On("Delete", mock.Anything, projectID).Return(nil)

	token := generateTestToken(t, jwtSvc, userID, "organizer@example.com")
	rec := serve(t, jwtSvc, http.MethodDelete, "/projects/:id", handler.Delete, "/projects/"+projectID.String(), token, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	mockProjectService.AssertExpectations(t)
}

func TestProjectHandler_Delete_InvalidID(t *testing.T) {
	handler := NewProjectHandler(new(testutil.MockProjectService), new(testutil.MockOrganizationService))
	jwtSvc := newTestJWTService()

	token := generateTestToken(t, jwtSvc, uuid.New(), "organizer@example.com")
	rec := serve(t, jwtSvc, http.MethodDelete, "/projects/:id", handler.Delete, "/projects/nope", token, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
