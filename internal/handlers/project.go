package handlers

import (
	"strconv"

	"github.com/collabdoor/collabdoor-api/internal/middleware"
	"github.com/collabdoor/collabdoor-api/internal/models"
	"github.com/collabdoor/collabdoor-api/internal/services"
	"github.com/collabdoor/collabdoor-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type ProjectHandler struct {
	projectService      ProjectServiceInterface
	organizationService OrganizationServiceInterface
}

func NewProjectHandler(projectService ProjectServiceInterface, organizationService OrganizationServiceInterface) *ProjectHandler {
	return &ProjectHandler{
		projectService:      projectService,
		organizationService: organizationService,
	}
}

func (h *ProjectHandler) Create(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.CreateProjectRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	ctx := c.Request.Context()

	if req.OrganizationID != nil {
		isMember, err := h.organizationService.IsMember(ctx, *req.OrganizationID, userID)
		if err != nil || !isMember {
			c.Forbidden("not a member of this organization")
			return
		}
	}

	project, err := h.projectService.Create(ctx, userID, services.ProjectInput{
		Title:            req.Title,
		Description:      req.Description,
		OrganizationID:   req.OrganizationID,
		PartnershipTypes: req.PartnershipTypes,
	})
	if err != nil {
		respondError(c, err, "failed to create project")
		return
	}

	_ = c.JSON(201, dto.NewProjectResponse(project))
}

// List returns published projects, optionally filtered by ?type=.
func (h *ProjectHandler) List(c *drift.Context) {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	pt := models.PartnershipType(c.QueryParam("type"))
	if pt != "" && !pt.Valid() {
		c.BadRequest(services.ErrInvalidPartnershipType.Error())
		return
	}

	projects, err := h.projectService.ListPublished(c.Request.Context(), pt, limit, offset)
	if err != nil {
		respondError(c, err, "failed to list projects")
		return
	}

	_ = c.JSON(200, dto.NewProjectResponses(projects))
}

func (h *ProjectHandler) ListMine(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	projects, err := h.projectService.ListByOrganizer(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "failed to list projects")
		return
	}

	_ = c.JSON(200, dto.NewProjectResponses(projects))
}

func (h *ProjectHandler) Get(c *drift.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid project id")
		return
	}

	project, err := h.projectService.GetByID(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, err, "failed to get project")
		return
	}

	_ = c.JSON(200, dto.NewProjectResponse(project))
}

func (h *ProjectHandler) Overview(c *drift.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid project id")
		return
	}

	overview, err := h.projectService.Overview(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, err, "failed to load project")
		return
	}

	_ = c.JSON(200, dto.NewProjectOverviewResponse(overview))
}

func (h *ProjectHandler) Update(c *drift.Context) {
	projectID, ok := requireProjectOrganizer(c, h.projectService)
	if !ok {
		return
	}

	var req dto.UpdateProjectRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	project, err := h.projectService.Update(c.Request.Context(), projectID, services.ProjectUpdate{
		Title:            req.Title,
		Description:      req.Description,
		PartnershipTypes: req.PartnershipTypes,
	})
	if err != nil {
		respondError(c, err, "failed to update project")
		return
	}

	_ = c.JSON(200, dto.NewProjectResponse(project))
}

func (h *ProjectHandler) UpdateStatus(c *drift.Context) {
	projectID, ok := requireProjectOrganizer(c, h.projectService)
	if !ok {
		return
	}

	var req dto.UpdateProjectStatusRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	project, err := h.projectService.UpdateStatus(c.Request.Context(), projectID, req.Status)
	if err != nil {
		respondError(c, err, "failed to update project status")
		return
	}

	_ = c.JSON(200, dto.NewProjectResponse(project))
}

func (h *ProjectHandler) Delete(c *drift.Context) {
	projectID, ok := requireProjectOrganizer(c, h.projectService)
	if !ok {
		return
	}

	if err := h.projectService.Delete(c.Request.Context(), projectID); err != nil {
		respondError(c, err, "failed to delete project")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "project deleted"})
}

// requireProjectOrganizer parses :id and answers the request itself unless the
// caller organizes that project.
func requireProjectOrganizer(c *drift.Context, projects ProjectServiceInterface) (uuid.UUID, bool) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return uuid.Nil, false
	}

	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid project id")
		return uuid.Nil, false
	}

	isOrganizer, err := projects.IsOrganizer(c.Request.Context(), projectID, userID)
	if err != nil {
		respondError(c, err, "failed to check project access")
		return uuid.Nil, false
	}
	if !isOrganizer {
		c.Forbidden("only the project organizer can do this")
		return uuid.Nil, false
	}
	return projectID, true
}
