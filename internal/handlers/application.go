package handlers

import (
	"github.com/collabdoor/collabdoor-api/internal/middleware"
	"github.com/collabdoor/collabdoor-api/internal/services"
	"github.com/collabdoor/collabdoor-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type ApplicationHandler struct {
	applicationService  ApplicationServiceInterface
	projectService      ProjectServiceInterface
	organizationService OrganizationServiceInterface
}

func NewApplicationHandler(
	applicationService ApplicationServiceInterface,
	projectService ProjectServiceInterface,
	organizationService OrganizationServiceInterface,
) *ApplicationHandler {
	return &ApplicationHandler{
		applicationService:  applicationService,
		projectService:      projectService,
		organizationService: organizationService,
	}
}

// Check reports whether the caller already applied to the project.
func (h *ApplicationHandler) Check(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	app, err := h.applicationService.CheckStatus(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err, "failed to check application")
		return
	}

	_ = c.JSON(200, dto.NewApplicationStatusResponse(app))
}

func (h *ApplicationHandler) Apply(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.ApplyRequest
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

	app, err := h.applicationService.Apply(ctx, c.Param("id"), userID, services.ApplyInput{
		PartnershipType: req.PartnershipType,
		Message:         req.Message,
		OrganizationID:  req.OrganizationID,
	})
	if err != nil {
		respondError(c, err, "failed to submit application")
		return
	}

	_ = c.JSON(201, dto.NewApplicationResponse(app))
}

// ListByProject is the organizer's view of everyone who applied.
func (h *ApplicationHandler) ListByProject(c *drift.Context) {
	projectID, ok := requireProjectOrganizer(c, h.projectService)
	if !ok {
		return
	}

	apps, err := h.applicationService.ListByProject(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, err, "failed to list applications")
		return
	}

	_ = c.JSON(200, dto.NewApplicationResponses(apps))
}

func (h *ApplicationHandler) ListMine(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	apps, err := h.applicationService.ListByUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "failed to list applications")
		return
	}

	_ = c.JSON(200, dto.NewApplicationResponses(apps))
}

// UpdateStatus approves or rejects an application. Only the organizer of the
// application's project may decide.
func (h *ApplicationHandler) UpdateStatus(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	applicationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid application id")
		return
	}

	var req dto.UpdateApplicationStatusRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	ctx := c.Request.Context()

	app, err := h.applicationService.GetByID(ctx, applicationID)
	if err != nil {
		respondError(c, err, "failed to get application")
		return
	}

	isOrganizer, err := h.projectService.IsOrganizer(ctx, app.ProjectID, userID)
	if err != nil {
		respondError(c, err, "failed to check project access")
		return
	}
	if !isOrganizer {
		c.Forbidden("only the project organizer can decide applications")
		return
	}

	updated, err := h.applicationService.UpdateStatus(ctx, applicationID, req.Status)
	if err != nil {
		respondError(c, err, "failed to update application")
		return
	}

	_ = c.JSON(200, dto.NewApplicationResponse(updated))
}
