package handlers

import (
	"github.com/collabdoor/collabdoor-api/internal/middleware"
	"github.com/collabdoor/collabdoor-api/internal/services"
	"github.com/collabdoor/collabdoor-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type PhaseHandler struct {
	phaseService   PhaseServiceInterface
	projectService ProjectServiceInterface
}

func NewPhaseHandler(phaseService PhaseServiceInterface, projectService ProjectServiceInterface) *PhaseHandler {
	return &PhaseHandler{
		phaseService:   phaseService,
		projectService: projectService,
	}
}

func (h *PhaseHandler) List(c *drift.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid project id")
		return
	}

	phases, err := h.phaseService.List(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, err, "failed to list phases")
		return
	}

	_ = c.JSON(200, dto.NewPhaseResponses(phases))
}

func (h *PhaseHandler) Create(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid project id")
		return
	}

	var req dto.CreatePhaseRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if !h.canCollaborate(c, projectID, userID) {
		return
	}

	phase, err := h.phaseService.Add(c.Request.Context(), projectID, userID, services.PhaseInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Order:       req.Order,
	})
	if err != nil {
		respondError(c, err, "failed to create phase")
		return
	}

	_ = c.JSON(201, dto.NewPhaseResponse(phase))
}

func (h *PhaseHandler) Update(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	phaseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid phase id")
		return
	}

	var req dto.UpdatePhaseRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	ctx := c.Request.Context()

	existing, err := h.phaseService.GetByID(ctx, phaseID)
	if err != nil {
		respondError(c, err, "failed to get phase")
		return
	}
	if !h.canCollaborate(c, existing.ProjectID, userID) {
		return
	}

	phase, err := h.phaseService.Update(ctx, phaseID, userID, services.PhaseUpdate{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Status:      req.Status,
	})
	if err != nil {
		respondError(c, err, "failed to update phase")
		return
	}

	_ = c.JSON(200, dto.NewPhaseResponse(phase))
}

func (h *PhaseHandler) Delete(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	phaseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid phase id")
		return
	}

	ctx := c.Request.Context()

	existing, err := h.phaseService.GetByID(ctx, phaseID)
	if err != nil {
		respondError(c, err, "failed to get phase")
		return
	}
	if !h.canCollaborate(c, existing.ProjectID, userID) {
		return
	}

	if err := h.phaseService.Delete(ctx, phaseID, userID); err != nil {
		respondError(c, err, "failed to delete phase")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "phase deleted"})
}

// canCollaborate answers with 403 unless the user organizes the project or is
// an approved partner on it.
func (h *PhaseHandler) canCollaborate(c *drift.Context, projectID, userID uuid.UUID) bool {
	ok, err := h.projectService.CanCollaborate(c.Request.Context(), projectID, userID)
	if err != nil {
		respondError(c, err, "failed to check project access")
		return false
	}
	if !ok {
		c.Forbidden("only the organizer and approved partners can edit phases")
		return false
	}
	return true
}
