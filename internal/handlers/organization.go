package handlers

import (
	"context"
	"strings"

	"github.com/collabdoor/collabdoor-api/internal/middleware"
	"github.com/collabdoor/collabdoor-api/internal/models"
	"github.com/collabdoor/collabdoor-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type OrganizationHandler struct {
	organizationService OrganizationServiceInterface
}

func NewOrganizationHandler(organizationService OrganizationServiceInterface) *OrganizationHandler {
	return &OrganizationHandler{organizationService: organizationService}
}

func (h *OrganizationHandler) Create(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.CreateOrganizationRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		c.BadRequest("name is required")
		return
	}

	org, err := h.organizationService.Create(c.Request.Context(), req.Name, req.Description, userID)
	if err != nil {
		respondError(c, err, "failed to create organization")
		return
	}

	_ = c.JSON(201, dto.NewOrganizationResponse(org, models.RoleOwner))
}

func (h *OrganizationHandler) List(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	orgs, roles, err := h.organizationService.ListForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "failed to get organizations")
		return
	}

	response := make([]dto.OrganizationResponse, len(orgs))
	for i := range orgs {
		response[i] = dto.NewOrganizationResponse(&orgs[i], roles[i])
	}

	_ = c.JSON(200, response)
}

// Get is open to any signed-in user so they can find an organization to
// request to join. Role is empty for non-members.
func (h *OrganizationHandler) Get(c *drift.Context) {
	userID, orgID, ok := organizationCaller(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()

	org, err := h.organizationService.GetByID(ctx, orgID)
	if err != nil {
		respondError(c, err, "failed to get organization")
		return
	}

	role := ""
	if org.OwnerID == userID {
		role = models.RoleOwner
	} else if isMember, err := h.organizationService.IsMember(ctx, orgID, userID); err == nil && isMember {
		role = models.RoleMember
	}

	_ = c.JSON(200, dto.NewOrganizationResponse(org, role))
}

func (h *OrganizationHandler) Update(c *drift.Context) {
	userID, orgID, ok := organizationCaller(c)
	if !ok {
		return
	}

	var req dto.UpdateOrganizationRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if !h.requireOwner(c, orgID, userID) {
		return
	}

	org, err := h.organizationService.Update(c.Request.Context(), orgID, req.Name, req.Description)
	if err != nil {
		respondError(c, err, "failed to update organization")
		return
	}

	_ = c.JSON(200, dto.NewOrganizationResponse(org, models.RoleOwner))
}

func (h *OrganizationHandler) Delete(c *drift.Context) {
	userID, orgID, ok := organizationCaller(c)
	if !ok {
		return
	}

	if !h.requireOwner(c, orgID, userID) {
		return
	}

	if err := h.organizationService.Delete(c.Request.Context(), orgID); err != nil {
		respondError(c, err, "failed to delete organization")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "organization deleted"})
}

func (h *OrganizationHandler) GetMembers(c *drift.Context) {
	userID, orgID, ok := organizationCaller(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()

	isMember, err := h.organizationService.IsMember(ctx, orgID, userID)
	if err != nil || !isMember {
		c.NotFound("organization not found")
		return
	}

	members, err := h.organizationService.GetMembers(ctx, orgID)
	if err != nil {
		respondError(c, err, "failed to get members")
		return
	}

	_ = c.JSON(200, dto.NewOrganizationMemberResponses(members))
}

// RemoveMember lets the owner remove anyone but themselves, and lets a member
// leave.
func (h *OrganizationHandler) RemoveMember(c *drift.Context) {
	userID, orgID, ok := organizationCaller(c)
	if !ok {
		return
	}

	memberID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.BadRequest("invalid user id")
		return
	}

	if memberID != userID && !h.requireOwner(c, orgID, userID) {
		return
	}

	if err := h.organizationService.RemoveMember(c.Request.Context(), orgID, memberID); err != nil {
		respondError(c, err, "failed to remove member")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "member removed"})
}

func (h *OrganizationHandler) RequestToJoin(c *drift.Context) {
	userID, orgID, ok := organizationCaller(c)
	if !ok {
		return
	}

	var req dto.JoinRequestRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	jr, err := h.organizationService.CreateJoinRequest(c.Request.Context(), orgID, userID, req.Message)
	if err != nil {
		respondError(c, err, "failed to create join request")
		return
	}

	_ = c.JSON(201, dto.NewJoinRequestResponse(jr))
}

// ListJoinRequests is owner only; ?status= narrows the list (default pending).
func (h *OrganizationHandler) ListJoinRequests(c *drift.Context) {
	userID, orgID, ok := organizationCaller(c)
	if !ok {
		return
	}

	if !h.requireOwner(c, orgID, userID) {
		return
	}

	status := c.QueryParam("status")
	if status == "" {
		status = models.JoinRequestStatusPending
	}

	requests, err := h.organizationService.ListJoinRequests(c.Request.Context(), orgID, status)
	if err != nil {
		respondError(c, err, "failed to list join requests")
		return
	}

	_ = c.JSON(200, dto.NewJoinRequestResponses(requests))
}

func (h *OrganizationHandler) ApproveJoinRequest(c *drift.Context) {
	h.decideJoinRequest(c, h.organizationService.ApproveJoinRequest)
}

func (h *OrganizationHandler) RejectJoinRequest(c *drift.Context) {
	h.decideJoinRequest(c, h.organizationService.RejectJoinRequest)
}

type joinRequestDecision func(ctx context.Context, requestID uuid.UUID) (*models.JoinRequest, error)

func (h *OrganizationHandler) decideJoinRequest(c *drift.Context, decide joinRequestDecision) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid join request id")
		return
	}

	ctx := c.Request.Context()

	jr, err := h.organizationService.GetJoinRequest(ctx, requestID)
	if err != nil {
		respondError(c, err, "failed to get join request")
		return
	}

	if !h.requireOwner(c, jr.OrganizationID, userID) {
		return
	}

	decided, err := decide(ctx, requestID)
	if err != nil {
		respondError(c, err, "failed to decide join request")
		return
	}

	_ = c.JSON(200, dto.NewJoinRequestResponse(decided))
}

func (h *OrganizationHandler) requireOwner(c *drift.Context, orgID, userID uuid.UUID) bool {
	isOwner, err := h.organizationService.IsOwner(c.Request.Context(), orgID, userID)
	if err != nil {
		respondError(c, err, "failed to check organization access")
		return false
	}
	if !isOwner {
		c.Forbidden("only the organization owner can do this")
		return false
	}
	return true
}

func organizationCaller(c *drift.Context) (uuid.UUID, uuid.UUID, bool) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return uuid.Nil, uuid.Nil, false
	}

	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid organization id")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, orgID, true
}
