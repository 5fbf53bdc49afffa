package handlers

import (
	"strings"

	"github.com/collabdoor/collabdoor-api/internal/middleware"
	"github.com/collabdoor/collabdoor-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type UserHandler struct {
	userService   UserServiceInterface
	reviewService ReviewServiceInterface
}

func NewUserHandler(userService UserServiceInterface, reviewService ReviewServiceInterface) *UserHandler {
	return &UserHandler{userService: userService, reviewService: reviewService}
}

func (h *UserHandler) GetMe(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		c.NotFound("user not found")
		return
	}

	_ = c.JSON(200, dto.NewUserResponse(user))
}

func (h *UserHandler) UpdateMe(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.UpdateUserRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		c.BadRequest("name is required")
		return
	}

	user, err := h.userService.Update(c.Request.Context(), userID, name)
	if err != nil {
		c.InternalServerError("failed to update user")
		return
	}

	_ = c.JSON(200, dto.NewUserResponse(user))
}

// Reviews returns the reviews a user received together with their rating summary.
func (h *UserHandler) Reviews(c *drift.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid user id")
		return
	}

	ctx := c.Request.Context()

	summary, err := h.reviewService.Summary(ctx, userID)
	if err != nil {
		respondError(c, err, "failed to get review summary")
		return
	}

	reviews, err := h.reviewService.ListForUser(ctx, userID)
	if err != nil {
		respondError(c, err, "failed to list reviews")
		return
	}

	_ = c.JSON(200, dto.NewUserReviewsResponse(summary, reviews))
}
