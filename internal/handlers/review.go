package handlers

import (
	"github.com/collabdoor/collabdoor-api/internal/middleware"
	"github.com/collabdoor/collabdoor-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type ReviewHandler struct {
	reviewService ReviewServiceInterface
}

func NewReviewHandler(reviewService ReviewServiceInterface) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// Queue lists the caller's outstanding reviews for a completed project; the
// first entry is the one to show.
func (h *ReviewHandler) Queue(c *drift.Context) {
	userID, projectID, ok := projectCaller(c)
	if !ok {
		return
	}

	queue, err := h.reviewService.Queue(c.Request.Context(), projectID, userID)
	if err != nil {
		respondError(c, err, "failed to load review queue")
		return
	}

	_ = c.JSON(200, dto.NewPendingReviewResponses(queue))
}

func (h *ReviewHandler) Submit(c *drift.Context) {
	userID, projectID, ok := projectCaller(c)
	if !ok {
		return
	}

	var req dto.SubmitReviewRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.RevieweeID == uuid.Nil {
		c.BadRequest("reviewee_id is required")
		return
	}

	review, err := h.reviewService.Submit(c.Request.Context(), projectID, userID, req.RevieweeID, req.Rating, req.Comment)
	if err != nil {
		respondError(c, err, "failed to submit review")
		return
	}

	_ = c.JSON(201, dto.NewReviewResponse(review))
}

func (h *ReviewHandler) Skip(c *drift.Context) {
	userID, projectID, ok := projectCaller(c)
	if !ok {
		return
	}

	var req dto.SkipReviewRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.RevieweeID == uuid.Nil {
		c.BadRequest("reviewee_id is required")
		return
	}

	if err := h.reviewService.Skip(c.Request.Context(), projectID, userID, req.RevieweeID); err != nil {
		respondError(c, err, "failed to skip review")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "review skipped"})
}

func projectCaller(c *drift.Context) (uuid.UUID, uuid.UUID, bool) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return uuid.Nil, uuid.Nil, false
	}

	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid project id")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, projectID, true
}
