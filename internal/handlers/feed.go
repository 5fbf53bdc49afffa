package handlers

import (
	"strconv"

	"github.com/collabdoor/collabdoor-api/internal/middleware"
	"github.com/collabdoor/collabdoor-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type FeedHandler struct {
	feedService FeedServiceInterface
}

func NewFeedHandler(feedService FeedServiceInterface) *FeedHandler {
	return &FeedHandler{feedService: feedService}
}

func (h *FeedHandler) CreatePost(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.CreatePostRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	post, err := h.feedService.CreatePost(c.Request.Context(), userID, req.Content, req.ImageURL, req.OrganizationIDs)
	if err != nil {
		respondError(c, err, "failed to create post")
		return
	}

	_ = c.JSON(201, dto.NewPostResponse(post))
}

// ListPosts pages through the feed, newest first. ?organization= limits it to
// posts tagged with one organization.
func (h *FeedHandler) ListPosts(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var orgID *uuid.UUID
	if raw := c.QueryParam("organization"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.BadRequest("invalid organization id")
			return
		}
		orgID = &id
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	posts, err := h.feedService.ListPosts(c.Request.Context(), userID, orgID, limit, offset)
	if err != nil {
		respondError(c, err, "failed to list posts")
		return
	}

	_ = c.JSON(200, dto.NewPostResponses(posts))
}

func (h *FeedHandler) DeletePost(c *drift.Context) {
	userID, postID, ok := feedTarget(c, "invalid post id")
	if !ok {
		return
	}

	if err := h.feedService.DeletePost(c.Request.Context(), postID, userID); err != nil {
		respondError(c, err, "failed to delete post")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "post deleted"})
}

func (h *FeedHandler) ToggleLike(c *drift.Context) {
	userID, postID, ok := feedTarget(c, "invalid post id")
	if !ok {
		return
	}

	liked, count, err := h.feedService.ToggleLike(c.Request.Context(), postID, userID)
	if err != nil {
		respondError(c, err, "failed to like post")
		return
	}

	_ = c.JSON(200, dto.LikeResponse{Liked: liked, LikeCount: count})
}

func (h *FeedHandler) AddComment(c *drift.Context) {
	userID, postID, ok := feedTarget(c, "invalid post id")
	if !ok {
		return
	}

	var req dto.CreateCommentRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	comment, err := h.feedService.AddComment(c.Request.Context(), postID, userID, req.Content)
	if err != nil {
		respondError(c, err, "failed to add comment")
		return
	}

	_ = c.JSON(201, dto.NewCommentResponse(comment))
}

func (h *FeedHandler) ListComments(c *drift.Context) {
	_, postID, ok := feedTarget(c, "invalid post id")
	if !ok {
		return
	}

	comments, err := h.feedService.ListComments(c.Request.Context(), postID)
	if err != nil {
		respondError(c, err, "failed to list comments")
		return
	}

	_ = c.JSON(200, dto.NewCommentResponses(comments))
}

func (h *FeedHandler) DeleteComment(c *drift.Context) {
	userID, commentID, ok := feedTarget(c, "invalid comment id")
	if !ok {
		return
	}

	if err := h.feedService.DeleteComment(c.Request.Context(), commentID, userID); err != nil {
		respondError(c, err, "failed to delete comment")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "comment deleted"})
}

func feedTarget(c *drift.Context, invalidMsg string) (uuid.UUID, uuid.UUID, bool) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return uuid.Nil, uuid.Nil, false
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest(invalidMsg)
		return uuid.Nil, uuid.Nil, false
	}
	return userID, id, true
}
