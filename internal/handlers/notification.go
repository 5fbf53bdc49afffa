package handlers

import (
	"strconv"

	"github.com/collabdoor/collabdoor-api/internal/middleware"
	"github.com/collabdoor/collabdoor-api/internal/sse"
	"github.com/collabdoor/collabdoor-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

const clientSendBuffer = 64

type NotificationHandler struct {
	notificationService NotificationServiceInterface
	hub                 HubInterface
}

func NewNotificationHandler(notificationService NotificationServiceInterface, hub HubInterface) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		hub:                 hub,
	}
}

func (h *NotificationHandler) List(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	unreadOnly := c.QueryParam("unread") == "true"
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	notifications, err := h.notificationService.List(c.Request.Context(), userID, unreadOnly, limit)
	if err != nil {
		respondError(c, err, "failed to list notifications")
		return
	}

	_ = c.JSON(200, dto.NewNotificationResponses(notifications))
}

func (h *NotificationHandler) UnreadCount(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	count, err := h.notificationService.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "failed to count notifications")
		return
	}

	_ = c.JSON(200, dto.UnreadCountResponse{Count: count})
}

func (h *NotificationHandler) MarkAsRead(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	notificationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid notification id")
		return
	}

	if err := h.notificationService.MarkAsRead(c.Request.Context(), notificationID, userID); err != nil {
		respondError(c, err, "failed to mark notification read")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "notification marked as read"})
}

func (h *NotificationHandler) MarkAllAsRead(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	n, err := h.notificationService.MarkAllAsRead(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "failed to mark notifications read")
		return
	}

	_ = c.JSON(200, dto.MarkAllReadResponse{Updated: n})
}

// Stream holds an SSE connection open and relays notification and phase
// events for the caller until the client disconnects.
func (h *NotificationHandler) Stream(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	sseCtx := c.SSE()

	clientID := uuid.New().String()
	client := &sse.Client{
		ID:       clientID,
		UserID:   userID,
		Projects: make(map[uuid.UUID]bool),
		Send:     make(chan []byte, clientSendBuffer),
	}

	h.hub.Register(client)
	defer h.hub.Unregister(client)

	if err := sseCtx.SendJSON(map[string]string{
		"type":      "connected",
		"client_id": clientID,
	}, "system", ""); err != nil {
		return
	}

	done := c.Request.Context().Done()
	for {
		select {
		case msg, ok := <-client.Send:
			if !ok {
				return
			}
			if err := sseCtx.Send(string(msg), "message", ""); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// Watch adds a project's phase events to one of the caller's streams.
func (h *NotificationHandler) Watch(c *drift.Context) {
	clientID, projectID, ok := h.streamTarget(c)
	if !ok {
		return
	}

	if !h.hub.WatchProject(clientID, projectID) {
		c.NotFound("stream not found")
		return
	}

	_ = c.JSON(200, map[string]string{
		"message": "watching project " + projectID.String(),
	})
}

func (h *NotificationHandler) Unwatch(c *drift.Context) {
	clientID, projectID, ok := h.streamTarget(c)
	if !ok {
		return
	}

	h.hub.UnwatchProject(clientID, projectID)

	_ = c.JSON(200, map[string]string{
		"message": "stopped watching project " + projectID.String(),
	})
}

// streamTarget resolves :clientId and :projectId, and makes sure the stream
// belongs to the caller.
func (h *NotificationHandler) streamTarget(c *drift.Context) (string, uuid.UUID, bool) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return "", uuid.Nil, false
	}

	clientID := c.Param("clientId")
	if clientID == "" {
		c.BadRequest("client_id is required")
		return "", uuid.Nil, false
	}

	projectID, err := uuid.Parse(c.Param("projectId"))
	if err != nil {
		c.BadRequest("invalid project id")
		return "", uuid.Nil, false
	}

	if h.hub.ClientOwner(clientID) != userID {
		c.NotFound("stream not found")
		return "", uuid.Nil, false
	}
	return clientID, projectID, true
}
