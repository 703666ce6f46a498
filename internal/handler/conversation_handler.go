package handler

import (
	"errors"
	"net/http"

	"messagebox/internal/services"
	"messagebox/internal/transport/httpdto"
	messagebox_errors "messagebox/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ConversationHandler struct {
	service *services.ConversationService
}

func NewConversationHandler(service *services.ConversationService) *ConversationHandler {
	return &ConversationHandler{service: service}
}

// List returns the user's conversations, most recently active first.
func (h *ConversationHandler) List(c *gin.Context) {
	userID, err := uuid.Parse(c.Query("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid userId", "INVALID_REQUEST"))
		return
	}

	items, err := h.service.GetUserConversations(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("could not list conversations", "STORAGE_ERROR"))
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ListConversationsResponse{
		Conversations: httpdto.FromConversationSlice(items),
	}))
}

// CreateGroup creates a conversation over the posted member set.
func (h *ConversationHandler) CreateGroup(c *gin.Context) {
	var req httpdto.CreateGroupConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	members := make([]uuid.UUID, 0, len(req.Members))
	for _, idStr := range req.Members {
		id, err := uuid.Parse(idStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid member id", "INVALID_REQUEST"))
			return
		}
		members = append(members, id)
	}

	conv, err := h.service.CreateGroupConversation(c.Request.Context(), members)
	if err != nil {
		if errors.Is(err, messagebox_errors.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("at least two distinct members required", "INVALID_REQUEST"))
			return
		}
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("could not create conversation", "STORAGE_ERROR"))
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromConversation(conv)))
}

// Messages returns a conversation's messages, newest first.
func (h *ConversationHandler) Messages(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("conversation_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid conversation id", "INVALID_REQUEST"))
		return
	}

	items, err := h.service.GetConversationMessages(c.Request.Context(), conversationID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("could not list messages", "STORAGE_ERROR"))
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ListMessagesResponse{
		Messages: httpdto.FromMessageSlice(items),
	}))
}

// UnreadCount returns how many of the user's conversations have
// unacknowledged activity.
func (h *ConversationHandler) UnreadCount(c *gin.Context) {
	userID, err := uuid.Parse(c.Query("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid userId", "INVALID_REQUEST"))
		return
	}

	count, err := h.service.GetUnreadCount(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("could not count unread conversations", "STORAGE_ERROR"))
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.UnreadCountResponse{
		UnreadConversations: count,
	}))
}
