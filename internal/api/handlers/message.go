package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"chat-relay/internal/models"
	"chat-relay/internal/services"

	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	chatService *services.ChatService
}

func NewMessageHandler(chatService *services.ChatService) *MessageHandler {
	return &MessageHandler{chatService: chatService}
}

// GetMessages godoc
// @Summary List messages in a chat
// @Description Messages ordered oldest first; member-only
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param id path int true "Chat ID"
// @Success 200 {array} models.MessageResponse
// @Failure 403 {object} models.ErrorResponse "Not a chat member"
// @Router /chats/{id}/messages [get]
func (h *MessageHandler) GetMessages(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	chatID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid chat ID"})
		return
	}

	messages, err := h.chatService.GetMessages(c.Request.Context(), userID, uint(chatID))
	if err != nil {
		if errors.Is(err, services.ErrNotChatMember) {
			c.JSON(http.StatusForbidden, models.ErrorResponse{Code: http.StatusForbidden, Message: "Forbidden"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list messages"})
		return
	}
	c.JSON(http.StatusOK, messages)
}

// CreateMessage godoc
// @Summary Send a message to a chat
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Chat ID"
// @Param request body models.CreateMessageRequest true "Message data"
// @Success 201 {object} models.MessageResponse
// @Failure 403 {object} models.ErrorResponse "Not a chat member"
// @Router /chats/{id}/messages [post]
func (h *MessageHandler) CreateMessage(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	chatID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid chat ID"})
		return
	}

	var req models.CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid message data"})
		return
	}

	message, err := h.chatService.CreateMessage(c.Request.Context(), userID, uint(chatID), &req)
	if err != nil {
		if errors.Is(err, services.ErrNotChatMember) {
			c.JSON(http.StatusForbidden, models.ErrorResponse{Code: http.StatusForbidden, Message: "Forbidden"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create message"})
		return
	}
	c.JSON(http.StatusCreated, message.ToResponse())
}

// React godoc
// @Summary Set the requester's reaction on a message
// @Description One reaction per user per message; a new reaction replaces the old one
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Chat ID"
// @Param messageId path int true "Message ID"
// @Param request body models.ReactionRequest true "Reaction data"
// @Success 200 {object} models.MessageResponse
// @Failure 404 {object} models.ErrorResponse "Message not found"
// @Router /chats/{id}/messages/{messageId}/reactions [post]
func (h *MessageHandler) React(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	chatID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid chat ID"})
		return
	}
	messageID, err := strconv.ParseUint(c.Param("messageId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid message ID"})
		return
	}

	var req models.ReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reaction data"})
		return
	}

	message, err := h.chatService.React(c.Request.Context(), userID, uint(chatID), uint(messageID), req.Reaction)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMessageNotFound):
			c.JSON(http.StatusNotFound, models.ErrorResponse{Code: http.StatusNotFound, Message: "Message not found"})
		case errors.Is(err, services.ErrNotChatMember):
			c.JSON(http.StatusForbidden, models.ErrorResponse{Code: http.StatusForbidden, Message: "Forbidden"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to set reaction"})
		}
		return
	}
	c.JSON(http.StatusOK, message)
}

// MarkRead godoc
// @Summary Mark a message as read
// @Description Reading your own message is a no-op
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param messageId path int true "Message ID"
// @Success 200 {object} models.MessageResponse
// @Failure 404 {object} models.ErrorResponse "Message not found"
// @Router /messages/{messageId}/read [post]
func (h *MessageHandler) MarkRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	messageID, err := strconv.ParseUint(c.Param("messageId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid message ID"})
		return
	}

	message, err := h.chatService.MarkRead(c.Request.Context(), userID, uint(messageID))
	if err != nil {
		if errors.Is(err, services.ErrMessageNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Code: http.StatusNotFound, Message: "Message not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark as read"})
		return
	}
	c.JSON(http.StatusOK, message)
}
