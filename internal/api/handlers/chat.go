package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"chat-relay/internal/models"
	"chat-relay/internal/services"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	chatService *services.ChatService
}

func NewChatHandler(chatService *services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// GetUserChats godoc
// @Summary List the requester's chats
// @Description Chats with members, last message and unread count
// @Tags chats
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.ChatWithLastMessage
// @Router /chats [get]
func (h *ChatHandler) GetUserChats(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	chats, err := h.chatService.GetUserChats(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list chats"})
		return
	}
	c.JSON(http.StatusOK, chats)
}

// CreateChat godoc
// @Summary Create a chat
// @Description Creates a private or group chat; the creator becomes an admin member
// @Tags chats
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateChatRequest true "Chat data"
// @Success 201 {object} models.ChatResponse
// @Router /chats [post]
func (h *ChatHandler) CreateChat(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.CreateChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid chat data"})
		return
	}

	chat, err := h.chatService.CreateChat(c.Request.Context(), userID, &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create chat"})
		return
	}
	c.JSON(http.StatusCreated, chat)
}

// GetChat godoc
// @Summary Get a chat by ID
// @Tags chats
// @Produce json
// @Security BearerAuth
// @Param id path int true "Chat ID"
// @Success 200 {object} models.ChatResponse
// @Failure 403 {object} models.ErrorResponse "Not a chat member"
// @Failure 404 {object} models.ErrorResponse "Chat not found"
// @Router /chats/{id} [get]
func (h *ChatHandler) GetChat(c *gin.Context) {
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

	chat, err := h.chatService.GetChat(c.Request.Context(), userID, uint(chatID))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrChatNotFound):
			c.JSON(http.StatusNotFound, models.ErrorResponse{Code: http.StatusNotFound, Message: "Chat not found"})
		case errors.Is(err, services.ErrNotChatMember):
			c.JSON(http.StatusForbidden, models.ErrorResponse{Code: http.StatusForbidden, Message: "Forbidden"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load chat"})
		}
		return
	}
	c.JSON(http.StatusOK, chat)
}

// AddMember godoc
// @Summary Add a member to a chat
// @Description Only chat admins can add members
// @Tags chats
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Chat ID"
// @Param request body models.AddMemberRequest true "Member data"
// @Success 201 {object} models.ChatMember
// @Failure 403 {object} models.ErrorResponse "Only admins can add members"
// @Router /chats/{id}/members [post]
func (h *ChatHandler) AddMember(c *gin.Context) {
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

	var req models.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid member data"})
		return
	}

	member, err := h.chatService.AddMember(c.Request.Context(), userID, uint(chatID), &req)
	if err != nil {
		if errors.Is(err, services.ErrNotChatAdmin) {
			c.JSON(http.StatusForbidden, models.ErrorResponse{Code: http.StatusForbidden, Message: "Only admins can add members"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add member"})
		return
	}
	c.JSON(http.StatusCreated, member)
}
