package models

import (
	"time"

	"gorm.io/gorm"
)

/** --------------------ENTITIES-------------------- */
// Chat represents a conversation, either private (two members) or a named group.
type Chat struct {
	gorm.Model
	Name      *string `json:"name,omitempty"`
	IsGroup   bool    `gorm:"default:false" json:"isGroup"`
	CreatedBy uint    `gorm:"not null" json:"createdBy"`
	Image     *string `json:"image,omitempty"`
}

// ChatMember links a user to a chat. Membership is the authorization
// predicate for every message/typing/reaction targeting the chat.
type ChatMember struct {
	ID       uint      `gorm:"primarykey" json:"id"`
	ChatID   uint      `gorm:"not null;uniqueIndex:idx_chat_members_chat_user" json:"chatId"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_chat_members_chat_user" json:"userId"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joinedAt"`
	IsAdmin  bool      `gorm:"default:false" json:"isAdmin"`
}

/** -------------------- DTOs -------------------- */
// Request
type CreateChatRequest struct {
	Name      *string `json:"name,omitempty"`
	IsGroup   bool    `json:"isGroup"`
	Image     *string `json:"image,omitempty"`
	MemberIDs []uint  `json:"memberIds,omitempty"`
}

type AddMemberRequest struct {
	UserID  uint `json:"userId" binding:"required"`
	IsAdmin bool `json:"isAdmin"`
}

// Response
type ChatResponse struct {
	ID        uint      `json:"id"`
	Name      *string   `json:"name,omitempty"`
	IsGroup   bool      `json:"isGroup"`
	CreatedBy uint      `json:"createdBy"`
	Image     *string   `json:"image,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ChatWithLastMessage is the sidebar projection: the chat, who is in it,
// the most recent message and how many are still unread.
type ChatWithLastMessage struct {
	ChatResponse
	LastMessage *MessageResponse `json:"lastMessage,omitempty"`
	UnreadCount int64            `json:"unreadCount"`
	Members     []UserResponse   `json:"members"`
}

func (c *Chat) ToResponse() ChatResponse {
	return ChatResponse{
		ID:        c.ID,
		Name:      c.Name,
		IsGroup:   c.IsGroup,
		CreatedBy: c.CreatedBy,
		Image:     c.Image,
		CreatedAt: c.CreatedAt,
	}
}
