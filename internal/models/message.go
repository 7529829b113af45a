package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ReactionMap holds at most one reaction symbol per user (last write wins).
// Stored as a jsonb column keyed by user ID.
type ReactionMap map[uint]string

func (m ReactionMap) Value() (driver.Value, error) {
	if m == nil {
		m = ReactionMap{}
	}
	return json.Marshal(m)
}

func (m *ReactionMap) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*m = ReactionMap{}
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported reactions column type %T", value)
	}
}

/** --------------------ENTITIES-------------------- */
// Message represents a chat message. Delivery and read flags are mutated by
// the relay through the storage layer; the relay never owns the record.
type Message struct {
	gorm.Model
	ChatID   uint    `gorm:"not null;index" json:"chatId"`
	SenderID uint    `gorm:"not null;index" json:"senderId"`
	Content  *string `json:"content,omitempty"`
	MediaURL *string `json:"mediaUrl,omitempty"`
	// SentAt mirrors CreatedAt but is part of the wire contract.
	SentAt      time.Time   `gorm:"autoCreateTime" json:"sentAt"`
	ReplyToID   *uint       `json:"replyToId,omitempty"`
	Reactions   ReactionMap `gorm:"type:jsonb;default:'{}'" json:"reactions"`
	IsRead      bool        `gorm:"default:false" json:"isRead"`
	IsDelivered bool        `gorm:"default:false" json:"isDelivered"`
}

/** -------------------- DTOs -------------------- */
// Request
type CreateMessageRequest struct {
	Content   *string `json:"content,omitempty"`
	MediaURL  *string `json:"mediaUrl,omitempty"`
	ReplyToID *uint   `json:"replyToId,omitempty"`
}

type ReactionRequest struct {
	Reaction string `json:"reaction" binding:"required,max=32"`
}

// Response
type MessageResponse struct {
	ID          uint        `json:"id"`
	ChatID      uint        `json:"chatId"`
	SenderID    uint        `json:"senderId"`
	Content     *string     `json:"content,omitempty"`
	MediaURL    *string     `json:"mediaUrl,omitempty"`
	SentAt      time.Time   `json:"sentAt"`
	ReplyToID   *uint       `json:"replyToId,omitempty"`
	Reactions   ReactionMap `json:"reactions"`
	IsRead      bool        `json:"isRead"`
	IsDelivered bool        `json:"isDelivered"`
}

func (m *Message) ToResponse() MessageResponse {
	reactions := m.Reactions
	if reactions == nil {
		reactions = ReactionMap{}
	}
	return MessageResponse{
		ID:          m.ID,
		ChatID:      m.ChatID,
		SenderID:    m.SenderID,
		Content:     m.Content,
		MediaURL:    m.MediaURL,
		SentAt:      m.SentAt,
		ReplyToID:   m.ReplyToID,
		Reactions:   reactions,
		IsRead:      m.IsRead,
		IsDelivered: m.IsDelivered,
	}
}
