package postgres

import (
	"context"

	"chat-relay/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db}
}

func (r *MessageRepository) Create(ctx context.Context, message *models.Message) error {
	if message.Reactions == nil {
		message.Reactions = models.ReactionMap{}
	}
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *MessageRepository) FindByID(ctx context.Context, id uint) (*models.Message, error) {
	var message models.Message
	err := r.db.WithContext(ctx).First(&message, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *MessageRepository) FindByChatID(ctx context.Context, chatID uint) ([]*models.Message, error) {
	var messages []*models.Message
	err := r.db.WithContext(ctx).Where("chat_id = ?", chatID).
		Order("sent_at").
		Find(&messages).Error
	return messages, err
}

func (r *MessageRepository) LastByChatID(ctx context.Context, chatID uint) (*models.Message, error) {
	var message models.Message
	err := r.db.WithContext(ctx).Where("chat_id = ?", chatID).
		Order("sent_at DESC").
		First(&message).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// CountUnread counts messages in a chat the given user has not read and did not send.
func (r *MessageRepository) CountUnread(ctx context.Context, chatID, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("chat_id = ? AND sender_id <> ? AND is_read = ?", chatID, userID, false).
		Count(&count).Error
	return count, err
}

func (r *MessageRepository) MarkAsRead(ctx context.Context, messageID uint) (*models.Message, error) {
	if err := r.db.WithContext(ctx).Model(&models.Message{}).Where("id = ?", messageID).
		Update("is_read", true).Error; err != nil {
		return nil, err
	}
	return r.FindByID(ctx, messageID)
}

func (r *MessageRepository) MarkAsDelivered(ctx context.Context, messageID uint) (*models.Message, error) {
	if err := r.db.WithContext(ctx).Model(&models.Message{}).Where("id = ?", messageID).
		Update("is_delivered", true).Error; err != nil {
		return nil, err
	}
	return r.FindByID(ctx, messageID)
}

// UpsertReaction replaces the user's reaction slot on the message, last write
// wins. The row is locked for the duration of the read-modify-write so two
// concurrent reactors cannot lose each other's entry.
func (r *MessageRepository) UpsertReaction(ctx context.Context, messageID, userID uint, reaction string) (*models.Message, error) {
	var message models.Message
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&message, "id = ?", messageID).Error; err != nil {
			return err
		}
		if message.Reactions == nil {
			message.Reactions = models.ReactionMap{}
		}
		message.Reactions[userID] = reaction
		return tx.Model(&message).Update("reactions", message.Reactions).Error
	})
	if err != nil {
		return nil, err
	}
	return &message, nil
}
