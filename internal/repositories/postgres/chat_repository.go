package postgres

import (
	"context"

	"chat-relay/internal/models"

	"gorm.io/gorm"
)

type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db}
}

func (r *ChatRepository) Create(ctx context.Context, chat *models.Chat) error {
	return r.db.WithContext(ctx).Create(chat).Error
}

func (r *ChatRepository) FindByID(ctx context.Context, id uint) (*models.Chat, error) {
	var chat models.Chat
	err := r.db.WithContext(ctx).First(&chat, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

func (r *ChatRepository) FindByUserID(ctx context.Context, userID uint) ([]*models.Chat, error) {
	var chats []*models.Chat
	err := r.db.WithContext(ctx).
		Joins("JOIN chat_members ON chat_members.chat_id = chats.id").
		Where("chat_members.user_id = ?", userID).
		Order("chats.created_at DESC").
		Find(&chats).Error
	return chats, err
}

func (r *ChatRepository) AddMember(ctx context.Context, member *models.ChatMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *ChatRepository) GetMembers(ctx context.Context, chatID uint) ([]*models.User, error) {
	var users []*models.User
	err := r.db.WithContext(ctx).
		Joins("JOIN chat_members ON chat_members.user_id = users.id").
		Where("chat_members.chat_id = ?", chatID).
		Find(&users).Error
	return users, err
}

func (r *ChatRepository) IsMember(ctx context.Context, userID, chatID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ChatMember{}).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *ChatRepository) IsAdmin(ctx context.Context, userID, chatID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ChatMember{}).
		Where("chat_id = ? AND user_id = ? AND is_admin = ?", chatID, userID, true).
		Count(&count).Error
	return count > 0, err
}
