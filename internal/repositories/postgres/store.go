package postgres

import (
	"context"
	"errors"

	"chat-relay/internal/models"

	"gorm.io/gorm"
)

// Store bundles the per-entity repositories behind the storage contract the
// relay engine consumes. Absent records are reported as (nil, nil) so callers
// do not depend on gorm sentinels.
type Store struct {
	users    *UserRepository
	chats    *ChatRepository
	messages *MessageRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		users:    NewUserRepository(db),
		chats:    NewChatRepository(db),
		messages: NewMessageRepository(db),
	}
}

func (s *Store) IsUserChatMember(ctx context.Context, userID, chatID uint) (bool, error) {
	return s.chats.IsMember(ctx, userID, chatID)
}

func (s *Store) GetChatMembers(ctx context.Context, chatID uint) ([]*models.User, error) {
	return s.chats.GetMembers(ctx, chatID)
}

func (s *Store) CreateMessage(ctx context.Context, message *models.Message) error {
	return s.messages.Create(ctx, message)
}

func (s *Store) GetMessage(ctx context.Context, id uint) (*models.Message, error) {
	message, err := s.messages.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return message, err
}

func (s *Store) MarkMessageAsRead(ctx context.Context, messageID, userID uint) (*models.Message, error) {
	return s.messages.MarkAsRead(ctx, messageID)
}

func (s *Store) MarkMessageAsDelivered(ctx context.Context, messageID uint) (*models.Message, error) {
	return s.messages.MarkAsDelivered(ctx, messageID)
}

func (s *Store) AddMessageReaction(ctx context.Context, messageID, userID uint, reaction string) (*models.Message, error) {
	return s.messages.UpsertReaction(ctx, messageID, userID, reaction)
}

func (s *Store) UpdateUserOnlineStatus(ctx context.Context, userID uint, isOnline bool) (*models.User, error) {
	return s.users.UpdateOnlineStatus(ctx, userID, isOnline)
}
