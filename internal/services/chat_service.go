package services

import (
	"context"
	"errors"
	"fmt"

	"chat-relay/internal/models"
	"chat-relay/internal/repositories/postgres"

	"gorm.io/gorm"
)

var (
	ErrChatNotFound    = errors.New("chat not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrNotChatMember   = errors.New("user is not a member of this chat")
	ErrNotChatAdmin    = errors.New("user is not an admin of this chat")
)

type ChatService struct {
	chats    *postgres.ChatRepository
	messages *postgres.MessageRepository
}

func NewChatService(chats *postgres.ChatRepository, messages *postgres.MessageRepository) *ChatService {
	return &ChatService{chats: chats, messages: messages}
}

// CreateChat creates the chat, makes the creator an admin member and adds the
// requested members.
func (s *ChatService) CreateChat(ctx context.Context, creatorID uint, req *models.CreateChatRequest) (*models.ChatResponse, error) {
	chat := models.Chat{
		Name:      req.Name,
		IsGroup:   req.IsGroup,
		CreatedBy: creatorID,
		Image:     req.Image,
	}
	if err := s.chats.Create(ctx, &chat); err != nil {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}

	if err := s.chats.AddMember(ctx, &models.ChatMember{ChatID: chat.ID, UserID: creatorID, IsAdmin: true}); err != nil {
		return nil, fmt.Errorf("failed to add creator to chat: %w", err)
	}
	for _, memberID := range req.MemberIDs {
		if memberID == creatorID {
			continue
		}
		if err := s.chats.AddMember(ctx, &models.ChatMember{ChatID: chat.ID, UserID: memberID}); err != nil {
			return nil, fmt.Errorf("failed to add member %d: %w", memberID, err)
		}
	}

	resp := chat.ToResponse()
	return &resp, nil
}

// GetChat returns the chat if the requester is a member.
func (s *ChatService) GetChat(ctx context.Context, userID, chatID uint) (*models.ChatResponse, error) {
	chat, err := s.chats.FindByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}

	member, err := s.chats.IsMember(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrNotChatMember
	}

	resp := chat.ToResponse()
	return &resp, nil
}

// GetUserChats assembles the sidebar: every chat the user belongs to with its
// members, last message and unread count.
func (s *ChatService) GetUserChats(ctx context.Context, userID uint) ([]models.ChatWithLastMessage, error) {
	chats, err := s.chats.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := make([]models.ChatWithLastMessage, 0, len(chats))
	for _, chat := range chats {
		entry := models.ChatWithLastMessage{ChatResponse: chat.ToResponse()}

		members, err := s.chats.GetMembers(ctx, chat.ID)
		if err != nil {
			return nil, err
		}
		entry.Members = make([]models.UserResponse, 0, len(members))
		for _, m := range members {
			entry.Members = append(entry.Members, m.ToResponse())
		}

		last, err := s.messages.LastByChatID(ctx, chat.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if last != nil {
			resp := last.ToResponse()
			entry.LastMessage = &resp
		}

		unread, err := s.messages.CountUnread(ctx, chat.ID, userID)
		if err != nil {
			return nil, err
		}
		entry.UnreadCount = unread

		result = append(result, entry)
	}
	return result, nil
}

// AddMember adds a user to a chat; only chat admins may do this.
func (s *ChatService) AddMember(ctx context.Context, actorID, chatID uint, req *models.AddMemberRequest) (*models.ChatMember, error) {
	admin, err := s.chats.IsAdmin(ctx, actorID, chatID)
	if err != nil {
		return nil, err
	}
	if !admin {
		return nil, ErrNotChatAdmin
	}

	member := models.ChatMember{ChatID: chatID, UserID: req.UserID, IsAdmin: req.IsAdmin}
	if err := s.chats.AddMember(ctx, &member); err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}
	return &member, nil
}

// GetMessages returns a chat's history, oldest first, for members only.
func (s *ChatService) GetMessages(ctx context.Context, userID, chatID uint) ([]models.MessageResponse, error) {
	member, err := s.chats.IsMember(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrNotChatMember
	}

	messages, err := s.messages.FindByChatID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	responses := make([]models.MessageResponse, 0, len(messages))
	for _, m := range messages {
		responses = append(responses, m.ToResponse())
	}
	return responses, nil
}

// CreateMessage persists a message through the REST path (the relay has its
// own path for connected senders).
func (s *ChatService) CreateMessage(ctx context.Context, userID, chatID uint, req *models.CreateMessageRequest) (*models.Message, error) {
	member, err := s.chats.IsMember(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrNotChatMember
	}

	message := models.Message{
		ChatID:    chatID,
		SenderID:  userID,
		Content:   req.Content,
		MediaURL:  req.MediaURL,
		ReplyToID: req.ReplyToID,
	}
	if err := s.messages.Create(ctx, &message); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	return &message, nil
}

// React upserts the user's reaction on a message in a chat they belong to.
func (s *ChatService) React(ctx context.Context, userID, chatID, messageID uint, reaction string) (*models.MessageResponse, error) {
	member, err := s.chats.IsMember(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrNotChatMember
	}

	message, err := s.messages.UpsertReaction(ctx, messageID, userID, reaction)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	resp := message.ToResponse()
	return &resp, nil
}

// MarkRead sets the read flag unless the reader sent the message themselves.
func (s *ChatService) MarkRead(ctx context.Context, userID, messageID uint) (*models.MessageResponse, error) {
	message, err := s.messages.FindByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}

	if message.SenderID != userID {
		if message, err = s.messages.MarkAsRead(ctx, messageID); err != nil {
			return nil, err
		}
	}

	resp := message.ToResponse()
	return &resp, nil
}
