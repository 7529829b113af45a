package main

import (
	"context"
	"log"
	"log/slog"

	"chat-relay/internal/config"
	"chat-relay/internal/database"
	"chat-relay/internal/models"
	"chat-relay/internal/repositories/postgres"
	"chat-relay/internal/services"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	slog.Info("Starting database seeding...")

	// Connect to database
	db, err := database.NewPostgresConnection(cfg.Database.URI)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	slog.Info("Database connection established")

	ctx := context.Background()

	// Initialize repositories
	userRepo := postgres.NewUserRepository(db)
	chatRepo := postgres.NewChatRepository(db)
	messageRepo := postgres.NewMessageRepository(db)

	chatService := services.NewChatService(chatRepo, messageRepo)

	// Seed initial users
	slog.Info("Creating initial users...")

	testUsers := []struct {
		username    string
		displayName string
		password    string
	}{
		{"admin", "Admin", "123456"},
		{"alice", "Alice", "123456"},
		{"bob", "Bob", "123456"},
		{"charlie", "Charlie", "123456"},
	}

	userIDs := map[string]uint{}
	for _, userData := range testUsers {
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte(userData.password), bcrypt.DefaultCost)
		user := &models.User{
			Username:    userData.username,
			DisplayName: userData.displayName,
			Password:    string(hashedPassword),
		}

		if err := userRepo.Create(ctx, user); err != nil {
			slog.Warn("User might already exist", "username", userData.username, "error", err)
			if existing, findErr := userRepo.FindByUsername(ctx, userData.username); findErr == nil {
				userIDs[userData.username] = existing.ID
			}
		} else {
			slog.Info("Created user", "username", userData.username, "id", user.ID)
			userIDs[userData.username] = user.ID
		}
	}

	// Seed initial chats
	slog.Info("Creating initial chats...")

	adminID, ok := userIDs["admin"]
	if !ok {
		slog.Warn("Could not resolve admin user for chat creation")
		return
	}

	general := "general"
	chat, err := chatService.CreateChat(ctx, adminID, &models.CreateChatRequest{
		Name:      &general,
		IsGroup:   true,
		MemberIDs: []uint{userIDs["alice"], userIDs["bob"], userIDs["charlie"]},
	})
	if err != nil {
		slog.Warn("General chat might already exist", "error", err)
	} else {
		slog.Info("Created general chat", "id", chat.ID)
	}

	if aliceID, ok := userIDs["alice"]; ok {
		if bobID, ok := userIDs["bob"]; ok {
			direct, err := chatService.CreateChat(ctx, aliceID, &models.CreateChatRequest{
				IsGroup:   false,
				MemberIDs: []uint{bobID},
			})
			if err != nil {
				slog.Warn("Direct chat might already exist", "error", err)
			} else {
				slog.Info("Created direct chat", "id", direct.ID)
			}
		}
	}

	slog.Info("Database seeding completed successfully!")
}
