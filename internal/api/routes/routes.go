package routes

import (
	"log/slog"
	"time"

	"chat-relay/internal/api/handlers"
	"chat-relay/internal/api/middleware"
	"chat-relay/internal/database"
	"chat-relay/internal/relay"
	"chat-relay/internal/repositories/postgres"
	"chat-relay/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Router struct {
	engine         *gin.Engine
	wsHandler      *handlers.WebSocketHandler
	authHandler    *handlers.AuthHandler
	userHandler    *handlers.UserHandler
	chatHandler    *handlers.ChatHandler
	messageHandler *handlers.MessageHandler
	mediaHandler   *handlers.MediaHandler
	rateLimitMW    *middleware.RateLimitMiddleware
	authMW         *middleware.AuthMiddleware
}

func NewRouter(
	r *relay.Relay,
	redisService *services.RedisService,
	db *gorm.DB,
	media *database.MinIOClient,
	jwtSecret string,
	jwtExpiration time.Duration,
	logger *slog.Logger,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	// Add middlewares
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS())
	engine.Use(middleware.LogApi())

	// Initialize repositories
	userRepo := postgres.NewUserRepository(db)
	chatRepo := postgres.NewChatRepository(db)
	messageRepo := postgres.NewMessageRepository(db)

	// Initialize services
	userService := services.NewUserService(userRepo, jwtSecret, jwtExpiration)
	chatService := services.NewChatService(chatRepo, messageRepo)

	return &Router{
		engine:         engine,
		wsHandler:      handlers.NewWebSocketHandler(r, logger),
		authHandler:    handlers.NewAuthHandler(userService),
		userHandler:    handlers.NewUserHandler(userService, media),
		chatHandler:    handlers.NewChatHandler(chatService),
		messageHandler: handlers.NewMessageHandler(chatService),
		mediaHandler:   handlers.NewMediaHandler(media),
		rateLimitMW:    middleware.NewRateLimitMiddleware(redisService),
		authMW:         middleware.NewAuthMiddleware(jwtSecret),
	}
}

func (r *Router) SetupRoutes() {
	r.engine.GET("/healthcheck", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.engine.Group("/api/v1")

	// WebSocket endpoint. Authentication happens in-band via the
	// authenticate event, so the upgrade itself is unauthenticated.
	api.GET("/ws", r.wsHandler.Serve)

	// Authenticated routes
	auth := api.Group("/")
	auth.Use(r.authMW.RequireAuth())
	{
		// User routes
		users := auth.Group("/users")
		users.Use(r.rateLimitMW.RateLimit(100, time.Minute)) // 100 requests per minute
		{
			users.GET("/", r.userHandler.GetUsers)
			users.GET("/:id", r.userHandler.GetUser)
			users.PUT("/status", r.userHandler.UpdateStatus)
			users.POST("/profile-image", r.userHandler.UploadProfileImage)
		}

		// Chat routes
		chats := auth.Group("/chats")
		chats.Use(r.rateLimitMW.RateLimit(100, time.Minute)) // 100 requests per minute
		{
			chats.GET("/", r.chatHandler.GetUserChats)
			chats.POST("/", r.chatHandler.CreateChat)
			chats.GET("/:id", r.chatHandler.GetChat)
			chats.POST("/:id/members", r.chatHandler.AddMember)
			chats.GET("/:id/messages", r.messageHandler.GetMessages)
			chats.POST("/:id/messages", r.messageHandler.CreateMessage)
			chats.POST("/:id/messages/:messageId/reactions", r.messageHandler.React)
		}

		// Message routes
		messages := auth.Group("/messages")
		messages.Use(r.rateLimitMW.RateLimit(200, time.Minute)) // 200 requests per minute
		{
			messages.POST("/:messageId/read", r.messageHandler.MarkRead)
		}

		// Media upload
		auth.POST("/media-upload",
			r.rateLimitMW.RateLimit(20, time.Minute), // uploads are expensive
			r.mediaHandler.Upload,
		)
	}

	// Public routes (no authentication required)
	public := api.Group("/")
	{
		// Auth routes
		authRoutes := public.Group("/auth")
		authRoutes.Use(r.rateLimitMW.RateLimitIP(50, time.Minute)) // 50 requests per minute per IP
		{
			authRoutes.POST("/register", r.authHandler.Register)
			authRoutes.POST("/login", r.authHandler.Login)
		}
	}
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
