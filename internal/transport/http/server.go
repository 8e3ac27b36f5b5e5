package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"ragdocs/internal/ai"
	appsvc "ragdocs/internal/app"
	"ragdocs/internal/bootstrap"
	"ragdocs/internal/cache"
	"ragdocs/internal/chunker"
	"ragdocs/internal/config"
	rabbitmqClient "ragdocs/internal/platform/rabbitmq"
	"ragdocs/internal/repository"
	"ragdocs/internal/transport/http/handler"
	"ragdocs/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) (*gin.Engine, error) {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.MySQL)
	docRepo := repository.NewDocumentRepository(app.MySQL)
	turnRepo := repository.NewConversationRepository(app.MySQL)

	authService := appsvc.NewAuthService(
		userRepo,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
	)

	splitter, err := chunker.New(app.Config.RAG.ChunkSize, app.Config.RAG.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	reconciler := rabbitmqClient.NewReconcilePublisher(app.MQConn, app.Config.RabbitMQ.ReconcileQueue)
	docService := appsvc.NewDocumentService(docRepo, app.Index, splitter, reconciler)

	historyCache := cache.NewHistoryCache(
		app.Redis,
		time.Duration(app.Config.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(app.Config.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)
	convService := appsvc.NewConversationService(
		turnRepo,
		app.Index,
		app.LLM,
		chatConfig(app.Config),
		historyCache,
		app.Config.RAG.TopK,
		app.Config.RAG.MaxHistoryTurns,
	)

	authHandler := handler.NewAuthHandler(authService)
	docHandler := handler.NewDocumentHandler(docService)
	convHandler := handler.NewConversationHandler(convService)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", middleware.AuthJWT(app.Config.Auth.JWTSecret), authHandler.Me)

	docGroup := v1.Group("/documents")
	docGroup.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	docGroup.POST("", docHandler.Upload)
	docGroup.GET("", docHandler.List)
	docGroup.DELETE("/:id", docHandler.Delete)

	convGroup := v1.Group("/conversations")
	convGroup.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	convGroup.POST("/ask", convHandler.Ask)
	convGroup.GET("/history", convHandler.History)

	return router, nil
}

func chatConfig(cfg *config.Config) ai.ChatConfig {
	return ai.ChatConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.ChatModel,
	}
}
