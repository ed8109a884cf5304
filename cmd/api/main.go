package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/yourusername/tugofwar-api/internal/config"
	"github.com/yourusername/tugofwar-api/internal/handler"
	"github.com/yourusername/tugofwar-api/internal/middleware"
	pgRepo "github.com/yourusername/tugofwar-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/tugofwar-api/internal/repository/redis"
	"github.com/yourusername/tugofwar-api/internal/service"
	"github.com/yourusername/tugofwar-api/internal/service/gamemanager"
	ws "github.com/yourusername/tugofwar-api/internal/websocket"
	"github.com/yourusername/tugofwar-api/pkg/auth"
	"github.com/yourusername/tugofwar-api/pkg/database"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Репозитории
	userRepo := pgRepo.NewUserRepo(db)
	quizRepo := pgRepo.NewQuizRepo(db)
	questionRepo := pgRepo.NewQuestionRepo(db)
	participantRepo := pgRepo.NewParticipantRepo(db)
	answerRepo := pgRepo.NewAnswerRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpirationHrs)
	if err != nil {
		log.Printf("Failed to initialize JWTService: %v", err)
		os.Exit(1)
	}

	// Корневой контекст приложения, отменяется при завершении
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// WebSocket-хаб и менеджер сообщений
	hub := ws.NewHub(ws.HubConfig{
		CleanupInterval: time.Duration(cfg.WebSocket.CleanupIntervalSec) * time.Second,
		JoinTimeout:     time.Duration(cfg.WebSocket.JoinTimeoutSec) * time.Second,
	})
	go hub.Run(ctx)
	wsManager := ws.NewManager(hub)

	// Игровой движок
	gameConfig := &gamemanager.Config{
		ResultsGraceSeconds: cfg.Game.ResultsGraceSec,
		PinAttempts:         cfg.Game.PinAttempts,
		CacheTTL:            time.Duration(cfg.Game.CacheTTLMin) * time.Minute,
	}
	gameManager := gamemanager.NewManager(&gamemanager.Dependencies{
		QuizRepo:        quizRepo,
		QuestionRepo:    questionRepo,
		ParticipantRepo: participantRepo,
		AnswerRepo:      answerRepo,
		CacheRepo:       cacheRepo,
		Broadcaster:     wsManager,
		Config:          gameConfig,
	})
	defer gameManager.Shutdown()

	// Сервисы
	authService := service.NewAuthService(userRepo, jwtService)
	quizService := service.NewQuizService(quizRepo, questionRepo, cacheRepo, gameConfig)

	// Обработчики
	authHandler := handler.NewAuthHandler(authService)
	quizHandler := handler.NewQuizHandler(quizService, gameManager)
	wsHandler := handler.NewWSHandler(wsManager, gameManager, authService)

	authMiddleware := middleware.NewAuthMiddleware(jwtService)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	router := gin.Default()

	// Настройка доверенных прокси для корректной работы c.ClientIP()
	isProduction := gin.Mode() == gin.ReleaseMode
	if isProduction {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := router.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			limited := authGroup.Group("")
			limited.Use(rateLimiter.Limit(middleware.AuthRateLimitConfig()))
			{
				limited.POST("/register", authHandler.Register)
				limited.POST("/login", authHandler.Login)
			}
			authGroup.GET("/me", authMiddleware.RequireAuth(), authHandler.Me)
		}

		// Управление викторинами доступно только создателю
		quizzes := api.Group("/quizzes")
		quizzes.Use(authMiddleware.RequireAuth())
		{
			quizzes.POST("", quizHandler.CreateQuiz)
			quizzes.GET("", quizHandler.ListQuizzes)

			quizWithID := quizzes.Group("/:id")
			quizWithID.Use(middleware.ExtractUintParam("id", "quizID"))
			{
				quizWithID.GET("", quizHandler.GetQuiz)
				quizWithID.DELETE("", quizHandler.DeleteQuiz)
				quizWithID.GET("/results", quizHandler.GetResults)
				quizWithID.GET("/results/export", quizHandler.ExportResults)
			}
		}

		// Игровые маршруты для участников, аутентификация не требуется
		games := api.Group("/games")
		{
			games.POST("/join", rateLimiter.Limit(middleware.JoinRateLimitConfig()), quizHandler.JoinQuiz)
			games.GET("/:pin/participants", quizHandler.GetParticipants)
			games.GET("/:pin/tug", quizHandler.GetTugPosition)
		}
	}

	router.GET("/ws", wsHandler.HandleConnection)
	router.GET("/ws/metrics", gin.WrapF(ws.MetricsHandler(hub)))
	router.GET("/ws/health", gin.WrapF(ws.HealthCheckHandler(hub)))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Останавливаем таймеры игр и горутины хаба
	gameManager.Shutdown()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	log.Println("Server exited properly")
}
