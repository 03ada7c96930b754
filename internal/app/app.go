package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "schoolhub/docs"
	"schoolhub/internal/config"
	"schoolhub/internal/handlers"
	"schoolhub/internal/pdf"
	"schoolhub/internal/realtime"
	"schoolhub/internal/repositories"
	"schoolhub/internal/routes"
	"schoolhub/internal/services"
)

func Run() {
	cfg := config.LoadConfig()

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("[app] database open failed: ", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("[app] database close failed: %v", err)
		}
	}()
	if err := repositories.Migrate(context.Background(), db); err != nil {
		log.Fatal("[app] schema migration failed: ", err)
	}

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)
	studentRepo := repositories.NewStudentRepository(db)
	resetRepo := repositories.NewPasswordResetRepository(db)
	groupRepo := repositories.NewGroupRepository(db)
	messageRepo := repositories.NewMessageRepository(db)

	// === Services ===
	authService := services.NewAuthService(userRepo, cfg.Auth)
	emailService := services.NewEmailService(cfg.Email, cfg.Server.PublicURL)
	userService := services.NewUserService(userRepo, studentRepo, emailService, authService)
	resetService := services.NewPasswordResetService(userRepo, resetRepo, emailService, authService, cfg.Auth.ResetTTL)
	studentService := services.NewStudentService(studentRepo, cfg.Files.RootDir)
	chatService := services.NewChatService(groupRepo, messageRepo)

	runner := services.NewTaskRunner(cfg.Tasks.MaxRetries, cfg.Tasks.RetryBaseDelay)
	services.RegisterDefaultTasks(runner, userRepo, resetRepo, emailService)

	// === Realtime ===
	layer, closeLayer, err := newChannelLayer(cfg)
	if err != nil {
		log.Fatal("[app] channel layer: ", err)
	}
	consumer := realtime.NewConsumer(layer, chatService, chatService, realtime.ConsumerOptions{
		SendBuffer: cfg.ChannelLayer.SendBuffer,
	})

	// === Handlers ===
	handlers.RegisterValidators()
	authHandler := handlers.NewAuthHandler(authService, resetService)
	userHandler := handlers.NewUserHandler(userService)
	studentHandler := handlers.NewStudentHandler(studentService, pdf.NewProfileGenerator(cfg.Files.FontPath))
	chatHandler := handlers.NewChatHandler(chatService, consumer)
	taskHandler := handlers.NewTaskHandler(runner)

	// === Gin ===
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(
		router,
		[]byte(cfg.Auth.JWTSecret),
		authHandler,
		userHandler,
		studentHandler,
		chatHandler,
		taskHandler,
	)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// === Run ===
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("[app] listening on %s (channel layer: %s)", srv.Addr, cfg.ChannelLayer.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("[app] http server failed: ", err)
		}
		return nil
	})
	g.Go(func() error {
		return runner.Every(gctx, cfg.Tasks.ClearSessionsInterval, services.TaskClearSessionCache)
	})

	// Blocks until SIGINT/SIGTERM, then runs the operations within ShutdownTimeout.
	exit := gfshutdown.GracefulShutdown(gctx, cfg.Server.ShutdownTimeout, map[string]gfshutdown.Operation{
		"http": func(ctx context.Context) error {
			err := srv.Shutdown(ctx)
			// hijacked websocket connections are not tracked by the server
			consumer.Shutdown()
			return errors.Join(err, closeLayer())
		},
		"tasks": func(ctx context.Context) error {
			return runner.Shutdown(ctx)
		},
	})

	code := <-exit
	cancel()
	if err := g.Wait(); err != nil {
		log.Printf("[app] stopped with error: %v", err)
		if code == 0 {
			code = 1
		}
	}
	if code != 0 {
		log.Printf("[app] shutdown completed with exit code %d", code)
		_ = db.Close()
		os.Exit(code)
	}
	log.Println("[app] shutdown completed")
}

// newChannelLayer builds the configured layer. The returned close func shuts
// the layer down and releases the redis client it created.
func newChannelLayer(cfg *config.Config) (realtime.Layer, func() error, error) {
	switch strings.ToLower(cfg.ChannelLayer.Backend) {
	case "", "memory":
		layer := realtime.NewMemoryLayer()
		return layer, layer.Close, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis ping %s: %w", cfg.Redis.Addr, err)
		}
		layer := realtime.NewRedisLayer(client, cfg.ChannelLayer.Prefix)
		closeAll := func() error {
			return errors.Join(layer.Close(), client.Close())
		}
		return layer, closeAll, nil
	default:
		return nil, nil, fmt.Errorf("unknown channel layer backend %q", cfg.ChannelLayer.Backend)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
