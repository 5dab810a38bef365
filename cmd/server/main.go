package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/adstudio/api/internal/auth"
	"github.com/adstudio/api/internal/client"
	"github.com/adstudio/api/internal/config"
	"github.com/adstudio/api/internal/handler"
	"github.com/adstudio/api/internal/logger"
	"github.com/adstudio/api/internal/middleware"
	"github.com/adstudio/api/internal/service"
	"github.com/adstudio/api/internal/store"
	ws "github.com/adstudio/api/internal/websocket"
	"github.com/adstudio/api/internal/worker"
)

// @title          AI Ad Video Generator API
// @version        1.0
// @description    Turns a creative brief into a 60-second ad script, storyboard and video.
// @host           localhost:8002
// @BasePath       /
// @schemes        http https
// @securityDefinitions.apikey BearerAuth
// @in             header
// @name           Authorization
// @description    Enter your bearer token in the format **Bearer &lt;token&gt;**
func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	log := logger.New(&cfg.Log)
	for _, w := range cfg.Warnings() {
		log.Warn(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis backs jobs and rate limits; without it both are disabled.
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	redisErr := redisClient.Ping(pingCtx).Err()
	cancel()
	if redisErr != nil {
		log.WithError(redisErr).Warn("Redis not available: video jobs and rate limits disabled")
	}

	storage, err := client.NewStorage(&cfg.R2, cfg.Server.VideosDir, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize storage")
	}

	// External clients
	runwayClient := client.NewRunwayClient(&cfg.Video, storage, log)
	stabilityClient := client.NewStabilityClient(&cfg.Video, storage, log)
	elevenLabsClient := client.NewElevenLabsClient(&cfg.ElevenLabs, log)

	// Services
	validator := service.NewBriefValidator(service.NewValidator())
	scriptService := service.NewScriptService(validator, log)
	narrationService := service.NewNarrationService(elevenLabsClient, storage, log)
	videoService := service.NewVideoService(cfg.Video, narrationService, log, runwayClient, stabilityClient)
	log.WithField("provider", videoService.Provider()).Info("video provider selected")

	var projectStore service.ProjectStore
	db, err := store.OpenPostgres(&cfg.Database, log)
	switch {
	case err != nil:
		log.WithError(err).Warn("database unavailable: projects and subscription limits disabled")
	case db == nil:
		log.Info("DATABASE_URL not set: projects and subscription limits disabled")
	default:
		projectStore = store.NewProjectStore(db)
	}
	projectService := service.NewProjectService(projectStore, validator, log)

	hub := ws.NewHub(log)
	go hub.Run(ctx)

	var (
		jobService  *service.VideoJobService
		asynqServer *asynq.Server
		limiter     = middleware.NewRateLimiter(nil, log)
	)
	if redisErr == nil {
		asynqClient := asynq.NewClient(redisOpt)
		defer asynqClient.Close()

		jobStore := store.NewRedisJobStore(redisClient, service.JobTTL)
		jobService = service.NewVideoJobService(jobStore, asynqClient, videoService, cfg.Video.JobTimeout)
		limiter = middleware.NewRateLimiter(redisClient, log)

		asynqServer, err = startWorkerServer(cfg, log, redisOpt, worker.NewVideoWorker(jobService, videoService, projectService, hub, log))
		if err != nil {
			log.WithError(err).Error("asynq worker failed to start")
		}
	}

	// Auth: OIDC JWKS first, then the HS256 project secret
	var verifiers auth.Chain
	if cfg.OIDC.Issuer != "" {
		jwksVerifier, err := auth.NewJWKSVerifier(ctx, &cfg.OIDC)
		if err != nil {
			log.WithError(err).Warn("JWKS verifier not initialized")
		} else {
			verifiers = append(verifiers, jwksVerifier)
		}
	}
	if cfg.Auth.JWTSecret != "" {
		verifiers = append(verifiers, auth.NewHMACVerifier(cfg.Auth.JWTSecret, cfg.Auth.Audience))
	}
	var tokenVerifier auth.TokenVerifier
	if len(verifiers) > 0 {
		tokenVerifier = verifiers
		defer tokenVerifier.Close()
	}

	var optionalAuth, requiredAuth fiber.Handler
	if cfg.Gateway.Enabled {
		log.Info("Gateway mode enabled, using header-based auth")
		optionalAuth = middleware.GatewayAuthMiddleware(cfg.Auth.Required)
		requiredAuth = middleware.GatewayAuthMiddleware(true)
	} else {
		authMiddleware := middleware.NewAuthMiddleware(tokenVerifier)
		requiredAuth = authMiddleware.Authenticate()
		optionalAuth = authMiddleware.Optional()
		if cfg.Auth.Required {
			optionalAuth = requiredAuth
		}
	}

	handlers := &handler.Handlers{
		Health: handler.NewHealthHandler(handler.ServiceStatus{
			Provider:   videoService.Provider(),
			Narration:  narrationService.Enabled(),
			Storage:    storageKind(storage),
			Jobs:       jobService != nil,
			Database:   projectService.Enabled(),
			Auth:       tokenVerifier != nil || cfg.Gateway.Enabled,
			RateLimits: redisErr == nil,
		}),
		Auth:     handler.NewAuthHandler(tokenVerifier),
		Script:   handler.NewScriptHandler(scriptService, log),
		Video:    handler.NewVideoHandler(validator, videoService, projectService, log),
		Jobs:     handler.NewVideoJobHandler(validator, jobService, projectService, hub, log),
		Projects: handler.NewProjectHandler(projectService, log),
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handler.ErrorHandler(log),
		BodyLimit:    2 * 1024 * 1024,
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: cfg.Server.Debug}))
	app.Use(requestid.New())
	logFormat := "${locals:requestid} ${status} - ${latency} ${method} ${path}\n"
	if cfg.Server.Debug {
		logFormat = "${locals:requestid} ${status} - ${latency} ${method} ${path} ${queryParams} ${body}\n"
	}
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: logFormat,
		Output: log.WriterLevel(logrus.InfoLevel),
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.Server.AllowedOrigins, ","),
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	handler.Mount(app, handlers, handler.RouteConfig{
		OptionalAuth:   optionalAuth,
		RequiredAuth:   requiredAuth,
		RateLimiter:    limiter,
		RateLimit:      cfg.RateLimit,
		RequestTimeout: cfg.Server.RequestTimeout,
		VideosDir:      cfg.Server.VideosDir,
	})

	go func() {
		<-ctx.Done()
		log.Info("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.WithError(err).Error("server shutdown error")
		}
		if asynqServer != nil {
			asynqServer.Shutdown()
		}
	}()

	addr := ":" + cfg.Server.Port
	log.WithField("addr", addr).Info("Server starting")
	if err := app.Listen(addr); err != nil {
		log.WithError(err).Fatal("server error")
	}
}

func startWorkerServer(cfg *config.Config, log *logrus.Logger, redisOpt asynq.RedisClientOpt, videoWorker *worker.VideoWorker) (*asynq.Server, error) {
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 4,
		Queues: map[string]int{
			service.QueueVideo: 1,
		},
		Logger:   log,
		LogLevel: asynqLogLevel(cfg.Log.Level),
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypeVideo, videoWorker.ProcessTask)

	if err := srv.Start(mux); err != nil {
		return nil, err
	}
	return srv, nil
}

func asynqLogLevel(level string) asynq.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return asynq.DebugLevel
	case "warn", "warning":
		return asynq.WarnLevel
	case "error":
		return asynq.ErrorLevel
	default:
		return asynq.InfoLevel
	}
}

func storageKind(s client.StorageClient) string {
	if _, ok := s.(*client.R2Client); ok {
		return "r2"
	}
	return "local"
}
