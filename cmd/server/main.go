package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"coursegen/config"
	"coursegen/controllers"
	"coursegen/db"
	"coursegen/internal/media"
	"coursegen/logger"
	"coursegen/middlewares"
	"coursegen/routes"
	"coursegen/services"
	"coursegen/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	configPath := flag.String("config", "./config/config.prod.yml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLog, err := logger.New(cfg.Log.Mode)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer appLog.Sync()

	if cfg.JWT.Secret == "" {
		appLog.Fatal("jwt secret is not configured (JWT_SECRET)")
	}
	utils.SetJWTSecret(cfg.JWT.Secret)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.ConnectMongoDB(cfg.Database.URI, cfg.Database.Name, cfg.Database.Timeout); err != nil {
		appLog.Fatal("failed to connect to MongoDB", "error", err)
	}
	appLog.Info("connected to MongoDB", "database", cfg.Database.Name)
	if err := db.EnsureIndexes(ctx); err != nil {
		appLog.Warn("index creation failed", "error", err)
	}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = db.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			appLog.Warn("redis unavailable, rate limiting disabled", "error", err)
		} else {
			defer rdb.Close()
		}
	}

	llm, closeLLM, err := newCompleter(ctx, cfg)
	if err != nil {
		appLog.Fatal("failed to init language model client", "error", err)
	}
	defer closeLLM()

	resolver, err := newResolver(ctx, cfg, appLog)
	if err != nil {
		appLog.Fatal("failed to init media providers", "error", err)
	}

	courseRepo := db.NewCourseRepository(db.MongoDatabase)
	sectionRepo := db.NewSectionRepository(db.MongoDatabase)
	courseService := services.NewCourseService(llm, resolver, courseRepo, sectionRepo, cfg.LLM.Timeout, appLog.With("component", "course"))
	sectionService := services.NewSectionService(llm, resolver, courseRepo, sectionRepo, services.SectionServiceConfig{
		LLMTimeout:   cfg.LLM.Timeout,
		ClaimTTL:     cfg.Generation.ClaimTTL,
		PollInterval: cfg.Generation.PollInterval,
	}, appLog.With("component", "section"))

	var limiter *middlewares.RateLimiter
	if rdb != nil {
		limiter = middlewares.NewRateLimiter(rdb, appLog)
	}

	router := setupRouter(cfg, appLog, courseService, sectionService, limiter)
	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.Server.Port),
		Handler: router,
	}

	go func() {
		appLog.Info("server starting", "port", cfg.Server.Port, "llm", cfg.LLM.Provider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal("failed to start server", "error", err)
		}
	}()

	<-ctx.Done()
	appLog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("server shutdown failed", "error", err)
	}
	if err := db.DisconnectMongoDB(shutdownCtx); err != nil {
		appLog.Error("mongo disconnect failed", "error", err)
	}
}

func setupRouter(cfg *config.Config, appLog *logger.Logger, courseService *services.CourseService, sectionService *services.SectionService, limiter *middlewares.RateLimiter) *gin.Engine {
	if cfg.Log.Mode != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middlewares.RequestLogger(appLog))

	// Set trusted proxies (adjust as needed)
	router.SetTrustedProxies([]string{"127.0.0.1", "localhost"})

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middlewares.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middlewares.RequestIDHeader},
		AllowCredentials: true,
	}))

	router.GET("/", controllers.Health)

	var generate gin.HandlerFunc
	if limiter != nil {
		generate = limiter.Limit("generate", cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}

	courseController := controllers.NewCourseController(courseService, appLog)
	sectionController := controllers.NewSectionController(sectionService, courseService, appLog)

	routes.SetupCourseRoutes(router.Group("/", middlewares.AuthMiddleware("course")), courseController, generate)
	routes.SetupSectionRoutes(router.Group("/", middlewares.AuthMiddleware("section")), sectionController, generate)

	return router
}

func newCompleter(ctx context.Context, cfg *config.Config) (services.Completer, func(), error) {
	switch cfg.LLM.Provider {
	case "gemini":
		if cfg.Gemini.ApiKey == "" {
			return nil, nil, errors.New("GEMINI_API_KEY is not set")
		}
		client, err := services.NewGeminiClient(ctx, cfg.Gemini.ApiKey, cfg.Gemini.Model)
		if err != nil {
			return nil, nil, err
		}
		return client, func() { _ = client.Close() }, nil
	case "groq":
		if cfg.Groq.ApiKey == "" {
			return nil, nil, errors.New("GROQ_API_KEY is not set")
		}
		httpClient := &http.Client{Timeout: cfg.LLM.Timeout}
		return services.NewChatCompletionClient(cfg.Groq.ApiKey, cfg.Groq.BaseURL, cfg.Groq.Model, httpClient), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}

func newResolver(ctx context.Context, cfg *config.Config, appLog *logger.Logger) (*media.Resolver, error) {
	var images media.ImageSearcher
	if pexels := media.NewPexelsClient(cfg.Media.PexelsApiKey, &http.Client{Timeout: cfg.Media.ProviderTimeout}); pexels != nil {
		images = pexels
	} else {
		appLog.Warn("PEXELS_API_KEY not set, images will not resolve")
	}

	var videos media.VideoSearcher
	yt, err := media.NewYouTubeClient(ctx, cfg.Media.YoutubeApiKey)
	if err != nil {
		return nil, err
	}
	if yt != nil {
		videos = yt
	} else {
		appLog.Warn("YOUTUBE_API_KEY not set, videos will not resolve")
	}

	return media.NewResolver(images, videos, media.ResolverConfig{
		Timeout:     cfg.Media.ProviderTimeout,
		Concurrency: cfg.Media.Concurrency,
	}, appLog.With("component", "media")), nil
}
