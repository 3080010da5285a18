package main

import (
	"brand-builder/auth"
	"brand-builder/internal/builder"
	"brand-builder/internal/config"
	"brand-builder/internal/db"
	"brand-builder/internal/document"
	"brand-builder/internal/export"
	"brand-builder/internal/functions"
	"brand-builder/internal/gateway"
	"brand-builder/internal/logger"
	"brand-builder/internal/middleware"
	"brand-builder/internal/presenter"
	"brand-builder/internal/storage"
	"brand-builder/internal/user"
	"brand-builder/internal/web"
	"brand-builder/internal/worker"
	"brand-builder/redis"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load configuration
	config.LoadConfig()
	cfg := config.AppConfig

	zl, err := logger.New(cfg.Environment)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zl.Sync()

	auth.Init(cfg.JWTSecret)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	if err := db.ConnectDb(zl); err != nil {
		zl.Fatal("connect database", zap.Error(err))
	}
	defer db.CloseDb(zl)

	// Migrate database schema
	if err := db.Migrate(db.AppDb); err != nil {
		zl.Fatal("migrate database", zap.Error(err))
	}

	// Seed database with initial data (for development)
	if cfg.Environment == "development" {
		db.SeedData(ctx, db.AppDb, zl)
	}

	// Redis is optional
	redisClient := redis.InitRedis(ctx, cfg.RedisAddress, zl)
	if redisClient != nil {
		defer redisClient.Close()
	}
	cache := redis.NewCache(redisClient)

	var (
		channel presenter.Channel
		handoff presenter.Handoff
	)
	if redisClient != nil {
		channel = presenter.NewRedisChannel(redisClient, zl.Named("presenter"))
		handoff = presenter.NewRedisHandoff(redisClient)
	} else {
		channel = presenter.NewHub()
		handoff = presenter.NewMemoryHandoff()
	}

	pool := worker.NewWorkerPool(2, 64, time.Minute, zl.Named("worker"))
	defer pool.Shutdown()

	// Initialize repository
	userRepo := user.NewRepository(db.AppDb)
	docRepo := document.NewRepository(db.AppDb)
	store := storage.NewGormStore(db.AppDb, cfg.BlobBaseURL)

	// Initialize service
	userService := user.NewService(userRepo)
	docService := document.NewService(docRepo, cache, nil, zl.Named("document"))

	if cfg.ThumbnailsEnabled {
		browser, closeBrowser, err := export.Browser(ctx, cfg.ChromeControlURL)
		if err != nil {
			zl.Warn("thumbnails disabled, no browser", zap.Error(err))
		} else {
			defer closeBrowser()
			docService.UseThumbnailer(export.NewThumbnailer(pool, store, docService,
				export.RodRender(browser, 30*time.Second), cfg.FrontendAddress, zl.Named("thumbnail")))
		}
	}

	registry := builder.NewRegistry(docService, builder.RegistryConfig{
		AutosaveDelay: cfg.AutosaveDelay,
		IdleTTL:       cfg.SessionIdleTTL,
		Logger:        zl.Named("builder"),
	})
	if err := registry.Start(cfg.SessionSweepSpec); err != nil {
		zl.Fatal("schedule session eviction", zap.Error(err))
	}

	generator := gateway.NewClient(gateway.Config{
		URL:        cfg.GatewayURL,
		APIKey:     cfg.GatewayAPIKey,
		Model:      cfg.GatewayModel,
		ImageModel: cfg.GatewayImageModel,
		RPS:        cfg.GatewayRPS,
	})

	// Initialize handler
	userHandler := user.NewHandler(userService, cfg.Environment == "production", zl)
	docHandler := document.NewHandler(docService)
	builderHandler := builder.NewHandler(registry)
	presenterHandler := presenter.NewHandler(channel, handoff, cfg.HandoffTTL, cfg.PresenterHeartbeat, zl.Named("presenter"))
	functionsHandler := functions.NewHandler(generator, zl.Named("functions"))
	storageHandler := storage.NewHandler(store)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(zl), middleware.ErrorHandler(zl))

	// cors setting
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}
	if cfg.Environment == "development" {
		corsConfig.AllowOriginFunc = func(string) bool { return true }
	} else {
		corsConfig.AllowOrigins = []string{cfg.FrontendAddress}
	}
	api := router.Group("/api", cors.New(corsConfig))
	// preflight needs a matching route for the group middleware to run
	api.OPTIONS("/*path", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	authMW := (&middleware.Auth{UserService: userService}).AuthMiddleWare()

	// User routes
	api.POST("/register", userHandler.Register)
	api.POST("/login", userHandler.Login)
	api.POST("/refresh", userHandler.RefreshToken)
	api.DELETE("/logout", authMW, userHandler.Logout)
	api.GET("/profile", authMW, userHandler.GetProfile)

	docHandler.RegisterRoutes(api.Group("/documents", authMW))
	builderHandler.RegisterRoutes(api.Group("/builder", authMW))
	presenterHandler.RegisterRoutes(api.Group("/presenter", authMW))

	functionsHandler.RegisterRoutes(router.Group("/functions/v1"), authMW)
	router.GET("/storage/*key", storageHandler.Serve)
	router.NoRoute(web.SPA(cfg.StaticDir))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zl.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zl.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		// end presenter streams so Shutdown is not held open by them
		presenterHandler.CloseAll(shutdownCtx)
		if err := server.Shutdown(shutdownCtx); err != nil {
			zl.Error("server shutdown", zap.Error(err))
		}
		// flush open builders before the database goes away
		registry.Stop(shutdownCtx)
		return nil
	})

	if err := g.Wait(); err != nil {
		zl.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
	zl.Info("server shutdown complete")
}
