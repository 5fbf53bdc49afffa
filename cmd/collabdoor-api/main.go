package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/collabdoor/collabdoor-api/internal/cache"
	"github.com/collabdoor/collabdoor-api/internal/config"
	"github.com/collabdoor/collabdoor-api/internal/database"
	"github.com/collabdoor/collabdoor-api/internal/handlers"
	"github.com/collabdoor/collabdoor-api/internal/logger"
	"github.com/collabdoor/collabdoor-api/internal/metrics"
	authmw "github.com/collabdoor/collabdoor-api/internal/middleware"
	"github.com/collabdoor/collabdoor-api/internal/oauth"
	"github.com/collabdoor/collabdoor-api/internal/scheduler"
	"github.com/collabdoor/collabdoor-api/internal/services"
	"github.com/collabdoor/collabdoor-api/internal/sse"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Initialize(cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		fatal("failed to connect to database", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		fatal("failed to run migrations", err)
	}

	var queryCache cache.QueryCache
	if cfg.Redis.Addr != "" {
		redisCache, client, err := cache.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		if err != nil {
			fatal("failed to connect to redis", err)
		}
		defer func() { _ = client.Close() }()
		queryCache = redisCache
		logger.Info("query cache backed by redis", "addr", cfg.Redis.Addr)
	} else {
		queryCache = cache.NewMemory(cfg.Redis.Capacity, cfg.Redis.TTL)
		logger.Info("query cache in memory", "capacity", cfg.Redis.Capacity)
	}

	hub := sse.NewHub()
	go hub.Run()

	metrics.Init()

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	userService := services.NewUserService(db)
	tokenService := services.NewTokenService(db)
	sessionService := services.NewSessionService(jwtService, tokenService, userService, queryCache)
	emailService := services.NewEmailService(services.NewMailTransport(cfg))
	notificationService := services.NewNotificationService(db, queryCache, hub, emailService, cfg.FrontendURL)
	phaseService := services.NewPhaseService(db, queryCache, hub)
	applicationService := services.NewApplicationService(db, phaseService, notificationService)
	reviewService := services.NewReviewService(db, queryCache, notificationService)
	projectService := services.NewProjectService(db, phaseService, applicationService, reviewService, notificationService)
	organizationService := services.NewOrganizationService(db, notificationService)
	feedService := services.NewFeedService(db)

	applyLimiter := authmw.NewRateLimiter(cfg.ApplyRate.PerMinute, cfg.ApplyRate.Burst)

	jobs, err := scheduler.New(cfg.Cron, &scheduler.Jobs{
		Tokens:   tokenService,
		Phases:   phaseService,
		Reviews:  reviewService,
		Projects: projectService,
		Notify:   notificationService,
		Limiter:  applyLimiter,
	})
	if err != nil {
		fatal("failed to schedule background jobs", err)
	}
	jobs.Start()
	defer jobs.Stop()

	authHandler := handlers.NewAuthHandler(cfg.FrontendCallbackURL, oauth.NewProviders(cfg), userService, sessionService)
	userHandler := handlers.NewUserHandler(userService, reviewService)
	projectHandler := handlers.NewProjectHandler(projectService, organizationService)
	applicationHandler := handlers.NewApplicationHandler(applicationService, projectService, organizationService)
	phaseHandler := handlers.NewPhaseHandler(phaseService, projectService)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	notificationHandler := handlers.NewNotificationHandler(notificationService, hub)
	organizationHandler := handlers.NewOrganizationHandler(organizationService)
	feedHandler := handlers.NewFeedHandler(feedService)
	healthHandler := handlers.NewHealthHandler(db)

	app := drift.New()

	if cfg.IsProduction() {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser())
	app.Use(metrics.Instrument())

	app.Get("/metrics", metrics.Handler())

	api := app.Group("/api/v1")
	api.Get("/health", healthHandler.Check)

	auth := api.Group("/auth")
	auth.Get("/:provider/consent", authHandler.GetConsentURL)
	auth.Get("/:provider/callback", authHandler.Callback)
	auth.Post("/exchange", authHandler.ExchangeCode)
	auth.Post("/refresh", authHandler.RefreshToken)
	auth.Post("/logout", authHandler.Logout)

	// EventSource cannot set headers, so the stream also accepts ?access_token=.
	streaming := api.Group("")
	streaming.Use(authmw.StreamAuth(jwtService))
	streaming.Get("/notifications/stream", notificationHandler.Stream)

	protected := api.Group("")
	protected.Use(authmw.Auth(jwtService))

	protected.Post("/auth/logout-all", authHandler.LogoutAll)

	protected.Get("/users/me", userHandler.GetMe)
	protected.Patch("/users/me", userHandler.UpdateMe)
	protected.Get("/users/:id/reviews", userHandler.Reviews)

	protected.Get("/projects", projectHandler.List)
	protected.Post("/projects", projectHandler.Create)
	protected.Get("/projects/mine", projectHandler.ListMine)
	protected.Get("/projects/:id", projectHandler.Get)
	protected.Patch("/projects/:id", projectHandler.Update)
	protected.Delete("/projects/:id", projectHandler.Delete)
	protected.Post("/projects/:id/status", projectHandler.UpdateStatus)
	protected.Get("/projects/:id/overview", projectHandler.Overview)

	protected.Get("/projects/:id/application", applicationHandler.Check)
	protected.Get("/projects/:id/applications", applicationHandler.ListByProject)
	protected.Get("/applications/mine", applicationHandler.ListMine)
	protected.Post("/applications/:id/status", applicationHandler.UpdateStatus)

	applying := api.Group("")
	applying.Use(authmw.Auth(jwtService))
	applying.Use(applyLimiter.Middleware())
	applying.Post("/projects/:id/applications", applicationHandler.Apply)

	protected.Get("/projects/:id/phases", phaseHandler.List)
	protected.Post("/projects/:id/phases", phaseHandler.Create)
	protected.Patch("/phases/:id", phaseHandler.Update)
	protected.Delete("/phases/:id", phaseHandler.Delete)

	protected.Get("/projects/:id/reviews/queue", reviewHandler.Queue)
	protected.Post("/projects/:id/reviews", reviewHandler.Submit)
	protected.Post("/projects/:id/reviews/skip", reviewHandler.Skip)

	protected.Get("/notifications", notificationHandler.List)
	protected.Get("/notifications/unread-count", notificationHandler.UnreadCount)
	protected.Post("/notifications/read-all", notificationHandler.MarkAllAsRead)
	protected.Post("/notifications/:id/read", notificationHandler.MarkAsRead)
	protected.Post("/sse/:clientId/watch/:projectId", notificationHandler.Watch)
	protected.Post("/sse/:clientId/unwatch/:projectId", notificationHandler.Unwatch)

	protected.Get("/organizations", organizationHandler.List)
	protected.Post("/organizations", organizationHandler.Create)
	protected.Get("/organizations/:id", organizationHandler.Get)
	protected.Patch("/organizations/:id", organizationHandler.Update)
	protected.Delete("/organizations/:id", organizationHandler.Delete)
	protected.Get("/organizations/:id/members", organizationHandler.GetMembers)
	protected.Delete("/organizations/:id/members/:userId", organizationHandler.RemoveMember)
	protected.Get("/organizations/:id/join-requests", organizationHandler.ListJoinRequests)
	protected.Post("/organizations/:id/join-requests", organizationHandler.RequestToJoin)
	protected.Post("/join-requests/:id/approve", organizationHandler.ApproveJoinRequest)
	protected.Post("/join-requests/:id/reject", organizationHandler.RejectJoinRequest)

	protected.Get("/feed/posts", feedHandler.ListPosts)
	protected.Post("/feed/posts", feedHandler.CreatePost)
	protected.Delete("/feed/posts/:id", feedHandler.DeletePost)
	protected.Post("/feed/posts/:id/like", feedHandler.ToggleLike)
	protected.Get("/feed/posts/:id/comments", feedHandler.ListComments)
	protected.Post("/feed/posts/:id/comments", feedHandler.AddComment)
	protected.Delete("/feed/comments/:id", feedHandler.DeleteComment)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           app,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("server failed", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

func fatal(msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
