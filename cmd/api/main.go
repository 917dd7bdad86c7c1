package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/greenfield-academy/admin-api/api/swagger"
	"github.com/greenfield-academy/admin-api/internal/handler"
	"github.com/greenfield-academy/admin-api/internal/middleware"
	"github.com/greenfield-academy/admin-api/internal/models"
	"github.com/greenfield-academy/admin-api/internal/repository"
	"github.com/greenfield-academy/admin-api/internal/service"
	"github.com/greenfield-academy/admin-api/pkg/cache"
	"github.com/greenfield-academy/admin-api/pkg/config"
	"github.com/greenfield-academy/admin-api/pkg/database"
	"github.com/greenfield-academy/admin-api/pkg/logger"
	"github.com/greenfield-academy/admin-api/pkg/mailer"
	"github.com/greenfield-academy/admin-api/pkg/messaging"
	corsmiddleware "github.com/greenfield-academy/admin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/greenfield-academy/admin-api/pkg/middleware/requestid"
	"github.com/greenfield-academy/admin-api/pkg/storage"
)

// @title Greenfield Academy Admin API
// @version 1.0.0
// @description Backend for the school administration console
// @BasePath /api
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, sessions and caching degraded", "error", err)
		redisClient = nil
	}

	store, err := storage.NewLocalStorage(cfg.Storage.UploadDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Storage.SignedURLSecret, cfg.Storage.SignedURLTTL)

	var mail mailer.Mailer
	if cfg.Mail.Provider == "sendgrid" && cfg.Mail.APIKey != "" {
		mail = mailer.NewSendGridMailer(cfg.Mail.APIKey, cfg.Mail.FromName, cfg.Mail.FromEmail, logr)
	} else {
		logr.Info("mail provider not configured, using console mailer")
		mail = mailer.NewConsoleMailer(logr)
	}

	var publisher messaging.Publisher = messaging.NopPublisher{}
	if cfg.Broker.Enabled {
		rabbit, err := messaging.NewRabbitMQPublisher(cfg.Broker.URL, cfg.Broker.Queue, logr)
		if err != nil {
			logr.Sugar().Warnw("broker unavailable, campaign events disabled", "error", err)
		} else {
			publisher = rabbit
			defer rabbit.Close()
		}
	}

	validate := validator.New()

	staffRepo := repository.NewStaffRepository(db)
	newsRepo := repository.NewNewsRepository(db)
	eventRepo := repository.NewEventRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)
	contactRepo := repository.NewContactRepository(db)
	subscriberRepo := repository.NewSubscriberRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	sessionRepo := repository.NewSessionRepository(cacheRepo)

	policy := service.UploadPolicy{
		MaxFileSizeBytes: cfg.Storage.MaxFileSizeBytes,
		AllowedMIMEs:     cfg.Storage.AllowedMIMEs,
	}

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.ListTTL, logr, cfg.Cache.Enabled && redisClient != nil)
	staffSvc := service.NewStaffService(staffRepo, cacheSvc, store, policy, validate, logr)
	newsSvc := service.NewNewsService(newsRepo, cacheSvc, store, policy, validate, logr)
	eventSvc := service.NewEventService(eventRepo, cacheSvc, store, policy, validate, logr)
	contactSvc := service.NewContactService(contactRepo, logr)
	subscriberSvc := service.NewSubscriberService(subscriberRepo, nil, logr)
	authSvc := service.NewAuthService(userRepo, sessionRepo, validate, logr, service.AuthConfig{
		TokenSecret:    cfg.JWT.Secret,
		TokenExpiry:    cfg.JWT.Expiration,
		Issuer:         cfg.JWT.Issuer,
		DeviceTokenTTL: cfg.Session.DeviceTokenTTL,
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	campaignSvc := service.NewCampaignService(
		campaignRepo, staffRepo, contactRepo, userRepo, cacheSvc,
		store, signer, policy, mail, publisher, metricsSvc,
		service.CampaignOptions{
			BatchSize:         cfg.Campaign.BatchSize,
			WorkerConcurrency: cfg.Campaign.WorkerConcurrency,
			WorkerRetries:     cfg.Campaign.WorkerRetries,
		},
		validate, logr,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	campaignSvc.StartWorkers(ctx)
	defer campaignSvc.StopWorkers()

	// Uploads land in the staging area first and are promoted once the owning
	// row commits, so anything still there after the TTL belongs to no record.
	staging, err := storage.NewLocalStorage(store.Path(service.StagingDir))
	if err != nil {
		logr.Sugar().Fatalw("failed to init staging storage", "error", err)
	}
	go sweepStagedUploads(ctx, staging, cfg.Storage, logr)

	staffHandler := handler.NewStaffHandler(staffSvc)
	newsHandler := handler.NewNewsHandler(newsSvc)
	eventHandler := handler.NewEventHandler(eventSvc)
	campaignHandler := handler.NewCampaignHandler(campaignSvc)
	contactHandler := handler.NewContactHandler(contactSvc)
	subscriberHandler := handler.NewSubscriberHandler(subscriberSvc)
	adminHandler := handler.NewAdminHandler(authSvc, userSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/admin/login", adminHandler.Login)
	api.POST("/admin/logout", adminHandler.Logout)

	api.GET("/staff", staffHandler.List)
	api.POST("/staff", staffHandler.Create)
	api.PUT("/staff/:id", staffHandler.Update)
	api.DELETE("/staff/:id", staffHandler.Delete)

	api.GET("/news", newsHandler.List)
	api.POST("/news", newsHandler.Create)
	api.PUT("/news/:id", newsHandler.Update)
	api.DELETE("/news/:id", newsHandler.Delete)

	api.GET("/events", eventHandler.List)
	api.POST("/events", eventHandler.Create)
	api.PUT("/events/:id", eventHandler.Update)
	api.DELETE("/events/:id", eventHandler.Delete)

	api.GET("/emails", campaignHandler.List)
	api.POST("/emails", campaignHandler.Create)
	api.PUT("/emails/:id", campaignHandler.Update)
	api.PATCH("/emails/:id", campaignHandler.Publish)
	api.DELETE("/emails/:id", campaignHandler.Delete)
	api.GET("/emails/:id/report", campaignHandler.Report)
	api.GET("/emails/:id/attachments/:attachmentId/url", campaignHandler.AttachmentURL)
	api.GET("/emails/:id/attachments/:attachmentId", campaignHandler.DownloadAttachment)

	api.GET("/s", contactHandler.List)
	api.GET("/groups", campaignHandler.Groups)

	guarded := api.Group("")
	guarded.Use(middleware.AdminAuth(authSvc))
	guarded.GET("/subscriber", subscriberHandler.List)
	guarded.DELETE("/subscriber/:id", middleware.Audit(userRepo, "SUBSCRIBER_DELETE", "subscribers"), subscriberHandler.Delete)
	guarded.GET("/subscriber/export", middleware.Audit(userRepo, "SUBSCRIBER_EXPORT", "subscribers"), subscriberHandler.Export)
	guarded.POST("/campaign", campaignHandler.Send)
	guarded.GET("/admin/metrics", metricsHandler.Snapshot)

	admins := guarded.Group("/admins")
	admins.Use(middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin))
	admins.GET("", adminHandler.List)
	admins.POST("", adminHandler.Create)
	admins.PUT("/:id", adminHandler.Update)
	admins.DELETE("/:id", adminHandler.Delete)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

func sweepStagedUploads(ctx context.Context, staging *storage.LocalStorage, cfg config.StorageConfig, logr *zap.Logger) {
	ticker := time.NewTicker(cfg.StagingSweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := staging.CleanupOlderThan(cfg.StagingTTL)
			if err != nil {
				logr.Sugar().Warnw("staged upload sweep failed", "error", err)
				continue
			}
			if len(removed) > 0 {
				logr.Sugar().Infow("swept stale staged uploads", "count", len(removed))
			}
		}
	}
}
