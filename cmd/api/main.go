package main

import (
	"context"
	"errors"
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

	_ "github.com/motbook/motbook-api/api/swagger"
	"github.com/motbook/motbook-api/internal/handler"
	"github.com/motbook/motbook-api/internal/middleware"
	"github.com/motbook/motbook-api/internal/repository"
	"github.com/motbook/motbook-api/internal/service"
	"github.com/motbook/motbook-api/pkg/cache"
	"github.com/motbook/motbook-api/pkg/config"
	"github.com/motbook/motbook-api/pkg/database"
	"github.com/motbook/motbook-api/pkg/jobs"
	"github.com/motbook/motbook-api/pkg/logger"
	corsmiddleware "github.com/motbook/motbook-api/pkg/middleware/cors"
	reqidmiddleware "github.com/motbook/motbook-api/pkg/middleware/requestid"
)

// @title MOT Booking API
// @version 1.0.0
// @description Garage scheduling and MOT slot booking marketplace
// @BasePath /api/v1
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
		logr.Sugar().Fatalw("postgres connection failed", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	garageRepo := repository.NewGarageRepository(db)
	vehicleRepo := repository.NewVehicleRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	holidayRepo := repository.NewHolidayRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	actionRepo := repository.NewScheduledActionRepository(db)
	emailLogRepo := repository.NewEmailLogRepository(db)

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Availability.CacheTTL, logr,
		cfg.Availability.CacheEnabled && redisClient != nil)

	// Services.
	authSvc := service.NewAuthService(userRepo, cfg.JWT, validate, logr)
	garageSvc := service.NewGarageService(garageRepo, validate, logr)
	vehicleSvc := service.NewVehicleService(vehicleRepo, validate, logr)
	holidaySvc := service.NewHolidayService(holidayRepo, cacheSvc, validate, cfg.Availability.HolidayRegion, logr)
	scheduleSvc := service.NewScheduleService(scheduleRepo, garageRepo, cacheSvc, validate, logr)
	availabilitySvc := service.NewAvailabilityService(garageRepo, scheduleRepo, bookingRepo, holidaySvc,
		cacheSvc, cfg.Availability.DefaultSaturdayCutoff, logr)

	notifier := service.NewSMTPNotifier(cfg.Mail)
	notificationSvc := service.NewNotificationService(notifier, emailLogRepo, metricsSvc, logr)

	notifyQueue := jobs.NewQueue("notifications", func(ctx context.Context, job jobs.Job) error {
		n, ok := job.Payload.(service.Notification)
		if !ok {
			return fmt.Errorf("unexpected payload type %T", job.Payload)
		}
		return notificationSvc.Send(ctx, n)
	}, jobs.QueueConfig{
		Workers:    cfg.Reminders.Workers,
		MaxRetries: cfg.Reminders.MaxRetries,
		RetryDelay: cfg.Reminders.RetryDelay,
		Logger:     logr,
	})

	bookingSvc := service.NewBookingService(bookingRepo, actionRepo, availabilitySvc, garageRepo,
		vehicleRepo, userRepo, notifyQueue, metricsSvc, validate, logr)
	dispatchSvc := service.NewDispatchService(actionRepo, notificationSvc, metricsSvc, cfg.Reminders, logr)
	exportSvc := service.NewExportService(bookingRepo, garageRepo, emailLogRepo, cfg.Exports, logr)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	notifyQueue.Start(rootCtx)
	defer notifyQueue.Stop()

	if err := dispatchSvc.Start(rootCtx); err != nil {
		logr.Sugar().Fatalw("reminder dispatch start failed", "error", err)
	}
	defer dispatchSvc.Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r, cfg.APIPrefix, handler.Deps{
		Auth:         handler.NewAuthHandler(authSvc),
		Garages:      handler.NewGarageHandler(garageSvc),
		Availability: handler.NewAvailabilityHandler(availabilitySvc),
		Schedules:    handler.NewScheduleHandler(scheduleSvc),
		Bookings:     handler.NewBookingHandler(bookingSvc),
		Vehicles:     handler.NewVehicleHandler(vehicleSvc),
		Admin:        handler.NewAdminHandler(exportSvc, holidaySvc, dispatchSvc),
		AuthService:  authSvc,
		Metrics:      metricsSvc,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-rootCtx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
