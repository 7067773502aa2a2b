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

	_ "github.com/ishimweeli/timetable-api/api/swagger"
	"github.com/ishimweeli/timetable-api/internal/handler"
	"github.com/ishimweeli/timetable-api/internal/repository"
	"github.com/ishimweeli/timetable-api/internal/service"
	"github.com/ishimweeli/timetable-api/pkg/cache"
	"github.com/ishimweeli/timetable-api/pkg/config"
	"github.com/ishimweeli/timetable-api/pkg/database"
	"github.com/ishimweeli/timetable-api/pkg/logger"
	corsmiddleware "github.com/ishimweeli/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/ishimweeli/timetable-api/pkg/middleware/requestid"
	"github.com/ishimweeli/timetable-api/pkg/storage"
)

// @title Timetable API
// @version 1.0.0
// @description Manual timetable scheduling service with conflict detection
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	cacheRepo := repository.NewCacheRepository(nil)
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, entries cache disabled", "error", err)
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient)
		}
	}
	defer cacheRepo.Close()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, cfg.Cache.Enabled)

	entryRepo := repository.NewScheduleEntryRepository(db)
	bindingRepo := repository.NewBindingRepository(db)
	classBandRepo := repository.NewClassBandRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	classRepo := repository.NewClassRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	scheduleSvc := service.NewManualScheduleService(entryRepo, bindingRepo, classBandRepo, cacheSvc, metricsSvc, validate, logr, service.ManualScheduleOptions{
		SessionTTL:          cfg.Scheduling.SessionTTL,
		CheckGlobalTeacher:  cfg.Scheduling.CheckGlobalTeacher,
		MaxDailyTeacherLoad: cfg.Scheduling.MaxDailyTeacherLoad,
	})

	teacherSvc := service.NewTeacherService(teacherRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, classRepo, validate, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, validate, logr)
	roomSvc := service.NewRoomService(roomRepo, validate, logr)
	classSvc := service.NewClassService(classRepo, validate, logr)
	classBandSvc := service.NewClassBandService(classBandRepo, classRepo, validate, logr)
	bindingSvc := service.NewBindingService(bindingRepo, teacherRepo, subjectRepo, roomRepo, classRepo, classBandRepo, validate, logr)

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportSvc = service.NewExportService(entryRepo, classBandRepo, store, signer, metricsSvc, logr, service.ExportOptions{
			Workers:         cfg.Exports.WorkerConcurrency,
			Retries:         cfg.Exports.WorkerRetries,
			CleanupInterval: cfg.Exports.CleanupInterval,
			FileTTL:         cfg.Exports.SignedURLTTL,
		})
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	metricsHandler := handler.NewMetricsHandler(metricsSvc)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r, handler.RouterDeps{
		ManualSchedule: handler.NewManualScheduleHandler(scheduleSvc),
		Teachers:       handler.NewTeacherHandler(teacherSvc),
		Students:       handler.NewStudentHandler(studentSvc),
		Subjects:       handler.NewSubjectHandler(subjectSvc),
		Rooms:          handler.NewRoomHandler(roomSvc),
		Classes:        handler.NewClassHandler(classSvc),
		ClassBands:     handler.NewClassBandHandler(classBandSvc),
		Bindings:       handler.NewBindingHandler(bindingSvc),
		Exports:        handler.NewExportHandler(exportSvc),
		Audit:          handler.NewAuditHandler(auditRepo),
		Metrics:        metricsHandler,
		MetricsService: metricsSvc,
		AuditRepo:      auditRepo,
		JWTSecret:      cfg.JWT.Secret,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if exportSvc != nil {
		exportSvc.Start(ctx)
		defer exportSvc.Stop()
	}

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

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
}
