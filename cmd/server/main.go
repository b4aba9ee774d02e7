package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"googlemaps.github.io/maps"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/motomuse/service-routes/internal/application"
	"github.com/motomuse/service-routes/internal/cache"
	"github.com/motomuse/service-routes/internal/config"
	"github.com/motomuse/service-routes/internal/gmaps"
	"github.com/motomuse/service-routes/internal/handler"
	"github.com/motomuse/service-routes/internal/pipeline"
	"github.com/motomuse/service-routes/internal/planner"
	"github.com/motomuse/service-routes/internal/platform/auth"
	"github.com/motomuse/service-routes/internal/platform/health"
	"github.com/motomuse/service-routes/internal/platform/kafka"
	"github.com/motomuse/service-routes/internal/platform/logger"
	"github.com/motomuse/service-routes/internal/platform/middleware"
	"github.com/motomuse/service-routes/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewNamed(cfg.AppEnv, "service-routes")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-routes",
		zap.String("port", cfg.Port),
	)

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.DBConfig.DSN()), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	routeRepo := repository.NewGormSavedRouteRepository(db)
	if cfg.AppEnv == "development" {
		if err := routeRepo.Migrate(); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTTL)

	kafkaProducer := kafka.NewProducer(cfg.KafkaBrokers, "service-routes", log)
	defer func() { _ = kafkaProducer.Close() }()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer func() { _ = rdb.Close() }()
	responseCache := cache.New(rdb, cfg.CacheTTL, log)

	mapsClient, err := maps.NewClient(maps.WithAPIKey(cfg.MapsAPIKey))
	if err != nil {
		log.Fatal("failed to create maps client", zap.Error(err))
	}

	oracle, err := planner.New(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel, log)
	if err != nil {
		log.Fatal("failed to create planner client", zap.Error(err))
	}

	// Assemble the pipeline
	pcfg := cfg.Pipeline
	geocoder := gmaps.NewGeocoder(mapsClient, log)
	builder := gmaps.NewDirectionsBuilder(mapsClient, log)
	streetview := gmaps.NewStreetView(cfg.StreetViewKey, log)
	poi := gmaps.NewPOIFinder(mapsClient, log)

	validator := pipeline.NewValidator(pcfg)
	snapper := pipeline.NewSnapper(pcfg, log)
	orchestrator := pipeline.NewOrchestrator(oracle, builder, validator, snapper, pcfg, log)
	composer := pipeline.NewComposer(orchestrator, pcfg, log)
	finisher := pipeline.NewFinisher(oracle, streetview, poi, pcfg, log)

	routeService := application.NewRouteService(
		geocoder,
		composer,
		finisher,
		responseCache,
		cache.Key,
		routeRepo,
		kafkaProducer,
		pcfg,
		log,
	)
	routeHandler := handler.NewRouteHandler(routeService)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	healthHandler := health.NewHandler(db, "service-routes")
	healthHandler.RegisterRoutes(router)

	routeHandler.RegisterRoutes(&router.RouterGroup, jwtManager)

	// Generation holds the connection for the length of a pipeline run, so
	// the write timeout tracks the request budget rather than a normal API
	// response time.
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Pipeline.RequestBudget + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-routes...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-routes stopped")
}
