package main

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/checknet/backend/internal/config"
	"github.com/checknet/backend/internal/database"
	"github.com/checknet/backend/internal/database/migrations"
	"github.com/checknet/backend/internal/jobs"
	"github.com/checknet/backend/internal/routes"
	"github.com/checknet/backend/internal/services/artifact"
	"github.com/checknet/backend/internal/services/fraudevent"
	"github.com/checknet/backend/internal/services/hashing"
	"github.com/checknet/backend/internal/services/matching"
	"github.com/checknet/backend/internal/services/pii"
	"github.com/checknet/backend/internal/services/tenantcfg"
	"github.com/checknet/backend/internal/services/trends"
)

func main() {
	cfg := config.LoadConfig()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to database")
	}

	if err := migrations.RunMigrations(db); err != nil {
		logrus.WithError(err).Fatal("failed to run migrations")
	}

	// The keyring rows are authoritative; config secrets only seed an
	// empty table on first boot.
	now := time.Now().UTC()
	keyringStore := hashing.NewKeyringStore(db, cfg.Fraud.RotationOverlapDays)
	seed := hashing.Pepper{Version: cfg.Fraud.PepperVersion, Secret: cfg.Fraud.PepperSecret}
	var priorSeed *hashing.Pepper
	if cfg.Fraud.PriorPepperSecret != "" {
		priorSeed = &hashing.Pepper{Version: cfg.Fraud.PriorPepperVersion, Secret: cfg.Fraud.PriorPepperSecret}
	}
	if err := keyringStore.Seed(seed, priorSeed, now); err != nil {
		logrus.WithError(err).Fatal("failed to seed pepper keyring")
	}
	ring, err := keyringStore.Load(now)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load pepper keyring")
	}
	hasher, err := hashing.NewService(ring)
	if err != nil {
		logrus.WithError(err).Fatal("failed to initialize indicator hashing")
	}

	var cache *redis.Client
	if opts, err := redis.ParseURL(cfg.Redis.URL); err == nil {
		if cfg.Redis.Password != "" {
			opts.Password = cfg.Redis.Password
		}
		opts.DB = cfg.Redis.DB
		cache = redis.NewClient(opts)
	} else {
		logrus.WithError(err).Warn("invalid redis URL, tenant config cache disabled")
	}

	configs := tenantcfg.NewService(db, cache, time.Duration(cfg.Fraud.ConfigCacheTTLSecs)*time.Second)
	piiSvc := pii.NewService()
	artifacts := artifact.NewStore(db, hasher)
	events := fraudevent.NewService(piiSvc, configs, artifacts)
	matcher := matching.NewService(db, hasher, configs)
	trendSvc := trends.NewService(db, configs, cfg.Fraud.PrivacyThreshold)

	scheduler := gocron.NewScheduler(time.UTC)
	retention := jobs.NewRetentionJob(artifacts)
	if err := retention.Schedule(scheduler, cfg.Fraud.RetentionSweepHour); err != nil {
		logrus.WithError(err).Fatal("failed to schedule retention sweep")
	}
	scheduler.StartAsync()

	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Tenant-ID", "X-User-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	routes.SetupRoutes(router, db, cfg, routes.Services{
		Events:       events,
		Matcher:      matcher,
		Trends:       trendSvc,
		PII:          piiSvc,
		Configs:      configs,
		Hasher:       hasher,
		KeyringStore: keyringStore,
	})

	logrus.WithField("port", cfg.Server.Port).Info("fraud intelligence API listening")
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		logrus.WithError(err).Fatal("server exited")
	}
}
