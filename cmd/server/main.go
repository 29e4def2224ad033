package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/pailler/qrlink/config"
	appmodel "github.com/pailler/qrlink/internal/app/model"
	apprepository "github.com/pailler/qrlink/internal/app/repository"
	appserver "github.com/pailler/qrlink/internal/app/server"
	appservice "github.com/pailler/qrlink/internal/app/service"
	"github.com/pailler/qrlink/internal/classify"
	"github.com/pailler/qrlink/internal/infra/logger"
	infraNATS "github.com/pailler/qrlink/internal/infra/nats"
	infraPostgres "github.com/pailler/qrlink/internal/infra/postgres"
	infraPrometheus "github.com/pailler/qrlink/internal/infra/prometheus"
	infraRedis "github.com/pailler/qrlink/internal/infra/redis"
	"github.com/pailler/qrlink/internal/storage"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	isDev := os.Getenv("APP_ENV") != "production"
	log := logger.MustInit(logger.Config{
		Development: isDev,
		Level:       os.Getenv("LOG_LEVEL"),
	})
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	log.Info("Configuration loaded successfully",
		zap.String("addr", cfg.Server.Addr),
		zap.String("base_url", cfg.Server.BaseURL),
		zap.String("postgres_host", cfg.Postgres.Host),
		zap.Int("postgres_port", cfg.Postgres.Port),
		zap.String("postgres_db", cfg.Postgres.Database),
		zap.String("redis_host", cfg.Redis.Host),
		zap.String("nats_host", cfg.NATS.Host),
		zap.String("clicks_pipeline", cfg.Clicks.Pipeline),
	)

	gormDB, err := infraPostgres.NewGorm(cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to open GORM connection", zap.Error(err))
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatal("Failed to access underlying SQL DB", zap.Error(err))
	}
	defer sqlDB.Close()

	if err := infraPostgres.AutoMigrate(ctx, gormDB,
		&appmodel.Link{},
		&appmodel.ClickEvent{},
		&appmodel.QRCode{},
		&appmodel.Session{},
	); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}

	pool, err := infraPostgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to connect to Postgres", zap.Error(err))
	}
	defer pool.Close()
	log.Info("Connected to Postgres successfully")

	redisClient, err := infraRedis.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	log.Info("Connected to Redis successfully")

	natsConn, js, err := infraNATS.Connect(cfg.NATS)
	if err != nil {
		log.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	defer natsConn.Drain()
	log.Info("Connected to NATS successfully", zap.Bool("jetstream_ready", js != nil))

	if !isDev {
		promServer := infraPrometheus.NewServer(cfg.Prometheus)
		go func() {
			log.Info("Starting Prometheus metrics server",
				zap.Int("port", cfg.Prometheus.Port))
			if err := promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Prometheus metrics server stopped unexpectedly", zap.Error(err))
			}
		}()
		defer func() {
			if err := promServer.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("Failed to close Prometheus server", zap.Error(err))
			}
		}()
	} else {
		log.Info("Skipping Prometheus metrics server in development mode")
	}

	linkRepo := apprepository.NewLinkRepository(gormDB)
	clickRepo := apprepository.NewClickEventRepository(gormDB)
	resolutionRepo := apprepository.NewResolutionRepository(gormDB)
	qrRepo := apprepository.NewQRCodeRepository(gormDB)
	sessionRepo := apprepository.NewSessionRepository(gormDB)
	statsRepo := apprepository.NewClickStatsRepository(pool)

	codes, err := linkRepo.AllCodes(ctx)
	if err != nil {
		log.Fatal("Failed to load short codes", zap.Error(err))
	}
	codeFilter := appservice.NewCodeFilter(codes)
	log.Info("Seeded short code filter", zap.Int("codes", len(codes)))

	var recorder appservice.ClickRecorder
	switch cfg.Clicks.Pipeline {
	case config.PipelineStream:
		consumer := appservice.NewClickConsumer(js, log, clickRepo)
		if err := consumer.Start(); err != nil {
			log.Fatal("Failed to start click consumer", zap.Error(err))
		}
		publisher := appservice.NewClickPublisher(js)
		recorder = appservice.NewStreamClickRecorder(resolutionRepo, publisher, cfg.Clicks.BestEffort, log)
	default:
		recorder = appservice.NewSyncClickRecorder(resolutionRepo, cfg.Clicks.BestEffort, log)
	}

	geo := classify.NewGeoClassifier(cfg.GeoIP.DatabasePath, log)
	defer geo.Close()

	blobStore, err := storage.NewBlobStore(cfg.QR.StorageDir, log)
	if err != nil {
		log.Fatal("Failed to initialize image store", zap.Error(err))
	}

	linkCache := appservice.NewLinkCache(redisClient)
	linkService := appservice.NewLinkService(linkRepo, codeFilter, linkCache)
	sessionService := appservice.NewSessionService(sessionRepo)
	statsService := appservice.NewStatsService(linkRepo, qrRepo, statsRepo)
	qrService := appservice.NewQRCodeService(appservice.QRCodeServiceDeps{
		Links:   linkRepo,
		QRCodes: qrRepo,
		Store:   blobStore,
		BaseURL: cfg.Server.BaseURL,
		Logger:  log,
	})
	resolver := appservice.NewResolver(appservice.ResolverDeps{
		Links:    linkRepo,
		Recorder: recorder,
		Geo:      geo,
		Codes:    codeFilter,
		Cache:    linkCache,
		Logger:   log,
	})

	sweeper := appservice.NewSessionSweeper(log, sessionService, mustDuration(log, "session.sweep_interval", cfg.Session.SweepInterval))
	sweeper.Start()
	defer sweeper.Stop()

	if cfg.Clicks.RetentionDays > 0 {
		retention := appservice.NewClickRetentionJob(log, clickRepo, cfg.Clicks.RetentionDays, mustDuration(log, "clicks.purge_interval", cfg.Clicks.PurgeInterval))
		retention.Start()
		defer retention.Stop()
	} else {
		log.Info("Click retention disabled, ledger kept indefinitely")
	}

	server := appserver.New(appserver.Dependencies{
		Logger:         log,
		Redis:          redisClient,
		Resolver:       resolver,
		LinkService:    linkService,
		QRService:      qrService,
		StatsService:   statsService,
		SessionService: sessionService,
		SessionHours:   cfg.Session.DurationHours,
		DownloadSecret: []byte(cfg.QR.DownloadSecret),
		BaseURL:        cfg.Server.BaseURL,
	})

	if err := server.Listen(cfg.Server.Addr); err != nil {
		log.Fatal("Fiber server exited", zap.Error(err))
	}
}

func mustDuration(log *zap.Logger, key, value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Fatal("Invalid duration in config", zap.String("key", key), zap.String("value", value), zap.Error(err))
	}
	return d
}
