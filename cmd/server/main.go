package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sidhardha7/content-sensitivity-backend/internal/api"
	"github.com/sidhardha7/content-sensitivity-backend/internal/auth"
	"github.com/sidhardha7/content-sensitivity-backend/internal/domain/port"
	"github.com/sidhardha7/content-sensitivity-backend/internal/infra/config"
	"github.com/sidhardha7/content-sensitivity-backend/internal/infra/email"
	"github.com/sidhardha7/content-sensitivity-backend/internal/infra/ffmpeg"
	"github.com/sidhardha7/content-sensitivity-backend/internal/infra/localfs"
	"github.com/sidhardha7/content-sensitivity-backend/internal/infra/memory"
	"github.com/sidhardha7/content-sensitivity-backend/internal/infra/metrics"
	miniostorage "github.com/sidhardha7/content-sensitivity-backend/internal/infra/minio"
	"github.com/sidhardha7/content-sensitivity-backend/internal/infra/postgres"
	"github.com/sidhardha7/content-sensitivity-backend/internal/infra/rabbitmq"
	"github.com/sidhardha7/content-sensitivity-backend/internal/infra/scoring"
	"github.com/sidhardha7/content-sensitivity-backend/internal/infra/tracing"
	"github.com/sidhardha7/content-sensitivity-backend/internal/usecase"
	"github.com/sidhardha7/content-sensitivity-backend/pkg/logger"
	"go.uber.org/zap"
)

const serviceName = "content-sensitivity-backend"

func main() {
	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	log.Info("starting " + serviceName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing (non-fatal if Jaeger unavailable)
	tp, err := tracing.InitTracer(ctx, serviceName, cfg.JaegerEndpoint)
	if err != nil {
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	} else {
		defer tp.Shutdown(ctx)
	}

	// Database
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	fatalOnErr(err, "connect to postgres")
	defer pool.Close()

	// Migrations
	err = postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir)
	if err != nil {
		log.Warn("migration warning", zap.Error(err))
	}

	// Object storage
	var store port.ObjectStore
	switch cfg.StorageDriver {
	case "minio":
		s, err := miniostorage.NewStorage(miniostorage.StorageConfig{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			UseSSL:    cfg.MinIOUseSSL,
			Bucket:    cfg.MinIOBucket,
			CacheDir:  filepath.Join(cfg.TempDir, "cache"),
		})
		fatalOnErr(err, "create minio storage")
		fatalOnErr(s.EnsureBucket(ctx), "ensure minio bucket")
		store = s
	case "local":
		s, err := localfs.NewStorage(cfg.StorageBasePath)
		fatalOnErr(err, "create local storage")
		store = s
	default:
		fatalOnErr(fmt.Errorf("unknown driver %q", cfg.StorageDriver), "select storage driver")
	}

	// Progress events (non-fatal if RabbitMQ unavailable)
	var sink port.ProgressSink
	if cfg.RabbitMQURL != "" {
		rmqConn, err := amqp.Dial(cfg.RabbitMQURL)
		if err != nil {
			log.Warn("rabbitmq unavailable, progress events disabled", zap.Error(err))
		} else {
			defer rmqConn.Close()
			pub, err := rabbitmq.NewProgressPublisher(rmqConn, cfg.RabbitMQExchange)
			fatalOnErr(err, "create progress publisher")
			defer pub.Close()
			sink = pub
		}
	}

	// Repositories
	tenants := postgres.NewTenantRepository(pool)
	users := postgres.NewUserRepository(pool)
	videos := postgres.NewVideoRepository(pool)

	// Pipeline adapters
	extractor := ffmpeg.NewExtractor(ffmpeg.ExtractorConfig{
		FFmpegPath:      cfg.FFmpegPath,
		FFprobePath:     cfg.FFprobePath,
		IntervalSeconds: cfg.FrameIntervalSeconds,
		FrameCap:        cfg.FrameCap,
		Format:          cfg.FrameFormat,
	}, log)
	scorer := scoring.NewScorer(log)
	aggregator := scoring.NewAggregator(cfg.MaxScoreThreshold, cfg.MeanScoreThreshold)
	registry := memory.NewJobRegistry()

	var notifier port.Notifier
	if cfg.NotificationsEnabled {
		notifier = email.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, log)
	}

	// Use case
	pipeline := usecase.NewAnalyzeVideoUseCase(
		videos, users, store,
		extractor, scorer, aggregator,
		registry, sink, notifier,
		log,
		usecase.AnalyzeVideoConfig{
			TempDir:          cfg.TempDir,
			ScoreConcurrency: cfg.ScoreConcurrency,
			RunTimeout:       cfg.RunTimeout,
		},
	)

	// HTTP API
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	router := api.NewRouter(api.Dependencies{
		Logger:              log,
		Tokens:              tokens,
		Tenants:             tenants,
		Users:               users,
		Videos:              videos,
		Store:               store,
		Pipeline:            pipeline,
		ServiceName:         serviceName,
		CORSOrigins:         cfg.CORSOrigins,
		UploadMaxBytes:      cfg.UploadMaxBytes,
		UploadRatePerMinute: cfg.UploadRatePerMinute,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Metrics server
	metricsSrv := metrics.StartServer(cfg.MetricsPort, func() error {
		return pool.Ping(ctx)
	}, log)

	go func() {
		log.Info("api server starting", zap.Int("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("api server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("received shutdown signal", zap.String("signal", sig.String()))
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("api server shutdown error", zap.Error(err))
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("metrics server shutdown error", zap.Error(err))
	}

	log.Info(serviceName + " stopped")
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}
