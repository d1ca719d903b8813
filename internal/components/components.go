package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hibiken/asynq"

	"camwatch/internal/api"
	"camwatch/internal/api/handlers/http/system"
	"camwatch/internal/config"
	"camwatch/internal/custody"
	"camwatch/internal/geo"
	"camwatch/internal/lifecycle"
	"camwatch/internal/matching"
	"camwatch/internal/objectstore"
	"camwatch/internal/privacy"
	"camwatch/internal/queue"
	"camwatch/internal/redis"
	"camwatch/internal/service"
	"camwatch/internal/storage"
	"camwatch/internal/storage/memory"
	"camwatch/internal/storage/postgres"
	"camwatch/internal/workers"
	"camwatch/pkg/clock"
	"camwatch/pkg/logger"
)

const notifyMaxRequeues = 5

// Repositories is the set of stores the core runs against.
type Repositories struct {
	Cameras  storage.CameraRepository
	Markers  storage.MarkerRepository
	Requests storage.RequestRepository
	Custody  storage.CustodyRepository
	Evidence storage.EvidenceRepository
}

type Components struct {
	logger *slog.Logger
	cfg    *config.Config

	Repos         Repositories
	Postgres      *postgres.Postgres // nil with STORAGE=memory
	Redis         *redis.Redis
	Notifications *redis.NotificationQueue
	Footage       *objectstore.FootageStore
	Queue         *queue.Client
	Privacy       *privacy.Manager
	Custody       *custody.Manager
	Lifecycle     *lifecycle.Lifecycle
	Services      *service.Service
	HttpServer    *api.Server
}

// InitCore connects the stores and builds the domain components and services.
// It does not build the HTTP server.
func InitCore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Components, error) {
	c := &Components{logger: logger, cfg: cfg}
	clk := clock.Real{}

	switch cfg.Storage {
	case config.StorageMemory:
		logger.Warn("Using in-memory storage, data is lost on exit")
		m := memory.New()
		c.Repos = Repositories{Cameras: m.Cameras, Markers: m.Markers, Requests: m.Requests, Custody: m.Custody, Evidence: m.Evidence}
	default:
		logger.Info("Initializing Postgres")
		pg, err := postgres.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Error("Failed to init postgres", slog.Any("error", err))
			return nil, fmt.Errorf("failed to init postgres: %w", err)
		}
		c.Postgres = pg
		c.Repos = Repositories{Cameras: pg.Cameras, Markers: pg.Markers, Requests: pg.Requests, Custody: pg.Custody, Evidence: pg.Evidence}
	}

	logger.Info("Initializing Redis")
	redisClient, err := redis.NewRedis(ctx, cfg.Redis, logger)
	if err != nil {
		c.ShutdownAll()
		return nil, fmt.Errorf("failed to init redis: %w", err)
	}
	c.Redis = redisClient
	c.Notifications = redis.NewNotificationQueue(redisClient.Client, cfg.Redis.NotificationKey)

	logger.Info("Initializing MinIO")
	blobs, err := objectstore.NewMinIO(cfg.MinIO)
	if err != nil {
		c.ShutdownAll()
		return nil, err
	}
	if err := blobs.EnsureBucket(ctx); err != nil {
		c.ShutdownAll()
		return nil, fmt.Errorf("failed to init minio: %w", err)
	}
	sealer, err := objectstore.LoadSealer(cfg.MinIO.AgeRecipient, cfg.MinIO.AgeIdentityFile)
	if err != nil {
		c.ShutdownAll()
		return nil, fmt.Errorf("failed to load age keys: %w", err)
	}
	c.Footage = objectstore.NewFootageStore(blobs, sealer)

	privacyCfg, policy, err := config.LoadPolicy(cfg.Privacy.PolicyFile, cfg.Privacy.Salt)
	if err != nil {
		c.ShutdownAll()
		return nil, err
	}
	c.Privacy = privacy.NewManager(privacyCfg, policy, geo.SystemRand{})

	c.Queue = queue.NewClient(asynqRedisOpt(cfg.Redis))

	var notifier lifecycle.Notifier
	if !cfg.Webhook.Disabled {
		notifier = c.Notifications
	}
	engine := matching.NewEngine(clk)
	c.Lifecycle = lifecycle.New(c.Repos.Requests, c.Repos.Cameras, c.Repos.Markers, engine, notifier, clk, lifecycle.Config{
		TTL:                 cfg.Lifecycle.RequestTTL,
		MinFootageApprovals: cfg.Lifecycle.MinFootageApprovals,
		NotifyTimeout:       cfg.Lifecycle.NotifyTimeout,
	}, logger)
	c.Custody = custody.NewManager(c.Repos.Custody, clk, logger)

	cache := redis.NewLocationCache(redisClient, cfg.Redis.LocationCacheTTL)
	c.Services = service.NewService(
		service.NewCameraService(c.Repos.Cameras, c.Repos.Requests, c.Privacy, cache, clk, logger),
		service.NewMarkerService(c.Repos.Markers, c.Privacy, cache, cfg.Lifecycle.MarkerTTL, clk, logger),
		service.NewRequestService(c.Lifecycle),
		service.NewEvidenceService(c.Repos.Evidence, c.Lifecycle, c.Footage, c.Custody, c.Queue, c.Privacy, clk, logger),
	)

	return c, nil
}

// InitComponents builds the core plus the HTTP server.
func InitComponents(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Components, error) {
	c, err := InitCore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	c.HttpServer = api.NewServer(ctx, cfg, logger, c.Services, c.readiness())
	logger.Info("Initialized server")
	return c, nil
}

func (c *Components) readiness() map[string]system.Pinger {
	deps := map[string]system.Pinger{
		"redis": system.PingFunc(func(ctx context.Context) error {
			return c.Redis.Client.Ping(ctx).Err()
		}),
	}
	if c.Postgres != nil {
		deps["postgres"] = c.Postgres.Pool
	}
	return deps
}

// ExpirySweeper returns the periodic sweeper for requests and markers.
func (c *Components) ExpirySweeper() *workers.ExpirySweeper {
	return workers.NewExpirySweeper(c.Lifecycle, c.Services.Markers, c.cfg.Worker.SweepInterval, c.logger)
}

// NotificationSender returns the webhook sender, or nil when no webhook is configured.
func (c *Components) NotificationSender() *workers.NotificationSender {
	if c.cfg.Webhook.Disabled || c.cfg.Webhook.URL == "" {
		return nil
	}
	return workers.NewNotificationSender(c.logger, workers.SenderConfig{
		URL:         c.cfg.Webhook.URL,
		PoolSize:    c.cfg.Worker.NotifyPoolSize,
		Retries:     c.cfg.Worker.NotifyMaxRetries,
		MaxRequeues: notifyMaxRequeues,
	}, c.Notifications)
}

// VerificationServer returns the asynq server and the mux that verifies uploaded evidence.
func (c *Components) VerificationServer() (*asynq.Server, *asynq.ServeMux) {
	srv := asynq.NewServer(asynqRedisOpt(c.cfg.Redis), asynq.Config{
		Concurrency: c.cfg.Worker.Concurrency,
		Logger:      newAsynqLogger(c.logger),
	})
	verifier := workers.NewEvidenceVerifier(c.Repos.Evidence, c.Footage, c.Custody, c.logger)
	return srv, verifier.Handler()
}

func asynqRedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

func SetupLogger(env string) *slog.Logger {
	switch env {
	case "local":
		return logger.SetupPrettySlog()
	case "dev":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	default:
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	}
}

func (c *Components) ShutdownAll() {
	start := time.Now()
	c.logger.Info("Shutting down components")

	var errs []error
	if c.Queue != nil {
		errs = append(errs, c.Queue.Close())
	}
	if c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	if c.Postgres != nil {
		c.Postgres.Close()
	}
	if err := errors.Join(errs...); err != nil {
		c.logger.Error("component close failed", slog.Any("error", err))
	}

	c.logger.Info("All components stopped",
		slog.Duration("latency", time.Since(start)))
}
