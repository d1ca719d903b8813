package config

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env       string          `json:"env"`
	Storage   string          `json:"storage"`
	Http      HttpConfig      `json:"http"`
	Postgres  PostgresConfig  `json:"postgres"`
	Redis     RedisConfig     `json:"redis"`
	MinIO     MinIOConfig     `json:"minio"`
	Worker    WorkerConfig    `json:"worker"`
	Lifecycle LifecycleConfig `json:"lifecycle"`
	Privacy   PrivacyConfig   `json:"privacy"`
	Webhook   WebhookConfig   `json:"webhook"`
	APIKey    string          `json:"api_key,omitempty"`
}

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type HttpConfig struct {
	Port            string        `json:"port"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	RateLimitRPS    float64       `json:"rate_limit_rps"`
	RateLimitBurst  int           `json:"rate_limit_burst"`
	MaxUploadBytes  int64         `json:"max_upload_bytes"`
}

type PostgresConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	User     string `json:"user"`
	Password string `json:"password,omitempty"`
	SSLMode  string `json:"ssl_mode"`

	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type RedisConfig struct {
	Addr             string        `json:"addr"`
	Password         string        `json:"password,omitempty"`
	DB               int           `json:"db"`
	NotificationKey  string        `json:"notification_key"`
	LocationCacheTTL time.Duration `json:"location_cache_ttl"`
}

type MinIOConfig struct {
	Endpoint  string `json:"endpoint"`
	AccessKey string `json:"access_key,omitempty"`
	SecretKey string `json:"secret_key,omitempty"`
	Bucket    string `json:"bucket"`
	UseSSL    bool   `json:"use_ssl"`
	// AgeRecipient seals footage at rest when set; AgeIdentityFile opens it again.
	AgeRecipient    string `json:"age_recipient,omitempty"`
	AgeIdentityFile string `json:"age_identity_file,omitempty"`
}

type WorkerConfig struct {
	Concurrency      int           `json:"concurrency"`
	SweepInterval    time.Duration `json:"sweep_interval"`
	NotifyPoolSize   int           `json:"notify_pool_size"`
	NotifyMaxRetries int           `json:"notify_max_retries"`
}

type LifecycleConfig struct {
	RequestTTL          time.Duration `json:"request_ttl"`
	MinFootageApprovals int           `json:"min_footage_approvals"`
	NotifyTimeout       time.Duration `json:"notify_timeout"`
	MarkerTTL           time.Duration `json:"marker_ttl"`
}

type PrivacyConfig struct {
	PolicyFile string `json:"policy_file"`
	Salt       string `json:"-"`
}

type WebhookConfig struct {
	URL      string `json:"url"`
	Disabled bool   `json:"disabled"`
}

func Load(ctx context.Context) (*Config, error) {
	stdLogger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		stdLogger.Warn(".env load warning", slog.Any("error", err))
	}

	cfg := &Config{
		Env:     getEnv("ENV", "local"),
		Storage: getEnv("STORAGE", StoragePostgres),
		Http: HttpConfig{
			Port:            getEnv("HTTP_PORT", ":8080"),
			ReadTimeout:     getEnvDuration("HTTP_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("HTTP_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
			RateLimitRPS:    getEnvFloat("HTTP_RATE_LIMIT_RPS", 5),
			RateLimitBurst:  getEnvInt("HTTP_RATE_LIMIT_BURST", 10),
			MaxUploadBytes:  int64(getEnvInt("HTTP_MAX_UPLOAD_BYTES", 512<<20)),
		},
		Postgres: PostgresConfig{
			Host:            getEnv("POSTGRES_HOST", "pg-local"),
			Port:            getEnvInt("POSTGRES_PORT", 5432),
			Database:        getEnv("POSTGRES_DB", "camwatch"),
			User:            getEnv("POSTGRES_USER", "postgres"),
			Password:        getEnv("POSTGRES_PASSWORD", "postgres"),
			SSLMode:         getEnv("POSTGRES_SSL_MODE", "disable"),
			MaxConns:        int32(getEnvInt("POSTGRES_MAX_CONNS", 20)),
			MinConns:        1,
			MaxConnLifetime: 1 * time.Hour,
		},
		Redis: RedisConfig{
			Addr:             getEnv("REDIS_ADDR", "redis-local:6379"),
			Password:         getEnv("REDIS_PASSWORD", ""),
			DB:               getEnvInt("REDIS_DB", 0),
			NotificationKey:  getEnv("REDIS_NOTIFICATION_KEY", "notifications:queue"),
			LocationCacheTTL: getEnvDuration("REDIS_LOCATION_CACHE_TTL", 24*time.Hour),
		},
		MinIO: MinIOConfig{
			Endpoint:        getEnv("MINIO_ENDPOINT", "minio-local:9000"),
			AccessKey:       getEnv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey:       getEnv("MINIO_SECRET_KEY", "minioadmin"),
			Bucket:          getEnv("MINIO_BUCKET", "footage"),
			UseSSL:          getEnvBool("MINIO_USE_SSL", false),
			AgeRecipient:    getEnv("AGE_RECIPIENT", ""),
			AgeIdentityFile: getEnv("AGE_IDENTITY_FILE", ""),
		},
		Worker: WorkerConfig{
			Concurrency:      getEnvInt("WORKER_CONCURRENCY", 5),
			SweepInterval:    getEnvDuration("WORKER_SWEEP_INTERVAL", time.Minute),
			NotifyPoolSize:   getEnvInt("WORKER_NOTIFY_POOL_SIZE", 4),
			NotifyMaxRetries: getEnvInt("WORKER_NOTIFY_MAX_RETRIES", 3),
		},
		Lifecycle: LifecycleConfig{
			RequestTTL:          getEnvDuration("REQUEST_TTL", 7*24*time.Hour),
			MinFootageApprovals: getEnvInt("MIN_FOOTAGE_APPROVALS", 1),
			NotifyTimeout:       getEnvDuration("NOTIFY_TIMEOUT", 2*time.Second),
			MarkerTTL:           getEnvDuration("MARKER_TTL", 14*24*time.Hour),
		},
		Privacy: PrivacyConfig{
			PolicyFile: getEnv("PRIVACY_POLICY_FILE", ""),
			Salt:       getEnv("PRIVACY_SALT", "camwatch"),
		},
		APIKey: getEnv("API_KEY", "super-secret-key"),
		Webhook: WebhookConfig{
			URL:      getEnv("WEBHOOK_URL", ""),
			Disabled: getEnvBool("WEBHOOK_DISABLED", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	stdLogger.Info("Config loaded successfully",
		slog.String("env", cfg.Env),
		slog.String("storage", cfg.Storage),
		slog.String("http_port", cfg.Http.Port),
		slog.String("postgres_db", cfg.Postgres.Database),
		slog.String("redis_addr", cfg.Redis.Addr),
		slog.String("minio_endpoint", cfg.MinIO.Endpoint),
		slog.Bool("sealed_at_rest", cfg.MinIO.AgeRecipient != ""))

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Http.Port == "" || c.Http.Port[0] != ':' {
		return errors.New("HTTP_PORT must start with ':' like ':8080'")
	}
	switch c.Storage {
	case StoragePostgres:
		if c.Postgres.Host == "" {
			return errors.New("POSTGRES_HOST required")
		}
	case StorageMemory:
	default:
		return errors.New("STORAGE must be 'postgres' or 'memory'")
	}
	if c.Redis.Addr == "" {
		return errors.New("REDIS_ADDR required")
	}
	if c.MinIO.Endpoint == "" || c.MinIO.Bucket == "" {
		return errors.New("MINIO_ENDPOINT and MINIO_BUCKET required")
	}
	if c.Lifecycle.RequestTTL <= 0 {
		return errors.New("REQUEST_TTL must be positive")
	}
	if c.Lifecycle.MinFootageApprovals < 1 {
		return errors.New("MIN_FOOTAGE_APPROVALS must be at least 1")
	}
	if c.Worker.SweepInterval <= 0 {
		return errors.New("WORKER_SWEEP_INTERVAL must be positive")
	}
	if c.Http.RateLimitRPS <= 0 || c.Http.RateLimitBurst <= 0 {
		return errors.New("HTTP_RATE_LIMIT_RPS and HTTP_RATE_LIMIT_BURST must be positive")
	}
	if strings.TrimSpace(c.Privacy.Salt) == "" {
		return errors.New("PRIVACY_SALT required")
	}
	return nil
}

func (c PostgresConfig) DSN() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + strconv.Itoa(c.Port) + "/" + c.Database + "?sslmode=" + c.SSLMode
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
