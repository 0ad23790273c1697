package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress         string
	DatabaseURI        string
	RedisAddress       string
	KafkaBrokers       []string
	KafkaTopic         string
	BankFeedAddress    string
	JWTSecret          string
	AdminToken         string
	GatewaySecret      string
	ReconcileInterval  time.Duration
	WorkerPoolSize     int
	ReconcileBatchSize int
	ShutdownTimeout    time.Duration
	DuplicateWindow    time.Duration
	SweepLockTTL       time.Duration
	TokenTTL           time.Duration
	BcryptCost         int
	LogLevel           string
	// VoucherPublicOncePerIdentity limits every public code to one use per customer.
	VoucherPublicOncePerIdentity bool
}

const (
	defaultRunAddress         = ":8080"
	defaultJWTSecret          = "change-me-in-production"
	defaultKafkaTopic         = "storefront.orders"
	defaultReconcileInterval  = 30 * time.Second
	defaultWorkerPoolSize     = 4
	defaultReconcileBatchSize = 200
	defaultShutdownTimeout    = 10 * time.Second
	defaultDuplicateWindow    = 5 * time.Minute
	defaultSweepLockTTL       = 2 * time.Minute
	defaultTokenTTL           = 24 * time.Hour
	defaultLogLevel           = "info"
	dotEnvFile                = ".env"
)

// Load parses configuration from flags, environment variables and an optional .env file.
func Load() (*Config, error) {
	lookup, err := withDotEnv(dotEnvFile, os.LookupEnv)
	if err != nil {
		return nil, err
	}
	return load(os.Args[1:], lookup)
}

type envLookup func(string) (string, bool)

// withDotEnv layers values from path under the process environment.
func withDotEnv(path string, lookup envLookup) (envLookup, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return lookup, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := values[key]
		return v, ok
	}, nil
}

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:                   getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:                  getString(lookup, "DATABASE_URI", ""),
		RedisAddress:                 getString(lookup, "REDIS_ADDRESS", ""),
		KafkaTopic:                   getString(lookup, "KAFKA_TOPIC", defaultKafkaTopic),
		BankFeedAddress:              getString(lookup, "BANK_FEED_ADDRESS", ""),
		JWTSecret:                    getString(lookup, "JWT_SECRET", defaultJWTSecret),
		AdminToken:                   getString(lookup, "ADMIN_TOKEN", ""),
		GatewaySecret:                getString(lookup, "GATEWAY_SECRET", ""),
		ReconcileInterval:            getDuration(lookup, "RECONCILE_INTERVAL", defaultReconcileInterval),
		WorkerPoolSize:               getInt(lookup, "WORKER_POOL_SIZE", defaultWorkerPoolSize),
		ReconcileBatchSize:           getInt(lookup, "RECONCILE_BATCH_SIZE", defaultReconcileBatchSize),
		ShutdownTimeout:              getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		DuplicateWindow:              getDuration(lookup, "DUPLICATE_WINDOW", defaultDuplicateWindow),
		SweepLockTTL:                 getDuration(lookup, "SWEEP_LOCK_TTL", defaultSweepLockTTL),
		TokenTTL:                     getDuration(lookup, "TOKEN_TTL", defaultTokenTTL),
		BcryptCost:                   getInt(lookup, "BCRYPT_COST", 0),
		LogLevel:                     getString(lookup, "LOG_LEVEL", defaultLogLevel),
		VoucherPublicOncePerIdentity: getBool(lookup, "VOUCHER_PUBLIC_ONCE_PER_IDENTITY", false),
	}

	fs := flag.NewFlagSet("storefront", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		brokersStr           = getString(lookup, "KAFKA_BROKERS", "")
		reconcileIntervalStr = cfg.ReconcileInterval.String()
		shutdownTimeoutStr   = cfg.ShutdownTimeout.String()
		duplicateWindowStr   = cfg.DuplicateWindow.String()
		sweepLockTTLStr      = cfg.SweepLockTTL.String()
		tokenTTLStr          = cfg.TokenTTL.String()
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.RedisAddress, "redis", cfg.RedisAddress, "Redis address for distributed locks")
	fs.StringVar(&brokersStr, "kafka-brokers", brokersStr, "Comma separated Kafka brokers for order events")
	fs.StringVar(&cfg.KafkaTopic, "kafka-topic", cfg.KafkaTopic, "Kafka topic for order events")
	fs.StringVar(&cfg.BankFeedAddress, "bank-feed", cfg.BankFeedAddress, "Bank transaction feed base URL")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "Secret for signing auth tokens")
	fs.StringVar(&cfg.AdminToken, "admin-token", cfg.AdminToken, "Bearer token for admin endpoints")
	fs.StringVar(&cfg.GatewaySecret, "gateway-secret", cfg.GatewaySecret, "Secret for payment gateway signatures")
	fs.StringVar(&reconcileIntervalStr, "reconcile-interval", reconcileIntervalStr, "Interval between bank reconciliation passes")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent reconciliation workers")
	fs.IntVar(&cfg.ReconcileBatchSize, "reconcile-batch", cfg.ReconcileBatchSize, "Maximum pending orders per reconciliation pass")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")
	fs.StringVar(&duplicateWindowStr, "duplicate-window", duplicateWindowStr, "Window for duplicate order suppression")
	fs.StringVar(&sweepLockTTLStr, "sweep-lock-ttl", sweepLockTTLStr, "Time to live of the sweep lock")
	fs.StringVar(&tokenTTLStr, "token-ttl", tokenTTLStr, "Lifetime of issued auth tokens")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn or error")
	fs.BoolVar(&cfg.VoucherPublicOncePerIdentity, "voucher-public-once", cfg.VoucherPublicOncePerIdentity, "Allow each public voucher once per customer")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.ReconcileInterval, err = time.ParseDuration(reconcileIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid reconcile interval: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if cfg.DuplicateWindow, err = time.ParseDuration(duplicateWindowStr); err != nil {
		return nil, fmt.Errorf("invalid duplicate window: %w", err)
	}

	if cfg.SweepLockTTL, err = time.ParseDuration(sweepLockTTLStr); err != nil {
		return nil, fmt.Errorf("invalid sweep lock ttl: %w", err)
	}

	if cfg.TokenTTL, err = time.ParseDuration(tokenTTLStr); err != nil {
		return nil, fmt.Errorf("invalid token ttl: %w", err)
	}

	cfg.KafkaBrokers = splitList(brokersStr)

	if secretFile, ok := lookup("JWT_SECRET_FILE"); ok && secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read jwt secret file: %w", err)
		}
		cfg.JWTSecret = strings.TrimSpace(string(content))
	}

	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}

	if cfg.ReconcileBatchSize <= 0 {
		cfg.ReconcileBatchSize = defaultReconcileBatchSize
	}

	if cfg.ReconcileInterval <= 0 {
		cfg.ReconcileInterval = defaultReconcileInterval
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.DuplicateWindow <= 0 {
		cfg.DuplicateWindow = defaultDuplicateWindow
	}

	if cfg.SweepLockTTL <= 0 {
		cfg.SweepLockTTL = defaultSweepLockTTL
	}

	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	if cfg.AdminToken == "" {
		return nil, fmt.Errorf("admin token must be provided")
	}

	if cfg.GatewaySecret == "" {
		return nil, fmt.Errorf("gateway secret must be provided")
	}

	return cfg, nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getBool(lookup envLookup, key string, def bool) bool {
	if v, ok := lookup(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
