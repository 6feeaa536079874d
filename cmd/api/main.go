package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"pasal/internal/cache"
	"pasal/internal/cart"
	"pasal/internal/catalog"
	"pasal/internal/checkout"
	"pasal/internal/commerce"
	"pasal/internal/db"
	"pasal/internal/media"
	"pasal/internal/metrics"
	"pasal/internal/payflow"
	"pasal/internal/paylog"
	"pasal/internal/pending"
	"pasal/internal/ratelimiter"
	"pasal/internal/refcode"
	"pasal/internal/session"
)

// LoadRateLimiterConfig retrieves rate limiter settings from environment variables
func LoadRateLimiterConfig() ratelimiter.Config {
	defaultRequests := 200
	defaultEnabled := false

	requestsPerTimeFrame := defaultRequests
	if val, exists := os.LookupEnv("RATELIMITER_REQUESTS_COUNT"); exists {
		if parsedVal, err := strconv.Atoi(val); err == nil {
			requestsPerTimeFrame = parsedVal
		} else {
			fmt.Println("Invalid RATELIMITER_REQUESTS_COUNT, defaulting to", defaultRequests)
		}
	}

	enabled := defaultEnabled
	if val, exists := os.LookupEnv("RATE_LIMITER_ENABLED"); exists {
		if parsedVal, err := strconv.ParseBool(val); err == nil {
			enabled = parsedVal
		} else {
			fmt.Println("Invalid RATE_LIMITER_ENABLED, defaulting to", defaultEnabled)
		}
	}

	return ratelimiter.Config{
		RequestsPerTimeFrame: requestsPerTimeFrame,
		TimeFrame:            5 * time.Second,
		Enabled:              enabled,
	}
}

// NewLogger creates a new zap logger with color.
func NewLogger() (*zap.SugaredLogger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)

	level := zapcore.InfoLevel

	core := zapcore.NewCore(consoleEncoder, zapcore.NewMultiWriteSyncer(zapcore.AddSync(os.Stdout)), level)

	logger := zap.New(core)

	return logger.Sugar(), nil
}

var version = "1.0.0"

//	@title			Pasal Storefront API
//	@description	Storefront service for Pasal: catalog, cart, checkout and payment gateway reconciliation.

//	@BasePath					/v1
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						Authorization
//	@description

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Fatalf("Error loading .env file: %v", err)
	}

	maxConnsStr := os.Getenv("DB_MAX_CONNS")
	maxConns, err := strconv.Atoi(maxConnsStr)
	if err != nil {
		log.Fatalf("Invalid value for DB_MAX_CONNS: %v", err)
	}

	cfg := config{
		addr:        os.Getenv("ADDR"),
		env:         os.Getenv("ENV"),
		apiURL:      os.Getenv("EXTERNAL_URL"),
		commerceURL: os.Getenv("COMMERCE_API_URL"),
		redisURL:    os.Getenv("REDIS_URL"),
		db: dbConfig{
			addr:        os.Getenv("DB_ADDR"),
			maxConns:    int32(maxConns),
			maxIdleTime: os.Getenv("DB_MAX_IDLE_TIME"),
		},
		auth: authConfig{
			basic: basicConfig{
				user: os.Getenv("AUTH_BASIC_USER"),
				pass: os.Getenv("AUTH_BASIC_PASS"),
			},
		},
		session: sessionConfig{
			cookieName: "pasal_sid",
			ttl:        time.Hour * 24, // 1 day
		},
		refSalt:     os.Getenv("SUPPORT_REF_SALT"),
		rateLimiter: LoadRateLimiterConfig(),
	}

	// Logger
	logger, err := NewLogger()
	if err != nil {
		fmt.Println("Error creating logger:", err)
		return
	}
	defer logger.Sync()

	// Database
	pool, err := db.New(
		cfg.db.addr,
		cfg.db.maxConns,
		cfg.db.maxIdleTime,
	)
	if err != nil {
		logger.Fatal(err)
	}

	defer pool.Close()
	logger.Info("database connection pool established")

	// Redis
	rdb, err := cache.New(cfg.redisURL)
	if err != nil {
		logger.Fatal(err)
	}

	defer rdb.Close()
	logger.Info("redis connection established")

	// Cloudinary
	resizer, err := media.New(os.Getenv("CLOUDINARY_URL"))
	if err != nil {
		logger.Fatal(err)
	}

	// Rate limiter
	rateLimiter := ratelimiter.NewFixedWindowLimiter(
		cfg.rateLimiter.RequestsPerTimeFrame,
		cfg.rateLimiter.TimeFrame,
	)

	// Upstream commerce API client
	client := commerce.New(cfg.commerceURL, 15*time.Second)

	sessions := session.NewRedisStore(rdb, cfg.session.ttl)

	// When the upstream rejects a bearer token the local session is stale.
	client.SetAuthFailureHook(func(ctx context.Context) {
		s := session.FromContext(ctx)
		if s == nil {
			return
		}
		if err := sessions.Clear(ctx, s.ID); err != nil {
			logger.Warnw("failed to clear stale session", "session_id", s.ID, "error", err)
		}
	})

	refs, err := refcode.New(cfg.refSalt)
	if err != nil {
		logger.Fatal(err)
	}

	attempts := paylog.NewRepository(pool)
	pendingPayments := pending.NewRedisStore(rdb, 0)

	reconciler := payflow.NewReconciler(client, pendingPayments, attempts, refs, logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	app := &application{
		config:          cfg,
		logger:          logger,
		api:             client,
		sessions:        sessions,
		catalog:         catalog.NewService(client, rdb, 5*time.Minute, logger),
		cart:            cart.NewService(client),
		checkout:        checkout.NewService(client, pendingPayments, Validate),
		reconciler:      reconciler,
		pendingPayments: pendingPayments,
		attempts:        attempts,
		refs:            refs,
		media:           resizer,
		metrics:         metrics.New(registry),
		promRegistry:    registry,
		rateLimiter:     rateLimiter,
	}

	// Metrics collected at http://localhost:8080/v1/debug/vars
	expvar.NewString("version").Set(version)
	expvar.Publish("database", expvar.Func(func() any {
		stat := pool.Stat()
		return map[string]any{
			"acquired_conns": stat.AcquiredConns(),
			"idle_conns":     stat.IdleConns(),
			"total_conns":    stat.TotalConns(),
		}
	}))
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.mount()

	logger.Fatal(app.run(mux))
}
