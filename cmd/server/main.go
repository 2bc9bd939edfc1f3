package main

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"go-pos-checkout/internal/ai"
	"go-pos-checkout/internal/auth"
	"go-pos-checkout/internal/cart"
	"go-pos-checkout/internal/checkout"
	"go-pos-checkout/internal/config"
	"go-pos-checkout/internal/database"
	"go-pos-checkout/internal/handlers"
	"go-pos-checkout/internal/kvstore"
	"go-pos-checkout/internal/logging"
	"go-pos-checkout/internal/metrics"
	"go-pos-checkout/internal/middleware"
	"go-pos-checkout/internal/remote"
	"go-pos-checkout/internal/stock"
	"go-pos-checkout/internal/tax"
	"go-pos-checkout/internal/utils"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.Connect(cfg.Database, logger)
	if err != nil {
		logger.Fatal("database unavailable", zap.Error(err))
	}

	// --- 1. Settings storage (Redis when configured) ---
	var settings tax.Store = database.NewSettingsStore(db)
	if cfg.Redis.Enabled() {
		redisStore := kvstore.NewRedisStore(kvstore.NewRedisClient(cfg.Redis))
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisStore.Ping(ctx); err != nil {
			logger.Warn("redis unreachable, keeping settings in the database", zap.Error(err))
		} else {
			settings = redisStore
			logger.Info("settings stored in redis", zap.String("addr", cfg.Redis.Addr))
		}
		cancel()
	}

	// --- 2. Core services ---
	deviceID := utils.GetDeviceID(cfg.Server.DevicePrefix)
	client := remote.NewClient(cfg.Remote, deviceID, logger)
	m := metrics.New(prometheus.DefaultRegisterer)

	taxProvider := tax.NewProvider(client, settings, logger).WithMetrics(m)
	if err := taxProvider.Load(context.Background()); err != nil {
		logger.Warn("could not restore tax rate", zap.Error(err))
	}

	ledger := cart.NewLedger()

	var events checkout.SettlementPublisher
	if cfg.Features.SettlementEvents {
		publisher := checkout.NewKafkaPublisher(cfg.Kafka, deviceID, logger)
		defer publisher.Close()
		events = publisher
		logger.Info("settlement events enabled",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.SettlementTopic),
		)
	}

	submitter, err := checkout.NewSubmitter(checkout.SubmitterDeps{
		Cart:    ledger,
		API:     client,
		Events:  events,
		Metrics: m,
		Logger:  logger,
	})
	if err != nil {
		logger.Fatal("failed to build submitter", zap.Error(err))
	}

	history := database.NewStockHistory(db)
	stockLedger, err := stock.NewLedger(stock.LedgerDeps{
		Products: client,
		History:  history,
		Metrics:  m,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatal("failed to build stock ledger", zap.Error(err))
	}

	assistant := ai.NewAgent(cfg.AI, &ai.Toolbox{Stock: client, Ledger: stockLedger, Reports: history}, logger)

	h, err := handlers.New(handlers.Deps{
		Cart:         ledger,
		Tax:          taxProvider,
		Submitter:    submitter,
		Stock:        stockLedger,
		Reports:      history,
		Users:        database.NewUserStore(db),
		Tokens:       auth.NewManager(cfg.Auth),
		Session:      client,
		Assistant:    assistant,
		QuickAmounts: cfg.Payment.QuickAmounts,
		DeviceID:     deviceID,
		Logger:       logger,
	})
	if err != nil {
		logger.Fatal("failed to build handlers", zap.Error(err))
	}

	// --- 3. HTTP ---
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	h.Routes(r, cfg.Features.AllowRegistration)

	// --- FEATURE FLAG: Admin Registration ---
	if cfg.Features.AllowRegistration {
		logger.Warn("registration route is OPEN, disable ALLOW_REGISTRATION in production")
	} else {
		logger.Info("registration route is disabled")
	}

	// --- 4. Serve the front-end ---
	r.Static("/assets", filepath.Join(cfg.Server.WebDir, "assets"))
	r.StaticFile("/vite.svg", filepath.Join(cfg.Server.WebDir, "vite.svg"))

	// SPA catch-all: unknown paths get index.html so the client router handles them.
	index := filepath.Join(cfg.Server.WebDir, "index.html")
	r.NoRoute(func(c *gin.Context) {
		c.File(index)
	})

	logger.Info("server starting",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("device_id", deviceID),
		zap.Float64("tax_rate", taxProvider.Rate()),
		zap.Bool("assistant_enabled", assistant.Enabled()),
	)
	if err := r.Run(cfg.Server.Addr()); err != nil {
		logger.Fatal("server failed to start", zap.Error(err))
	}
}
