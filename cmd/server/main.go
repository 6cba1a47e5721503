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

	catalogapp "github.com/marketplace/backend/internal/application/catalog"
	eventapp "github.com/marketplace/backend/internal/application/event"
	identityapp "github.com/marketplace/backend/internal/application/identity"
	tradingapp "github.com/marketplace/backend/internal/application/trading"
	walletapp "github.com/marketplace/backend/internal/application/wallet"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/auth"
	"github.com/marketplace/backend/internal/infrastructure/cache"
	"github.com/marketplace/backend/internal/infrastructure/config"
	"github.com/marketplace/backend/internal/infrastructure/event"
	"github.com/marketplace/backend/internal/infrastructure/logger"
	"github.com/marketplace/backend/internal/infrastructure/notification"
	"github.com/marketplace/backend/internal/infrastructure/payment"
	"github.com/marketplace/backend/internal/infrastructure/persistence"
	"github.com/marketplace/backend/internal/infrastructure/scheduler"
	"github.com/marketplace/backend/internal/interfaces/http/handler"
	"github.com/marketplace/backend/internal/interfaces/http/middleware"
	"github.com/marketplace/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log, err := logger.New(&logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: cfg.App.Name,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync(log)

	log.Info("starting marketplace backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port))

	// Connect to PostgreSQL through the zap-backed GORM logger
	gormLogger := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLogger)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	log.Info("database connection established",
		zap.String("host", cfg.Database.Host),
		zap.String("dbname", cfg.Database.DBName))

	// Connect to Redis. The stats counters and the token blacklist share
	// one client.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	redisErr := redisClient.Ping(pingCtx).Err()
	cancelPing()

	var statsStore *cache.RedisStatsStore
	var blacklist auth.TokenBlacklist
	if redisErr != nil {
		// The API stays up without Redis: stats go dark and revocation
		// falls back to the in-process blacklist.
		log.Warn("redis unavailable, running degraded",
			zap.String("addr", fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)),
			zap.Error(redisErr))
		blacklist = auth.NewInMemoryTokenBlacklist()
	} else {
		statsStore = cache.NewRedisStatsStoreWithClient(redisClient, "")
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
		defer redisClient.Close()
		log.Info("redis connection established")
	}

	// Repositories
	balanceRepo := persistence.NewGormBalanceRepository(db)
	entryRepo := persistence.NewGormTransactionRepository(db)
	tradeRepo := persistence.NewGormTradeRepository(db)
	disputeRepo := persistence.NewGormDisputeRepository(db)
	itemRepo := persistence.NewGormItemRepository(db)
	userRepo := persistence.NewGormUserRepository(db)

	// Application services. The database doubles as the transaction
	// manager so multi-aggregate operations commit atomically.
	walletService := walletapp.NewWalletService(db, balanceRepo, entryRepo, nil, log)
	tradeService := tradingapp.NewTradeService(db, tradeRepo, disputeRepo, itemRepo, balanceRepo, entryRepo, userRepo, log)
	disputeService := tradingapp.NewDisputeService(db, disputeRepo, tradeRepo, balanceRepo, entryRepo, userRepo, log)
	itemService := catalogapp.NewItemService(db, itemRepo, userRepo, log)
	userService := identityapp.NewUserService(userRepo, log)

	// Event bus with its subscribers. Each subscriber gets its own
	// duplicate-suppression store; the idempotency key is the event ID,
	// so sharing a store would let one subscriber shadow the other.
	eventBus := event.NewInMemoryEventBus(log)

	newIdempotencyStore := func(keyPrefix string) shared.IdempotencyStore {
		if redisErr != nil {
			return cache.NewInMemoryIdempotencyStore()
		}
		return cache.NewRedisIdempotencyStoreWithClient(redisClient, keyPrefix)
	}

	if statsStore != nil {
		statsProjector := event.NewIdempotentHandler(
			eventapp.NewStatsProjector(statsStore, log),
			newIdempotencyStore("marketplace:idempotency:stats:"),
			log,
		)
		eventBus.Subscribe(statsProjector, statsProjector.EventTypes()...)
	}

	notificationHandler := event.NewIdempotentHandler(
		eventapp.NewNotificationHandler(notification.NewLogNotifier(log), log),
		newIdempotencyStore("marketplace:idempotency:notifications:"),
		log,
	)
	eventBus.Subscribe(notificationHandler, notificationHandler.EventTypes()...)

	ctx := context.Background()
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("failed to start event bus", zap.Error(err))
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := eventBus.Stop(stopCtx); err != nil {
			log.Error("failed to stop event bus", zap.Error(err))
		}
	}()

	walletService.SetEventPublisher(eventBus)
	tradeService.SetEventPublisher(eventBus)
	disputeService.SetEventPublisher(eventBus)

	// Withdrawal settlement worker. The worker settles committed debits
	// against the bank payout rail; the periodic sweep re-queues entries
	// whose immediate handoff was lost.
	if cfg.Settlement.Enabled {
		payoutConfig := &payment.BankPayoutConfig{
			BaseURL:       cfg.Payout.BaseURL,
			APIKey:        cfg.Payout.APIKey,
			SigningSecret: cfg.Payout.SigningSecret,
			Timeout:       cfg.Payout.Timeout,
			IsSandbox:     cfg.Payout.Sandbox,
		}
		payoutProvider, err := payment.NewBankPayoutAdapter(payoutConfig)
		if err != nil {
			log.Fatal("invalid payout configuration", zap.Error(err))
		}

		settlementWorker := scheduler.NewSettlementWorker(
			scheduler.SettlementWorkerConfig{
				QueueSize:     cfg.Settlement.QueueSize,
				SweepInterval: cfg.Settlement.SweepInterval,
				SweepBatch:    cfg.Settlement.SweepBatch,
			},
			entryRepo,
			walletService,
			payoutProvider,
			log,
		)
		if err := settlementWorker.Start(ctx); err != nil {
			log.Fatal("failed to start settlement worker", zap.Error(err))
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := settlementWorker.Stop(stopCtx); err != nil {
				log.Error("failed to stop settlement worker", zap.Error(err))
			}
		}()
		walletService.SetScheduler(settlementWorker)
		log.Info("settlement worker started",
			zap.Duration("sweep_interval", cfg.Settlement.SweepInterval))
	} else {
		log.Warn("settlement worker disabled, withdrawals will stay pending")
	}

	// Listing expiry sweep
	if cfg.Listing.ExpirySweepEnabled {
		listingSweeper := scheduler.NewListingSweeper(cfg.Listing.ExpirySweepInterval, itemService, log)
		if err := listingSweeper.Start(ctx); err != nil {
			log.Fatal("failed to start listing sweeper", zap.Error(err))
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := listingSweeper.Stop(stopCtx); err != nil {
				log.Error("failed to stop listing sweeper", zap.Error(err))
			}
		}()
		log.Info("listing expiry sweeper started",
			zap.Duration("interval", cfg.Listing.ExpirySweepInterval))
	}

	// Periodic money conservation check
	if cfg.Ledger.AuditEnabled {
		ledgerAuditor := scheduler.NewLedgerAuditor(cfg.Ledger.AuditInterval, walletService, log)
		if err := ledgerAuditor.Start(ctx); err != nil {
			log.Fatal("failed to start ledger auditor", zap.Error(err))
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := ledgerAuditor.Stop(stopCtx); err != nil {
				log.Error("failed to stop ledger auditor", zap.Error(err))
			}
		}()
		log.Info("ledger auditor started",
			zap.Duration("interval", cfg.Ledger.AuditInterval))
	}

	// HTTP layer
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("failed to set trusted proxies", zap.Error(err))
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.HTTP.CORSAllowOrigins,
		AllowMethods: cfg.HTTP.CORSAllowMethods,
		AllowHeaders: cfg.HTTP.CORSAllowHeaders,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(limiter))
		log.Info("rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow))
	}

	engine.GET("/health", healthHandler(db, log))

	// Handlers
	userHandler := handler.NewUserHandler(userService)
	walletHandler := handler.NewWalletHandler(walletService)
	itemHandler := handler.NewItemHandler(itemService)
	tradeHandler := handler.NewTradeHandler(tradeService)
	disputeHandler := handler.NewDisputeHandler(disputeService)
	systemHandler := handler.NewSystemHandler()

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Bearer-token verification on everything under /api/v1 except the
	// public surface. Tokens are issued by the identity provider; this
	// service only verifies them.
	r.Use(middleware.Authenticated(middleware.AuthConfig{
		Verifier:  auth.NewTokenVerifier(cfg.JWT),
		Blacklist: blacklist,
		SkipPaths: []string{
			"/api/v1/users",
			"/api/v1/system/info",
			"/api/v1/system/ping",
		},
		Logger: log,
	}))

	users := router.NewDomainGroup("identity", "/users")
	users.POST("", userHandler.Register).
		GET("/me", userHandler.GetMe).
		GET("/:id", userHandler.GetByID).
		POST("/:id/verify", userHandler.Verify)

	wallet := router.NewDomainGroup("wallet", "/wallet")
	wallet.GET("/balance", walletHandler.GetBalance).
		POST("/deposit", walletHandler.Deposit).
		POST("/withdraw", walletHandler.Withdraw).
		GET("/transactions", walletHandler.ListTransactions)

	items := router.NewDomainGroup("catalog", "/items")
	items.POST("", itemHandler.Create).
		GET("", itemHandler.List).
		GET("/:id", itemHandler.GetByID).
		POST("/:id/deactivate", itemHandler.Deactivate).
		POST("/:id/reactivate", itemHandler.Reactivate)

	trades := router.NewDomainGroup("trading", "/trades")
	trades.POST("", tradeHandler.Create).
		GET("", tradeHandler.List).
		GET("/:id", tradeHandler.GetByID).
		GET("/code/:code", tradeHandler.GetByCode).
		POST("/:id/complete", tradeHandler.Complete).
		POST("/:id/dispute", tradeHandler.OpenDispute).
		POST("/:id/rate", tradeHandler.Rate)

	disputes := router.NewDomainGroup("disputes", "/disputes")
	disputes.GET("", disputeHandler.List).
		GET("/:id", disputeHandler.GetByID).
		POST("/:id/resolve", disputeHandler.Resolve)

	system := router.NewDomainGroup("system", "/system")
	system.GET("/info", systemHandler.GetSystemInfo).
		GET("/ping", systemHandler.Ping)

	r.Register(users).
		Register(wallet).
		Register(items).
		Register(trades).
		Register(disputes).
		Register(system)

	if statsStore != nil {
		statsHandler := handler.NewStatsHandler(statsStore)
		stats := router.NewDomainGroup("stats", "/stats")
		stats.GET("", statsHandler.GetMarketStats)
		r.Register(stats)
	}

	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

// healthHandler reports liveness and database reachability
func healthHandler(db *persistence.Database, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			log.Error("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database unreachable",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}
