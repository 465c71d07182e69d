package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"salesops-backend/internal/cache"
	"salesops-backend/internal/changelog"
	"salesops-backend/internal/config"
	"salesops-backend/internal/dashboard"
	"salesops-backend/internal/database"
	"salesops-backend/internal/db"
	"salesops-backend/internal/handlers"
	"salesops-backend/internal/health"
	h "salesops-backend/internal/http"
	"salesops-backend/internal/logging"
	"salesops-backend/internal/middleware"
	"salesops-backend/internal/monitoring"
	"salesops-backend/internal/notify"
	"salesops-backend/internal/query"
	"salesops-backend/internal/realtime"
	"salesops-backend/internal/repositories"
	"salesops-backend/internal/services"
	"salesops-backend/migrations"
)

var (
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "salesops-server",
	Short:         "Sales-ops order reconciliation API",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadFile(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		logger, err = logging.New(cfg.Log.Level, cfg.Log.Development)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return cfg.Validate()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run migrations and serve the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending warehouse migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		pool, err := db.Connect(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer pool.Close()
		return database.NewMigratorWithFS(pool, migrations.FS, ".", logger).RunMigrations(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/config.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func runServe(ctx context.Context) error {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	logger.Info("connected to warehouse",
		zap.String("host", cfg.Warehouse.Host), zap.String("dataset", cfg.Warehouse.Dataset))

	if err := database.NewMigratorWithFS(pool, migrations.FS, ".", logger).RunMigrations(ctx); err != nil {
		return err
	}

	// Redis is optional; every cache helper degrades to a miss without it.
	if err := cache.Init(cfg); err != nil {
		logger.Warn("redis unavailable, running without cache and cross-process sync", zap.Error(err))
	}
	defer cache.Close()

	builder, err := query.NewBuilder(cfg.QueryTables())
	if err != nil {
		return err
	}
	tables := repositories.TablesFromConfig(cfg)

	// Repositories
	orderRepo := repositories.NewOrderRepository(pool, builder, tables)
	dispatchRepo := repositories.NewDispatchRepository(pool, tables)
	verificationRepo := repositories.NewVerificationRepository(pool, tables)
	stockRepo := repositories.NewStockRepository(pool, tables)
	invoiceRepo := repositories.NewInvoiceRepository(pool, tables)
	customerRepo := repositories.NewCustomerRepository(pool, tables)

	// Sync and changelog
	notifier := notify.NewRedisNotifier(cache.GetClient(), cfg.Sync.Channel, logger)
	defer notifier.Close()
	events := changelog.New(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if c, ok := events.(io.Closer); ok {
		defer c.Close()
	}

	hub := realtime.NewHub(logger)
	unsubscribe := notifier.Subscribe(hub.Broadcast)
	defer unsubscribe()

	// Services
	orderService := services.NewOrderService(orderRepo)
	cancelService := services.NewCancelService(orderRepo, events, logger)
	dispatchService := services.NewDispatchService(dispatchRepo, events, logger)
	verificationService := services.NewVerificationService(verificationRepo, notifier, events, logger)
	stockService := services.NewStockService(stockRepo, logger)
	invoiceService := services.NewInvoiceService(invoiceRepo)
	optionService := services.NewOptionService(customerRepo)

	reconciler := dashboard.NewReconciler(dashboard.Sources{
		Orders:        orderService,
		Dispatched:    dispatchService,
		Verifications: verificationService,
		Stock:         stockService,
		Invoices:      invoiceService,
	}, logger)

	checker := health.NewHealthChecker(pool)
	collector := monitoring.NewCollector(checker, pool, monitoring.Thresholds{
		DiskPct:   cfg.Monitoring.DiskAlertPct,
		MemoryPct: cfg.Monitoring.MemoryAlertPct,
	}, logger)

	router := h.NewRouter(h.Handlers{
		Orders:       handlers.NewOrderHandler(orderService, cancelService),
		Dispatch:     handlers.NewDispatchHandler(dispatchService, dispatchService),
		Verification: handlers.NewVerificationHandler(verificationService),
		Stock:        handlers.NewStockHandler(stockService),
		Invoices:     handlers.NewInvoiceHandler(invoiceService),
		Options:      handlers.NewOptionHandler(optionService),
		Dashboard:    handlers.NewDashboardHandler(reconciler),
		Health:       handlers.NewHealthHandler(checker),
		Monitoring:   collector,
		Events:       hub.ServeWS,
	}, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           middleware.NewCORS(cfg)(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return collector.Run(gctx, cfg.Monitoring.Interval)
	})
	g.Go(func() error {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		if logger != nil {
			logger.Fatal("server failed", zap.Error(err))
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
