package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rxguard/rxguard/internal/config"
	"github.com/rxguard/rxguard/internal/domain/dispensing"
	"github.com/rxguard/rxguard/internal/domain/drugref"
	"github.com/rxguard/rxguard/internal/domain/inventory"
	"github.com/rxguard/rxguard/internal/domain/verification"
	"github.com/rxguard/rxguard/internal/platform/audit"
	"github.com/rxguard/rxguard/internal/platform/db"
	"github.com/rxguard/rxguard/internal/platform/emr"
	"github.com/rxguard/rxguard/internal/platform/events"
	"github.com/rxguard/rxguard/internal/platform/metrics"
	"github.com/rxguard/rxguard/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rxguard-server",
		Short: "Pharmacy verification and dispensing API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the pharmacy API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	// migrate up
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required for migrations")
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	// migrate status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required for migrations")
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the reference formulary and starting inventory into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required for seeding")
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			drugRepo := drugref.NewDrugRepoPG(pool)
			ruleRepo := drugref.NewInteractionRepoPG(pool)
			if err := drugref.Seed(ctx, drugRepo, ruleRepo); err != nil {
				return fmt.Errorf("seed drug reference: %w", err)
			}

			store := inventory.NewPGStore(pool)
			for _, item := range inventory.SeedItems(time.Now().UTC()) {
				if err := store.Put(ctx, item); err != nil {
					return fmt.Errorf("seed inventory item %s: %w", item.DrugKey, err)
				}
			}

			fmt.Println("Seeded drug reference and inventory.")
			return nil
		},
	}
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	// Metrics registry
	m := metrics.New("rxguard")

	// Database is optional: without DATABASE_URL the server runs entirely on
	// seeded in-memory stores, which is enough for development and demos.
	ctx := context.Background()
	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err = db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		logger.Info().Msg("connected to database")
	} else {
		logger.Warn().Msg("DATABASE_URL not set; running on in-memory stores")
	}

	// Audit trail
	auditSvc := audit.NewService(logger)
	defer auditSvc.Shutdown()

	// Event publisher
	var publisher events.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err = events.NewKafkaPublisher(cfg.KafkaBrokers, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create kafka publisher")
		}
	} else {
		publisher = events.NewLogPublisher(logger)
	}
	defer publisher.Close()

	// Drug reference
	var drugSvc *drugref.Service
	if pool != nil {
		drugSvc = drugref.NewService(drugref.NewDrugRepoPG(pool), drugref.NewInteractionRepoPG(pool))
	} else {
		drugSvc = drugref.NewSeededService()
	}
	checker := verification.NewChecker(drugSvc, logger)

	// Inventory
	var invStore inventory.Store
	if pool != nil {
		invStore = inventory.NewPGStore(pool)
	} else {
		invStore = inventory.NewSeededMemStore(time.Now().UTC())
	}
	reorders := events.NewReorderNotifier(publisher, auditSvc, m)
	ledger := inventory.NewLedger(invStore, reorders, logger)

	// Patient data
	var patients emr.PatientDataProvider
	if cfg.EMRBaseURL != "" {
		patients = emr.NewHTTPProvider(cfg.EMRBaseURL, cfg.EMRTimeout, logger)
	} else {
		logger.Warn().Msg("EMR_BASE_URL not set; using built-in static patient profiles")
		patients = emr.NewStaticProvider()
	}

	// Order pipeline
	var orders dispensing.OrderRepository
	if pool != nil {
		orders = dispensing.NewOrderRepoPG(pool)
	} else {
		orders = dispensing.NewMemOrderRepo()
	}
	queues := dispensing.NewQueues()
	engine := dispensing.NewEngine(dispensing.EngineConfig{
		Orders:   orders,
		Queues:   queues,
		Checker:  checker,
		Ledger:   ledger,
		Patients: patients,
		Audit:    auditSvc,
		Events:   publisher,
		Metrics:  m,
		Log:      logger,
	})

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Metrics(m))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit("1M"))
	e.Use(middleware.RequestTimeout(30 * time.Second))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	if pool != nil {
		e.Use(db.ConnMiddleware(pool))
	}

	// API group
	apiV1 := e.Group("/api/v1")
	apiV1.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}))

	// Domain handlers
	drugref.NewHandler(drugSvc).RegisterRoutes(apiV1)
	invHandler := inventory.NewHandler(ledger)
	invHandler.SetExpiryHorizons(cfg.ExpiryHorizonDays, cfg.ExpiryHighPriorityDays)
	invHandler.RegisterRoutes(apiV1)
	dispensing.NewHandler(engine).RegisterRoutes(apiV1)

	// Health and metrics
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	if pool != nil {
		e.GET("/health/db", db.HealthHandler(pool))
	}
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	// Queue depth gauges
	depthCtx, depthCancel := context.WithCancel(ctx)
	defer depthCancel()
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.SetQueueDepths(queues.Depths())
			case <-depthCtx.Done():
				return
			}
		}
	}()

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
