package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/epitofcode/Cosmetic-Star-CRM/internal/config"
	"github.com/epitofcode/Cosmetic-Star-CRM/internal/domain/billing"
	"github.com/epitofcode/Cosmetic-Star-CRM/internal/domain/booking"
	"github.com/epitofcode/Cosmetic-Star-CRM/internal/domain/contract"
	"github.com/epitofcode/Cosmetic-Star-CRM/internal/domain/dashboard"
	"github.com/epitofcode/Cosmetic-Star-CRM/internal/domain/intake"
	"github.com/epitofcode/Cosmetic-Star-CRM/internal/domain/patient"
	"github.com/epitofcode/Cosmetic-Star-CRM/internal/platform/auth"
	"github.com/epitofcode/Cosmetic-Star-CRM/internal/platform/blobstore"
	"github.com/epitofcode/Cosmetic-Star-CRM/internal/platform/cache"
	"github.com/epitofcode/Cosmetic-Star-CRM/internal/platform/db"
	"github.com/epitofcode/Cosmetic-Star-CRM/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "crm-server",
		Short: "Clinic CRM API Server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the CRM API server",
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

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg)
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

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg)
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

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Redis slot cache; a nil cache degrades to a no-op.
	redisClient := cache.NewRedisClient(cfg.RedisAddr, "", 0)
	if redisClient == nil && cfg.RedisAddr != "" {
		logger.Warn().Str("addr", cfg.RedisAddr).Msg("redis unreachable, slot caching disabled")
	}
	slotCache := cache.New(redisClient, "crm", 30*time.Second)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
	}))
	e.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}))

	// Auth
	var authMW echo.MiddlewareFunc
	if cfg.ResolvedAuthMode() == "jwt" {
		authMW = auth.JWTMiddleware(auth.JWTConfig{SigningKey: []byte(cfg.JWTSigningKey)})
		logger.Info().Msg("jwt auth enabled")
	} else {
		authMW = auth.DevAuthMiddleware()
		logger.Warn().Msg("development auth mode: requests are not authenticated")
	}

	apiV1 := e.Group("/api/v1", authMW)

	// Shared platform pieces
	runTx := db.NewTxRunner(pool)
	blobs := blobstore.NewPostgresBlobStore(pool)
	grid := booking.SlotGrid{
		OpenHour:    cfg.ClinicOpenHour,
		CloseHour:   cfg.ClinicCloseHour,
		SlotMinutes: cfg.SlotMinutes,
	}

	// Patients
	patientRepo := patient.NewRepoPG(pool)
	patientSvc := patient.NewService(patientRepo)
	patient.NewHandler(patientSvc).RegisterRoutes(apiV1)

	// Medical intake questionnaire
	intakeRepo := intake.NewRepoPG(pool)
	intakeSvc := intake.NewService(intakeRepo)
	intake.NewHandler(intakeSvc).RegisterRoutes(apiV1)

	// Contract signing
	contractRepo := contract.NewRepoPG(pool)
	contractSvc := contract.NewService(contractRepo, blobs, runTx)
	contract.NewHandler(contractSvc).RegisterRoutes(apiV1)

	// Booking calendar, gated on contract existence
	bookingRepo := booking.NewRepoPG(pool)
	bookingSvc := booking.NewService(bookingRepo, contractRepo, grid, slotCache, runTx)
	booking.NewHandler(bookingSvc).RegisterRoutes(apiV1)

	// Billing ledger and receipts
	patientName := func(ctx context.Context, id uuid.UUID) (string, error) {
		p, err := patientRepo.GetByID(ctx, id)
		if err != nil {
			return "", err
		}
		return p.FullName(), nil
	}
	billingRepo := billing.NewRepoPG(pool)
	billingSvc := billing.NewService(billingRepo, blobs, runTx, patientName, cfg.ClinicName)
	billing.NewHandler(billingSvc).RegisterRoutes(apiV1)

	// Dashboard aggregates
	dashboardRepo := dashboard.NewRepoPG(pool)
	dashboard.NewHandler(dashboard.NewService(dashboardRepo, patientRepo, contractRepo)).RegisterRoutes(apiV1)

	// Stored files (signatures, payment proofs)
	blobstore.NewBlobHandler(blobs).RegisterRoutes(apiV1)

	// Health endpoints
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/health/db", db.HealthHandler(pool))

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
