package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/yashdugar0209-creator/healthkey-sub000/internal/config"
	"github.com/yashdugar0209-creator/healthkey-sub000/internal/domain/audit"
	"github.com/yashdugar0209-creator/healthkey-sub000/internal/domain/card"
	"github.com/yashdugar0209-creator/healthkey-sub000/internal/domain/emergency"
	"github.com/yashdugar0209-creator/healthkey-sub000/internal/domain/identity"
	"github.com/yashdugar0209-creator/healthkey-sub000/internal/domain/records"
	"github.com/yashdugar0209-creator/healthkey-sub000/internal/platform/auth"
	"github.com/yashdugar0209-creator/healthkey-sub000/internal/platform/db"
	"github.com/yashdugar0209-creator/healthkey-sub000/internal/platform/middleware"
	redisclient "github.com/yashdugar0209-creator/healthkey-sub000/internal/platform/redis"
)

// devJWTSecret is only used outside production, where Validate requires an
// explicit secret.
const devJWTSecret = "healthkey-dev-secret"

func main() {
	rootCmd := &cobra.Command{
		Use:   "directory-server",
		Short: "Identity and access directory for patients, clinicians and NFC cards",
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema migrations",
	}

	var migrationsDir string
	migrateUpCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(migrationsDir, func(ctx context.Context, m *db.Migrator) error {
				n, err := m.Up(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("applied %d migration(s)\n", n)
				return nil
			})
		},
	}

	migrateStatusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(migrationsDir, func(ctx context.Context, m *db.Migrator) error {
				statuses, err := m.Status(ctx)
				if err != nil {
					return err
				}
				for _, s := range statuses {
					state := "pending"
					if s.Applied {
						state = "applied " + s.AppliedAt.Format(time.RFC3339)
					}
					fmt.Printf("%03d %-30s %s\n", s.Version, s.Name, state)
				}
				return nil
			})
		},
	}

	migrateCmd.PersistentFlags().StringVar(&migrationsDir, "dir", "migrations", "migrations directory")
	migrateCmd.AddCommand(migrateUpCmd, migrateStatusCmd)

	var seedCount int
	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the directory with generated demo data",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(seedCount)
		},
	}
	seedCmd.Flags().IntVar(&seedCount, "patients", 10, "number of demo patients")

	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.IsDev() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func jwtSecret(cfg *config.Config) []byte {
	if cfg.JWTSecret != "" {
		return []byte(cfg.JWTSecret)
	}
	return []byte(devJWTSecret)
}

func withMigrator(dir string, fn func(ctx context.Context, m *db.Migrator) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	return fn(ctx, db.NewMigrator(pool, dir))
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	setupLogging(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	cancel()
	if err != nil {
		return err
	}
	defer pool.Close()
	log.Info().Msg("database pool ready")

	var locker redisclient.Locker = redisclient.NoopLocker{}
	if cfg.RedisURL != "" {
		rdb, err := redisclient.New(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		locker = redisclient.NewRedisCardLocker(rdb, 10*time.Second)
		log.Info().Msg("redis card locking enabled")
	} else {
		log.Warn().Msg("REDIS_URL not set, card operations use in-process locking only")
	}

	txRunner := db.NewTxRunner(pool)
	tokens := auth.NewTokenIssuer(jwtSecret(cfg), cfg.JWTTTL)

	auditSvc := audit.NewService(audit.NewRepoPG(pool))
	identitySvc := identity.NewService(
		identity.NewUserRepoPG(pool),
		identity.NewPatientRepoPG(pool),
		identity.NewDoctorRepoPG(pool),
		identity.NewHospitalRepoPG(pool),
		tokens,
		auditSvc,
		txRunner,
	)
	recordsSvc := records.NewService(records.NewRepoPG(pool), identitySvc, auditSvc)
	cardSvc := card.NewService(card.NewRepoPG(pool), identitySvc, locker, auditSvc, txRunner)
	emergencySvc := emergency.NewService(
		emergency.NewGrantRepoPG(pool),
		cardSvc,
		identitySvc,
		recordsSvc,
		auditSvc,
		cfg.GrantTTL,
		cfg.EmergencyRecordLimit,
		cfg.EmergencyHourlyQuota,
	)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(log.Logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(log.Logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
	}))
	e.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api/v1")

	identityHandler := identity.NewHandler(identitySvc)
	identityHandler.RegisterRoutes(api)

	emergency.NewHandler(emergencySvc).RegisterRoutes(api)

	protected := api.Group("", auth.JWTMiddleware(tokens))
	records.NewHandler(recordsSvc).RegisterRoutes(protected)
	cardHandler := card.NewHandler(cardSvc)
	cardHandler.RegisterRoutes(protected)

	admin := api.Group("/admin", auth.JWTMiddleware(tokens), auth.RequireRole(string(identity.RoleAdmin)))
	identityHandler.RegisterAdminRoutes(admin)
	cardHandler.RegisterAdminRoutes(admin)
	audit.NewHandler(auditSvc).RegisterRoutes(admin)

	scheduler := cron.New()
	sweepSpec := fmt.Sprintf("@every %s", cfg.SweepInterval)
	if _, err := scheduler.AddFunc(sweepSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := emergencySvc.SweepExpired(ctx); err != nil {
			log.Error().Err(err).Msg("grant sweep failed")
		}
	}); err != nil {
		return fmt.Errorf("schedule grant sweep: %w", err)
	}
	if retention := cfg.AuditRetention(); retention > 0 {
		if _, err := scheduler.AddFunc("@daily", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			if _, err := auditSvc.PurgeOlderThan(ctx, retention); err != nil {
				log.Error().Err(err).Msg("audit purge failed")
			}
		}); err != nil {
			return fmt.Errorf("schedule audit purge: %w", err)
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	go func() {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("server listening")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
