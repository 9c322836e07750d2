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
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dentflow/dentflow/internal/config"
	"github.com/dentflow/dentflow/internal/domain/appointment"
	"github.com/dentflow/dentflow/internal/domain/invoice"
	"github.com/dentflow/dentflow/internal/domain/patient"
	"github.com/dentflow/dentflow/internal/domain/prescription"
	"github.com/dentflow/dentflow/internal/domain/settings"
	"github.com/dentflow/dentflow/internal/platform/auth"
	"github.com/dentflow/dentflow/internal/platform/db"
	"github.com/dentflow/dentflow/internal/platform/mail"
	appmw "github.com/dentflow/dentflow/internal/platform/middleware"
	"github.com/dentflow/dentflow/internal/platform/reporting"
)

func main() {
	root := &cobra.Command{
		Use:   "dentflow-server",
		Short: "Dental practice management API server",
	}
	root.AddCommand(serveCmd(), migrateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
	return logger
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger := newLogger(cfg)

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			pool, err := db.NewPool(ctx, db.PoolConfig{
				URL:      cfg.DatabaseURL,
				MaxConns: cfg.DBMaxConns,
				MinConns: cfg.DBMinConns,
			})
			cancel()
			if err != nil {
				return err
			}
			defer pool.Close()

			// Outgoing mail
			var sender mail.Sender
			if cfg.SMTPConfigured() {
				sender = mail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
			} else {
				sender = &mail.LogSender{Logger: logger}
			}
			mailMgr := mail.NewManager(sender, mail.NewTemplateEngine())

			// Repositories and services
			patientRepo := patient.NewRepoPG(pool)
			patientSvc := patient.NewService(patientRepo)

			settingsRepo := settings.NewRepoPG(pool)
			settingsSvc := settings.NewService(settingsRepo)

			apptRepo := appointment.NewRepoPG(pool)
			apptSvc := appointment.NewService(apptRepo, patientRepo,
				appointment.NewMailNotifier(mailMgr, settingsSvc))

			rxRepo := prescription.NewRepoPG(pool)
			rxSvc := prescription.NewService(rxRepo, db.Runner(pool))

			invoiceRepo := invoice.NewRepoPG(pool)
			invoiceSvc := invoice.NewService(invoiceRepo, patientRepo,
				invoice.NewMailNotifier(mailMgr, settingsSvc))

			e := echo.New()
			e.HideBanner = true
			e.Use(appmw.Recovery(logger))
			e.Use(appmw.RequestID())
			e.Use(appmw.Logger(logger))
			e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
				AllowOrigins: cfg.CORSOrigins,
				AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			}))

			e.GET("/health", func(c echo.Context) error {
				if err := pool.Ping(c.Request().Context()); err != nil {
					return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "down"})
				}
				return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
			})

			api := e.Group("/api/v1")
			if cfg.IsDev() && cfg.JWTSecret == "" {
				api.Use(auth.DevAuthMiddleware())
			} else {
				api.Use(auth.JWTMiddleware(auth.JWTConfig{SigningKey: []byte(cfg.JWTSecret)}))
			}

			patient.NewHandler(patientSvc).RegisterRoutes(api)
			appointment.NewHandler(apptSvc).RegisterRoutes(api)
			prescription.NewHandler(rxSvc).RegisterRoutes(api)
			invoice.NewHandler(invoiceSvc).RegisterRoutes(api)
			settings.NewHandler(settingsSvc).RegisterRoutes(api)
			reporting.NewHandler(pool).RegisterRoutes(api)
			mail.NewHandler(mailMgr).RegisterRoutes(api)

			go func() {
				logger.Info().Str("port", cfg.Port).Msg("server starting")
				if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
					logger.Fatal().Err(err).Msg("server failed")
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit

			logger.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return e.Shutdown(shutdownCtx)
		},
	}
}

func migrateCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", "migrations", "migrations directory")

	newMigrator := func() (*db.Migrator, func(), error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		pool, err := db.NewPool(ctx, db.PoolConfig{
			URL:      cfg.DatabaseURL,
			MaxConns: cfg.DBMaxConns,
			MinConns: cfg.DBMinConns,
		})
		cancel()
		if err != nil {
			return nil, nil, err
		}
		return db.NewMigrator(pool, dir), pool.Close, nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, closePool, err := newMigrator()
			if err != nil {
				return err
			}
			defer closePool()
			n, err := m.Up(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("applied %d migration(s)\n", n)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, closePool, err := newMigrator()
			if err != nil {
				return err
			}
			defer closePool()
			statuses, err := m.Status(context.Background())
			if err != nil {
				return err
			}
			for _, s := range statuses {
				state := "pending"
				if s.Applied {
					state = "applied " + s.AppliedAt.Format(time.RFC3339)
				}
				fmt.Printf("%3d  %-40s %s\n", s.Version, s.Name, state)
			}
			return nil
		},
	})

	return cmd
}
