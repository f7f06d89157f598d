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

	"github.com/arogith/hms/internal/config"
	"github.com/arogith/hms/internal/domain/doctor"
	"github.com/arogith/hms/internal/domain/labtest"
	"github.com/arogith/hms/internal/domain/patient"
	"github.com/arogith/hms/internal/domain/visit"
	"github.com/arogith/hms/internal/platform/db"
	"github.com/arogith/hms/internal/platform/events"
	"github.com/arogith/hms/internal/platform/export"
	"github.com/arogith/hms/internal/platform/middleware"
)

// visitCreatorAdapter adapts the visit service to the
// patient.InitialVisitCreator interface, avoiding circular imports between
// the patient and visit packages.
type visitCreatorAdapter struct {
	svc *visit.Service
}

func (a *visitCreatorAdapter) CreateInitial(ctx context.Context, iv patient.InitialVisit) error {
	_, err := a.svc.CreateInitial(ctx, visit.InitialVisit{
		PatientID:   iv.PatientID,
		BP:          iv.BP,
		Weight:      iv.Weight,
		Temperature: iv.Temperature,
		Symptoms:    iv.Symptoms,
		Complaint:   iv.Complaint,
		Status:      iv.Status,
	})
	return err
}

// labResolverAdapter adapts the lab test service to the visit.LabTestResolver
// interface.
type labResolverAdapter struct {
	svc *labtest.Service
}

func (a *labResolverAdapter) ByVisit(ctx context.Context, visitID int64) ([]visit.LabTestInfo, error) {
	tests := a.svc.ByVisit(ctx, visitID)
	out := make([]visit.LabTestInfo, 0, len(tests))
	for _, t := range tests {
		out = append(out, visit.LabTestInfo{
			TestID:         t.TestID,
			TestName:       t.TestName,
			Result:         t.Result,
			ReferenceRange: t.ReferenceRange,
			Status:         t.Status,
		})
	}
	return out, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "hms-server",
		Short: "Hospital records API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(backfillCmd())
	rootCmd.AddCommand(exportCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
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

			ctx := context.Background()
			pool, _, err := connect(ctx)
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

			ctx := context.Background()
			pool, _, err := connect(ctx)
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

func backfillCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backfill-temperature",
		Short: "Fill missing visit temperatures with status-keyed defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := context.Background()
			pool, _, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := visit.NewService(visit.NewRepo(pool), nil, events.Noop{}, logger)
			count, err := svc.BackfillTemperatures(db.WithPool(ctx, pool))
			if err != nil {
				return err
			}

			fmt.Printf("Updated %d visit(s).\n", count)
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the patient census workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			logger := newLogger()

			ctx := context.Background()
			pool, _, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			repo := patient.NewRepo(pool)
			svc := patient.NewService(repo, patient.NewIDAllocator(pool), nil, events.Noop{}, logger)
			views, err := svc.ListByCategory(db.WithPool(ctx, pool), patient.CategoryAll)
			if err != nil {
				return err
			}

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()

			if err := export.WriteCensus(f, views); err != nil {
				return err
			}

			fmt.Printf("Wrote %d patient(s) to %s.\n", len(views), out)
			return nil
		},
	}
	cmd.Flags().String("out", "patient-census.xlsx", "Output workbook path")
	return cmd
}

func connect(ctx context.Context) (*pgxpool.Pool, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, nil, err
	}
	return pool, cfg, nil
}

func newLogger() zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger
}

func runServer() error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Event publisher: AMQP when a broker is configured, otherwise no-op.
	var publisher events.Publisher = events.Noop{}
	if cfg.AMQPURL != "" {
		amqpPub, err := events.NewAMQPPublisher(cfg.AMQPURL, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("rabbitmq unavailable, events disabled")
		} else {
			publisher = amqpPub
			defer amqpPub.Close()
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Content-Type", "X-Request-ID"},
	}))

	// Make the pool reachable from request contexts so services can open
	// transactions with db.WithTx.
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqCtx := db.WithPool(c.Request().Context(), pool)
			c.SetRequest(c.Request().WithContext(reqCtx))
			return next(c)
		}
	})

	// Repositories and services.
	labRepo := labtest.NewRepo(pool)
	labSvc := labtest.NewService(labRepo, labtest.NewResolver(labRepo, logger), publisher, logger)

	visitSvc := visit.NewService(visit.NewRepo(pool), &labResolverAdapter{svc: labSvc}, publisher, logger)

	patientRepo := patient.NewRepo(pool)
	patientSvc := patient.NewService(
		patientRepo,
		patient.NewIDAllocator(pool),
		&visitCreatorAdapter{svc: visitSvc},
		publisher,
		logger,
	)

	doctorRepo := doctor.NewRepo(pool)

	// Routes.
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	api := e.Group("/api")
	patient.NewHandler(patientSvc).RegisterRoutes(api)
	visit.NewHandler(visitSvc).RegisterRoutes(api)
	labtest.NewHandler(labSvc).RegisterRoutes(api)
	doctor.NewHandler(doctorRepo).RegisterRoutes(api)

	api.GET("/reports/census", func(c echo.Context) error {
		views, err := patientSvc.ListByCategory(c.Request().Context(), patient.CategoryAll)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="patient-census.xlsx"`)
		c.Response().Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Response().WriteHeader(http.StatusOK)
		return export.WriteCensus(c.Response(), views)
	})

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
