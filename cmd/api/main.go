package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/app"
	"github.com/cmlabs-hris/attendance-engine/internal/config"
	appHTTP "github.com/cmlabs-hris/attendance-engine/internal/handler/http"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/cron"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/telemetry"
	"github.com/go-chi/httplog/v3"
)

const version = "v1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	logFormat := httplog.SchemaECS.Concise(cfg.App.Env == "development")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", cfg.Telemetry.ServiceName),
		slog.String("version", version),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: version,
		Environment:    cfg.App.Env,
		TraceExporter:  cfg.Telemetry.TraceExporter,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("failed to flush traces", slog.Any("error", err))
		}
	}()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	scheduler := cron.NewScheduler(logger)
	cron.NewBackfillJobs(
		application.Dashboard,
		cfg.Attendance.BackfillCompanyIDs,
		application.Location,
		time.Now,
		logger,
	).RegisterJobs(scheduler, cfg.Attendance.BackfillInterval)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration, cfg.JWT.Skew)

	router := appHTTP.NewRouter(
		appHTTP.RouterOptions{Logger: logger, AllowedOrigins: cfg.App.AllowedOrigins},
		JWTService,
		appHTTP.NewAttendanceHandler(application.Attendance),
		appHTTP.NewScheduleHandler(application.Schedule),
		appHTTP.NewDashboardHandler(application.Dashboard),
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server running", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
