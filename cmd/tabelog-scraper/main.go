// Package main wires together the scraper service binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Hiromu1612/tabelog-scraper/internal/api"
	"github.com/Hiromu1612/tabelog-scraper/internal/clock/system"
	"github.com/Hiromu1612/tabelog-scraper/internal/config"
	"github.com/Hiromu1612/tabelog-scraper/internal/controller"
	"github.com/Hiromu1612/tabelog-scraper/internal/driver/browser"
	"github.com/Hiromu1612/tabelog-scraper/internal/driver/httpdriver"
	"github.com/Hiromu1612/tabelog-scraper/internal/export/sheets"
	"github.com/Hiromu1612/tabelog-scraper/internal/id/uuid"
	"github.com/Hiromu1612/tabelog-scraper/internal/logging"
	"github.com/Hiromu1612/tabelog-scraper/internal/progress"
	"github.com/Hiromu1612/tabelog-scraper/internal/progress/sinks"
	"github.com/Hiromu1612/tabelog-scraper/internal/scraper"
	"github.com/Hiromu1612/tabelog-scraper/internal/store"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	// Local development keeps credentials in .env; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	statusStore := store.NewStatusStore()
	clock := system.New()
	idGen := uuid.New()

	promSink, err := sinks.NewPrometheusSink(nil)
	if err != nil {
		logger.Fatal("progress metrics init failed", zap.Error(err))
	}
	hub := progress.NewHub(
		progress.Config{Logger: logger.Named("progress")},
		sinks.NewLogSink(logger.Named("events")),
		promSink,
	)

	factory := newDriverFactory(cfg)

	var sheetWriter scraper.SheetWriter
	if cfg.Sheets.SpreadsheetID != "" && cfg.Sheets.CredentialsJSON != "" {
		writer, err := sheets.NewService(ctx,
			cfg.Sheets.SpreadsheetID,
			cfg.Sheets.CredentialsJSON,
			logger.Named("sheets"),
		)
		if err != nil {
			logger.Warn("spreadsheet export disabled", zap.Error(err))
		} else {
			sheetWriter = writer
		}
	} else {
		logger.Info("spreadsheet credentials not configured; export disabled")
	}

	ctrl := controller.New(factory, statusStore, hub, clock, idGen, logger.Named("controller"))

	runDefaults := scraper.JobParameters{
		Headless:        cfg.Scraper.Headless,
		MaxPages:        cfg.Scraper.MaxPages,
		MaxItemsPerPage: cfg.Scraper.MaxItemsPerPage,
		ItemDelay:       cfg.ItemDelay(),
	}
	apiServer := api.NewServer(ctrl, statusStore, sheetWriter, clock, runDefaults, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started",
			zap.Int("port", cfg.Server.Port),
			zap.String("driver", cfg.Scraper.Driver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")
	ctrl.RequestStop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	if err := hub.Close(shutdownCtx); err != nil {
		logger.Error("progress hub close error", zap.Error(err))
	}
}

// newDriverFactory selects the page automation backend from config. The
// headless flag from the job parameters only affects the browser backend.
func newDriverFactory(cfg config.Config) controller.DriverFactory {
	switch cfg.Scraper.Driver {
	case config.DriverHTTP:
		return func(bool) (scraper.Driver, error) {
			return httpdriver.New(httpdriver.Config{
				BaseURL:   cfg.Scraper.BaseURL,
				UserAgent: cfg.Scraper.UserAgent,
				Timeout:   cfg.NavTimeout(),
			})
		}
	default:
		return func(headless bool) (scraper.Driver, error) {
			return browser.New(browser.Config{
				BaseURL:           cfg.Scraper.BaseURL,
				UserAgent:         cfg.Scraper.UserAgent,
				Headless:          headless,
				NavigationTimeout: cfg.NavTimeout(),
			})
		}
	}
}
