package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/0xc0d3d00d/candleseries/internal/calendar"
	"github.com/0xc0d3d00d/candleseries/internal/connect/handler"
	"github.com/0xc0d3d00d/candleseries/internal/connect/server"
	"github.com/0xc0d3d00d/candleseries/internal/holiday"
	"github.com/0xc0d3d00d/candleseries/internal/series"
	"github.com/0xc0d3d00d/candleseries/internal/upstream"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

type config struct {
	ListenAddress string     `env:"ADDR" envDefault:":6969"`
	DataDir       string     `env:"DATA_DIR" envDefault:"./data"`
	LogLevel      slog.Level `env:"LOG_LEVEL" envDefault:"info"`

	UpstreamBaseURL     string        `env:"UPSTREAM_BASE_URL" envDefault:"https://api.upstox.com"`
	UpstreamAccessToken string        `env:"UPSTREAM_ACCESS_TOKEN"`
	UpstreamTimeout     time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"30s"`
	UpstreamRPS         float64       `env:"UPSTREAM_RPS" envDefault:"0"`
	UpstreamBurst       int           `env:"UPSTREAM_BURST" envDefault:"1"`

	HolidayStore      string `env:"HOLIDAY_STORE" envDefault:"file"`
	HolidaySQLitePath string `env:"HOLIDAY_SQLITE_PATH" envDefault:"./data/holidays.db"`
	HolidaySource     string `env:"HOLIDAY_SOURCE" envDefault:"upstream"`
	HolidayFile       string `env:"HOLIDAY_FILE" envDefault:"./holidays.yaml"`

	MaxSpanDays        int `env:"MAX_SPAN_DAYS" envDefault:"28"`
	TradingDayLookback int `env:"TRADING_DAY_LOOKBACK" envDefault:"14"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := config{}
	err := loadConfig(&cfg)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// set global logger with custom options
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      cfg.LogLevel,
			TimeFormat: time.DateTime,
		}),
	))

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	client := upstream.NewClient(cfg.UpstreamBaseURL,
		upstream.WithAccessToken(cfg.UpstreamAccessToken),
		upstream.WithHTTPClient(&http.Client{Timeout: cfg.UpstreamTimeout}),
		upstream.WithRateLimit(cfg.UpstreamRPS, cfg.UpstreamBurst),
		upstream.WithMetrics(registry),
	)

	store, closeStore, err := newHolidayStore(cfg)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create holiday store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	source, err := newHolidaySource(cfg, client)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create holiday source", "error", err)
		os.Exit(1)
	}

	holidays := holiday.NewCache(store, source, holiday.WithMetrics(registry))
	days := calendar.NewTradingDays(holidays, cfg.TradingDayLookback)
	assembler := series.NewAssembler(client, days,
		series.WithMaxSpanDays(cfg.MaxSpanDays),
		series.WithMetrics(registry),
	)

	handler := handler.NewHandler(assembler, holidays, days)
	connectServer, err := server.New(ctx, server.Config{
		Address:  cfg.ListenAddress,
		Registry: registry,
	}, handler.HTTPHandler)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create server", "error", err)
		os.Exit(1)
	}

	g, gCtx := errgroup.WithContext(ctx)
	// Start Connect server
	g.Go(func() error {
		slog.InfoContext(ctx, "starting server",
			"listen_address", cfg.ListenAddress,
			"upstream", cfg.UpstreamBaseURL,
			"holiday_store", cfg.HolidayStore,
			"holiday_source", cfg.HolidaySource,
		)
		if err := runHttpServer(ctx, cfg.ListenAddress, connectServer); err != nil {
			slog.ErrorContext(ctx, "failed to start server", "error", err)
			cancel()
			return err
		}
		return nil
	})

	// Handle graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		slog.Info("shutting down server gracefully")

		return connectServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server terminated", "err", err)
	}
}

func newHolidayStore(cfg config) (holiday.Store, func() error, error) {
	nop := func() error { return nil }

	switch cfg.HolidayStore {
	case "memory":
		return holiday.NewMemoryStore(), nop, nil
	case "file":
		store, err := holiday.NewFileStore(afero.NewOsFs(), cfg.DataDir)
		return store, nop, err
	case "sqlite":
		if err := afero.NewOsFs().MkdirAll(filepath.Dir(cfg.HolidaySQLitePath), 0755); err != nil {
			return nil, nil, err
		}
		store, err := holiday.NewSQLiteStore(cfg.HolidaySQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown HOLIDAY_STORE %q", cfg.HolidayStore)
	}
}

func newHolidaySource(cfg config, client *upstream.Client) (holiday.Source, error) {
	switch cfg.HolidaySource {
	case "upstream":
		return client, nil
	case "file":
		return holiday.NewFileSource(afero.NewOsFs(), cfg.HolidayFile), nil
	default:
		return nil, fmt.Errorf("unknown HOLIDAY_SOURCE %q", cfg.HolidaySource)
	}
}

func runHttpServer(ctx context.Context, listenAddress string, srv *server.Server) error {
	var lc net.ListenConfig
	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return err
	}

	err = srv.Serve(lis)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}

func loadConfig(config any) error {
	// Ignore error if .env is missing
	err := godotenv.Load()

	if err != nil && !os.IsNotExist(err) {
		return err
	}

	// Parse for built-in types
	if err := env.Parse(config); err != nil {
		return err
	}

	return nil
}
