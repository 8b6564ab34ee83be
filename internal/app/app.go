package app

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"goldwatcher/internal/alerting"
	"goldwatcher/internal/config"
	"goldwatcher/internal/fetcher"
	"goldwatcher/internal/scheduler"
	"goldwatcher/internal/service"
	"goldwatcher/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newFeed() fetcher.PriceFetcher {
	return fetcher.NewFeed(fetcher.FeedOptions{
		URL:       a.Config.Feed.URL,
		Timeout:   a.Config.Feed.RequestTimeout,
		UserAgent: a.Config.Feed.UserAgent,
	}, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	return alerting.NewSMTPNotifier(alerting.SMTPOptions{
		Host:     a.Config.Mail.Host,
		Port:     a.Config.Mail.Port,
		Username: a.Config.Mail.Username,
		Password: a.Config.Mail.Password,
		FromAddr: a.Config.Mail.FromAddr,
		ToAddr:   a.Config.Mail.ToAddr,
	}, a.Logger)
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// Run executes the long-running monitoring daemon until SIGINT/SIGTERM.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	stopMetrics := a.serveMetrics(ctx)
	defer stopMetrics()

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Scheduler.Interval,
		IdleBackoff:  a.Config.Scheduler.IdleBackoff,
		StartupDelay: a.Config.Scheduler.StartupDelay,
	}, a.Logger)

	svc := service.New(a.Config, sched, store, a.newFeed(), a.newNotifier(), a.Logger)

	a.Logger.Info().
		Str("instrument", a.Config.Feed.InstrumentCode).
		Dur("interval", a.Config.Scheduler.Interval).
		Msg("starting monitoring daemon")

	err = svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("daemon terminated with error")
		return err
	}

	a.Logger.Info().Msg("monitoring daemon stopped")
	return nil
}

// serveMetrics exposes the Prometheus endpoint when configured; otherwise a
// no-op.
func (a *App) serveMetrics(ctx context.Context) func() {
	addr := a.Config.Metrics.ListenAddr
	if addr == "" {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		a.Logger.Info().Str("addr", addr).Msg("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.Error().Err(err).Msg("metrics server failed")
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}
