// Package server assembles subzone from its configuration and runs it.
package server

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

	"github.com/jroosing/subzone/internal/api"
	"github.com/jroosing/subzone/internal/api/handlers"
	"github.com/jroosing/subzone/internal/config"
	"github.com/jroosing/subzone/internal/ledger"
	"github.com/jroosing/subzone/internal/lock"
	"github.com/jroosing/subzone/internal/notify"
	"github.com/jroosing/subzone/internal/provider"
	"github.com/jroosing/subzone/internal/provisioning"
	"github.com/jroosing/subzone/internal/zones"
)

// Runner orchestrates startup, serving and shutdown.
type Runner struct {
	logger     *slog.Logger
	importPath string
}

// NewRunner creates a new runner with the given logger.
func NewRunner(logger *slog.Logger) *Runner {
	return &Runner{logger: logger}
}

// SetLedgerImport names a JSON ledger to copy into the SQLite ledger at
// startup. Entries already present are skipped.
func (r *Runner) SetLedgerImport(path string) {
	r.importPath = path
}

// App is the assembled service.
type App struct {
	Server       *api.Server
	Orchestrator *provisioning.Orchestrator
	Zones        *zones.Registry
	Store        ledger.Store

	closers []func() error
}

// Close releases the ledger and lock backends.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// Run serves until SIGINT or SIGTERM.
//
// Server lifecycle:
//  1. Load the zone registry
//  2. Open the ledger (and run a pending import)
//  3. Build provider, notifier and lock backends
//  4. Serve HTTP
//  5. Wait for shutdown signal
//  6. Drain requests with server.shutdown_timeout, then close backends
func (r *Runner) Run(cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return r.RunWithContext(ctx, cfg)
}

// RunWithContext serves until ctx is cancelled or the listener fails.
func (r *Runner) RunWithContext(ctx context.Context, cfg *config.Config) error {
	app, err := r.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			r.logError("failed to close backends", err)
		}
	}()

	r.logInfo("subzone listening", "addr", app.Server.Addr())

	errCh := make(chan error, 1)
	go func() { errCh <- app.Server.ListenAndServe() }()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	}

	timeout := cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	r.logInfo("shutting down", "timeout", timeout.String())
	if err := app.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Build assembles every component from cfg without starting the listener.
func (r *Runner) Build(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	app := &App{}

	reg, err := r.loadZones(cfg)
	if err != nil {
		return nil, err
	}
	app.Zones = reg

	store, err := r.openLedger(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.Store = store
	app.closers = append(app.closers, store.Close)

	locker, closeLock, err := r.buildLocker(ctx, cfg)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	if closeLock != nil {
		app.closers = append(app.closers, closeLock)
	}

	app.Orchestrator = provisioning.New(provisioning.Deps{
		Zones:    reg,
		Provider: r.buildProvider(cfg),
		Store:    store,
		Notifier: r.buildNotifier(cfg),
		Locker:   locker,
		Logger:   r.logger,
	}, provisioning.Options{
		FailOpen: cfg.Provider.ExistenceCheck == config.ExistenceFailOpen,
	})

	app.Server = api.New(cfg, handlers.Deps{
		Orchestrator: app.Orchestrator,
		Zones:        reg,
		Store:        store,
	}, r.logger)

	r.logStartup(cfg, reg)
	return app, nil
}

func (r *Runner) loadZones(cfg *config.Config) (*zones.Registry, error) {
	reg, found, err := zones.LoadFile(cfg.Zones.Path, zones.Defaults{
		APIKey: cfg.Provider.APIKey,
		Email:  cfg.Provider.Email,
	})
	if err != nil {
		return nil, err
	}
	if !found {
		r.logWarn("zone file not found, no parent domains registered", "path", cfg.Zones.Path)
	}
	return reg, nil
}

func (r *Runner) openLedger(ctx context.Context, cfg *config.Config) (ledger.Store, error) {
	store, err := ledger.Open(cfg.Ledger.Driver, cfg.Ledger.Path, r.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	if r.importPath == "" {
		return store, nil
	}

	sqlStore, ok := store.(*ledger.SQLStore)
	if !ok {
		_ = store.Close()
		return nil, fmt.Errorf("ledger import requires the %q driver", config.LedgerDriverSQLite)
	}
	src, err := ledger.OpenFile(r.importPath, r.logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to open import source: %w", err)
	}
	n, err := sqlStore.Import(ctx, src)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to import ledger: %w", err)
	}
	r.logInfo("ledger imported", "source", r.importPath, "records", n)
	return store, nil
}

func (r *Runner) buildLocker(ctx context.Context, cfg *config.Config) (lock.Locker, func() error, error) {
	if cfg.Lock.Backend() == config.LockBackendMemory {
		return lock.NewKeyedMutex(), nil, nil
	}
	rl, err := lock.NewRedis(ctx, lock.RedisOptions{
		Addr: cfg.Lock.RedisAddr,
		DB:   cfg.Lock.RedisDB,
		TTL:  cfg.Lock.TTL,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect lock backend: %w", err)
	}
	return rl, func() error { rl.Close(); return nil }, nil
}

func (r *Runner) buildProvider(cfg *config.Config) provider.Client {
	return provider.NewCloudflare(provider.Options{
		BaseURL: cfg.Provider.BaseURL,
		TTL:     cfg.Provider.TTL,
		Timeout: cfg.Provider.Timeout,
	}, r.logger)
}

func (r *Runner) buildNotifier(cfg *config.Config) notify.Dispatcher {
	return notify.New(notify.TelegramOptions{
		Token:   cfg.Notify.TelegramToken,
		ChatID:  cfg.Notify.TelegramChatID,
		APIURL:  cfg.Notify.TelegramAPIURL,
		Timeout: cfg.Notify.Timeout,
	}, r.logger)
}

func (r *Runner) logStartup(cfg *config.Config, reg *zones.Registry) {
	r.logInfo("subzone configured",
		"zones", reg.Len(),
		"ledger", cfg.Ledger.Driver,
		"existence_check", cfg.Provider.ExistenceCheck,
		"notifications", cfg.Notify.Enabled(),
		"lock", cfg.Lock.Backend(),
		"rate_limit", handlers.RateLimitSettings(cfg).String(),
	)
}

func (r *Runner) logInfo(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Info(msg, args...)
	}
}

func (r *Runner) logWarn(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}

func (r *Runner) logError(msg string, err error) {
	if r.logger != nil {
		r.logger.Error(msg, "err", err)
	}
}
