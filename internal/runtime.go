package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/recipebox/internal/recipecache"
	"github.com/starford/recipebox/internal/recipeservice"
	"github.com/starford/recipebox/internal/remote"
	"github.com/starford/recipebox/internal/resolver"
	"github.com/starford/recipebox/internal/sqlitedb"
	"github.com/starford/recipebox/internal/storage"
	"github.com/starford/recipebox/internal/store"
)

// Runtime holds the opened stores and the service built on top of them.
// The data directory stays locked until Close.
type Runtime struct {
	Config  *Config
	Logger  *slog.Logger
	FS      *storage.FS
	Stores  *store.Set
	Cache   *recipecache.Cache
	Service *recipeservice.Service

	db *sqlitedb.DB
}

func newApplication(opts []Option) (*application, error) {
	app := &application{logOutput: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

func (a *application) newLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(a.logOutput, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// Open loads every store from the configured data directory and builds the
// recipe service.
func Open(opts ...Option) (*Runtime, error) {
	app, err := newApplication(opts)
	if err != nil {
		return nil, err
	}
	return app.open(app.newLogger())
}

func (a *application) open(logger *slog.Logger) (rt *Runtime, err error) {
	cfg := a.config
	rt = &Runtime{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			if cerr := rt.Close(); cerr != nil {
				logger.Warn("cleanup after failed open", slog.String("error", cerr.Error()))
			}
			rt = nil
		}
	}()

	if err := os.MkdirAll(cfg.Data.Dir, 0o755); err != nil {
		return rt, fmt.Errorf("create data dir: %w", err)
	}
	rt.FS, err = storage.NewFS(cfg.Data.Dir)
	if err != nil {
		return rt, fmt.Errorf("init storage: %w", err)
	}
	if err := rt.FS.Lock(); err != nil {
		fsys := rt.FS
		rt.FS = nil
		return rt, fmt.Errorf("data dir %s: %w", fsys.Root(), err)
	}

	var open store.Opener
	switch cfg.Data.Backend {
	case BackendSQLite:
		rt.db, err = sqlitedb.Open(cfg.Data.DatabasePath())
		if err != nil {
			return rt, fmt.Errorf("open sqlite: %w", err)
		}
		open = func(t store.Table) (store.Backend, error) {
			return rt.db.OpenTable(t.Name, t.Header)
		}
	default:
		open = func(t store.Table) (store.Backend, error) {
			return storage.OpenTable(rt.FS, t.File, t.Header)
		}
	}

	rt.Stores, err = store.OpenSet(open, logger)
	if err != nil {
		return rt, fmt.Errorf("load stores: %w", err)
	}
	rt.Cache, err = recipecache.Open(rt.FS, recipecache.DefaultFile, logger)
	if err != nil {
		return rt, fmt.Errorf("load recipe cache: %w", err)
	}

	client, err := remote.New(remote.Config{
		BaseURL:           cfg.Remote.BaseURL,
		APIKey:            cfg.Remote.APIKey,
		Timeout:           cfg.Remote.Timeout,
		RequestsPerSecond: cfg.Remote.RequestsPerSecond,
	})
	if err != nil {
		return rt, fmt.Errorf("init remote client: %w", err)
	}

	rt.Service = recipeservice.NewService(recipeservice.Deps{
		Resolver: resolver.New(client, rt.Cache, logger),
		Links:    rt.Stores.Links,
		Ratings:  rt.Stores.Ratings,
		Fridge:   rt.Stores.Fridge,
		Cache:    rt.Cache,
		Notifier: a.notifier,
		Logger:   logger,
	})

	logger.Info("Stores loaded",
		slog.String("data_dir", rt.FS.Root()),
		slog.String("backend", cfg.Data.Backend),
		slog.Int("saved_recipes", rt.Stores.Links.Len()),
		slog.Int("custom_recipes", rt.Cache.Len()))
	return rt, nil
}

// Close releases the stores, the database and the data directory lock.
func (rt *Runtime) Close() error {
	var errs []error
	if rt.Stores != nil {
		errs = append(errs, rt.Stores.Close())
	}
	if rt.Cache != nil {
		errs = append(errs, rt.Cache.Close())
	}
	if rt.db != nil {
		errs = append(errs, rt.db.Close())
	}
	if rt.FS != nil {
		errs = append(errs, rt.FS.Unlock())
	}
	return errors.Join(errs...)
}
