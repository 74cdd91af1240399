package cli

import (
	"context"
	"errors"
	"fmt"

	"taskmaster/internal/config"
	"taskmaster/internal/model"
	"taskmaster/internal/repository"
	"taskmaster/internal/service"
)

// App is the wired core shared by every front end.
type App struct {
	Config     config.Config
	Storage    repository.Storage
	Store      *service.TaskStore
	Tasks      *service.TaskService
	Categories *service.CategoryService
	Theme      *service.ThemeService
	Digest     *service.DigestService
	Notifier   *service.FanoutNotifier
}

// AppFactory builds an App; tests swap it for an in-memory one.
type AppFactory func(ctx context.Context, cfg config.Config) (*App, error)

// OpenApp opens the configured storage and loads the task list.
func OpenApp(ctx context.Context, cfg config.Config) (*App, error) {
	storage, err := repository.Open(ctx, repository.Options{
		Driver:      cfg.StorageDriver,
		DatabaseURL: cfg.DatabaseURL,
		RedisAddr:   cfg.RedisAddr,
		RedisPrefix: cfg.RedisPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	app, err := NewApp(ctx, cfg, storage)
	if err != nil {
		_ = storage.Close()
		return nil, err
	}
	return app, nil
}

// NewApp wires services on top of an already opened storage.
func NewApp(ctx context.Context, cfg config.Config, storage repository.Storage) (*App, error) {
	notifier := service.NewFanoutNotifier(service.LogNotifier{})
	store, err := service.NewTaskStore(ctx, repository.NewTaskRepository(storage), notifier)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	fallback, err := model.ParseTheme(cfg.DefaultTheme)
	if err != nil {
		fallback = model.ThemeLight
	}
	return &App{
		Config:     cfg,
		Storage:    storage,
		Store:      store,
		Tasks:      service.NewTaskService(store),
		Categories: service.NewCategoryService(store),
		Theme:      service.NewThemeService(repository.NewSettingsRepository(storage), fallback),
		Digest:     service.NewDigestService(store),
		Notifier:   notifier,
	}, nil
}

// Close flushes the task list and releases the storage.
func (a *App) Close(ctx context.Context) error {
	flushErr := a.Store.Flush(ctx)
	closeErr := a.Storage.Close()
	return errors.Join(flushErr, closeErr)
}
