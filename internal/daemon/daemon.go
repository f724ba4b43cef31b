package daemon

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/betmanager/betmanager/internal/api"
	"github.com/betmanager/betmanager/internal/domain"
	"github.com/betmanager/betmanager/internal/engine"
	"github.com/betmanager/betmanager/internal/infra/sqlite"
	"github.com/betmanager/betmanager/internal/settings"
)

// App is the assembled application: one store, one engine, one
// settings service. The CLI uses it directly; Serve adds the HTTP API.
type App struct {
	Config   Config
	Store    *sqlite.DB
	Engine   *engine.Engine
	Settings *settings.Service
}

// Open builds the application from config: opens the store, loads the
// persisted state and configuration, and wires the collaborators.
func Open(cfg Config) (*App, error) {
	if dir := filepath.Dir(cfg.Storage.Path); dir != "." && cfg.Storage.Path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}
	store, err := sqlite.Open(cfg.Storage.Path)
	if err != nil {
		return nil, err
	}

	svc := settings.New(store)
	if err := svc.Load(); err != nil {
		store.Close()
		return nil, err
	}

	actor := func() string {
		if name := svc.ActorName(); name != "" {
			return name
		}
		return cfg.Audit.SystemActor
	}
	eng := engine.New(engine.Config{
		Store:  store,
		Labels: svc,
		Actor:  actor,
	})
	if err := eng.LoadFromStore(); err != nil {
		store.Close()
		return nil, err
	}
	svc.SetLogger(func(description, action string) {
		eng.AppendSystemLog(description, action)
	})

	return &App{Config: cfg, Store: store, Engine: eng, Settings: svc}, nil
}

// Close releases the store.
func (a *App) Close() error {
	return a.Store.Close()
}

// Serve runs the HTTP API until ctx is canceled.
func (a *App) Serve(ctx context.Context) error {
	srv := api.NewServer(a.Engine, a.Settings)
	if a.Config.Metrics.Enabled {
		srv.EnableMetrics()
	}

	httpSrv := &http.Server{
		Addr:    a.Config.Addr(),
		Handler: srv.Handler(),
	}

	errc := make(chan error, 1)
	go func() {
		log.Printf("[daemon] listening on http://%s", a.Config.Addr())
		errc <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errc:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// Ensure the store satisfies the domain contracts.
var (
	_ domain.StateStore    = (*sqlite.DB)(nil)
	_ domain.SettingsStore = (*sqlite.DB)(nil)
	_ domain.TypeLabeler   = (*settings.Service)(nil)
)
