package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/pebble/vfs"
	"github.com/valyala/fasthttp"

	"webserver/internal/demo"
	"webserver/pkg/config"
	"webserver/pkg/hooks"
	"webserver/pkg/logger"
	"webserver/pkg/mvc"
	"webserver/pkg/router"
	"webserver/pkg/store"
	"webserver/pkg/telemetry"
)

// App groups server state and components.
type App struct {
	eff     config.EffectiveConfigResult
	version string

	store   *store.Store
	limiter *hooks.Limiter
	disp    *mvc.Dispatcher
	router  *router.Router

	srv   *fasthttp.Server
	state string
}

// errorBody is the JSON shape of rendered failures for clients that ask
// for JSON.
type errorBody struct {
	Error string `json:"error"`
}

// New opens the store, builds and validates the action registry and wires
// the dispatcher. It does not listen; call Run for that.
func New(eff config.EffectiveConfigResult, version string) (*App, error) {
	cfg := eff.Config
	if cfg == nil {
		return nil, fmt.Errorf("effective config missing")
	}
	config.SetConfig(cfg)

	// telemetry defaults
	telemetry.SetSampleRate(cfg.Telemetry.SampleRate)
	telemetry.SetSlowThreshold(cfg.Telemetry.SlowThreshold.Duration())
	if cfg.Telemetry.Dir != "" {
		if err := telemetry.Init(
			cfg.Telemetry.Dir,
			int(cfg.Telemetry.BufferSize.Int64()),
			cfg.Telemetry.QueueCapacity,
			cfg.Telemetry.FlushInterval.Duration(),
			cfg.Telemetry.FileMaxSize.Int64(),
		); err != nil {
			return nil, fmt.Errorf("init telemetry: %w", err)
		}
	}

	st, err := store.Open(cfg.Store.Path, vfs.Default)
	if err != nil {
		telemetry.Close()
		return nil, fmt.Errorf("failed to open pebble at %s: %w", cfg.Store.Path, err)
	}

	a := &App{eff: eff, version: version, store: st, state: "initializing"}
	guard, err := a.guardHooks(cfg)
	if err != nil {
		a.close()
		return nil, err
	}

	deps := &demo.Deps{
		Store:          st,
		UploadDir:      cfg.Server.UploadDir,
		Guard:          guard,
		AdminKeyHeader: cfg.Security.APIKeys.Header,
		AdminKeys:      cfg.Security.APIKeys.Admin,
	}
	reg := mvc.NewRegistry(demo.Controllers(deps)...)
	if err := reg.Validate(); err != nil {
		a.close()
		return nil, fmt.Errorf("invalid actions: %w", err)
	}
	deps.Registry = func() *mvc.Registry { return reg }
	logger.Info("actions_registered", "count", reg.Len())

	a.disp = mvc.NewDispatcher(reg, mvc.Options{
		ServerName:  cfg.Server.Name,
		OnHTTPError: renderHTTPError,
		OnException: func(err error) {
			logger.Error("action_exception", "error", err)
		},
		OnRequestEnd: func(r *mvc.Request, resp *mvc.Response, elapsed time.Duration) {
			telemetry.ObserveRequest(r.Method, resp.Status, elapsed)
		},
	})
	a.router = a.buildRouter()
	return a, nil
}

// guardHooks builds the hooks that run before every action, cheapest first.
func (a *App) guardHooks(cfg *config.Config) ([]mvc.Hook, error) {
	var guard []mvc.Hook
	if len(cfg.Security.IPWhitelist) > 0 {
		guard = append(guard, hooks.IPAllow(cfg.Security.IPWhitelist, nil))
	}
	if cfg.Maintenance.Cron != "" {
		w, err := hooks.Maintenance(cfg.Maintenance.Cron, mvc.JSON(errorBody{Error: cfg.Maintenance.Message}))
		if err != nil {
			return nil, err
		}
		if next, err := w.Next(time.Now()); err == nil {
			logger.Info("maintenance_window_scheduled", "cron", cfg.Maintenance.Cron, "next", next)
		}
		guard = append(guard, w)
	}
	if cfg.Security.RateLimit.RPS > 0 {
		a.limiter = hooks.RateLimit(cfg.Security.RateLimit.RPS, cfg.Security.RateLimit.Burst, nil)
		guard = append(guard, a.limiter)
	}
	return guard, nil
}

// renderHTTPError answers in JSON when the client accepts it; otherwise the
// dispatcher falls back to plain text.
func renderHTTPError(r *mvc.Request, message string) mvc.Result {
	if r == nil || r.Header == nil {
		return nil
	}
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return mvc.JSON(errorBody{Error: message})
	}
	return nil
}

// Dispatcher exposes the wired dispatcher.
func (a *App) Dispatcher() *mvc.Dispatcher { return a.disp }

// Handler returns the root fasthttp handler.
func (a *App) Handler() fasthttp.RequestHandler { return a.router.Handler }

// Run starts the HTTP server and blocks until ctx is canceled or the server
// fails.
func (a *App) Run(ctx context.Context) error {
	a.printBanner()

	errCh := a.startHTTP(ctx)
	a.state = "running"

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Shutdown stops the server and releases every resource.
func (a *App) Shutdown(ctx context.Context) error {
	a.state = "shutting_down"
	var err error
	if a.srv != nil {
		done := make(chan error, 1)
		go func() { done <- a.srv.Shutdown() }()
		select {
		case err = <-done:
		case <-ctx.Done():
			err = ctx.Err()
			logger.Warn("http_shutdown_timeout", "error", err)
		}
	}
	if cerr := a.close(); cerr != nil && err == nil {
		err = cerr
	}
	if err == nil {
		a.state = "stopped"
	}
	logger.Info("app_shutdown", "state", a.state)
	return err
}

func (a *App) close() error {
	if a.limiter != nil {
		a.limiter.Shutdown()
	}
	telemetry.Close()
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}
