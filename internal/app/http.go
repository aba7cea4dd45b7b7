package app

import (
	"context"
	"os"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"webserver/pkg/banner"
	"webserver/pkg/httpx"
	"webserver/pkg/logger"
	"webserver/pkg/router"
	"webserver/pkg/telemetry"
)

const (
	healthzPath = "/_healthz"
	readyzPath  = "/_readyz"
	metricsPath = "/_metrics"
)

// printBanner prints the startup banner and action table.
func (a *App) printBanner() {
	banner.Print(os.Stdout, a.eff, a.disp.Registry().Actions(), a.router.Paths(), a.version)
}

// buildRouter serves the internal endpoints; everything else goes to
// static content, then the dispatcher.
func (a *App) buildRouter() *router.Router {
	cfg := a.eff.Config
	r := router.New()
	r.GET(healthzPath, a.healthzHandlerFast)
	r.GET(readyzPath, a.readyzHandlerFast)
	r.GET(metricsPath, fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler()))

	dispatch := httpx.Handler(a.disp, cfg.Server.DefaultContentType)
	root := cfg.Server.ContentRoot
	name := cfg.Server.Name
	r.NotFound(func(ctx *fasthttp.RequestCtx) {
		if serveStatic(ctx, root, name) {
			return
		}
		dispatch(ctx)
	})
	return r
}

// healthzHandlerFast reports liveness and the build version.
func (a *App) healthzHandlerFast(ctx *fasthttp.RequestCtx) {
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(fasthttp.StatusOK)
	ver := a.version
	if ver == "" {
		ver = "dev"
	}
	_, _ = ctx.WriteString(`{"status":"ok","version":` + strconv.Quote(ver) + `}`)
}

// readyzHandlerFast reports whether the store is open and how many traces
// telemetry has dropped.
func (a *App) readyzHandlerFast(ctx *fasthttp.RequestCtx) {
	ctx.SetContentType("application/json")
	if !a.store.Ready() {
		ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
		_, _ = ctx.WriteString(`{"status":"not ready"}`)
		return
	}
	ctx.SetStatusCode(fasthttp.StatusOK)
	_, _ = ctx.WriteString(`{"status":"ok","dropped_traces":` + strconv.FormatInt(telemetry.Dropped(), 10) + `}`)
}

// startHTTP builds and starts the fasthttp server, returning a channel that
// delivers its error.
func (a *App) startHTTP(_ context.Context) <-chan error {
	cfg := a.eff.Config
	a.srv = &fasthttp.Server{
		Name:               cfg.Server.Name,
		Handler:            a.router.Handler,
		ErrorHandler:       httpx.ErrorHandler(a.disp, cfg.Server.DefaultContentType),
		ReadBufferSize:     int(cfg.Server.ReadBufferSize.Int64()),
		MaxRequestBodySize: int(cfg.Server.MaxRequestBodySize.Int64()),
		ReadTimeout:        cfg.Server.ReadTimeout.Duration(),
		WriteTimeout:       cfg.Server.WriteTimeout.Duration(),
		IdleTimeout:        cfg.Server.IdleTimeout.Duration(),
		ReduceMemoryUsage:  true,
	}

	errCh := make(chan error, 1)
	go func() {
		// plain TCP; TLS is expected to terminate at a proxy
		logger.Info("http_listening", "addr", a.eff.Addr)
		errCh <- a.srv.ListenAndServe(a.eff.Addr)
	}()
	return errCh
}
