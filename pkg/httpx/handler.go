package httpx

import (
	"errors"
	"net"
	"net/http"

	"github.com/valyala/fasthttp"

	"webserver/pkg/logger"
	"webserver/pkg/mvc"
)

// Handler serves every request through d.
func Handler(d *mvc.Dispatcher, defaultContentType string) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		logger.LogRequestFast(ctx)

		req, conn := NewRequest(ctx)
		resp, err := d.Dispatch(req, conn)
		if err != nil {
			logger.Error("dispatch_render_failed", "request", describe(req), "request_id", conn.RequestID, "error", err)
			ctx.Error(statusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		WriteResponse(ctx, resp, defaultContentType)
	}
}

// ErrorHandler renders transport-level failures reported by fasthttp the
// same way dispatch failures are rendered.
func ErrorHandler(d *mvc.Dispatcher, defaultContentType string) func(*fasthttp.RequestCtx, error) {
	return func(ctx *fasthttp.RequestCtx, err error) {
		status := TransportStatus(err)
		logger.Warn("transport_error", "remote", ctx.RemoteAddr().String(), "status", status, "error", err)
		req := &mvc.Request{
			Method:     string(ctx.Method()),
			Path:       string(ctx.Path()),
			Header:     make(http.Header),
			RemoteAddr: ctx.RemoteAddr().String(),
		}
		renderError(ctx, d, req, status, err.Error(), defaultContentType)
	}
}

// TransportStatus maps a fasthttp read error onto a status code.
func TransportStatus(err error) int {
	var small *fasthttp.ErrSmallBuffer
	var netErr net.Error
	switch {
	case errors.Is(err, fasthttp.ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &small):
		return http.StatusRequestHeaderFieldsTooLarge
	case errors.As(err, &netErr) && netErr.Timeout():
		return http.StatusRequestTimeout
	}
	return http.StatusBadRequest
}

func renderError(ctx *fasthttp.RequestCtx, d *mvc.Dispatcher, req *mvc.Request, status int, msg, defaultContentType string) {
	resp, err := d.RenderError(req, status, msg)
	if err != nil {
		logger.Error("error_render_failed", "request", describe(req), "error", err)
		ctx.Error(statusText(status), status)
		return
	}
	WriteResponse(ctx, resp, defaultContentType)
}
