package mvc

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"runtime/debug"
	"time"

	"webserver/pkg/logger"
	"webserver/pkg/telemetry"
)

var errNilResult = errors.New("result cannot be null")

// Options customises a Dispatcher. All callbacks are optional.
type Options struct {
	// ServerName is sent in the Server header.
	ServerName string

	// OnHTTPError formats request-time failures. Without it the message is
	// rendered as plain text.
	OnHTTPError func(r *Request, message string) Result

	// OnException observes errors raised by action code.
	OnException func(err error)

	OnRequestStart func(r *Request)
	OnRequestEnd   func(r *Request, resp *Response, elapsed time.Duration)
}

// Dispatcher routes requests to actions. It keeps no per-request state and
// is safe for concurrent use once built.
type Dispatcher struct {
	reg  *Registry
	opts Options
}

// NewDispatcher returns a dispatcher over reg. reg must already be
// validated.
func NewDispatcher(reg *Registry, opts Options) *Dispatcher {
	if opts.ServerName == "" {
		opts.ServerName = DefaultServerName
	}
	return &Dispatcher{reg: reg, opts: opts}
}

// Registry returns the action table the dispatcher routes over.
func (d *Dispatcher) Registry() *Registry { return d.reg }

// Dispatch serves one request. Request-time failures are rendered; only a
// failure to render is returned as an error.
func (d *Dispatcher) Dispatch(r *Request, conn ConnInfo) (*Response, error) {
	start := time.Now()
	d.observeStart(r)

	resp, err := d.dispatch(r, conn)
	if err != nil {
		logger.Error("render_failed", "method", r.Method, "path", r.Path, "error", err)
		return nil, err
	}
	d.observeEnd(r, resp, time.Since(start))
	return resp, nil
}

func (d *Dispatcher) dispatch(r *Request, conn ConnInfo) (*Response, error) {
	tr := telemetry.Track("dispatch")
	defer tr.Finish()
	tr.Set("route", r.Method+" "+r.Path)

	a, ok := d.reg.Lookup(r.Method, r.Path)
	tr.Mark("lookup")
	if !ok {
		return d.fail(r, NotFound("no action for %s %s", r.Method, r.Path))
	}
	tr.Set("action", a.String())

	if res := RunHooks(a, r); res != nil {
		tr.Mark("hooks")
		telemetry.ObserveShortCircuit(a.String())
		logger.Debug("hook_short_circuit", "action", a.String(), "result", res.Kind().String())
		return Render(res, http.StatusOK, d.opts.ServerName)
	}
	tr.Mark("hooks")

	strategy, err := Negotiate(a, r)
	tr.Mark("negotiate")
	if err != nil {
		return d.fail(r, err)
	}

	args, err := Bind(strategy, r, a)
	tr.Mark("bind")
	if err != nil {
		return d.fail(r, err)
	}

	res, cookies, err := d.invoke(a, r, conn, args)
	tr.Mark("invoke")
	if err != nil {
		var he *HTTPError
		if !errors.As(err, &he) {
			d.observeException(err)
		}
		return d.fail(r, err)
	}

	resp, err := Render(res, http.StatusOK, d.opts.ServerName)
	tr.Mark("render")
	if err != nil {
		return nil, err
	}
	if resp.File != "" && !regularFile(resp.File) {
		return d.fail(r, NotFound("file not found: %s", r.Path))
	}
	resp.Cookies = cookies.All()
	return resp, nil
}

// invoke runs the handler on a fresh controller.
func (d *Dispatcher) invoke(a *Action, r *Request, conn ConnInfo, args *Args) (res Result, cookies *Cookies, err error) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("action_panic", "action", a.String(), "panic", p, "stack", string(debug.Stack()))
			err = fmt.Errorf("%s: panic: %v", a, p)
		}
	}()

	c := a.New()
	cookies = NewCookies()
	c.Bind(&Context{Request: r, ConnectionInfo: conn, Cookies: cookies})

	res, err = a.Handler(c, args)
	if err != nil {
		return nil, nil, err
	}
	if isNilResult(res) {
		return nil, nil, errNilResult
	}
	return res, cookies, nil
}

// regularFile reports whether path names an existing regular file.
func regularFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

// fail renders err with the status it carries, 500 for anything that is not
// an HTTPError.
func (d *Dispatcher) fail(r *Request, err error) (*Response, error) {
	status := StatusOf(err)
	telemetry.ObserveError(status)
	if status >= http.StatusInternalServerError {
		logger.Error("dispatch_failed", "method", r.Method, "path", r.Path, "status", status, "error", err)
	} else {
		logger.Debug("dispatch_rejected", "method", r.Method, "path", r.Path, "status", status, "error", err)
	}
	return d.RenderError(r, status, err.Error())
}

// RenderError renders a failure through OnHTTPError, or as plain text.
func (d *Dispatcher) RenderError(r *Request, status int, message string) (*Response, error) {
	var res Result
	if d.opts.OnHTTPError != nil {
		res = d.opts.OnHTTPError(r, message)
	}
	if isNilResult(res) {
		res = Text(message)
	}
	return Render(res, status, d.opts.ServerName)
}

func (d *Dispatcher) observeStart(r *Request) {
	if d.opts.OnRequestStart == nil {
		return
	}
	defer recoverObserver("on_request_start")
	d.opts.OnRequestStart(r)
}

func (d *Dispatcher) observeEnd(r *Request, resp *Response, elapsed time.Duration) {
	if d.opts.OnRequestEnd == nil {
		return
	}
	defer recoverObserver("on_request_end")
	d.opts.OnRequestEnd(r, resp, elapsed)
}

func (d *Dispatcher) observeException(err error) {
	if d.opts.OnException == nil {
		return
	}
	defer recoverObserver("on_exception")
	d.opts.OnException(err)
}

func recoverObserver(name string) {
	if p := recover(); p != nil {
		logger.Error("observer_panic", "observer", name, "panic", p)
	}
}
