package hooks

import (
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"webserver/pkg/logger"
	"webserver/pkg/mvc"
)

// Window answers every request with a fixed result during minutes matched
// by a cron expression.
type Window struct {
	expr   string
	cron   *gronx.Gronx
	result mvc.Result
	now    func() time.Time
}

// Maintenance builds a Window for expr. A nil result renders a JSON notice.
func Maintenance(expr string, result mvc.Result) (*Window, error) {
	g := gronx.New()
	if !g.IsValid(expr) {
		return nil, fmt.Errorf("invalid maintenance cron %q", expr)
	}
	return &Window{expr: expr, cron: g, result: deny(result, "down for maintenance"), now: time.Now}, nil
}

// Active reports whether t falls inside the window.
func (w *Window) Active(t time.Time) bool {
	due, err := w.cron.IsDue(w.expr, t.Truncate(time.Minute))
	if err != nil {
		logger.Warn("maintenance_cron_failed", "expr", w.expr, "error", err)
		return false
	}
	return due
}

// Next returns the start of the next window after t.
func (w *Window) Next(t time.Time) (time.Time, error) {
	return gronx.NextTickAfter(w.expr, t, false)
}

// Handle implements mvc.Hook.
func (w *Window) Handle(*mvc.Request) mvc.Result {
	if w.Active(w.now()) {
		return w.result
	}
	return nil
}
