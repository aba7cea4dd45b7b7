package banner

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"webserver/pkg/config"
	"webserver/pkg/mvc"
)

const banner = `
 __      __      ___.
/  \    /  \ ____\_ |__   ______ ______________  __ ___________
\   \/\/   // __ \| __ \ /  ___// __ \_  __ \  \/ // __ \_  __ \
 \        /\  ___/| \_\ \\___ \\  ___/|  | \/\   /\  ___/|  | \/
  \__/\  /  \___  >___  /____  >\___  >__|    \_/  \___  >__|
       \/       \/    \/     \/     \/                 \/
`

var (
	heading = color.New(color.FgCyan, color.Bold)
	good    = color.New(color.FgGreen)
	warn    = color.New(color.FgYellow)
)

// Print writes the startup banner, the effective config summary and the
// action table.
func Print(w io.Writer, eff config.EffectiveConfigResult, actions []*mvc.Action, internal []string, version string) {
	cfg := eff.Config
	if cfg == nil {
		cfg = config.GetConfig()
	}
	addr := eff.Addr
	if addr == "" {
		addr = cfg.Addr()
	}
	src := strings.Join(eff.Sources, "+")
	if src == "" {
		src = "defaults"
	}

	fmt.Fprint(w, banner)
	heading.Fprintln(w, "== Config =====================================================")
	fmt.Fprintf(w, "Listen:    %s\n", addr)
	fmt.Fprintf(w, "Content:   %s\n", cfg.Server.ContentRoot)
	fmt.Fprintf(w, "Store:     %s\n", cfg.Store.Path)
	fmt.Fprintf(w, "Max body:  %s\n", cfg.Server.MaxRequestBodySize)
	if version != "" {
		fmt.Fprintf(w, "Version:   %s\n", version)
	}
	fmt.Fprintf(w, "Config:    %s\n", src)

	heading.Fprintln(w, "\n== Routes =====================================================")
	for _, a := range actions {
		ct := a.ContentType
		if ct == "" {
			ct = "-"
		}
		hooks := ""
		if n := len(a.Hooks); n > 0 {
			hooks = fmt.Sprintf(" hooks=%d", n)
		}
		fmt.Fprintf(w, "%-7s %-24s %-36s %s%s\n", a.Method, a.Path, ct, a.String(), hooks)
	}
	for _, p := range internal {
		fmt.Fprintf(w, "%s (internal)\n", p)
	}

	heading.Fprintln(w, "\n== Production? =================================================")
	if n := len(cfg.Security.APIKeys.Admin); n > 0 {
		good.Fprintf(w, "- Admin API keys: OK (%d)\n", n)
	} else {
		warn.Fprintln(w, "- Admin API keys: MISSING (admin actions are locked)")
	}
	if cfg.Security.RateLimit.RPS > 0 {
		fmt.Fprintf(w, "- Rate limit: %.1f rps, burst %d\n", cfg.Security.RateLimit.RPS, cfg.Security.RateLimit.Burst)
	} else {
		warn.Fprintln(w, "- Rate limit: disabled")
	}
	if cfg.Maintenance.Cron != "" {
		fmt.Fprintf(w, "- Maintenance: cron=%s\n", cfg.Maintenance.Cron)
	} else {
		fmt.Fprintln(w, "- Maintenance: none")
	}
}
