package banner

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"

	"webserver/pkg/config"
	"webserver/pkg/mvc"
)

func TestPrintListsRoutes(t *testing.T) {
	color.NoColor = true
	cfg := &config.Config{}
	cfg.ApplyDefaults()
	eff := config.EffectiveConfigResult{Config: cfg, Addr: "127.0.0.1:9000", Sources: []string{"config", "env"}}
	actions := []*mvc.Action{
		{Controller: "Users", Name: "Create", Method: "POST", Path: "/users", ContentType: mvc.ContentJSON},
		{Controller: "Home", Name: "Index", Method: "GET", Path: "/"},
	}

	var buf bytes.Buffer
	Print(&buf, eff, actions, []string{"GET /_healthz"}, "1.0.0")
	out := buf.String()
	for _, want := range []string{"127.0.0.1:9000", "config+env", "Users.Create", "application/json", "Home.Index", "GET /_healthz (internal)", "1.0.0", "Admin API keys: MISSING"} {
		if !strings.Contains(out, want) {
			t.Fatalf("banner missing %q:\n%s", want, out)
		}
	}
}
