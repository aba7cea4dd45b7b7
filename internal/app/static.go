package app

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/valyala/fasthttp"

	"webserver/pkg/logger"
	"webserver/pkg/telemetry"
)

// contentPath maps a request path onto a file under root. A trailing slash
// selects index.html. Cleaning against "/" keeps the result inside root.
func contentPath(root, urlPath string) string {
	clean := path.Clean("/" + urlPath)
	if strings.HasSuffix(urlPath, "/") {
		clean = path.Join(clean, "index.html")
	}
	return filepath.Join(root, filepath.FromSlash(clean))
}

// serveStatic answers requests of any method for regular files under root.
// It reports whether it wrote a response.
func serveStatic(ctx *fasthttp.RequestCtx, root, serverName string) bool {
	if root == "" {
		return false
	}
	full := contentPath(root, string(ctx.Path()))
	fi, err := os.Stat(full)
	if err != nil || !fi.Mode().IsRegular() {
		return false
	}
	logger.Debug("static_hit", "path", string(ctx.Path()), "file", full)
	telemetry.ObserveStatic()
	if serverName != "" {
		ctx.Response.Header.Set("Server", serverName)
	}
	ctx.SendFile(full)
	return true
}
