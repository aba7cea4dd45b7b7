package httpx

import (
	"net/http"

	"github.com/valyala/fasthttp"

	"webserver/pkg/mvc"
)

// DefaultContentType applies to responses whose result left the
// Content-Type unset.
const DefaultContentType = "text/html; charset=utf-8"

// WriteResponse copies resp onto ctx.
func WriteResponse(ctx *fasthttp.RequestCtx, resp *mvc.Response, defaultContentType string) {
	if defaultContentType == "" {
		defaultContentType = DefaultContentType
	}
	for k, vals := range resp.Header {
		for i, v := range vals {
			if i == 0 {
				ctx.Response.Header.Set(k, v)
			} else {
				ctx.Response.Header.Add(k, v)
			}
		}
	}
	if resp.Header.Get("Content-Type") == "" {
		ctx.SetContentType(defaultContentType)
	}
	for _, c := range resp.Cookies {
		setCookie(ctx, c)
	}

	if resp.File != "" {
		// ServeFile sets its own status and content type
		ctx.SendFile(resp.File)
		return
	}
	ctx.SetStatusCode(resp.Status)
	ctx.SetBody(resp.Body)
}

func setCookie(ctx *fasthttp.RequestCtx, c *mvc.Cookie) {
	fc := fasthttp.AcquireCookie()
	defer fasthttp.ReleaseCookie(fc)
	fc.SetKey(c.Name)
	fc.SetValue(c.Value)
	fc.SetPath(c.Path)
	if c.Domain != "" {
		fc.SetDomain(c.Domain)
	}
	switch {
	case c.MaxAge < 0:
		fc.SetExpire(fasthttp.CookieExpireDelete)
	case c.MaxAge > 0:
		fc.SetMaxAge(c.MaxAge)
	case !c.Expires.IsZero():
		fc.SetExpire(c.Expires)
	}
	fc.SetHTTPOnly(c.HTTPOnly)
	fc.SetSecure(c.Secure)
	ctx.Response.Header.SetCookie(fc)
}

// statusText is the fallback body when even rendering fails.
func statusText(code int) string {
	if s := http.StatusText(code); s != "" {
		return s
	}
	return "error"
}
