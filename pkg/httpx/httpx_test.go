package httpx

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"webserver/pkg/mvc"
)

func newCtx(method, uri, contentType string, body []byte) *fasthttp.RequestCtx {
	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI(uri)
	if contentType != "" {
		req.Header.SetContentType(contentType)
	}
	if body != nil {
		req.SetBody(body)
	}
	ctx := &fasthttp.RequestCtx{}
	ctx.Init(&req, nil, nil)
	return ctx
}

type ctrl struct{ mvc.Base }

func newTestDispatcher(t *testing.T) *mvc.Dispatcher {
	t.Helper()
	def := mvc.Define("Test", func() *ctrl { return &ctrl{} }).
		Handle("Hello", mvc.Route{
			Method: "GET",
			Path:   "/hello",
			Params: []mvc.Param{mvc.NewParam("name", mvc.KindString).WithDefault("there")},
		}, func(c *ctrl, a *mvc.Args) (mvc.Result, error) {
			return mvc.Text("Hello, " + a.String("name")), nil
		}).
		Handle("Login", mvc.Route{
			Method:      "POST",
			Path:        "/login",
			ContentType: mvc.ContentForm,
			Params:      []mvc.Param{mvc.NewParam("user", mvc.KindString)},
		}, func(c *ctrl, a *mvc.Args) (mvc.Result, error) {
			c.Cookies.Set("session", a.String("user")).HTTPOnly = true
			return mvc.Redirect("/"), nil
		}).
		Handle("Page", mvc.Route{Method: "GET", Path: "/page"}, func(*ctrl, *mvc.Args) (mvc.Result, error) {
			return mvc.HTML("<h1>hi</h1>"), nil
		}).Build()
	reg := mvc.NewRegistry(def)
	require.NoError(t, reg.Validate())
	return mvc.NewDispatcher(reg, mvc.Options{ServerName: "test"})
}

func TestNewRequestQueryAndCookies(t *testing.T) {
	ctx := newCtx("GET", "/hello?b=2&a=1&b=3", "", nil)
	ctx.Request.Header.SetCookie("sid", "xyz")
	ctx.Request.Header.Set(RequestIDHeader, "rid-1")

	r, conn := NewRequest(ctx)
	assert.Equal(t, "GET", r.Method)
	assert.Equal(t, "/hello", r.Path)
	assert.Equal(t, mvc.Pairs{{Key: "b", Value: "2"}, {Key: "a", Value: "1"}, {Key: "b", Value: "3"}}, r.Query)
	v, ok := r.Cookie("sid")
	assert.True(t, ok)
	assert.Equal(t, "xyz", v)
	assert.Equal(t, "rid-1", conn.RequestID)
	assert.True(t, r.Body.Empty())
}

func TestNewRequestGeneratesRequestID(t *testing.T) {
	_, conn := NewRequest(newCtx("GET", "/", "", nil))
	assert.Len(t, conn.RequestID, 36)
}

func TestNewRequestForm(t *testing.T) {
	ctx := newCtx("POST", "/login", mvc.ContentForm, []byte("user=ann&remember=true"))
	r, _ := NewRequest(ctx)
	require.NoError(t, r.Body.Err)
	ct, ok := r.ContentType()
	assert.True(t, ok)
	assert.Equal(t, mvc.ContentForm, ct)
	assert.Equal(t, mvc.Pairs{{Key: "user", Value: "ann"}, {Key: "remember", Value: "true"}}, r.Body.Form)
	assert.Equal(t, "user=ann&remember=true", string(r.Body.Raw))
}

func TestNewRequestMultipart(t *testing.T) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("title", "pics"))
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="note"; filename="note.txt"`)
	h.Set("Content-Type", "text/plain; charset=iso-8859-1")
	pw, err := w.CreatePart(h)
	require.NoError(t, err)
	_, _ = pw.Write([]byte{'c', 'a', 'f', 0xe9})
	fw, err := w.CreateFormFile("Avatar", "a.png")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("PNG"))
	require.NoError(t, w.Close())

	r, _ := NewRequest(newCtx("POST", "/avatars", w.FormDataContentType(), buf.Bytes()))
	require.NoError(t, r.Body.Err)
	assert.Equal(t, mvc.Pairs{{Key: "title", Value: "pics"}}, r.Body.Form)
	require.Len(t, r.Body.Files, 2)
	assert.Equal(t, "note", r.Body.Files[0].Key)
	assert.Equal(t, "iso-8859-1", r.Body.Files[0].Charset)
	assert.Equal(t, "Avatar", r.Body.Files[1].Key)
	assert.Equal(t, "a.png", r.Body.Files[1].Filename)
	assert.Equal(t, []byte("PNG"), r.Body.Files[1].Data)
}

func TestNewRequestMalformedMultipart(t *testing.T) {
	ctx := newCtx("POST", "/avatars", "multipart/form-data; boundary=zzz", []byte("no boundary here"))
	req, _ := NewRequest(ctx)
	require.Error(t, req.Body.Err)
	assert.Equal(t, fasthttp.StatusBadRequest, mvc.StatusOf(req.Body.Err))
}

func TestHandlerIgnoresBrokenBodyUntilBound(t *testing.T) {
	h := Handler(newTestDispatcher(t), "")
	ct := "multipart/form-data; boundary=xyz"

	ctx := newCtx("GET", "/hello?name=World", ct, []byte("garbage"))
	h(ctx)
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "Hello, World", string(ctx.Response.Body()))

	ctx = newCtx("POST", "/missing", ct, []byte("garbage"))
	h(ctx)
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
}

func TestHandlerHelloWorld(t *testing.T) {
	h := Handler(newTestDispatcher(t), "")
	ctx := newCtx("GET", "/hello?name=World", "", nil)
	h(ctx)
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "text/plain; charset=utf-8", string(ctx.Response.Header.ContentType()))
	assert.Equal(t, "test", string(ctx.Response.Header.Peek("Server")))
	assert.Equal(t, "Hello, World", string(ctx.Response.Body()))
}

func TestHandlerRedirectWithCookie(t *testing.T) {
	h := Handler(newTestDispatcher(t), "")
	ctx := newCtx("POST", "/login", mvc.ContentForm, []byte("user=ann"))
	h(ctx)
	assert.Equal(t, fasthttp.StatusFound, ctx.Response.StatusCode())
	assert.Equal(t, "/", string(ctx.Response.Header.Peek("Location")))
	cookie := string(ctx.Response.Header.PeekCookie("session"))
	assert.True(t, strings.HasPrefix(cookie, "session=ann"), cookie)
	assert.Contains(t, strings.ToLower(cookie), "httponly")
}

func TestHandlerHTMLUsesDefaultContentType(t *testing.T) {
	h := Handler(newTestDispatcher(t), "text/html; charset=utf-8")
	ctx := newCtx("GET", "/page", "", nil)
	h(ctx)
	assert.Equal(t, "text/html; charset=utf-8", string(ctx.Response.Header.ContentType()))
	assert.Equal(t, "<h1>hi</h1>", string(ctx.Response.Body()))
}

func TestHandlerUnsupportedMediaType(t *testing.T) {
	h := Handler(newTestDispatcher(t), "")
	ctx := newCtx("POST", "/login", "application/json", []byte(`{"user":"ann"}`))
	h(ctx)
	assert.Equal(t, fasthttp.StatusUnsupportedMediaType, ctx.Response.StatusCode())
	assert.Equal(t, "expected 'application/x-www-form-urlencoded'", string(ctx.Response.Body()))
}

func TestTransportStatus(t *testing.T) {
	assert.Equal(t, fasthttp.StatusRequestEntityTooLarge, TransportStatus(fasthttp.ErrBodyTooLarge))
	assert.Equal(t, fasthttp.StatusBadRequest, TransportStatus(errors.New("garbage")))
}

func TestErrorHandlerUsesDispatcherFormatting(t *testing.T) {
	reg := mvc.NewRegistry()
	d := mvc.NewDispatcher(reg, mvc.Options{
		OnHTTPError: func(r *mvc.Request, msg string) mvc.Result {
			return mvc.JSON(map[string]string{"error": msg})
		},
	})
	ctx := newCtx("POST", "/x", "", nil)
	ErrorHandler(d, "")(ctx, fasthttp.ErrBodyTooLarge)
	assert.Equal(t, fasthttp.StatusRequestEntityTooLarge, ctx.Response.StatusCode())
	assert.Equal(t, "application/json", string(ctx.Response.Header.ContentType()))
	assert.JSONEq(t, `{"error":"body size exceeds the given limit"}`, string(ctx.Response.Body()))
}
