package mvc

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type helloController struct {
	Base
}

func newDispatcher(t *testing.T, opts Options, defs ...ControllerDef) *Dispatcher {
	t.Helper()
	reg := NewRegistry(defs...)
	require.NoError(t, reg.Validate())
	return NewDispatcher(reg, opts)
}

func TestDispatchHelloWorld(t *testing.T) {
	def := Define("Hello", func() *helloController { return &helloController{} }).
		Handle("Hello", Route{
			Method: "GET",
			Path:   "/hello",
			Params: []Param{NewParam("name", KindString).WithDefault("there")},
		}, func(c *helloController, args *Args) (Result, error) {
			return Text("Hello, " + args.String("name")), nil
		}).Build()
	d := newDispatcher(t, Options{}, def)

	resp, err := d.Dispatch(withQuery(newRequest("GET", "/hello"), "name", "World"), ConnInfo{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "text/plain; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, "Hello, World", string(resp.Body))

	resp, err = d.Dispatch(newRequest("GET", "/hello"), ConnInfo{})
	require.NoError(t, err)
	assert.Equal(t, "Hello, there", string(resp.Body))
}

func TestDispatchJSONUser(t *testing.T) {
	var got *user
	def := Define("Users", func() *helloController { return &helloController{} }).
		Handle("Create", Route{
			Method:      "POST",
			Path:        "/users",
			ContentType: ContentJSON,
			Params:      []Param{ModelParam[user]("u")},
		}, func(c *helloController, args *Args) (Result, error) {
			got, _ = ModelOf[user](args, "u")
			return JSON(got), nil
		}).Build()
	d := newDispatcher(t, Options{}, def)

	resp, err := d.Dispatch(withJSON(newRequest("POST", "/users"), `{"id":7}`), ConnInfo{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	require.NotNil(t, got)
	assert.Equal(t, 7, got.ID)
	assert.JSONEq(t, `{"id":7,"name":"","age":0}`, string(resp.Body))
}

func TestDispatchNotFound(t *testing.T) {
	d := newDispatcher(t, Options{})
	resp, err := d.Dispatch(newRequest("GET", "/nope"), ConnInfo{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.Contains(t, string(resp.Body), "GET /nope")
}

func TestDispatchHookShortCircuits(t *testing.T) {
	var calls atomic.Int32
	deny := HookFunc(func(r *Request) Result {
		if r.Cookies.Get("session") == "" {
			return Redirect("/login")
		}
		return nil
	})
	def := Define("Admin", func() *helloController { return &helloController{} }).
		Handle("Panel", Route{
			Method:      "POST",
			Path:        "/admin",
			ContentType: ContentJSON,
			Params:      []Param{ModelParam[user]("u")},
			Hooks:       []Hook{deny},
		}, func(c *helloController, args *Args) (Result, error) {
			calls.Add(1)
			c.Cookies.Set("seen", "1")
			return Text("panel"), nil
		}).Build()
	d := newDispatcher(t, Options{}, def)

	// no Content-Type and a malformed body: the hook answers before either matters
	r := newRequest("POST", "/admin")
	r.Body.Raw = []byte(`{`)
	resp, err := d.Dispatch(r, ConnInfo{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.Status)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
	assert.Empty(t, resp.Cookies)
	assert.EqualValues(t, 0, calls.Load())

	r = withJSON(newRequest("POST", "/admin"), `{"id":1}`)
	r.Cookies = Pairs{{Key: "session", Value: "abc"}}
	resp, err = d.Dispatch(r, ConnInfo{})
	require.NoError(t, err)
	assert.Equal(t, "panel", string(resp.Body))
	assert.EqualValues(t, 1, calls.Load())
	require.Len(t, resp.Cookies, 1)
	assert.Equal(t, "seen", resp.Cookies[0].Name)
}

func TestDispatchNilResultIsInternalError(t *testing.T) {
	def := Define("Broken", func() *helloController { return &helloController{} }).
		Handle("Nil", Route{Method: "GET", Path: "/nil"}, func(*helloController, *Args) (Result, error) {
			return nil, nil
		}).
		Handle("TypedNil", Route{Method: "GET", Path: "/typed-nil"}, func(*helloController, *Args) (Result, error) {
			var r *JSONResult
			return r, nil
		}).Build()
	d := newDispatcher(t, Options{}, def)

	for _, path := range []string{"/nil", "/typed-nil"} {
		resp, err := d.Dispatch(newRequest("GET", path), ConnInfo{})
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.Status, path)
		assert.Equal(t, "result cannot be null", string(resp.Body), path)
	}
}

func TestDispatchHandlerErrors(t *testing.T) {
	var observed []error
	def := Define("Errs", func() *helloController { return &helloController{} }).
		Handle("Teapot", Route{Method: "GET", Path: "/teapot"}, func(*helloController, *Args) (Result, error) {
			return nil, Errorf(http.StatusTeapot, "short and stout")
		}).
		Handle("Boom", Route{Method: "GET", Path: "/boom"}, func(*helloController, *Args) (Result, error) {
			return nil, errors.New("boom")
		}).
		Handle("Panic", Route{Method: "GET", Path: "/panic"}, func(*helloController, *Args) (Result, error) {
			panic("kaboom")
		}).Build()
	d := newDispatcher(t, Options{OnException: func(err error) { observed = append(observed, err) }}, def)

	resp, err := d.Dispatch(newRequest("GET", "/teapot"), ConnInfo{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.Status)
	assert.Equal(t, "short and stout", string(resp.Body))

	resp, err = d.Dispatch(newRequest("GET", "/boom"), ConnInfo{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.Status)
	assert.Equal(t, "boom", string(resp.Body))

	resp, err = d.Dispatch(newRequest("GET", "/panic"), ConnInfo{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.Status)
	assert.Contains(t, string(resp.Body), "kaboom")

	require.Len(t, observed, 2)
}

func TestDispatchOnHTTPError(t *testing.T) {
	var ended atomic.Int32
	opts := Options{
		ServerName: "test-server",
		OnHTTPError: func(r *Request, msg string) Result {
			return JSON(map[string]string{"error": msg, "path": r.Path})
		},
		OnRequestEnd: func(r *Request, resp *Response, elapsed time.Duration) {
			ended.Add(1)
			panic("observers cannot break dispatch")
		},
	}
	d := newDispatcher(t, opts)
	resp, err := d.Dispatch(newRequest("DELETE", "/x"), ConnInfo{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, "test-server", resp.Header.Get("Server"))
	assert.JSONEq(t, `{"error":"no action for DELETE /x","path":"/x"}`, string(resp.Body))
	assert.EqualValues(t, 1, ended.Load())
}

func TestDispatchContentFile(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(present, []byte("hi"), 0o644))

	var endStatus int
	opts := Options{
		OnHTTPError: func(r *Request, msg string) Result {
			return JSON(map[string]string{"error": msg})
		},
		OnRequestEnd: func(r *Request, resp *Response, _ time.Duration) {
			endStatus = resp.Status
		},
	}
	def := Define("Files", func() *helloController { return &helloController{} }).
		Handle("Present", Route{Method: "GET", Path: "/present"}, func(*helloController, *Args) (Result, error) {
			return Content(present), nil
		}).
		Handle("Missing", Route{Method: "GET", Path: "/missing"}, func(*helloController, *Args) (Result, error) {
			return Content(filepath.Join(dir, "gone.txt")), nil
		}).
		Handle("Dir", Route{Method: "GET", Path: "/dir"}, func(*helloController, *Args) (Result, error) {
			return Content(dir), nil
		}).Build()
	d := newDispatcher(t, opts, def)

	resp, err := d.Dispatch(newRequest("GET", "/present"), ConnInfo{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, present, resp.File)

	for _, path := range []string{"/missing", "/dir"} {
		resp, err = d.Dispatch(newRequest("GET", path), ConnInfo{})
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.Status, path)
		assert.Empty(t, resp.File)
		assert.JSONEq(t, `{"error":"file not found: `+path+`"}`, string(resp.Body))
		assert.Equal(t, http.StatusNotFound, endStatus)
	}
}

func TestDispatchInjectsContext(t *testing.T) {
	var seen ConnInfo
	var fresh []*helloController
	def := Define("Ctx", func() *helloController { return &helloController{} }).
		Handle("Who", Route{Method: "GET", Path: "/who"}, func(c *helloController, _ *Args) (Result, error) {
			seen = c.ConnectionInfo
			fresh = append(fresh, c)
			return Text(c.Request.Path), nil
		}).Build()
	d := newDispatcher(t, Options{}, def)

	conn := ConnInfo{RemoteAddr: "10.0.0.1:1234", RequestID: "rid"}
	for i := 0; i < 2; i++ {
		resp, err := d.Dispatch(newRequest("GET", "/who"), conn)
		require.NoError(t, err)
		assert.Equal(t, "/who", string(resp.Body))
	}
	assert.Equal(t, conn, seen)
	require.Len(t, fresh, 2)
	assert.NotSame(t, fresh[0], fresh[1])
}

func TestDispatchUnsupportedMediaType(t *testing.T) {
	def := Define("Users", func() *helloController { return &helloController{} }).
		Handle("Create", Route{
			Method:      "POST",
			Path:        "/users",
			ContentType: ContentJSON,
			Params:      []Param{ModelParam[user]("u")},
		}, func(*helloController, *Args) (Result, error) { return Text("x"), nil }).Build()
	d := newDispatcher(t, Options{}, def)

	r := newRequest("POST", "/users")
	r.Header.Set("Content-Type", ContentForm)
	r.Body.Form = Pairs{{Key: "id", Value: "1"}}
	resp, err := d.Dispatch(r, ConnInfo{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.Status)
	assert.Equal(t, "expected 'application/json'", string(resp.Body))
}
