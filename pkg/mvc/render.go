package mvc

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/valyala/bytebufferpool"
)

// DefaultServerName is sent in the Server header when none is configured.
const DefaultServerName = "webserver"

const (
	contentTypeJSON = "application/json"
	contentTypeText = "text/plain; charset=utf-8"
)

// Response is the rendered, transport-neutral outcome of a dispatch.
type Response struct {
	Status  int
	Header  http.Header
	Body    []byte
	File    string // set for Content results; the host streams it
	Cookies []*Cookie
}

var renderPool bytebufferpool.Pool

// Render maps a result onto status, headers and body.
func Render(res Result, status int, serverName string) (*Response, error) {
	if serverName == "" {
		serverName = DefaultServerName
	}
	resp := &Response{Status: status, Header: http.Header{}}
	resp.Header.Set("Server", serverName)

	switch v := deref(res).(type) {
	case JSONResult:
		body, err := encodeJSON(v.Payload)
		if err != nil {
			return nil, fmt.Errorf("render json: %w", err)
		}
		resp.Header.Set("Content-Type", contentTypeJSON)
		resp.Body = body
	case TextResult:
		resp.Header.Set("Content-Type", contentTypeText)
		resp.Body = []byte(v.Text)
	case HTMLResult:
		resp.Body = []byte(v.HTML)
	case ContentResult:
		resp.File = v.Path
	case RedirectResult:
		resp.Status = http.StatusFound
		resp.Header.Set("Location", v.URL)
	default:
		return nil, fmt.Errorf("render: unsupported result %T", res)
	}
	return resp, nil
}

// deref turns pointer results into their value form.
func deref(res Result) Result {
	switch v := res.(type) {
	case *JSONResult:
		if v != nil {
			return *v
		}
	case *TextResult:
		if v != nil {
			return *v
		}
	case *HTMLResult:
		if v != nil {
			return *v
		}
	case *ContentResult:
		if v != nil {
			return *v
		}
	case *RedirectResult:
		if v != nil {
			return *v
		}
	default:
		return res
	}
	return nil
}

func encodeJSON(payload any) ([]byte, error) {
	buf := renderPool.Get()
	defer renderPool.Put(buf)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return nil, err
	}
	b := buf.B
	// Encoder appends a newline
	if n := len(b); n > 0 && b[n-1] == '\n' {
		b = b[:n-1]
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}
