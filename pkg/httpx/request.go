// Package httpx adapts fasthttp requests and responses to the mvc
// dispatcher.
package httpx

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"webserver/pkg/mvc"
)

// RequestIDHeader is honoured when the client supplies one.
const RequestIDHeader = "X-Request-Id"

// NewRequest converts ctx into a transport-neutral request. Query pairs,
// form pairs and multipart parts keep their wire order. A body that fails
// to parse is recorded on Body.Err and left for negotiation to report.
func NewRequest(ctx *fasthttp.RequestCtx) (*mvc.Request, mvc.ConnInfo) {
	r := &mvc.Request{
		Method:     string(ctx.Method()),
		Path:       string(ctx.Path()),
		Header:     make(http.Header),
		RemoteAddr: ctx.RemoteAddr().String(),
	}

	ctx.Request.Header.VisitAll(func(k, v []byte) {
		r.Header.Add(http.CanonicalHeaderKey(string(k)), string(v))
	})
	ctx.QueryArgs().VisitAll(func(k, v []byte) {
		r.Query = append(r.Query, mvc.Pair{Key: string(k), Value: string(v)})
	})
	ctx.Request.Header.VisitAllCookie(func(k, v []byte) {
		r.Cookies = append(r.Cookies, mvc.Pair{Key: string(k), Value: string(v)})
	})

	conn := connInfo(ctx)
	r.Body.Err = readBody(ctx, r)
	return r, conn
}

func connInfo(ctx *fasthttp.RequestCtx) mvc.ConnInfo {
	rid := string(ctx.Request.Header.Peek(RequestIDHeader))
	if rid == "" {
		rid = uuid.NewString()
	}
	info := mvc.ConnInfo{
		RemoteAddr: ctx.RemoteAddr().String(),
		TLS:        ctx.IsTLS(),
		ConnID:     ctx.ConnID(),
		RequestID:  rid,
	}
	if la := ctx.LocalAddr(); la != nil {
		info.LocalAddr = la.String()
	}
	return info
}

func readBody(ctx *fasthttp.RequestCtx, r *mvc.Request) error {
	raw := ctx.PostBody()
	if len(raw) > 0 {
		r.Body.Raw = append([]byte(nil), raw...)
	}
	ct := string(ctx.Request.Header.ContentType())
	switch {
	case strings.HasPrefix(ct, mvc.ContentForm):
		ctx.PostArgs().VisitAll(func(k, v []byte) {
			r.Body.Form = append(r.Body.Form, mvc.Pair{Key: string(k), Value: string(v)})
		})
	case strings.HasPrefix(ct, mvc.ContentMultipart):
		boundary := string(ctx.Request.Header.MultipartFormBoundary())
		if boundary == "" {
			return mvc.BadRequest("multipart body without boundary")
		}
		return readMultipart(r, boundary)
	}
	return nil
}

// readMultipart walks the parts in order: parts without a filename are form
// fields, the rest become file parts.
func readMultipart(r *mvc.Request, boundary string) error {
	mr := multipart.NewReader(bytes.NewReader(r.Body.Raw), boundary)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return mvc.BadRequest("malformed multipart body: %v", err)
		}
		data, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			return mvc.BadRequest("read multipart part %q: %v", part.FormName(), err)
		}
		if part.FileName() == "" {
			r.Body.Form = append(r.Body.Form, mvc.Pair{Key: part.FormName(), Value: string(data)})
			continue
		}
		fp := &mvc.FilePart{
			Key:         part.FormName(),
			Filename:    part.FileName(),
			ContentType: part.Header.Get("Content-Type"),
			Data:        data,
		}
		if fp.ContentType != "" {
			if _, params, err := mime.ParseMediaType(fp.ContentType); err == nil {
				fp.Charset = params["charset"]
			}
		}
		r.Body.Files = append(r.Body.Files, fp)
	}
}

// describe is used in log lines.
func describe(r *mvc.Request) string {
	if r == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s %s", r.Method, r.Path)
}
