package mvc

import (
	"net/http"
	"strings"
)

// Pair is a single key/value from a query string, urlencoded form or cookie
// header, kept in wire order.
type Pair struct {
	Key   string
	Value string
}

// Pairs is an ordered list of key/value pairs.
type Pairs []Pair

// Lookup returns the first value whose key matches name case-insensitively.
func (p Pairs) Lookup(name string) (string, bool) {
	for _, kv := range p {
		if strings.EqualFold(kv.Key, name) {
			return kv.Value, true
		}
	}
	return "", false
}

// Get returns the first value whose key equals key exactly.
func (p Pairs) Get(key string) string {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value
		}
	}
	return ""
}

// FilePart is one uploaded file from a multipart/form-data body.
type FilePart struct {
	Key         string // form field name
	Filename    string
	ContentType string
	Charset     string
	Data        []byte
}

// Size returns the payload length in bytes.
func (f *FilePart) Size() int { return len(f.Data) }

// Body holds whatever the host layer extracted from the request body. Fields
// not relevant to the request's content type stay nil.
type Body struct {
	Raw   []byte
	Form  Pairs
	Files []*FilePart

	// Err is a body parse failure. It surfaces only when the matched
	// action binds from the body.
	Err error
}

// Empty reports whether no body of any kind was supplied.
func (b Body) Empty() bool {
	return b.Raw == nil && b.Form == nil && b.Files == nil
}

// Request is the transport-neutral view of an inbound request.
type Request struct {
	Method     string
	Path       string
	Header     http.Header
	Query      Pairs
	Cookies    Pairs
	Body       Body
	RemoteAddr string
}

// ContentType returns the Content-Type header and whether it was present.
func (r *Request) ContentType() (string, bool) {
	if r.Header == nil {
		return "", false
	}
	vals, ok := r.Header["Content-Type"]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

// HasInput reports whether the request carries query pairs or a body.
func (r *Request) HasInput() bool {
	return len(r.Query) > 0 || !r.Body.Empty()
}

// Cookie returns the value of an incoming cookie.
func (r *Request) Cookie(name string) (string, bool) {
	for _, kv := range r.Cookies {
		if kv.Key == name {
			return kv.Value, true
		}
	}
	return "", false
}

// ConnInfo describes the connection a request arrived on.
type ConnInfo struct {
	RemoteAddr string
	LocalAddr  string
	TLS        bool
	ConnID     uint64
	RequestID  string
}
