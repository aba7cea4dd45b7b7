package mvc

// ResultKind enumerates the closed set of result shapes.
type ResultKind int

const (
	ResultJSON ResultKind = iota
	ResultText
	ResultHTML
	ResultContent
	ResultRedirect
)

func (k ResultKind) String() string {
	switch k {
	case ResultJSON:
		return "json"
	case ResultText:
		return "text"
	case ResultHTML:
		return "html"
	case ResultContent:
		return "content"
	case ResultRedirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Result is what an action or a hook produces. Only the five types in this
// file implement it.
type Result interface {
	Kind() ResultKind
	sealed()
}

// JSONResult renders Payload as application/json.
type JSONResult struct{ Payload any }

// TextResult renders Text as text/plain.
type TextResult struct{ Text string }

// HTMLResult renders raw HTML.
type HTMLResult struct{ HTML string }

// ContentResult streams the file at Path.
type ContentResult struct{ Path string }

// RedirectResult redirects the client to URL.
type RedirectResult struct{ URL string }

func JSON(payload any) Result { return JSONResult{Payload: payload} }
func Text(text string) Result { return TextResult{Text: text} }
func HTML(html string) Result { return HTMLResult{HTML: html} }
func Content(path string) Result { return ContentResult{Path: path} }
func Redirect(url string) Result { return RedirectResult{URL: url} }
func (JSONResult) Kind() ResultKind { return ResultJSON }
func (TextResult) Kind() ResultKind { return ResultText }
func (HTMLResult) Kind() ResultKind { return ResultHTML }
func (ContentResult) Kind() ResultKind { return ResultContent }
func (RedirectResult) Kind() ResultKind { return ResultRedirect }
func (JSONResult) sealed() {}
func (TextResult) sealed() {}
func (HTMLResult) sealed() {}
func (ContentResult) sealed() {}
func (RedirectResult) sealed() {}

// isNilResult catches both a nil interface and a typed nil pointer.
func isNilResult(r Result) bool {
	switch v := r.(type) {
	case nil:
		return true
	case *JSONResult:
		return v == nil
	case *TextResult:
		return v == nil
	case *HTMLResult:
		return v == nil
	case *ContentResult:
		return v == nil
	case *RedirectResult:
		return v == nil
	}
	return false
}
