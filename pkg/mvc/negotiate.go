package mvc

import "strings"

// Declared content types an action may require.
const (
	ContentForm      = "application/x-www-form-urlencoded"
	ContentJSON      = "application/json"
	ContentMultipart = "multipart/form-data"
)

// Strategy selects how arguments are bound.
type Strategy int

const (
	StrategyQuery Strategy = iota
	StrategyForm
	StrategyJSON
	StrategyMultipart
)

func (s Strategy) String() string {
	switch s {
	case StrategyQuery:
		return "query"
	case StrategyForm:
		return "form"
	case StrategyJSON:
		return "json"
	case StrategyMultipart:
		return "multipart"
	}
	return "unknown"
}

// strategyFor maps a declared content type to its strategy.
func strategyFor(contentType string) (Strategy, bool) {
	switch contentType {
	case "":
		return StrategyQuery, true
	case ContentForm:
		return StrategyForm, true
	case ContentJSON:
		return StrategyJSON, true
	case ContentMultipart:
		return StrategyMultipart, true
	}
	return StrategyQuery, false
}

// Negotiate checks the request against the action's declared content type
// and picks the binding strategy.
func Negotiate(a *Action, r *Request) (Strategy, error) {
	strategy := StrategyQuery
	if a.ContentType != "" {
		ct, ok := r.ContentType()
		if !ok {
			return strategy, UnsupportedMediaType("no Content-Type header")
		}
		if !strings.HasPrefix(ct, a.ContentType) {
			return strategy, UnsupportedMediaType("expected '%s'", a.ContentType)
		}
		s, ok := strategyFor(a.ContentType)
		if !ok {
			// rejected by Validate; only reachable with an unvalidated registry
			return strategy, UnsupportedMediaType("expected '%s'", a.ContentType)
		}
		strategy = s
		if r.Body.Err != nil {
			return strategy, r.Body.Err
		}
	}
	if needsInput(a) && !r.HasInput() {
		return strategy, BadRequest("no input provided")
	}
	return strategy, nil
}

// needsInput reports whether a request without query pairs or body must be
// rejected. Body-bearing actions need input whenever they declare
// parameters; query-only actions only when some parameter has no default.
func needsInput(a *Action) bool {
	if a.ContentType != "" {
		return len(a.Params) > 0
	}
	for _, p := range a.Params {
		if !p.HasDefault {
			return true
		}
	}
	return false
}
