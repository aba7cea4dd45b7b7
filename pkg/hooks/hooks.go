// Package hooks provides pre-action checks for mvc actions. Each returns a
// result only when the request must not reach the action.
package hooks

import (
	"net"
	"strings"

	"webserver/pkg/mvc"
)

// Denial is the payload of the default rejection results.
type Denial struct {
	Error string `json:"error"`
}

func deny(res mvc.Result, msg string) mvc.Result {
	if res != nil {
		return res
	}
	return mvc.JSON(Denial{Error: msg})
}

// ClientIP strips the port from a remote address.
func ClientIP(remote string) string {
	h, _, err := net.SplitHostPort(remote)
	if err != nil {
		return remote
	}
	return h
}

// ExtractAPIKey reads "Authorization: Bearer <key>" and falls back to the
// named header.
func ExtractAPIKey(r *mvc.Request, header string) string {
	if r.Header == nil {
		return ""
	}
	if auth := r.Header.Get("Authorization"); auth != "" {
		parts := strings.Fields(auth)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}
	if header == "" {
		header = "X-API-Key"
	}
	return r.Header.Get(header)
}
