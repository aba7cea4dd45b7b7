package hooks

import (
	"crypto/subtle"
	"net"

	"webserver/pkg/mvc"
)

// KeyCheck rejects requests that do not carry one of the configured keys.
type KeyCheck struct {
	header string
	keys   map[string]struct{}
	denied mvc.Result
}

// RequireKey accepts a bearer token or the named header. With no keys
// configured every request is rejected.
func RequireKey(header string, keys []string, denied mvc.Result) *KeyCheck {
	k := &KeyCheck{header: header, keys: make(map[string]struct{}, len(keys)), denied: deny(denied, "api key required")}
	for _, key := range keys {
		if key != "" {
			k.keys[key] = struct{}{}
		}
	}
	return k
}

// Handle implements mvc.Hook.
func (k *KeyCheck) Handle(r *mvc.Request) mvc.Result {
	key := ExtractAPIKey(r, k.header)
	if key == "" {
		return k.denied
	}
	for known := range k.keys {
		if subtle.ConstantTimeCompare([]byte(known), []byte(key)) == 1 {
			return nil
		}
	}
	return k.denied
}

// IPList admits only whitelisted client addresses.
type IPList struct {
	ips    map[string]struct{}
	nets   []*net.IPNet
	denied mvc.Result
}

// IPAllow admits exact IPs and CIDR ranges from list. An empty list admits
// everyone.
func IPAllow(list []string, denied mvc.Result) *IPList {
	l := &IPList{ips: make(map[string]struct{}), denied: deny(denied, "forbidden")}
	for _, entry := range list {
		if _, n, err := net.ParseCIDR(entry); err == nil {
			l.nets = append(l.nets, n)
			continue
		}
		l.ips[entry] = struct{}{}
	}
	return l
}

// Handle implements mvc.Hook.
func (l *IPList) Handle(r *mvc.Request) mvc.Result {
	if len(l.ips) == 0 && len(l.nets) == 0 {
		return nil
	}
	ip := ClientIP(r.RemoteAddr)
	if _, ok := l.ips[ip]; ok {
		return nil
	}
	if parsed := net.ParseIP(ip); parsed != nil {
		for _, n := range l.nets {
			if n.Contains(parsed) {
				return nil
			}
		}
	}
	return l.denied
}
