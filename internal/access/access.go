// Package access restricts the HTTP API to callers on the local network
// segment.
//
// Two checks run in order: the caller's network address must start with an
// allowed prefix (403 otherwise), then browser callers get CORS headers only
// when their Origin host matches the same prefixes.
package access

import (
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"

	"github.com/rs/cors"
)

// DefaultPrefix is the Windows mobile-hotspot subnet.
const DefaultPrefix = "192.168.137."

// AllowList matches addresses by string prefix. An empty list allows all.
type AllowList struct {
	prefixes []string
}

// NewAllowList returns an AllowList with blank entries dropped.
func NewAllowList(prefixes []string) AllowList {
	var out []string
	for _, p := range prefixes {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return AllowList{prefixes: out}
}

// Open reports whether the list allows every address.
func (a AllowList) Open() bool { return len(a.prefixes) == 0 }

// Prefixes returns a copy of the configured prefixes.
func (a AllowList) Prefixes() []string {
	return append([]string(nil), a.prefixes...)
}

// Allowed reports whether ip starts with one of the prefixes.
func (a AllowList) Allowed(ip string) bool {
	if a.Open() {
		return true
	}
	for _, p := range a.prefixes {
		if strings.HasPrefix(ip, p) {
			return true
		}
	}
	return false
}

// OriginAllowed reports whether a browser Origin header names an allowed host.
func (a AllowList) OriginAllowed(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	return a.Allowed(u.Hostname())
}

// RemoteIP extracts the caller's IP from an http.Request.RemoteAddr value.
// IPv4-mapped IPv6 addresses come back in dotted form so that IPv4 prefixes
// match dual-stack listeners.
func RemoteIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return host
	}
	return addr.Unmap().WithZone("").String()
}

// Middleware rejects callers outside the allow list before next runs.
func (a AllowList) Middleware(next http.Handler) http.Handler {
	log := slog.With("component", "access")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := RemoteIP(r.RemoteAddr)
		if !a.Allowed(ip) {
			log.Debug("request rejected", "remote", ip, "method", r.Method, "path", r.URL.Path)
			http.Error(w, "Forbidden: caller is outside the allowed network", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CORS wraps next with an origin check for browser callers.
func (a AllowList) CORS(next http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowOriginFunc: a.OriginAllowed,
		AllowedMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:  []string{"Content-Type"},
		MaxAge:          600,
	})
	return c.Handler(next)
}

// Wrap applies the address check, then CORS.
func (a AllowList) Wrap(next http.Handler) http.Handler {
	return a.Middleware(a.CORS(next))
}
