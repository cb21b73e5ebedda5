package security

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"hubtrack/internal/log"
)

var (
	// File probes only make sense in the path; query values carry user
	// search text such as e-mail addresses.
	pathPatterns = []string{
		"../", "..\\", ".env", "wp-admin", "phpmyadmin",
		".git", ".ssh", "etc/passwd",
	}
	injectionPatterns = []string{"<script", "union select"}
	scannerAgents     = []string{"sqlmap", "nmap", "nikto", "gobuster", "dirb"}
)

const maxURLLength = 2048

// Detector resolves client addresses behind trusted proxies and rejects
// requests that look like scans.
type Detector struct {
	trustedProxies []*net.IPNet
	blocked        atomic.Int64
}

// NewDetector trusts loopback and private networks to set forwarding headers.
func NewDetector() *Detector {
	d := &Detector{}
	for _, cidr := range []string{"127.0.0.0/8", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16", "::1/128"} {
		_, network, _ := net.ParseCIDR(cidr)
		d.trustedProxies = append(d.trustedProxies, network)
	}
	return d
}

// AddTrustedProxy adds a trusted proxy network.
func (d *Detector) AddTrustedProxy(cidr string) error {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		return fmt.Errorf("invalid CIDR %s: %w", cidr, err)
	}
	d.trustedProxies = append(d.trustedProxies, network)
	return nil
}

// Suspicious reports why r looks like an attack, or "" when it does not.
func (d *Detector) Suspicious(r *http.Request) string {
	if len(r.URL.RequestURI()) > maxURLLength {
		return "url too long"
	}
	switch r.Method {
	case http.MethodTrace, http.MethodConnect, "TRACK", "DEBUG":
		return "unusual method"
	}
	path := strings.ToLower(r.URL.Path)
	query, err := url.QueryUnescape(r.URL.RawQuery)
	if err != nil {
		query = r.URL.RawQuery
	}
	query = strings.ToLower(query)
	for _, p := range pathPatterns {
		if strings.Contains(path, p) {
			return "suspicious pattern " + p
		}
	}
	for _, p := range injectionPatterns {
		if strings.Contains(path, p) || strings.Contains(query, p) {
			return "suspicious pattern " + p
		}
	}
	agent := strings.ToLower(r.Header.Get("User-Agent"))
	for _, a := range scannerAgents {
		if strings.Contains(agent, a) {
			return "scanner user agent"
		}
	}
	return ""
}

// Middleware answers suspicious requests with 400 before routing.
func (d *Detector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reason := d.Suspicious(r); reason != "" {
			d.blocked.Add(1)
			slog.WarnContext(r.Context(), "Blocked suspicious request",
				log.FieldComponent, log.ComponentSecurity,
				log.FieldClientIP, d.ExtractClientIP(r),
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				"reason", reason)
			http.Error(w, `{"error":"bad request"}`, http.StatusBadRequest)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Blocked returns how many requests Middleware rejected.
func (d *Detector) Blocked() int64 {
	return d.blocked.Load()
}

// ExtractClientIP returns the client address, honoring X-Forwarded-For and
// X-Real-IP only when the direct peer is a trusted proxy.
func (d *Detector) ExtractClientIP(r *http.Request) string {
	directIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		directIP = r.RemoteAddr
	}
	ip := net.ParseIP(directIP)
	if ip == nil || !d.isTrustedProxy(ip) {
		return directIP
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if client := strings.TrimSpace(first); net.ParseIP(client) != nil {
			return client
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(xri) != nil {
		return xri
	}
	return directIP
}

func (d *Detector) isTrustedProxy(ip net.IP) bool {
	for _, network := range d.trustedProxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
