package clientip

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// DefaultHeaders are the proxy headers consulted by GetIP, highest priority first.
var DefaultHeaders = []string{"CF-Connecting-IP", "X-Forwarded-For", "X-Real-IP"}

// GetIP returns the client address using DefaultHeaders, falling back to
// RemoteAddr. It returns "" when nothing parses.
func GetIP(r *http.Request) string {
	return Resolve(r, DefaultHeaders...)
}

// Resolve returns the first valid address found in headers, then RemoteAddr.
// Only the first element of a comma separated header is trusted.
// Pass no headers when the service is not behind a proxy.
func Resolve(r *http.Request, headers ...string) string {
	for _, h := range headers {
		v := r.Header.Get(h)
		if v == "" {
			continue
		}
		first, _, _ := strings.Cut(v, ",")
		if ip := parseIP(first); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return parseIP(r.RemoteAddr)
	}
	return parseIP(host)
}

func parseIP(s string) string {
	s = strings.Trim(strings.TrimSpace(s), "[]")
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return ""
	}
	return addr.Unmap().WithZone("").String()
}
