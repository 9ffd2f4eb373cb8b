// Package clientip resolves the originating client address of an HTTP
// request behind reverse proxies.
//
// Headers are consulted in priority order (CF-Connecting-IP,
// X-Forwarded-For, X-Real-IP by default) and RemoteAddr is the fallback.
// Addresses are normalised: IPv4-mapped IPv6 is unmapped and zones are
// stripped. Invalid values are skipped, so a spoofed garbage header never
// becomes a key.
//
//	r.Use(clientip.Middleware())
//	ip := clientip.FromContext(r.Context())
package clientip
