package app

import (
	"net/url"
	"strings"
)

// extractOriginHost returns the "host[:port]" portion of an origin URL.
func extractOriginHost(origin string) string {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return origin
	}
	return strings.ToLower(u.Host)
}

// matchOriginPattern reports whether host matches the given wildcard pattern.
// "*.example.com" admits any subdomain and the apex domain itself;
// "localhost:*" admits any port on that host.
func matchOriginPattern(pattern, host string) bool {
	pattern = strings.ToLower(pattern)
	if pattern == "*" || pattern == host {
		return true
	}
	if strings.HasPrefix(pattern, "*.") {
		return host == pattern[2:] || strings.HasSuffix(host, pattern[1:])
	}
	if strings.HasSuffix(pattern, ":*") {
		return strings.HasPrefix(host, pattern[:len(pattern)-1])
	}
	return false
}
