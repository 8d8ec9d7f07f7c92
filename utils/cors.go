package utils

import (
	"net"
	"net/url"
	"strings"
)

// IsAllowedOrigin reports whether a browser Origin may talk to this API.
// The service runs inside a home or lab network, so only local origins
// qualify: localhost, loopback/private/link-local IPs, mDNS .local names,
// and bare LAN hostnames. Anything routable on the public internet is
// refused.
func IsAllowedOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	host := u.Hostname()

	if host == "localhost" || strings.HasSuffix(host, ".local") {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast()
	}
	// Bare LAN names never carry a dot.
	return !strings.Contains(host, ".")
}
