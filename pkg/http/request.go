package http

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// UnknownIP is reported when the peer address cannot be determined
const UnknownIP = "unknown"

// IPConfig holds the proxies whose forwarding headers are believed
type IPConfig struct {
	TrustedProxies []netip.Prefix
}

// NewIPConfig parses CIDR ranges (or bare addresses) into an IPConfig.
// Entries that do not parse are returned separately so the caller can log them.
func NewIPConfig(cidrs []string) (*IPConfig, []string) {
	cfg := &IPConfig{}
	var invalid []string

	for _, raw := range cidrs {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if prefix, err := netip.ParsePrefix(raw); err == nil {
			cfg.TrustedProxies = append(cfg.TrustedProxies, prefix.Masked())
			continue
		}
		if addr, err := netip.ParseAddr(raw); err == nil {
			cfg.TrustedProxies = append(cfg.TrustedProxies, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		invalid = append(invalid, raw)
	}

	return cfg, invalid
}

// ExtractClientIP returns the address recorded in the audit trail for a request.
// X-Forwarded-For and X-Real-IP are only honoured when the direct peer is a
// trusted proxy; otherwise the peer address is used as is.
//
// X-Forwarded-For is read from the right: each trusted proxy appends the peer
// it saw, so the first untrusted hop is the client. Entries left of it are
// client supplied and ignored.
func ExtractClientIP(r *http.Request, config *IPConfig) string {
	remote := remoteAddr(r)

	if config == nil || !config.trusts(remote) {
		return remote
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		lastTrusted := ""
		for i := len(hops) - 1; i >= 0; i-- {
			candidate := strings.TrimSpace(hops[i])
			addr, err := netip.ParseAddr(candidate)
			if err != nil {
				break
			}
			if !config.trustsAddr(addr) {
				return candidate
			}
			lastTrusted = candidate
		}
		if lastTrusted != "" {
			return lastTrusted
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		if _, err := netip.ParseAddr(xri); err == nil {
			return xri
		}
	}

	return remote
}

func (c *IPConfig) trusts(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	return c.trustsAddr(addr)
}

func (c *IPConfig) trustsAddr(addr netip.Addr) bool {
	addr = addr.Unmap()

	for _, prefix := range c.TrustedProxies {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

func remoteAddr(r *http.Request) string {
	if r.RemoteAddr == "" {
		return UnknownIP
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
