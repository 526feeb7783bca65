package utils

import (
	"net"
	"strings"
	"sync/atomic"

	"github.com/gofiber/fiber/v2"
)

// TrustProxyHeaders gates whether ClientIP reads forwarding headers. Off by
// default so a direct exposure cannot be spoofed; deployments behind the
// platform reverse proxy enable it via TRUST_PROXY_HEADERS.
var TrustProxyHeaders atomic.Bool

// reservedBlocks are the RFC 1918 / RFC 4193 ranges plus loopback and
// link-local, the address space a proxy hop would normally occupy.
var reservedBlocks = func() []*net.IPNet {
	cidrs := []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"127.0.0.0/8",
		"::1/128",
		"fc00::/7",
		"fe80::/10",
	}
	blocks := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, block, err := net.ParseCIDR(cidr)
		if err != nil {
			panic("utils: bad reserved CIDR " + cidr)
		}
		blocks = append(blocks, block)
	}
	return blocks
}()

// ClientIP returns the best-effort client address for rate-limit keying.
// The platform proxy in front of this service sets X-Forwarded-For and
// X-Real-IP; no other forwarding headers are consulted.
func ClientIP(c *fiber.Ctx) string {
	if !TrustProxyHeaders.Load() {
		return c.IP()
	}

	if forwarded := c.Get(fiber.HeaderXForwardedFor); forwarded != "" {
		// Leftmost public hop wins; a private hop is kept as fallback in
		// case every entry sits inside the platform network.
		var fallback string
		for _, part := range strings.Split(forwarded, ",") {
			candidate := strings.TrimSpace(part)
			if candidate == "" || strings.EqualFold(candidate, "unknown") {
				continue
			}
			ip := net.ParseIP(candidate)
			if ip == nil {
				continue
			}
			if IsPublicIP(ip) {
				return candidate
			}
			if fallback == "" {
				fallback = candidate
			}
		}
		if fallback != "" {
			return fallback
		}
	}

	if realIP := strings.TrimSpace(c.Get("X-Real-IP")); realIP != "" {
		if net.ParseIP(realIP) != nil {
			return realIP
		}
	}

	return c.IP()
}

// IsPublicIP reports whether ip is a routable public address.
func IsPublicIP(ip net.IP) bool {
	if ip == nil || ip.IsLoopback() || ip.IsUnspecified() {
		return false
	}
	for _, block := range reservedBlocks {
		if block.Contains(ip) {
			return false
		}
	}
	return true
}
