package utils

import (
	"io"
	"net"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestIsPublicIP(t *testing.T) {
	tests := []struct {
		name     string
		ip       string
		expected bool
	}{
		// Public IPs
		{"Google DNS", "8.8.8.8", true},
		{"Cloudflare DNS", "1.1.1.1", true},
		{"Random public IP", "93.184.216.34", true},

		// Private IPs
		{"Private 10.x", "10.0.0.1", false},
		{"Private 172.16.x", "172.16.0.1", false},
		{"Private 192.168.x", "192.168.1.1", false},
		{"Localhost", "127.0.0.1", false},
		{"IPv6 localhost", "::1", false},
		{"IPv6 private fc00", "fc00::1", false},
		{"IPv6 link-local", "fe80::1", false},

		// Invalid/special
		{"Unspecified IPv4", "0.0.0.0", false},
		{"Unspecified IPv6", "::", false},
		{"Nil IP", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ip net.IP
			if tt.ip != "" {
				ip = net.ParseIP(tt.ip)
			}
			result := IsPublicIP(ip)
			assert.Equal(t, tt.expected, result, "IP: %s", tt.ip)
		})
	}
}

func TestClientIP(t *testing.T) {
	app := fiber.New()
	app.Get("/ip", func(c *fiber.Ctx) error {
		return c.SendString(ClientIP(c))
	})

	fetch := func(t *testing.T, headers map[string]string) string {
		t.Helper()
		req := httptest.NewRequest("GET", "/ip", nil)
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		resp, err := app.Test(req)
		assert.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		assert.NoError(t, err)
		return string(body)
	}

	t.Cleanup(func() { TrustProxyHeaders.Store(false) })

	t.Run("trust disabled ignores forwarding headers", func(t *testing.T) {
		TrustProxyHeaders.Store(false)
		got := fetch(t, map[string]string{"X-Forwarded-For": "8.8.8.8"})
		assert.NotEqual(t, "8.8.8.8", got)
		assert.NotEmpty(t, got)
	})

	t.Run("X-Forwarded-For leftmost public hop", func(t *testing.T) {
		TrustProxyHeaders.Store(true)
		got := fetch(t, map[string]string{"X-Forwarded-For": "8.8.8.8, 10.0.0.1"})
		assert.Equal(t, "8.8.8.8", got)
	})

	t.Run("X-Forwarded-For skips junk entries", func(t *testing.T) {
		TrustProxyHeaders.Store(true)
		got := fetch(t, map[string]string{"X-Forwarded-For": "unknown, not-an-ip, 9.9.9.9"})
		assert.Equal(t, "9.9.9.9", got)
	})

	t.Run("X-Forwarded-For private-only falls back to first hop", func(t *testing.T) {
		TrustProxyHeaders.Store(true)
		got := fetch(t, map[string]string{"X-Forwarded-For": "10.0.0.1, 192.168.1.1"})
		assert.Equal(t, "10.0.0.1", got)
	})

	t.Run("X-Real-IP honored without X-Forwarded-For", func(t *testing.T) {
		TrustProxyHeaders.Store(true)
		got := fetch(t, map[string]string{"X-Real-IP": "9.9.9.9"})
		assert.Equal(t, "9.9.9.9", got)
	})

	t.Run("CDN-specific headers are not consulted", func(t *testing.T) {
		TrustProxyHeaders.Store(true)
		got := fetch(t, map[string]string{"CF-Connecting-IP": "1.2.3.4"})
		assert.NotEqual(t, "1.2.3.4", got)
	})
}

func BenchmarkIsPublicIP(b *testing.B) {
	ip := net.ParseIP("8.8.8.8")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		IsPublicIP(ip)
	}
}
