package middleware

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret-key-at-least-32-characters-long")

func signToken(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return signed
}

func newAuthedApp(rdb *redis.Client) *fiber.App {
	app := fiber.New()
	app.Get("/protegido", JWTMiddleware(testSecret, rdb), func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(int)
		return c.JSON(fiber.Map{
			"user_id": userID,
			"rol":     GetUserRole(c),
		})
	})
	return app
}

func TestJWTMiddlewareMissingHeader(t *testing.T) {
	app := newAuthedApp(nil)

	req := httptest.NewRequest("GET", "/protegido", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestJWTMiddlewareInvalidToken(t *testing.T) {
	app := newAuthedApp(nil)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "Bearer not-a-token"},
		{"wrong secret", "Bearer " + signToken(t, []byte("otro-secreto-completamente-distinto!"), jwt.MapClaims{"user_id": float64(1)})},
		{"expired", "Bearer " + signToken(t, testSecret, jwt.MapClaims{
			"user_id": float64(1),
			"exp":     time.Now().Add(-time.Hour).Unix(),
		})},
		{"missing user_id", "Bearer " + signToken(t, testSecret, jwt.MapClaims{"username": "admin"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/protegido", nil)
			req.Header.Set("Authorization", tt.token)
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, 401, resp.StatusCode)
		})
	}
}

func TestJWTMiddlewareValidTokenSetsLocals(t *testing.T) {
	app := newAuthedApp(nil) // nil Redis skips the session check

	token := signToken(t, testSecret, jwt.MapClaims{
		"user_id":  float64(42),
		"username": "especialista",
		"rol":      RolPresupuesto,
		"exp":      time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest("GET", "/protegido", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestJWTMiddlewareSessionRevocation(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	app := newAuthedApp(rdb)

	token := signToken(t, testSecret, jwt.MapClaims{
		"user_id": float64(7),
		"rol":     RolConsulta,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	// No session stored yet: the token is signed but revoked.
	req := httptest.NewRequest("GET", "/protegido", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)

	// Store the session the way the login handler does.
	require.NoError(t, rdb.Set(context.Background(), SessionKey(token), 7, time.Hour).Err())

	req = httptest.NewRequest("GET", "/protegido", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestSessionKey(t *testing.T) {
	k1 := SessionKey("token-a")
	k2 := SessionKey("token-b")

	assert.NotEqual(t, k1, k2)
	assert.Equal(t, k1, SessionKey("token-a"))
	assert.Contains(t, k1, "session:")
	// The raw token must not appear in the key.
	assert.NotContains(t, k1, "token-a")
}

func TestRequireRole(t *testing.T) {
	newApp := func(roles ...string) *fiber.App {
		app := fiber.New()
		app.Get("/recurso",
			func(c *fiber.Ctx) error {
				// Simulate JWTMiddleware locals from query params.
				if c.Query("uid") != "" {
					c.Locals("user_id", 1)
				}
				if rol := c.Query("rol"); rol != "" {
					c.Locals("rol", rol)
				}
				return c.Next()
			},
			RequireRole(roles...),
			func(c *fiber.Ctx) error { return c.SendStatus(200) },
		)
		return app
	}

	tests := []struct {
		name    string
		allowed []string
		query   string
		want    int
	}{
		{"unauthenticated", []string{RolPresupuesto}, "", 401},
		{"role allowed", []string{RolPresupuesto}, "?uid=1&rol=PRESUPUESTO", 200},
		{"role denied", []string{RolPresupuesto}, "?uid=1&rol=CONSULTA", 403},
		{"admin always passes", []string{RolPresupuesto}, "?uid=1&rol=ADMIN", 200},
		{"no role claim", []string{RolPresupuesto}, "?uid=1", 403},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp(tt.allowed...)
			req := httptest.NewRequest("GET", "/recurso"+tt.query, nil)
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
