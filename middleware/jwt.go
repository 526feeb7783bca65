package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

// SessionKey derives the Redis key under which a login session is stored.
// The raw token never reaches Redis, only its SHA-256 digest.
func SessionKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "session:" + hex.EncodeToString(sum[:])
}

// JWTMiddleware creates a Fiber middleware for JWT token validation.
// It validates the HS256 signature, requires a live session in Redis (so
// logout revokes tokens before they expire), and sets user_id, username,
// and rol in the request context.
func JWTMiddleware(secret []byte, rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Get("Authorization")
		if token == "" {
			return c.Status(401).JSON(fiber.Map{"error": "Missing authorization"})
		}

		token = strings.TrimPrefix(token, "Bearer ")

		parsed, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return secret, nil
		})
		if err != nil || !parsed.Valid {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid token"})
		}

		claims, ok := parsed.Claims.(jwt.MapClaims)
		if !ok {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid token claims"})
		}

		userIDClaim, exists := claims["user_id"]
		if !exists {
			return c.Status(401).JSON(fiber.Map{"error": "Missing user_id claim"})
		}
		// JSON numbers decode as float64
		userIDFloat, ok := userIDClaim.(float64)
		if !ok {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid user_id claim type"})
		}

		// A token is only as alive as its session entry; logout deletes it.
		if rdb != nil {
			if n, err := rdb.Exists(c.Context(), SessionKey(token)).Result(); err != nil || n == 0 {
				return c.Status(401).JSON(fiber.Map{"error": "Session expired"})
			}
		}

		c.Locals("user_id", int(userIDFloat))
		if username, ok := claims["username"].(string); ok {
			c.Locals("username", username)
		}
		if rol, ok := claims["rol"].(string); ok {
			c.Locals("rol", rol)
		}

		return c.Next()
	}
}
