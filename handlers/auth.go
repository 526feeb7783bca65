// Package handlers contains the HTTP handlers of the dashboard API: session
// management, master data lookups, budget execution queries, and the alert
// feed.
package handlers

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"dashboard-inei/config"
	"dashboard-inei/crypto"
	"dashboard-inei/database"
	"dashboard-inei/metrics"
	"dashboard-inei/middleware"
	"dashboard-inei/utils"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	db     database.Database
	redis  *redis.Client
	config *config.Config
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(db database.Database, rdb *redis.Client, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		db:     db,
		redis:  rdb,
		config: cfg,
	}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the issued token plus the profile the frontend
// needs to render the navigation for the user's role.
type LoginResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   int64       `json:"expires_in"`
	Usuario     UserProfile `json:"usuario"`
}

// UserProfile is the public view of a usuario row.
type UserProfile struct {
	ID             int     `json:"id"`
	Username       string  `json:"username"`
	Email          string  `json:"email"`
	NombreCompleto string  `json:"nombre_completo"`
	Rol            string  `json:"rol"`
	UeID           *int    `json:"ue_id"`
	UltimoAcceso   *string `json:"ultimo_acceso"`
}

// Login authenticates by username (or email) and password and issues an
// HS256 JWT plus a Redis-backed session entry for revocation.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Username == "" || req.Password == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Username and password are required"})
	}

	var (
		id           int
		username     string
		email        string
		passwordHash string
		nombre       sql.NullString
		rol          sql.NullString
		ueID         sql.NullInt32
		activo       bool
	)
	err := h.db.QueryRow(c.Context(), `
		SELECT id, username, email, password_hash, nombre_completo, rol, ue_id, activo
		FROM usuario
		WHERE username = $1 OR email = $1`,
		req.Username).Scan(&id, &username, &email, &passwordHash, &nombre, &rol, &ueID, &activo)
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.RecordLoginAttempt("invalid_credentials")
		return c.Status(401).JSON(fiber.Map{"error": "Invalid credentials"})
	} else if err != nil {
		utils.LogRequestError(c, "LOGIN_LOOKUP", err)
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	if !activo || !crypto.VerifyPassword(req.Password, passwordHash) {
		metrics.RecordLoginAttempt("invalid_credentials")
		return c.Status(401).JSON(fiber.Map{"error": "Invalid credentials"})
	}

	now := time.Now()
	expiresAt := now.Add(h.config.JWTExpiration)
	claims := jwt.MapClaims{
		"user_id":  id,
		"username": username,
		"rol":      rol.String,
		"iat":      now.Unix(),
		"exp":      expiresAt.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.config.JWTSecret)
	if err != nil {
		utils.LogRequestError(c, "LOGIN_SIGN", err)
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	if h.redis != nil {
		if err := h.redis.Set(c.Context(), middleware.SessionKey(token), id, time.Until(expiresAt)).Err(); err != nil {
			utils.LogRequestError(c, "LOGIN_SESSION", err)
			return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
		}
	}

	// Best effort; a failed timestamp update must not block the login.
	if _, err := h.db.Exec(c.Context(),
		"UPDATE usuario SET ultimo_acceso = NOW() WHERE id = $1", id); err != nil {
		utils.LogRequestError(c, "LOGIN_TOUCH", err)
	}

	metrics.RecordLoginAttempt("success")

	var ueIDPtr *int
	if ueID.Valid {
		v := int(ueID.Int32)
		ueIDPtr = &v
	}
	return c.JSON(LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(h.config.JWTExpiration.Seconds()),
		Usuario: UserProfile{
			ID:             id,
			Username:       username,
			Email:          email,
			NombreCompleto: nombre.String,
			Rol:            rol.String,
			UeID:           ueIDPtr,
		},
	})
}

// Logout revokes the current session. The JWT itself stays syntactically
// valid until exp, but the middleware rejects it once the session is gone.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	token := c.Get("Authorization")
	if token == "" {
		return c.Status(401).JSON(fiber.Map{"error": "Missing authorization"})
	}
	token = strings.TrimPrefix(token, "Bearer ")

	if h.redis != nil {
		if err := h.redis.Del(c.Context(), middleware.SessionKey(token)).Err(); err != nil {
			utils.LogRequestError(c, "LOGOUT_SESSION", err)
			return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
		}
	}
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// Me returns the profile of the authenticated user.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var (
		profile      UserProfile
		nombre, rol  sql.NullString
		ueID         sql.NullInt32
		ultimoAcceso sql.NullTime
	)
	err = h.db.QueryRow(c.Context(), `
		SELECT id, username, email, nombre_completo, rol, ue_id, ultimo_acceso
		FROM usuario WHERE id = $1 AND activo`,
		userID).Scan(&profile.ID, &profile.Username, &profile.Email, &nombre, &rol, &ueID, &ultimoAcceso)
	if errors.Is(err, pgx.ErrNoRows) {
		return c.Status(404).JSON(fiber.Map{"error": "User not found"})
	} else if err != nil {
		utils.LogRequestError(c, "ME_LOOKUP", err)
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	profile.NombreCompleto = nombre.String
	profile.Rol = rol.String
	if ueID.Valid {
		v := int(ueID.Int32)
		profile.UeID = &v
	}
	if ultimoAcceso.Valid {
		s := ultimoAcceso.Time.Format(time.RFC3339)
		profile.UltimoAcceso = &s
	}
	return c.JSON(profile)
}
