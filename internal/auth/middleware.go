package auth

import (
	"fmt"
	"strings"

	"estate-backend/internal/config"
	"estate-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	CtxUserIDKey   = "user_id"
	CtxUserNameKey = "user_name"
	CtxUserRoleKey = "user_role"
)

func parseToken(cfg *config.Config, tokenStr string) (*JWTCustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &JWTCustomClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}

	claims, ok := token.Claims.(*JWTCustomClaims)
	if !ok {
		return nil, fmt.Errorf("unexpected claims type")
	}
	return claims, nil
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// JWTMiddleware rejects requests without a valid bearer token. Every admin
// route sits behind it.
func JWTMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr, ok := bearerToken(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
		}

		claims, err := parseToken(cfg, tokenStr)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
		}

		c.Locals(CtxUserIDKey, claims.UserID)
		c.Locals(CtxUserNameKey, claims.Email)
		c.Locals(CtxUserRoleKey, claims.Role)
		return c.Next()
	}
}

// OptionalJWTMiddleware identifies staff on public routes without requiring a
// token. An absent or invalid token simply leaves the request anonymous;
// include_hidden and internal notes stay gated on the verified session, never
// on the query string alone.
func OptionalJWTMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tokenStr, ok := bearerToken(c); ok {
			if claims, err := parseToken(cfg, tokenStr); err == nil {
				c.Locals(CtxUserIDKey, claims.UserID)
				c.Locals(CtxUserNameKey, claims.Email)
				c.Locals(CtxUserRoleKey, claims.Role)
			}
		}
		return c.Next()
	}
}

// IsAuthenticated reports whether the session middleware verified a token on
// this request.
func IsAuthenticated(c *fiber.Ctx) bool {
	_, ok := c.Locals(CtxUserRoleKey).(models.UserRole)
	return ok
}

func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(CtxUserRoleKey).(models.UserRole)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "role missing from session")
		}

		for _, r := range allowedRoles {
			if r == role {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "insufficient role for this operation")
	}
}

// CurrentUser returns the id and display name the middleware stored, for
// audit attribution.
func CurrentUser(c *fiber.Ctx) (uint, string) {
	id, _ := c.Locals(CtxUserIDKey).(uint)
	name, _ := c.Locals(CtxUserNameKey).(string)
	return id, name
}
