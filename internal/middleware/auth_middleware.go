// Package middleware holds the authentication and authorization chain run
// ahead of protected handlers: the token authenticator first, then per-route
// guards, each either calling the next stage or terminating the request.
package middleware

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/bruniv-dev/wanderframes/internal/auth"
	"github.com/bruniv-dev/wanderframes/internal/models"
	"github.com/bruniv-dev/wanderframes/internal/services"
)

const identityKey = "identity"

// Identity is the authenticated subject attached to the request after the
// token authenticator succeeds.
type Identity struct {
	UserID  string
	IsAdmin bool
}

// UserFinder is the storage read the authenticator needs to confirm the
// credential's subject still exists.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// Authenticator validates the "token" cookie on every protected request.
type Authenticator struct {
	tokens *auth.TokenService
	users  UserFinder
}

func NewAuthenticator(tokens *auth.TokenService, users UserFinder) *Authenticator {
	return &Authenticator{tokens: tokens, users: users}
}

// RequireAuth extracts and verifies the credential, confirms the referenced
// user still exists, and attaches the identity for downstream guards and
// handlers. A token for a deleted-but-not-yet-expired user is rejected here.
func (a *Authenticator) RequireAuth(c *fiber.Ctx) error {
	tokenString := c.Cookies("token")
	if tokenString == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "No token provided."})
	}

	claims, err := a.tokens.Verify(tokenString)
	if err != nil {
		if errors.Is(err, auth.ErrExpired) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Token expired, please log in again."})
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "Invalid token."})
	}

	if _, err := a.users.FindByID(c.Context(), claims.UserID); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "User not found, authentication failed."})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Internal server error"})
	}

	c.Locals(identityKey, Identity{UserID: claims.UserID, IsAdmin: claims.IsAdmin})
	return c.Next()
}

// IdentityFrom returns the identity attached by RequireAuth.
func IdentityFrom(c *fiber.Ctx) (Identity, bool) {
	ident, ok := c.Locals(identityKey).(Identity)
	return ident, ok
}
