package middleware

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/bruniv-dev/wanderframes/internal/models"
	"github.com/bruniv-dev/wanderframes/internal/services"
)

// PostFinder is the storage read the post guard needs.
type PostFinder interface {
	ByID(ctx context.Context, id string) (*models.Post, error)
}

// Guards are the pure authorization predicates run after RequireAuth. Each
// reads current storage state at most once and never mutates anything.
type Guards struct {
	posts PostFinder
}

func NewGuards(posts PostFinder) *Guards {
	return &Guards{posts: posts}
}

// PostOwnerOrAdmin loads the post named by the :id route parameter and lets
// the request through only for its owner or an admin.
func (g *Guards) PostOwnerOrAdmin(c *fiber.Ctx) error {
	ident, ok := IdentityFrom(c)
	if !ok {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	post, err := g.posts.ByID(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	if post.User.Hex() != ident.UserID && !ident.IsAdmin {
		return c.SendStatus(fiber.StatusForbidden)
	}
	return c.Next()
}

// ProfileOwnerOrAdmin compares the :userId route parameter against the
// authenticated subject; only the profile's owner or an admin may continue.
func (g *Guards) ProfileOwnerOrAdmin(c *fiber.Ctx) error {
	ident, ok := IdentityFrom(c)
	if !ok {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	if c.Params("userId") != ident.UserID && !ident.IsAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "You do not have permission to update this profile.",
		})
	}
	return c.Next()
}

// AdminOnly lets only identities carrying the admin flag through.
func (g *Guards) AdminOnly(c *fiber.Ctx) error {
	ident, ok := IdentityFrom(c)
	if !ok || !ident.IsAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "Forbidden: Admins only."})
	}
	return c.Next()
}
