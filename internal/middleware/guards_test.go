package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/bruniv-dev/wanderframes/internal/models"
	"github.com/bruniv-dev/wanderframes/internal/services"
)

type fakePostFinder struct {
	posts map[string]*models.Post
}

func (f *fakePostFinder) ByID(_ context.Context, id string) (*models.Post, error) {
	if p, ok := f.posts[id]; ok {
		return p, nil
	}
	return nil, services.ErrNotFound
}

// withIdentity stands in for the authenticator: it attaches a fixed identity
// so the guard under test sees an authenticated request.
func withIdentity(ident Identity) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(identityKey, ident)
		return c.Next()
	}
}

func testGuardApp(guard fiber.Handler, ident Identity, path string) (*fiber.App, *bool) {
	handlerRan := false
	app := fiber.New()
	app.All(path, withIdentity(ident), guard, func(c *fiber.Ctx) error {
		handlerRan = true
		return c.SendStatus(fiber.StatusOK)
	})
	return app, &handlerRan
}

func TestPostOwnerOrAdminGuard(t *testing.T) {
	owner := primitive.NewObjectID()
	postID := primitive.NewObjectID()
	finder := &fakePostFinder{posts: map[string]*models.Post{
		postID.Hex(): {ID: postID, User: owner, Location: "Kyoto"},
	}}
	guards := NewGuards(finder)

	tests := []struct {
		name       string
		ident      Identity
		postID     string
		wantStatus int
		wantRan    bool
	}{
		{"owner passes", Identity{UserID: owner.Hex()}, postID.Hex(), fiber.StatusOK, true},
		{"admin passes", Identity{UserID: primitive.NewObjectID().Hex(), IsAdmin: true}, postID.Hex(), fiber.StatusOK, true},
		{"stranger rejected", Identity{UserID: primitive.NewObjectID().Hex()}, postID.Hex(), fiber.StatusForbidden, false},
		{"missing post", Identity{UserID: owner.Hex()}, primitive.NewObjectID().Hex(), fiber.StatusNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, handlerRan := testGuardApp(guards.PostOwnerOrAdmin, tt.ident, "/post/:id")

			req := httptest.NewRequest(http.MethodPut, "/post/"+tt.postID, nil)
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantRan, *handlerRan)
		})
	}
}

func TestProfileOwnerOrAdminGuard(t *testing.T) {
	guards := NewGuards(&fakePostFinder{})

	tests := []struct {
		name       string
		ident      Identity
		target     string
		wantStatus int
	}{
		{"own profile", Identity{UserID: "u1"}, "u1", fiber.StatusOK},
		{"admin on other profile", Identity{UserID: "u2", IsAdmin: true}, "u1", fiber.StatusOK},
		{"other profile rejected", Identity{UserID: "u2"}, "u1", fiber.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := testGuardApp(guards.ProfileOwnerOrAdmin, tt.ident, "/user/:userId")

			req := httptest.NewRequest(http.MethodPut, "/user/"+tt.target, nil)
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestAdminOnlyGuard(t *testing.T) {
	guards := NewGuards(&fakePostFinder{})

	app, handlerRan := testGuardApp(guards.AdminOnly, Identity{UserID: "u1"}, "/admin")
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/admin", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.False(t, *handlerRan)

	app, handlerRan = testGuardApp(guards.AdminOnly, Identity{UserID: "u1", IsAdmin: true}, "/admin")
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/admin", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, *handlerRan)
}

func TestGuardWithoutIdentity(t *testing.T) {
	guards := NewGuards(&fakePostFinder{})

	handlerRan := false
	app := fiber.New()
	app.Put("/post/:id", guards.PostOwnerOrAdmin, func(c *fiber.Ctx) error {
		handlerRan = true
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodPut, "/post/abc", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.False(t, handlerRan)
}
