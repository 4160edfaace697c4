package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bruniv-dev/wanderframes/internal/auth"
	"github.com/bruniv-dev/wanderframes/internal/models"
	"github.com/bruniv-dev/wanderframes/internal/services"
)

const testSecret = "test-secret"

type fakeUserFinder struct {
	users map[string]*models.User
}

func (f *fakeUserFinder) FindByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, services.ErrNotFound
}

// newAuthApp builds a fiber app with one protected route that records
// whether the handler actually ran and which identity it saw.
func newAuthApp(users *fakeUserFinder) (*fiber.App, *bool, *Identity) {
	tokens := auth.NewTokenService(testSecret)
	authenticator := NewAuthenticator(tokens, users)

	handlerRan := false
	var seen Identity

	app := fiber.New()
	app.Get("/protected", authenticator.RequireAuth, func(c *fiber.Ctx) error {
		handlerRan = true
		seen, _ = IdentityFrom(c)
		return c.SendStatus(fiber.StatusOK)
	})
	return app, &handlerRan, &seen
}

func requestWithCookie(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "token", Value: token})
	}
	return req
}

func TestRequireAuthMissingCookie(t *testing.T) {
	app, handlerRan, _ := newAuthApp(&fakeUserFinder{})

	resp, err := app.Test(requestWithCookie(""))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.False(t, *handlerRan)
}

func TestRequireAuthExpiredToken(t *testing.T) {
	app, handlerRan, _ := newAuthApp(&fakeUserFinder{})

	expired := auth.Claims{
		UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, expired).SignedString([]byte(testSecret))
	require.NoError(t, err)

	resp, err := app.Test(requestWithCookie(tokenString))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.False(t, *handlerRan)
}

func TestRequireAuthGarbageToken(t *testing.T) {
	app, handlerRan, _ := newAuthApp(&fakeUserFinder{})

	resp, err := app.Test(requestWithCookie("not-a-token"))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.False(t, *handlerRan)
}

func TestRequireAuthDeletedUser(t *testing.T) {
	// Valid, unexpired credential whose subject no longer exists in storage.
	app, handlerRan, _ := newAuthApp(&fakeUserFinder{users: map[string]*models.User{}})

	token, err := auth.NewTokenService(testSecret).Issue("gone", false)
	require.NoError(t, err)

	resp, err := app.Test(requestWithCookie(token))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.False(t, *handlerRan)
}

func TestRequireAuthSuccessAttachesIdentity(t *testing.T) {
	finder := &fakeUserFinder{users: map[string]*models.User{
		"u1": {Username: "traveler"},
	}}
	app, handlerRan, seen := newAuthApp(finder)

	token, err := auth.NewTokenService(testSecret).Issue("u1", true)
	require.NoError(t, err)

	resp, err := app.Test(requestWithCookie(token))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, *handlerRan)
	assert.Equal(t, Identity{UserID: "u1", IsAdmin: true}, *seen)
}
