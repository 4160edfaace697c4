package handlers

import (
	"errors"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/bruniv-dev/wanderframes/internal/auth"
	"github.com/bruniv-dev/wanderframes/internal/middleware"
	"github.com/bruniv-dev/wanderframes/internal/services"
)

// UserHandler serves every /user route. All collaborators are injected.
type UserHandler struct {
	users   *services.UserService
	deleter *services.AccountDeleter
	tokens  *auth.TokenService
	images  services.ImageStore
	log     *zap.Logger
}

func NewUserHandler(users *services.UserService, deleter *services.AccountDeleter, tokens *auth.TokenService, images services.ImageStore, log *zap.Logger) *UserHandler {
	return &UserHandler{users: users, deleter: deleter, tokens: tokens, images: images, log: log}
}

// setTokenCookie attaches the session credential the same way the frontend
// expects it: HTTP-only, cross-site, one hour.
func setTokenCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.TokenTTL.Seconds()),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "None",
	})
}

func clearTokenCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "None",
	})
}

func (h *UserHandler) Signup(c *fiber.Ctx) error {
	var in services.SignupInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}
	if in.FirstName == "" || in.LastName == "" || in.Username == "" || in.Email == "" ||
		in.Password == "" || in.SecurityQuestion == "" || in.SecurityAnswer == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "All fields are required"})
	}

	user, err := h.users.Signup(c.Context(), in)
	if err != nil {
		if errors.Is(err, services.ErrUsernameTaken) || errors.Is(err, services.ErrEmailTaken) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
		}
		h.log.Error("signup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Internal server error"})
	}

	token, err := h.tokens.Issue(user.ID.Hex(), user.IsAdmin)
	if err != nil {
		h.log.Error("failed to issue token", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Internal server error"})
	}
	setTokenCookie(c, token)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User created successfully",
		"userId":  user.ID.Hex(),
		"isAdmin": user.IsAdmin,
		"token":   token,
	})
}

func (h *UserHandler) Login(c *fiber.Ctx) error {
	var req struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil || req.Identifier == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "All fields are required"})
	}

	user, err := h.users.Login(c.Context(), req.Identifier, req.Password)
	switch {
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "No user found with the given username or email."})
	case errors.Is(err, services.ErrBadCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Incorrect password"})
	case err != nil:
		h.log.Error("login failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Internal server error"})
	}

	token, err := h.tokens.Issue(user.ID.Hex(), user.IsAdmin)
	if err != nil {
		h.log.Error("failed to issue token", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Internal server error"})
	}
	setTokenCookie(c, token)

	return c.JSON(fiber.Map{
		"userId":     user.ID.Hex(),
		"isAdmin":    user.IsAdmin,
		"message":    "Login successful",
		"isLoggedIn": true,
		"token":      token,
	})
}

// Logout only clears the client-held cookie. There is no server-side
// revocation list, so an already-captured token stays valid until expiry.
func (h *UserHandler) Logout(c *fiber.Ctx) error {
	clearTokenCookie(c)
	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}

func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.users.ListUsers(c.Context())
	if err != nil {
		h.log.Error("failed to list users", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Unexpected Error"})
	}
	return c.JSON(fiber.Map{"users": users})
}

func (h *UserHandler) GetByID(c *fiber.Ctx) error {
	user, err := h.users.FindByID(c.Context(), c.Params("userId"))
	if errors.Is(err, services.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "User not found"})
	}
	if err != nil {
		h.log.Error("failed to get user", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to get user"})
	}
	return c.JSON(user)
}

// GetByToken returns the identity decoded from the caller's own credential.
func (h *UserHandler) GetByToken(c *fiber.Ctx) error {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Not authenticated"})
	}
	return c.JSON(fiber.Map{"userId": ident.UserID, "isAdmin": ident.IsAdmin})
}

func (h *UserHandler) Profile(c *fiber.Ctx) error {
	user, err := h.users.Profile(c.Context(), c.Params("userId"))
	if errors.Is(err, services.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "User not found"})
	}
	if err != nil {
		h.log.Error("failed to fetch profile", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to fetch user profile"})
	}
	return c.JSON(fiber.Map{"user": user})
}

func (h *UserHandler) UserPosts(c *fiber.Ctx) error {
	posts, err := h.users.PostsByUser(c.Context(), c.Params("userId"))
	if errors.Is(err, services.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "User not found"})
	}
	if err != nil {
		h.log.Error("failed to get user posts", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to get user posts"})
	}
	return c.JSON(fiber.Map{"posts": posts})
}

// UpdateProfile applies the multipart form fields and, when a profileImage
// file is attached, uploads it to object storage first.
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	update := services.ProfileUpdate{
		Bio:       c.FormValue("bio"),
		Username:  c.FormValue("username"),
		FirstName: c.FormValue("firstName"),
		LastName:  c.FormValue("lastName"),
	}

	if fileHeader, err := c.FormFile("profileImage"); err == nil {
		file, err := fileHeader.Open()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Failed to read profile image"})
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Failed to read profile image"})
		}
		url, _, err := h.images.Upload(c.Context(), data, fileHeader.Filename, fileHeader.Header.Get("Content-Type"))
		if err != nil {
			h.log.Error("profile image upload failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Server error"})
		}
		update.ProfileImage = url
	}

	user, err := h.users.UpdateProfile(c.Context(), c.Params("userId"), update)
	if errors.Is(err, services.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "User not found"})
	}
	if err != nil {
		h.log.Error("profile update failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Server error"})
	}
	return c.JSON(fiber.Map{"message": "Profile updated successfully", "user": user})
}

// DeleteAccount runs the cascading deletion: the user document and every post
// they own go in one atomic transaction.
func (h *UserHandler) DeleteAccount(c *fiber.Ctx) error {
	err := h.deleter.DeleteAccount(c.Context(), c.Params("userId"))
	if errors.Is(err, services.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "User not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Unexpected Error Occurred"})
	}
	return c.JSON(fiber.Map{"message": "User and associated posts deleted successfully"})
}

func (h *UserHandler) ToggleFavorite(c *fiber.Ctx) error {
	var req struct {
		UserID string `json:"userId"`
		PostID string `json:"postId"`
	}
	if err := c.BodyParser(&req); err != nil || req.UserID == "" || req.PostID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "userId and postId are required"})
	}

	favorites, err := h.users.ToggleFavorite(c.Context(), req.UserID, req.PostID)
	if errors.Is(err, services.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "User not found"})
	}
	if err != nil {
		h.log.Error("failed to toggle favorite", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to toggle favorite"})
	}
	return c.JSON(fiber.Map{"favorites": favorites})
}

func (h *UserHandler) Favorites(c *fiber.Ctx) error {
	favorites, err := h.users.Favorites(c.Context(), c.Params("userId"))
	if errors.Is(err, services.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "User not found"})
	}
	if err != nil {
		h.log.Error("failed to get favorites", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to get favorites"})
	}
	return c.JSON(fiber.Map{"favorites": favorites})
}

func (h *UserHandler) ResetPassword(c *fiber.Ctx) error {
	var req struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}

	err := h.users.ResetPassword(c.Context(), c.Params("userId"), req.OldPassword, req.NewPassword)
	switch {
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "User not found. Invalid username or password"})
	case errors.Is(err, services.ErrBadCredentials):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Incorrect old password"})
	case err != nil:
		h.log.Error("password reset failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to reset password"})
	}
	return c.JSON(fiber.Map{"message": "Password reset successful"})
}

func (h *UserHandler) UpdateRole(c *fiber.Ctx) error {
	var req struct {
		IsAdmin bool   `json:"isAdmin"`
		Role    string `json:"role"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}

	user, err := h.users.UpdateRole(c.Context(), c.Params("userId"), req.IsAdmin, req.Role)
	if errors.Is(err, services.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "User not found"})
	}
	if err != nil {
		h.log.Error("role update failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Server error"})
	}
	return c.JSON(user)
}

func (h *UserHandler) CheckUsername(c *fiber.Ctx) error {
	username := c.Params("username")
	if username == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Username is required"})
	}
	available, err := h.users.UsernameAvailable(c.Context(), username)
	if err != nil {
		h.log.Error("username check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Server error"})
	}
	return c.JSON(fiber.Map{"isAvailable": available})
}

func (h *UserHandler) RequestReset(c *fiber.Ctx) error {
	var req struct {
		Identifier string `json:"identifier"`
	}
	if err := c.BodyParser(&req); err != nil || req.Identifier == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Username or Email is required"})
	}

	question, userID, err := h.users.RequestReset(c.Context(), req.Identifier)
	if errors.Is(err, services.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "User not found"})
	}
	if err != nil {
		h.log.Error("reset request failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Server error"})
	}
	return c.JSON(fiber.Map{"securityQuestion": question, "userId": userID})
}

func (h *UserHandler) VerifySecurityAnswer(c *fiber.Ctx) error {
	var req struct {
		Identifier     string `json:"identifier"`
		SecurityAnswer string `json:"securityAnswer"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}

	isCorrect, err := h.users.VerifySecurityAnswer(c.Context(), req.Identifier, req.SecurityAnswer)
	if errors.Is(err, services.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Invalid username or email"})
	}
	if err != nil {
		h.log.Error("security answer check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Internal server error"})
	}
	return c.JSON(fiber.Map{"isCorrect": isCorrect})
}

func (h *UserHandler) ForgotPasswordReset(c *fiber.Ctx) error {
	var req struct {
		NewPassword string `json:"newPassword"`
	}
	if err := c.BodyParser(&req); err != nil || req.NewPassword == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "New password is required"})
	}

	err := h.users.ForcePassword(c.Context(), c.Params("userId"), req.NewPassword)
	if errors.Is(err, services.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "User not found"})
	}
	if err != nil {
		h.log.Error("forgot-password reset failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to reset password"})
	}
	return c.JSON(fiber.Map{"message": "Password reset successful"})
}

// ValidateToken checks a token supplied in the JSON body, for clients probing
// whether their stored credential is still usable.
func (h *UserHandler) ValidateToken(c *fiber.Ctx) error {
	var req struct {
		Token string `json:"token"`
	}
	if err := c.BodyParser(&req); err != nil || req.Token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"isValid": false, "message": "No token provided"})
	}

	claims, err := h.tokens.Verify(req.Token)
	if err != nil {
		if errors.Is(err, auth.ErrExpired) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"isValid": false, "message": "Token expired"})
		}
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"isValid": false, "message": "Invalid token"})
	}
	return c.JSON(fiber.Map{"isValid": true, "userId": claims.UserID, "isAdmin": claims.IsAdmin})
}
