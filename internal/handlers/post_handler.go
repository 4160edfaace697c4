package handlers

import (
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/bruniv-dev/wanderframes/internal/middleware"
	"github.com/bruniv-dev/wanderframes/internal/services"
)

// PostHandler serves every /post route.
type PostHandler struct {
	posts *services.PostService
	log   *zap.Logger
}

func NewPostHandler(posts *services.PostService, log *zap.Logger) *PostHandler {
	return &PostHandler{posts: posts, log: log}
}

func (h *PostHandler) All(c *fiber.Ctx) error {
	posts, err := h.posts.All(c.Context())
	if err != nil {
		h.log.Error("failed to fetch posts", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to fetch posts"})
	}
	return c.JSON(fiber.Map{"posts": posts})
}

// Add creates a post owned by the authenticated user from a multipart form
// with up to three "images" files.
func (h *PostHandler) Add(c *fiber.Ctx) error {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	in := services.PostInput{
		Location:    c.FormValue("location"),
		SubLocation: c.FormValue("subLocation"),
		LocationURL: c.FormValue("locationUrl"),
		Description: c.FormValue("description"),
		Date:        c.FormValue("date"),
	}
	if in.Location == "" || in.Description == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Location and description are required"})
	}

	var uploads []services.ImageUpload
	if form, err := c.MultipartForm(); err == nil && form != nil {
		files := form.File["images"]
		if len(files) > services.MaxPostImages {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "At most 3 images are allowed"})
		}
		for _, fh := range files {
			f, err := fh.Open()
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Failed to read image"})
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Failed to read image"})
			}
			uploads = append(uploads, services.ImageUpload{
				Data:        data,
				Filename:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
			})
		}
	}

	post, err := h.posts.Add(c.Context(), ident.UserID, in, uploads)
	if err != nil {
		h.log.Error("failed to add post", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to add post"})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Post added successfully", "post": post})
}

func (h *PostHandler) ByID(c *fiber.Ctx) error {
	post, err := h.posts.ByID(c.Context(), c.Params("id"))
	if errors.Is(err, services.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Post not found"})
	}
	if err != nil {
		h.log.Error("failed to fetch post", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to fetch post"})
	}
	return c.JSON(post)
}

func (h *PostHandler) Update(c *fiber.Ctx) error {
	var in services.PostInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid request body"})
	}

	post, err := h.posts.Update(c.Context(), c.Params("id"), in)
	if errors.Is(err, services.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Post not found"})
	}
	if err != nil {
		h.log.Error("failed to update post", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to update post"})
	}
	return c.JSON(fiber.Map{"message": "Post updated successfully", "post": post})
}

func (h *PostHandler) Delete(c *fiber.Ctx) error {
	err := h.posts.Delete(c.Context(), c.Params("id"))
	if errors.Is(err, services.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Post not found"})
	}
	if err != nil {
		h.log.Error("failed to delete post", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to delete post"})
	}
	return c.JSON(fiber.Map{"message": "Post deleted successfully"})
}
