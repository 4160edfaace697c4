package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/bruniv-dev/wanderframes/internal/auth"
	"github.com/bruniv-dev/wanderframes/internal/config"
	"github.com/bruniv-dev/wanderframes/internal/db"
	"github.com/bruniv-dev/wanderframes/internal/handlers"
	"github.com/bruniv-dev/wanderframes/internal/logger"
	"github.com/bruniv-dev/wanderframes/internal/middleware"
	"github.com/bruniv-dev/wanderframes/internal/services"
	"github.com/bruniv-dev/wanderframes/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg := config.Load()
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	zapLogger, err := logger.New()
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	mongoClient, err := db.Connect(context.Background(), cfg.MongoURI)
	if err != nil {
		zapLogger.Fatal("MongoDB connection failed", zap.Error(err))
	}
	database := mongoClient.Database(cfg.MongoDB)
	zapLogger.Info("connected to MongoDB", zap.String("db", cfg.MongoDB))

	objectStore, err := storage.NewObjectStore(cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3UseSSL)
	if err != nil {
		zapLogger.Fatal("object storage connection failed", zap.Error(err))
	}
	zapLogger.Info("connected to object storage", zap.String("bucket", cfg.S3Bucket))

	// All collaborators are built here once and handed down; nothing below
	// reaches for globals.
	tokens := auth.NewTokenService(cfg.JWTSecret)
	userService := services.NewUserService(database, zapLogger)
	postService := services.NewPostService(database, objectStore, zapLogger)
	accountDeleter := services.NewAccountDeleter(database, mongoClient, zapLogger)

	authenticator := middleware.NewAuthenticator(tokens, userService)
	guards := middleware.NewGuards(postService)

	userHandler := handlers.NewUserHandler(userService, accountDeleter, tokens, objectStore, zapLogger)
	postHandler := handlers.NewPostHandler(postService, zapLogger)

	app := fiber.New()
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{AllowCredentials: true}))

	// User routes
	user := app.Group("/user")
	user.Get("/", userHandler.ListUsers)
	user.Post("/signup", userHandler.Signup)
	user.Post("/login", userHandler.Login)
	user.Get("/check-username/:username", userHandler.CheckUsername)
	user.Post("/requestReset", userHandler.RequestReset)
	user.Post("/verifySecurityAnswer", userHandler.VerifySecurityAnswer)
	user.Post("/forgot-password-reset/:userId", userHandler.ForgotPasswordReset)
	user.Post("/validate-token", userHandler.ValidateToken)

	user.Get("/by-token/me", authenticator.RequireAuth, userHandler.GetByToken)
	user.Post("/logout", authenticator.RequireAuth, userHandler.Logout)
	user.Get("/profile/:userId", authenticator.RequireAuth, userHandler.Profile)
	user.Get("/posts/:userId", authenticator.RequireAuth, userHandler.UserPosts)
	user.Post("/toggleFavorite", authenticator.RequireAuth, userHandler.ToggleFavorite)
	user.Get("/favorites/:userId", authenticator.RequireAuth, userHandler.Favorites)
	user.Post("/reset-password/:userId", authenticator.RequireAuth, userHandler.ResetPassword)
	user.Put("/:userId/isAdmin", authenticator.RequireAuth, guards.AdminOnly, userHandler.UpdateRole)
	user.Put("/:userId", authenticator.RequireAuth, guards.ProfileOwnerOrAdmin, userHandler.UpdateProfile)
	user.Delete("/:userId", authenticator.RequireAuth, guards.ProfileOwnerOrAdmin, userHandler.DeleteAccount)
	user.Get("/:userId", authenticator.RequireAuth, userHandler.GetByID)

	// Post routes
	post := app.Group("/post")
	post.Get("/", postHandler.All)
	post.Post("/addPost", authenticator.RequireAuth, postHandler.Add)
	post.Get("/:id", authenticator.RequireAuth, postHandler.ByID)
	post.Put("/:id", authenticator.RequireAuth, guards.PostOwnerOrAdmin, postHandler.Update)
	post.Delete("/:id", authenticator.RequireAuth, guards.PostOwnerOrAdmin, postHandler.Delete)

	zapLogger.Info("starting server", zap.String("port", cfg.Port))
	if err := app.Listen(":" + cfg.Port); err != nil {
		zapLogger.Fatal("server stopped", zap.Error(err))
	}
}
