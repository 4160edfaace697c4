// Package config collects the environment-backed settings the server needs,
// read once at startup and passed down explicitly.
package config

import "os"

// Config holds all runtime settings for the WanderFrames backend.
type Config struct {
	Port      string
	MongoURI  string
	MongoDB   string
	JWTSecret string

	// S3-compatible object storage for post and profile images.
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3UseSSL    bool
}

// Load reads the configuration from environment variables, applying the same
// local-development fallbacks the rest of the stack assumes.
func Load() Config {
	return Config{
		Port:        getenv("PORT", "5000"),
		MongoURI:    getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:     getenv("MONGO_DB", "wanderframes"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		S3Endpoint:  getenv("S3_ENDPOINT", "localhost:9000"),
		S3AccessKey: getenv("S3_ACCESS_KEY", "minioadmin"),
		S3SecretKey: getenv("S3_SECRET_KEY", "minioadmin"),
		S3Bucket:    getenv("S3_BUCKET", "wanderframes-images"),
		S3UseSSL:    os.Getenv("S3_USE_SSL") == "true",
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
