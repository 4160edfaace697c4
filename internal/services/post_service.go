package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/bruniv-dev/wanderframes/internal/models"
)

// MaxPostImages caps the number of images accepted per post.
const MaxPostImages = 3

// ImageStore is the slice of object storage the post service needs.
type ImageStore interface {
	Upload(ctx context.Context, data []byte, filename, contentType string) (url, key string, err error)
	Remove(ctx context.Context, key string) error
}

// ImageUpload is one incoming multipart image, already read into memory.
type ImageUpload struct {
	Data        []byte
	Filename    string
	ContentType string
}

// PostInput carries the post content fields shared by add and update.
type PostInput struct {
	Location    string `json:"location"`
	SubLocation string `json:"subLocation"`
	LocationURL string `json:"locationUrl"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

type PostService struct {
	posts  *mongo.Collection
	images ImageStore
	log    *zap.Logger
}

func NewPostService(db *mongo.Database, images ImageStore, log *zap.Logger) *PostService {
	return &PostService{posts: db.Collection("posts"), images: images, log: log}
}

// Add uploads the images and inserts the post document. Uploaded objects are
// removed again if the insert fails.
func (s *PostService) Add(ctx context.Context, userID string, in PostInput, uploads []ImageUpload) (models.Post, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return models.Post{}, ErrNotFound
	}
	if len(uploads) > MaxPostImages {
		return models.Post{}, fmt.Errorf("at most %d images per post", MaxPostImages)
	}

	stored := make([]models.PostImage, 0, len(uploads))
	for _, up := range uploads {
		url, key, err := s.images.Upload(ctx, up.Data, up.Filename, up.ContentType)
		if err != nil {
			s.removeObjects(stored)
			return models.Post{}, fmt.Errorf("failed to upload image: %w", err)
		}
		stored = append(stored, models.PostImage{URL: url, Key: key})
	}

	post := models.Post{
		ID:          primitive.NewObjectID(),
		User:        oid,
		Images:      stored,
		Location:    in.Location,
		SubLocation: in.SubLocation,
		LocationURL: in.LocationURL,
		Description: in.Description,
		Date:        in.Date,
		CreatedAt:   time.Now(),
	}
	if _, err := s.posts.InsertOne(ctx, post); err != nil {
		s.removeObjects(stored)
		return models.Post{}, err
	}
	s.log.Info("post added", zap.String("postId", post.ID.Hex()), zap.String("userId", userID))
	return post, nil
}

// All returns every post, newest first.
func (s *PostService) All(ctx context.Context) ([]models.Post, error) {
	opts := options.Find().SetSort(bson.M{"created_at": -1})
	cursor, err := s.posts.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// ByID loads one post. Invalid ids and missing documents both report
// ErrNotFound.
func (s *PostService) ByID(ctx context.Context, id string) (*models.Post, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var post models.Post
	err = s.posts.FindOne(ctx, bson.M{"_id": oid}).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// Update replaces the content fields and returns the updated post.
func (s *PostService) Update(ctx context.Context, id string, in PostInput) (*models.Post, error) {
	post, err := s.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	update := bson.M{"$set": bson.M{
		"location":    in.Location,
		"subLocation": in.SubLocation,
		"locationUrl": in.LocationURL,
		"description": in.Description,
	}}
	if _, err := s.posts.UpdateOne(ctx, bson.M{"_id": post.ID}, update); err != nil {
		return nil, err
	}
	return s.ByID(ctx, id)
}

// Delete removes the post document, then removes its stored images
// best-effort. Image cleanup failures are logged, not surfaced: the document
// is already gone and the response must reflect that.
func (s *PostService) Delete(ctx context.Context, id string) error {
	post, err := s.ByID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.posts.DeleteOne(ctx, bson.M{"_id": post.ID}); err != nil {
		return err
	}
	s.removeObjects(post.Images)
	s.log.Info("post deleted", zap.String("postId", id))
	return nil
}

func (s *PostService) removeObjects(images []models.PostImage) {
	for _, img := range images {
		if img.Key == "" {
			continue
		}
		if err := s.images.Remove(context.Background(), img.Key); err != nil {
			s.log.Warn("failed to remove stored image", zap.String("key", img.Key), zap.Error(err))
		}
	}
}
