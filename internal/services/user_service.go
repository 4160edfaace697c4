package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/bruniv-dev/wanderframes/internal/models"
)

// UserService owns every user-collection operation except account deletion,
// which lives in AccountDeleter because it spans two collections.
type UserService struct {
	users *mongo.Collection
	posts *mongo.Collection
	log   *zap.Logger
}

func NewUserService(db *mongo.Database, log *zap.Logger) *UserService {
	return &UserService{
		users: db.Collection("users"),
		posts: db.Collection("posts"),
		log:   log,
	}
}

// SignupInput carries the required signup fields; handlers validate presence.
type SignupInput struct {
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	Username         string `json:"username"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	SecurityQuestion string `json:"securityQuestion"`
	SecurityAnswer   string `json:"securityAnswer"`
	IsAdmin          bool   `json:"isAdmin"`
	Role             string `json:"role"`
}

// Signup rejects duplicate usernames and emails, hashes the password and
// inserts the new user.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (models.User, error) {
	err := s.users.FindOne(ctx, bson.M{"username": in.Username}).Err()
	if err == nil {
		return models.User{}, ErrUsernameTaken
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, err
	}

	err = s.users.FindOne(ctx, bson.M{"email": in.Email}).Err()
	if err == nil {
		return models.User{}, ErrEmailTaken
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}

	role := in.Role
	if role == "" {
		role = "User"
	}

	user := models.User{
		ID:               primitive.NewObjectID(),
		FirstName:        in.FirstName,
		LastName:         in.LastName,
		Username:         in.Username,
		Email:            in.Email,
		Password:         string(hash),
		SecurityQuestion: in.SecurityQuestion,
		SecurityAnswer:   in.SecurityAnswer,
		IsAdmin:          in.IsAdmin,
		Role:             role,
		Favorites:        []primitive.ObjectID{},
		CreatedAt:        time.Now(),
	}
	if _, err := s.users.InsertOne(ctx, user); err != nil {
		return models.User{}, err
	}
	s.log.Info("user signed up", zap.String("userId", user.ID.Hex()))
	return user, nil
}

// Login authenticates by username or email. Unknown identifier is
// ErrNotFound, wrong password is ErrBadCredentials.
func (s *UserService) Login(ctx context.Context, identifier, password string) (models.User, error) {
	var user models.User
	err := s.users.FindOne(ctx, bson.M{
		"$or": bson.A{bson.M{"email": identifier}, bson.M{"username": identifier}},
	}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return models.User{}, ErrBadCredentials
	}
	return user, nil
}

// FindByID loads a user document. Invalid ids and missing documents both
// report ErrNotFound.
func (s *UserService) FindByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var user models.User
	err = s.users.FindOne(ctx, bson.M{"_id": oid}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsers returns every user document.
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	cursor, err := s.users.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Profile loads a user with the password field projected away.
func (s *UserService) Profile(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	opts := options.FindOne().SetProjection(bson.M{"password": 0})
	var user models.User
	err = s.users.FindOne(ctx, bson.M{"_id": oid}, opts).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// PostsByUser returns all posts owned by the given user, newest first.
func (s *UserService) PostsByUser(ctx context.Context, id string) ([]models.Post, error) {
	if _, err := s.FindByID(ctx, id); err != nil {
		return nil, err
	}
	oid, _ := primitive.ObjectIDFromHex(id)
	opts := options.Find().SetSort(bson.M{"created_at": -1})
	cursor, err := s.posts.Find(ctx, bson.M{"user": oid}, opts)
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

// ToggleFavorite adds the post to the user's favorites if absent, removes it
// if present, and returns the updated list. A single-document update: the
// favorites list never has to stay consistent with another record, so no
// transaction is involved.
func (s *UserService) ToggleFavorite(ctx context.Context, userID, postID string) ([]primitive.ObjectID, error) {
	user, err := s.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	pid, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return nil, ErrNotFound
	}

	isFavorite := false
	for _, fav := range user.Favorites {
		if fav == pid {
			isFavorite = true
			break
		}
	}

	update := bson.M{"$addToSet": bson.M{"favorites": pid}}
	if isFavorite {
		update = bson.M{"$pull": bson.M{"favorites": pid}}
	}
	if _, err := s.users.UpdateOne(ctx, bson.M{"_id": user.ID}, update); err != nil {
		return nil, err
	}

	if isFavorite {
		favorites := make([]primitive.ObjectID, 0, len(user.Favorites))
		for _, fav := range user.Favorites {
			if fav != pid {
				favorites = append(favorites, fav)
			}
		}
		return favorites, nil
	}
	return append(user.Favorites, pid), nil
}

// Favorites resolves the user's favorite post ids to full post documents.
func (s *UserService) Favorites(ctx context.Context, userID string) ([]models.Post, error) {
	user, err := s.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(user.Favorites) == 0 {
		return []models.Post{}, nil
	}
	cursor, err := s.posts.Find(ctx, bson.M{"_id": bson.M{"$in": user.Favorites}})
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

// ProfileUpdate carries the optional profile fields; empty strings leave the
// stored value untouched.
type ProfileUpdate struct {
	Bio          string
	Username     string
	FirstName    string
	LastName     string
	ProfileImage string
}

// UpdateProfile applies the non-empty fields and returns the updated user.
func (s *UserService) UpdateProfile(ctx context.Context, id string, in ProfileUpdate) (*models.User, error) {
	user, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	set := bson.M{}
	if in.Bio != "" {
		set["bio"] = in.Bio
	}
	if in.Username != "" {
		set["username"] = in.Username
	}
	if in.FirstName != "" {
		set["firstName"] = in.FirstName
	}
	if in.LastName != "" {
		set["lastName"] = in.LastName
	}
	if in.ProfileImage != "" {
		set["profileImage"] = in.ProfileImage
	}
	if len(set) > 0 {
		if _, err := s.users.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": set}); err != nil {
			return nil, err
		}
	}
	return s.FindByID(ctx, id)
}

// UpdateRole sets the admin flag and role label.
func (s *UserService) UpdateRole(ctx context.Context, id string, isAdmin bool, role string) (*models.User, error) {
	user, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	update := bson.M{"$set": bson.M{"isAdmin": isAdmin, "role": role}}
	if _, err := s.users.UpdateOne(ctx, bson.M{"_id": user.ID}, update); err != nil {
		return nil, err
	}
	return s.FindByID(ctx, id)
}

// UsernameAvailable reports whether no user holds the given username.
func (s *UserService) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	err := s.users.FindOne(ctx, bson.M{"username": username}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

// RequestReset starts the forgot-password flow: it returns the user's
// security question and id for the given username or email.
func (s *UserService) RequestReset(ctx context.Context, identifier string) (question, userID string, err error) {
	var user models.User
	err = s.users.FindOne(ctx, bson.M{
		"$or": bson.A{bson.M{"email": identifier}, bson.M{"username": identifier}},
	}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", "", ErrNotFound
	}
	if err != nil {
		return "", "", err
	}
	return user.SecurityQuestion, user.ID.Hex(), nil
}

// VerifySecurityAnswer compares the supplied answer against the stored one.
// Answers are stored and compared in plaintext, matching the deployed
// behavior.
func (s *UserService) VerifySecurityAnswer(ctx context.Context, identifier, answer string) (bool, error) {
	var user models.User
	err := s.users.FindOne(ctx, bson.M{
		"$or": bson.A{bson.M{"email": identifier}, bson.M{"username": identifier}},
	}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, err
	}
	return user.SecurityAnswer == answer, nil
}

// ResetPassword verifies the old password before storing the new hash.
func (s *UserService) ResetPassword(ctx context.Context, id, oldPassword, newPassword string) error {
	user, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)) != nil {
		return ErrBadCredentials
	}
	return s.setPassword(ctx, user.ID, newPassword)
}

// ForcePassword stores a new password without checking the old one. Used by
// the forgot-password flow after the security answer was verified.
func (s *UserService) ForcePassword(ctx context.Context, id, newPassword string) error {
	user, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	return s.setPassword(ctx, user.ID, newPassword)
}

func (s *UserService) setPassword(ctx context.Context, id primitive.ObjectID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return err
	}
	_, err = s.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"password": string(hash)}})
	return err
}
