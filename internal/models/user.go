package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID               primitive.ObjectID   `bson:"_id,omitempty" json:"id,omitempty"`
	FirstName        string               `bson:"firstName" json:"firstName"`
	LastName         string               `bson:"lastName" json:"lastName"`
	Username         string               `bson:"username" json:"username"`
	Email            string               `bson:"email" json:"email" validate:"required,email"`
	Password         string               `bson:"password,omitempty" json:"-"`
	SecurityQuestion string               `bson:"securityQuestion" json:"securityQuestion"`
	SecurityAnswer   string               `bson:"securityAnswer,omitempty" json:"-"`
	IsAdmin          bool                 `bson:"isAdmin" json:"isAdmin"`
	Role             string               `bson:"role" json:"role"`
	Bio              string               `bson:"bio,omitempty" json:"bio,omitempty"`
	ProfileImage     string               `bson:"profileImage,omitempty" json:"profileImage,omitempty"`
	Favorites        []primitive.ObjectID `bson:"favorites" json:"favorites"`
	CreatedAt        time.Time            `bson:"created_at" json:"created_at"`
}
