package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PostImage is one stored image: the public URL handed to clients and the
// object-store key used when the image is removed.
type PostImage struct {
	URL string `bson:"url" json:"url"`
	Key string `bson:"key" json:"-"`
}

type Post struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	User        primitive.ObjectID `bson:"user" json:"user"`
	Images      []PostImage        `bson:"images" json:"images"`
	Location    string             `bson:"location" json:"location"`
	SubLocation string             `bson:"subLocation" json:"subLocation"`
	LocationURL string             `bson:"locationUrl,omitempty" json:"locationUrl,omitempty"`
	Description string             `bson:"description" json:"description"`
	Date        string             `bson:"date" json:"date"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}
