package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Listing categories. An image is only meaningful on HAVE posts, by
// convention rather than constraint.
const (
	TypeNeed = "NEED"
	TypeHave = "HAVE"
)

type Post struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Type      string             `bson:"type" json:"type"`
	Content   string             `bson:"content" json:"content"`
	AuthorID  primitive.ObjectID `bson:"authorId" json:"userId"`
	ImageURL  string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
