package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Post struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Category    string             `bson:"category" json:"category"`
	Description string             `bson:"description" json:"description"`
	Thumbnail   string             `bson:"thumbnail" json:"thumbnail"`

	// Creator references the authoring user and never changes after insert.
	Creator primitive.ObjectID `bson:"creator" json:"creator"`

	CreatedAt int64 `bson:"createdAt" json:"createdAt"`
	UpdatedAt int64 `bson:"updatedAt" json:"updatedAt"`
}
