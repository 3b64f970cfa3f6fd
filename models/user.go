package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// User is a stored account document. Password carries the bcrypt hash and
// is bson-only so it can never appear in a JSON response.
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name     string             `bson:"name" json:"name"`
	Email    string             `bson:"email" json:"email"`
	Password string             `bson:"password" json:"-"`
	Avatar   string             `bson:"avatar,omitempty" json:"avatar,omitempty"`

	// Posts is a denormalized count of posts authored by this user.
	Posts int64 `bson:"posts" json:"posts"`

	CreatedAt int64 `bson:"createdAt" json:"createdAt"`
	UpdatedAt int64 `bson:"updatedAt" json:"updatedAt"`
}
