package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AuthorInfo struct {
	Name  string `bson:"name,omitempty" json:"name,omitempty"`
	Email string `bson:"email" json:"email"`
	Image string `bson:"image,omitempty" json:"image,omitempty"`
}

type Post struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	AuthorInfo  AuthorInfo         `bson:"authorInfo" json:"authorInfo"`
	Title       string             `bson:"title,omitempty" json:"title,omitempty"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Tag         string             `bson:"tag" json:"tag"`
	Date        time.Time          `bson:"date" json:"date"`
	UpVote      int64              `bson:"upvote" json:"upvote"`
	DownVote    int64              `bson:"downvote" json:"downvote"`

	// Only set on popular listings.
	VoteDifference *int64 `bson:"voteDifference,omitempty" json:"voteDifference,omitempty"`
}

// Score is the ranking value used by popular listings.
func (p Post) Score() int64 {
	return p.UpVote - p.DownVote
}
