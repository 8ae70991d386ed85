package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Comment struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	PostID     string             `bson:"post_id" json:"post_id"` // plain string, not a reference
	PostTitle  string             `bson:"postTitle,omitempty" json:"postTitle,omitempty"`
	Body       string             `bson:"body" json:"body"`
	AuthorInfo AuthorInfo         `bson:"authorInfo" json:"authorInfo"`
	Date       time.Time          `bson:"date" json:"date"`
}

type Report struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	CommentID    string             `bson:"commentId" json:"commentId"`
	Comment      string             `bson:"comment,omitempty" json:"comment,omitempty"`
	ReporterInfo AuthorInfo         `bson:"reporterInfo" json:"reporterInfo"`
	Reason       string             `bson:"reason" json:"reason"`
	Date         time.Time          `bson:"date" json:"date"`
}
