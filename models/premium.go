package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PremiumUser is the membership snapshot written once a payment succeeded.
type PremiumUser struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Email         string             `bson:"email" json:"email"`
	Name          string             `bson:"name,omitempty" json:"name,omitempty"`
	Price         float64            `bson:"price" json:"price"`
	TransactionID string             `bson:"transactionId" json:"transactionId"`
	Date          time.Time          `bson:"date" json:"date"`
}

type AdminStats struct {
	UsersCount    int64 `json:"usersCount"`
	PostsCount    int64 `json:"postsCount"`
	CommentsCount int64 `json:"commentsCount"`
}
