package models

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PushSubscription struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Email     string               `bson:"email,omitempty" json:"email,omitempty"`
	Sub       webpush.Subscription `bson:"sub" json:"sub"`
	CreatedAt time.Time            `bson:"createdAt" json:"createdAt"`
}
