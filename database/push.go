package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"talkthreads/models"
)

// SavePushSubscription upserts the subscription keyed by its endpoint.
func (d *DB) SavePushSubscription(ctx context.Context, sub *models.PushSubscription) error {
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	_, err := d.PushSubscriptions.UpdateOne(ctx,
		bson.M{"sub.endpoint": sub.Sub.Endpoint},
		bson.M{"$set": bson.M{
			"email":     sub.Email,
			"sub":       sub.Sub,
			"createdAt": sub.CreatedAt,
		}},
		options.Update().SetUpsert(true),
	)
	return translate(err)
}

func (d *DB) ListPushSubscriptions(ctx context.Context) ([]models.PushSubscription, error) {
	cursor, err := d.PushSubscriptions.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find push subscriptions: %w", err)
	}
	return decodeAll[models.PushSubscription](ctx, cursor)
}

func (d *DB) DeletePushSubscription(ctx context.Context, endpoint string) error {
	_, err := d.PushSubscriptions.DeleteOne(ctx, bson.M{"sub.endpoint": endpoint})
	return err
}
