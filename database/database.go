package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"talkthreads/models"
)

// DB holds the shared client and the forum collection handles. It is
// created once at startup and passed to the handlers.
type DB struct {
	Client            *mongo.Client
	Posts             *mongo.Collection
	Users             *mongo.Collection
	Tags              *mongo.Collection
	Announcements     *mongo.Collection
	Comments          *mongo.Collection
	PremiumUsers      *mongo.Collection
	Reports           *mongo.Collection
	PushSubscriptions *mongo.Collection
}

// Connect creates the client. The driver connects lazily, so a reachable
// server is not required here; use Ping to check.
func Connect(ctx context.Context, uri, dbName string) (*DB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("error connecting to mongodb: %w", err)
	}
	return New(client, dbName), nil
}

func New(client *mongo.Client, dbName string) *DB {
	db := client.Database(dbName)
	return &DB{
		Client:            client,
		Posts:             db.Collection("posts"),
		Users:             db.Collection("users"),
		Tags:              db.Collection("tags"),
		Announcements:     db.Collection("announcements"),
		Comments:          db.Collection("comments"),
		PremiumUsers:      db.Collection("premiumUsers"),
		Reports:           db.Collection("reports"),
		PushSubscriptions: db.Collection("push_subscriptions"),
	}
}

func (d *DB) Ping(ctx context.Context) error {
	return d.Client.Ping(ctx, nil)
}

func (d *DB) Disconnect(ctx context.Context) error {
	if d == nil || d.Client == nil {
		return nil
	}
	if err := d.Client.Disconnect(ctx); err != nil {
		return err
	}
	log.Println("Disconnected from MongoDB")
	return nil
}

// EnsureIndexes creates the indexes the queries rely on. The unique email
// index is what makes the user upsert safe under concurrent logins.
func (d *DB) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	specs := []struct {
		coll   *mongo.Collection
		models []mongo.IndexModel
	}{
		{d.Users, []mongo.IndexModel{{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_email"),
		}}},
		{d.Posts, []mongo.IndexModel{
			{Keys: bson.D{{Key: "authorInfo.email", Value: 1}}},
			{Keys: bson.D{{Key: "tag", Value: 1}}},
			{Keys: bson.D{{Key: "date", Value: -1}}},
		}},
		{d.Comments, []mongo.IndexModel{{Keys: bson.D{{Key: "post_id", Value: 1}}}}},
		{d.PremiumUsers, []mongo.IndexModel{{
			Keys:    bson.D{{Key: "transactionId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_transaction"),
		}}},
		{d.PushSubscriptions, []mongo.IndexModel{{
			Keys:    bson.D{{Key: "sub.endpoint", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_endpoint"),
		}}},
	}

	for _, s := range specs {
		if _, err := s.coll.Indexes().CreateMany(ctx, s.models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", s.coll.Name(), err)
		}
	}
	return nil
}

// translate maps driver errors onto the model sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return models.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", models.ErrDuplicate, err)
	}
	return err
}

func decodeAll[T any](ctx context.Context, cursor *mongo.Cursor) ([]T, error) {
	defer cursor.Close(ctx)

	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
