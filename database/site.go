package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"talkthreads/models"
)

func (d *DB) ListAnnouncements(ctx context.Context) ([]models.Announcement, error) {
	cursor, err := d.Announcements.Find(ctx, bson.M{}, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, fmt.Errorf("find announcements: %w", err)
	}
	return decodeAll[models.Announcement](ctx, cursor)
}

func (d *DB) CountAnnouncements(ctx context.Context) (int64, error) {
	return d.Announcements.CountDocuments(ctx, bson.M{})
}

func (d *DB) CreateAnnouncement(ctx context.Context, a *models.Announcement) (primitive.ObjectID, error) {
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	if a.Date.IsZero() {
		a.Date = time.Now().UTC()
	}
	if _, err := d.Announcements.InsertOne(ctx, a); err != nil {
		return primitive.NilObjectID, translate(err)
	}
	return a.ID, nil
}

func (d *DB) ListTags(ctx context.Context) ([]models.Tag, error) {
	cursor, err := d.Tags.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find tags: %w", err)
	}
	return decodeAll[models.Tag](ctx, cursor)
}

func (d *DB) CreateTag(ctx context.Context, t *models.Tag) (primitive.ObjectID, error) {
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	if _, err := d.Tags.InsertOne(ctx, t); err != nil {
		return primitive.NilObjectID, translate(err)
	}
	return t.ID, nil
}

// Stats counts the documents of each collection at call time. The three
// counts run one after another and are not a consistent snapshot.
func (d *DB) Stats(ctx context.Context) (models.AdminStats, error) {
	var stats models.AdminStats
	var err error

	if stats.UsersCount, err = d.Users.CountDocuments(ctx, bson.M{}); err != nil {
		return stats, fmt.Errorf("count users: %w", err)
	}
	if stats.PostsCount, err = d.Posts.CountDocuments(ctx, bson.M{}); err != nil {
		return stats, fmt.Errorf("count posts: %w", err)
	}
	if stats.CommentsCount, err = d.Comments.CountDocuments(ctx, bson.M{}); err != nil {
		return stats, fmt.Errorf("count comments: %w", err)
	}
	return stats, nil
}
