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

func (d *DB) CreateComment(ctx context.Context, c *models.Comment) (primitive.ObjectID, error) {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if c.Date.IsZero() {
		c.Date = time.Now().UTC()
	}
	if _, err := d.Comments.InsertOne(ctx, c); err != nil {
		return primitive.NilObjectID, translate(err)
	}
	return c.ID, nil
}

func (d *DB) ListComments(ctx context.Context, postID string) ([]models.Comment, error) {
	cursor, err := d.Comments.Find(ctx, bson.M{"post_id": postID}, options.Find().SetSort(oldestFirst))
	if err != nil {
		return nil, fmt.Errorf("find comments: %w", err)
	}
	return decodeAll[models.Comment](ctx, cursor)
}

func (d *DB) CountComments(ctx context.Context, postID string) (int64, error) {
	return d.Comments.CountDocuments(ctx, bson.M{"post_id": postID})
}

// DeleteComment removes only the comment; reports pointing at it stay.
func (d *DB) DeleteComment(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := d.Comments.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (d *DB) CreateReport(ctx context.Context, r *models.Report) (primitive.ObjectID, error) {
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	if r.Date.IsZero() {
		r.Date = time.Now().UTC()
	}
	if _, err := d.Reports.InsertOne(ctx, r); err != nil {
		return primitive.NilObjectID, translate(err)
	}
	return r.ID, nil
}

func (d *DB) ListReports(ctx context.Context) ([]models.Report, error) {
	cursor, err := d.Reports.Find(ctx, bson.M{}, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, fmt.Errorf("find reports: %w", err)
	}
	return decodeAll[models.Report](ctx, cursor)
}

// DeleteReport removes only the report record; the comment stays.
func (d *DB) DeleteReport(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := d.Reports.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
