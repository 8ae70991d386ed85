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

func (d *DB) ListPosts(ctx context.Context, q models.PostQuery) ([]models.Post, error) {
	filter := searchFilter("tag", q.Search)

	if q.Popular {
		cursor, err := d.Posts.Aggregate(ctx, popularPipeline(filter, q.Page))
		if err != nil {
			return nil, fmt.Errorf("aggregate popular posts: %w", err)
		}
		return decodeAll[models.Post](ctx, cursor)
	}

	cursor, err := d.Posts.Find(ctx, filter, pageOptions(q.Page, newestFirst))
	if err != nil {
		return nil, fmt.Errorf("find posts: %w", err)
	}
	return decodeAll[models.Post](ctx, cursor)
}

func (d *DB) CountPosts(ctx context.Context, search string) (int64, error) {
	return d.Posts.CountDocuments(ctx, searchFilter("tag", search))
}

func (d *DB) CountPostsByAuthor(ctx context.Context, email string) (int64, error) {
	return d.Posts.CountDocuments(ctx, bson.M{"authorInfo.email": email})
}

func (d *DB) GetPost(ctx context.Context, id primitive.ObjectID) (models.Post, error) {
	var post models.Post
	err := d.Posts.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	return post, translate(err)
}

func (d *DB) CreatePost(ctx context.Context, post *models.Post) (primitive.ObjectID, error) {
	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	if post.Date.IsZero() {
		post.Date = time.Now().UTC()
	}
	post.VoteDifference = nil

	if _, err := d.Posts.InsertOne(ctx, post); err != nil {
		return primitive.NilObjectID, translate(err)
	}
	return post.ID, nil
}

// IncrementVote adds exactly one to the counter named by kind in a single
// $inc, so concurrent votes never lose updates.
func (d *DB) IncrementVote(ctx context.Context, id primitive.ObjectID, kind models.VoteKind) (models.UpdateResult, error) {
	res, err := d.Posts.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{kind.Field(): 1}},
	)
	if err != nil {
		return models.UpdateResult{}, err
	}
	return models.NewUpdateResult(res), nil
}

func (d *DB) ListPostsByAuthor(ctx context.Context, email string, ascending bool) ([]models.Post, error) {
	sort := newestFirst
	if ascending {
		sort = oldestFirst
	}
	cursor, err := d.Posts.Find(ctx, bson.M{"authorInfo.email": email}, options.Find().SetSort(sort))
	if err != nil {
		return nil, fmt.Errorf("find posts by author: %w", err)
	}
	return decodeAll[models.Post](ctx, cursor)
}

func (d *DB) DeletePost(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := d.Posts.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
