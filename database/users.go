package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"talkthreads/models"
)

// UpsertUser inserts the user if no document has its email and otherwise
// leaves the stored document untouched. It returns the stored document and
// whether this call created it. New users always start as regular,
// non-premium members; only the profile fields of user are used.
func (d *DB) UpsertUser(ctx context.Context, user *models.User) (models.User, bool, error) {
	onInsert := bson.M{
		"role":        models.RoleUser,
		"premiumUser": false,
		"timeStamp":   time.Now().UTC(),
	}
	if user.UserName != "" {
		onInsert["userName"] = user.UserName
	}
	if user.Photo != "" {
		onInsert["photo"] = user.Photo
	}

	filter := bson.M{"email": user.Email}
	update := bson.M{"$setOnInsert": onInsert}
	opts := options.Update().SetUpsert(true)

	res, err := d.Users.UpdateOne(ctx, filter, update, opts)
	if mongo.IsDuplicateKeyError(err) {
		// Lost the insert race to a concurrent login; the retry matches it.
		res, err = d.Users.UpdateOne(ctx, filter, update, opts)
	}
	if err != nil {
		return models.User{}, false, fmt.Errorf("upsert user: %w", err)
	}

	stored, err := d.GetUser(ctx, user.Email)
	if err != nil {
		return models.User{}, false, err
	}
	return stored, res.UpsertedCount == 1, nil
}

// UpdateUser merges patch into the user with email, creating it if needed.
func (d *DB) UpdateUser(ctx context.Context, email string, patch models.UserPatch) (models.UpdateResult, error) {
	set := userPatchSet(patch)
	set["timeStamp"] = time.Now().UTC()

	res, err := d.Users.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$set": set},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return models.UpdateResult{}, translate(err)
	}
	return models.NewUpdateResult(res), nil
}

func (d *DB) ListUsers(ctx context.Context, q models.ListQuery) ([]models.User, error) {
	cursor, err := d.Users.Find(ctx,
		searchFilter("userName", q.Search),
		pageOptions(q.Page, bson.D{{Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	return decodeAll[models.User](ctx, cursor)
}

func (d *DB) CountUsers(ctx context.Context, search string) (int64, error) {
	return d.Users.CountDocuments(ctx, searchFilter("userName", search))
}

func (d *DB) GetUser(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := d.Users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	return user, translate(err)
}

// UpgradePremium records the membership and flags the user as premium in
// one transaction. Standalone servers cannot run transactions; there the
// writes run in order and the membership record is removed again if the
// user update fails.
func (d *DB) UpgradePremium(ctx context.Context, p *models.PremiumUser) (primitive.ObjectID, error) {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.Date.IsZero() {
		p.Date = time.Now().UTC()
	}

	sess, err := d.Client.StartSession()
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, d.writePremium(sc, p)
	})
	if err == nil {
		return p.ID, nil
	}
	if !transactionsUnsupported(err) {
		return primitive.NilObjectID, err
	}

	log.Printf("[UpgradePremium] transactions unavailable, applying writes in order: %v", err)
	if err := d.writePremium(ctx, p); err != nil {
		if _, delErr := d.PremiumUsers.DeleteOne(ctx, bson.M{"_id": p.ID}); delErr != nil {
			log.Printf("[UpgradePremium] failed to remove premium record %s: %v", p.ID.Hex(), delErr)
		}
		return primitive.NilObjectID, err
	}
	return p.ID, nil
}

func (d *DB) writePremium(ctx context.Context, p *models.PremiumUser) error {
	if _, err := d.PremiumUsers.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("insert premium user: %w", translate(err))
	}

	res, err := d.Users.UpdateOne(ctx,
		bson.M{"email": p.Email},
		bson.M{"$set": bson.M{"premiumUser": true, "timeStamp": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("flag user premium: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("flag user premium: %w", models.ErrNotFound)
	}
	return nil
}

// transactionsUnsupported reports the IllegalOperation error a standalone
// mongod returns for transaction numbers.
func transactionsUnsupported(err error) bool {
	var se mongo.ServerError
	return errors.As(err, &se) && se.HasErrorCode(20)
}
