package database

import (
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"talkthreads/models"
)

// searchFilter matches documents whose field contains search, ignoring case.
// An empty search matches everything.
func searchFilter(field, search string) bson.M {
	search = strings.TrimSpace(search)
	if search == "" {
		return bson.M{}
	}
	return bson.M{field: bson.M{"$regex": regexp.QuoteMeta(search), "$options": "i"}}
}

func pageOptions(page models.Page, sort bson.D) *options.FindOptions {
	return options.Find().
		SetSort(sort).
		SetSkip(page.Skip()).
		SetLimit(page.Limit())
}

var (
	newestFirst = bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}}
	oldestFirst = bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}}
)

// popularPipeline ranks posts by upvote minus downvote, highest first.
func popularPipeline(filter bson.M, page models.Page) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$addFields", Value: bson.D{
			{Key: "voteDifference", Value: bson.D{{Key: "$subtract", Value: bson.A{"$upvote", "$downvote"}}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "voteDifference", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$skip", Value: page.Skip()}},
		{{Key: "$limit", Value: page.Limit()}},
	}
}

// userPatchSet turns the non-nil patch fields into a $set document.
func userPatchSet(p models.UserPatch) bson.M {
	set := bson.M{}
	if p.Role != nil {
		set["role"] = *p.Role
	}
	if p.UserName != nil {
		set["userName"] = *p.UserName
	}
	if p.Photo != nil {
		set["photo"] = *p.Photo
	}
	if p.Badge != nil {
		set["badge"] = *p.Badge
	}
	if p.PremiumUser != nil {
		set["premiumUser"] = *p.PremiumUser
	}
	return set
}
