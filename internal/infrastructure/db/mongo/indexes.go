package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collectionUsers = "users"
	collectionPosts = "posts"
)

// EnsureIndexes creates the indexes the repositories rely on. The unique
// username index is what turns a taken username into a conflict.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := db.Collection(collectionUsers).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("username_unique"),
	})
	if err != nil {
		return fmt.Errorf("create users index: %w", err)
	}

	_, err = db.Collection(collectionPosts).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "visibility", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "likes_count", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create posts indexes: %w", err)
	}
	return nil
}
