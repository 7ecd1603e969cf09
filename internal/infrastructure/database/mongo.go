package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names shared by the Mongo* repositories.
const (
	CollectionConversations = "conversations"
	CollectionMessages      = "messages"
	CollectionMeetings      = "meetings"
	CollectionMembers       = "workspace_members"
)

// ConnectMongo dials MongoDB at uri, pings it, and returns the named database.
// The returned client must be disconnected by the caller.
func ConnectMongo(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Database, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, nil, errors.New("mongo: empty URI")
	}
	if strings.TrimSpace(database) == "" {
		return nil, nil, errors.New("mongo: empty database name")
	}

	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(5 * time.Second).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo: ping: %w", err)
	}
	return client, client.Database(database), nil
}

// EnsureMongoIndexes creates the unique and lookup indexes the repositories rely on.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		CollectionConversations: {
			{
				Keys:    bson.D{{Key: "workspace_id", Value: 1}, {Key: "pair_key", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("workspace_pair_uq"),
			},
		},
		CollectionMessages: {
			{
				Keys:    bson.D{{Key: "conversation_id", Value: 1}, {Key: "sender_id", Value: 1}, {Key: "status", Value: 1}},
				Options: options.Index().SetName("conversation_sender_status"),
			},
			{
				Keys:    bson.D{{Key: "conversation_id", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("conversation_created"),
			},
		},
		CollectionMeetings: {
			{
				Keys:    bson.D{{Key: "meeting_id", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("meeting_id_uq"),
			},
		},
		CollectionMembers: {
			{
				Keys:    bson.D{{Key: "workspace_id", Value: 1}, {Key: "user_id", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("workspace_user_uq"),
			},
		},
	}
	for coll, models := range specs {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("mongo: create indexes on %s: %w", coll, err)
		}
	}
	return nil
}
