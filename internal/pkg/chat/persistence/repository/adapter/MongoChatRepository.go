package adapter

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"projectsync/internal/infrastructure/database"
	chat "projectsync/internal/pkg/chat/application/domain"
	repository "projectsync/internal/pkg/chat/persistence/repository/port"
)

// MongoChatRepository stores conversations and messages as documents keyed by uuid strings.
type MongoChatRepository struct {
	conversations *mongo.Collection
	messages      *mongo.Collection
}

func NewMongoChatRepository(db *mongo.Database) *MongoChatRepository {
	return &MongoChatRepository{
		conversations: db.Collection(database.CollectionConversations),
		messages:      db.Collection(database.CollectionMessages),
	}
}

var _ repository.ChatRepository = (*MongoChatRepository)(nil)

func (r *MongoChatRepository) FindConversationByID(ctx context.Context, id string) (*chat.Conversation, error) {
	var c chat.Conversation
	err := r.conversations.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, chat.ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *MongoChatRepository) FindOrCreateConversation(ctx context.Context, workspaceID string, a string, b string) (*chat.Conversation, error) {
	draft, err := chat.NewConversation(workspaceID, a, b, time.Now())
	if err != nil {
		return nil, err
	}
	filter := bson.M{"workspace_id": draft.WorkspaceID, "pair_key": draft.PairKey}
	update := bson.M{"$setOnInsert": bson.M{
		"_id":          uuid.NewString(),
		"participants": draft.ParticipantIDs,
		"created_at":   draft.CreatedAt,
		"updated_at":   draft.UpdatedAt,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var c chat.Conversation
	err = r.conversations.FindOneAndUpdate(ctx, filter, update, opts).Decode(&c)
	if mongo.IsDuplicateKeyError(err) {
		// two upserts raced on the unique index; the document exists now
		err = r.conversations.FindOne(ctx, filter).Decode(&c)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *MongoChatRepository) SaveMessage(ctx context.Context, m chat.Message) (string, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if _, err := r.messages.InsertOne(ctx, m); err != nil {
		return "", err
	}
	return m.ID, nil
}

func (r *MongoChatRepository) SetLastMessage(ctx context.Context, conversationID string, messageID string) error {
	res, err := r.conversations.UpdateOne(ctx,
		bson.M{"_id": conversationID},
		bson.M{"$set": bson.M{"last_message_id": messageID, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return chat.ErrConversationNotFound
	}
	return nil
}

func (r *MongoChatRepository) AdvanceMessageStatus(ctx context.Context, messageID string, to chat.MessageStatus) (*chat.Message, error) {
	var m chat.Message
	err := r.messages.FindOneAndUpdate(ctx,
		bson.M{"_id": messageID, "status": bson.M{"$lt": to}},
		bson.M{"$set": bson.M{"status": to, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&m)
	if err == nil {
		return &m, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	err = r.messages.FindOne(ctx, bson.M{"_id": messageID}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, chat.ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MongoChatRepository) MarkConversationRead(ctx context.Context, conversationID string, authorID string) (int64, error) {
	res, err := r.messages.UpdateMany(ctx,
		bson.M{"conversation_id": conversationID, "sender_id": authorID, "status": bson.M{"$lt": chat.StatusRead}},
		bson.M{"$set": bson.M{"status": chat.StatusRead, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *MongoChatRepository) GetMessagesByConversation(ctx context.Context, conversationID string, limit int, offset int) ([]chat.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))
	cur, err := r.messages.Find(ctx, bson.M{"conversation_id": conversationID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var msgs []chat.Message
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *MongoChatRepository) CountUnread(ctx context.Context, conversationID string, authorID string) (int64, error) {
	return r.messages.CountDocuments(ctx,
		bson.M{"conversation_id": conversationID, "sender_id": authorID, "status": bson.M{"$lt": chat.StatusRead}})
}
