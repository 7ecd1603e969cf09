package adapter

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"projectsync/internal/infrastructure/database"
	auth "projectsync/internal/pkg/auth/application/domain"
	repository "projectsync/internal/pkg/auth/persistence/repository/port"
)

type MongoMembershipRepository struct {
	coll *mongo.Collection
}

func NewMongoMembershipRepository(db *mongo.Database) *MongoMembershipRepository {
	return &MongoMembershipRepository{coll: db.Collection(database.CollectionMembers)}
}

var _ repository.MembershipRepository = (*MongoMembershipRepository)(nil)

func (r *MongoMembershipRepository) RoleOf(ctx context.Context, workspaceID string, userID string) (auth.Role, error) {
	var m auth.Member
	err := r.coll.FindOne(ctx, bson.M{"workspace_id": workspaceID, "user_id": userID}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", repository.ErrNotMember
	}
	if err != nil {
		return "", err
	}
	return m.Role, nil
}

func (r *MongoMembershipRepository) Upsert(ctx context.Context, m auth.Member) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"workspace_id": m.WorkspaceID, "user_id": m.UserID},
		bson.M{"$set": bson.M{"role": m.Role}},
		options.Update().SetUpsert(true),
	)
	return err
}
