package adapter

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"projectsync/internal/infrastructure/database"
	meeting "projectsync/internal/pkg/meeting/application/domain"
	repository "projectsync/internal/pkg/meeting/persistence/repository/port"
)

type MongoMeetingRepository struct {
	coll *mongo.Collection
}

func NewMongoMeetingRepository(db *mongo.Database) *MongoMeetingRepository {
	return &MongoMeetingRepository{coll: db.Collection(database.CollectionMeetings)}
}

var _ repository.MeetingRepository = (*MongoMeetingRepository)(nil)

func (r *MongoMeetingRepository) FindByMeetingID(ctx context.Context, meetingID string) (*meeting.Meeting, error) {
	var m meeting.Meeting
	err := r.coll.FindOne(ctx, bson.M{"meeting_id": meetingID}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, meeting.ErrMeetingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MongoMeetingRepository) Create(ctx context.Context, m meeting.Meeting) (string, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if _, err := r.coll.InsertOne(ctx, m); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", repository.ErrDuplicateMeetingID
		}
		return "", err
	}
	return m.ID, nil
}
