package repository

import (
	"context"
	"errors"

	meeting "projectsync/internal/pkg/meeting/application/domain"
)

// ErrDuplicateMeetingID is returned by Create when the shareable id is already taken.
var ErrDuplicateMeetingID = errors.New("meeting: shareable id already in use")

// MeetingRepository defines persistence operations for meetings.
type MeetingRepository interface {
	FindByMeetingID(ctx context.Context, meetingID string) (*meeting.Meeting, error)
	Create(ctx context.Context, m meeting.Meeting) (string, error)
}
