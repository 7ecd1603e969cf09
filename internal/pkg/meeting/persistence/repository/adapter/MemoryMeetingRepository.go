package adapter

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	meeting "projectsync/internal/pkg/meeting/application/domain"
	repository "projectsync/internal/pkg/meeting/persistence/repository/port"
)

type MemoryMeetingRepository struct {
	mu       sync.RWMutex
	meetings map[string]meeting.Meeting // keyed by shareable id
}

func NewMemoryMeetingRepository() *MemoryMeetingRepository {
	return &MemoryMeetingRepository{meetings: make(map[string]meeting.Meeting)}
}

var _ repository.MeetingRepository = (*MemoryMeetingRepository)(nil)

func (r *MemoryMeetingRepository) FindByMeetingID(ctx context.Context, meetingID string) (*meeting.Meeting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.meetings[meetingID]
	if !ok {
		return nil, meeting.ErrMeetingNotFound
	}
	m.Participants = slices.Clone(m.Participants)
	m.ParticipantEmails = slices.Clone(m.ParticipantEmails)
	return &m, nil
}

func (r *MemoryMeetingRepository) Create(ctx context.Context, m meeting.Meeting) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.meetings[m.MeetingID]; ok {
		return "", repository.ErrDuplicateMeetingID
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.Participants = slices.Clone(m.Participants)
	m.ParticipantEmails = slices.Clone(m.ParticipantEmails)
	r.meetings[m.MeetingID] = m
	return m.ID, nil
}

// Replace overwrites a stored meeting. Scheduling edits are outside the realtime core;
// this is how tests and seed scripts change the invited set between requests.
func (r *MemoryMeetingRepository) Replace(m meeting.Meeting) {
	r.mu.Lock()
	r.meetings[m.MeetingID] = m
	r.mu.Unlock()
}
