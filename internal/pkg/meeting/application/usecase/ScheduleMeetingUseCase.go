package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	auth "projectsync/internal/pkg/auth/application/domain"
	authrepo "projectsync/internal/pkg/auth/persistence/repository/port"
	meeting "projectsync/internal/pkg/meeting/application/domain"
	repository "projectsync/internal/pkg/meeting/persistence/repository/port"
)

const maxShareableIDAttempts = 5

// Inviter announces a newly scheduled meeting to its email invitees.
type Inviter interface {
	Invite(ctx context.Context, m meeting.Meeting) error
}

type ScheduleMeetingInput struct {
	WorkspaceID       string
	CreatorID         string
	Title             string
	Participants      []string
	ParticipantEmails []string
	StartsAt          *time.Time
}

// ScheduleMeetingUseCase creates a meeting with a fresh shareable id.
// The caller needs meeting:create in the workspace. Invite delivery is best effort.
type ScheduleMeetingUseCase struct {
	Repo    repository.MeetingRepository
	Members authrepo.MembershipRepository
	Inviter Inviter
	Logger  *slog.Logger
	Now     func() time.Time
	NewID   func() (string, error)
}

func NewScheduleMeetingUseCase(repo repository.MeetingRepository, members authrepo.MembershipRepository, inviter Inviter, logger *slog.Logger) *ScheduleMeetingUseCase {
	return &ScheduleMeetingUseCase{
		Repo:    repo,
		Members: members,
		Inviter: inviter,
		Logger:  logger,
		Now:     time.Now,
		NewID:   meeting.NewShareableID,
	}
}

func (uc *ScheduleMeetingUseCase) Execute(ctx context.Context, in ScheduleMeetingInput) (*meeting.Meeting, error) {
	role, err := uc.Members.RoleOf(ctx, in.WorkspaceID, in.CreatorID)
	switch {
	case errors.Is(err, authrepo.ErrNotMember):
		return nil, fmt.Errorf("%w: not a member of workspace %q", auth.ErrForbidden, in.WorkspaceID)
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := auth.Authorize(role, auth.PermMeetingCreate); err != nil {
		return nil, err
	}

	var m *meeting.Meeting
	for attempt := 0; ; attempt++ {
		if attempt == maxShareableIDAttempts {
			return nil, fmt.Errorf("%w: no free meeting id after %d attempts", ErrPersistence, attempt)
		}
		shareable, err := uc.NewID()
		if err != nil {
			return nil, fmt.Errorf("meeting: generate id: %w", err)
		}
		m, err = meeting.NewMeeting(shareable, in.WorkspaceID, in.Title, in.CreatorID, in.Participants, in.ParticipantEmails, in.StartsAt, uc.Now())
		if err != nil {
			return nil, err
		}
		id, err := uc.Repo.Create(ctx, *m)
		if errors.Is(err, repository.ErrDuplicateMeetingID) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		m.ID = id
		break
	}

	if uc.Inviter != nil && len(m.ParticipantEmails) > 0 {
		if err := uc.Inviter.Invite(context.WithoutCancel(ctx), *m); err != nil {
			uc.Logger.Warn("meeting invites not sent", "meeting_id", m.MeetingID, "err", err)
		}
	}
	return m, nil
}
