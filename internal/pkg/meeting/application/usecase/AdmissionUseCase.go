package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	meeting "projectsync/internal/pkg/meeting/application/domain"
	repository "projectsync/internal/pkg/meeting/persistence/repository/port"
)

// TokenIssuer mints room access credentials.
type TokenIssuer interface {
	Issue(room, participant string) (string, error)
}

// Decision is the admission state a join request lands in.
type Decision int

const (
	DecisionApproved Decision = iota + 1
	DecisionWaiting
)

func (d Decision) String() string {
	switch d {
	case DecisionApproved:
		return "approved"
	case DecisionWaiting:
		return "waiting"
	}
	return "unknown"
}

// JoinOutcome is the result of a join request. Token is set when approved;
// AdminID names the host to notify when waiting.
type JoinOutcome struct {
	Decision Decision
	Token    string
	AdminID  string
	Meeting  *meeting.Meeting
}

// AdmissionUseCase is the meeting lobby. The meeting is re-read on every call, so changes
// to its invited set apply to the next request. Waiting requests are not stored anywhere.
type AdmissionUseCase struct {
	Repo   repository.MeetingRepository
	Issuer TokenIssuer
}

func NewAdmissionUseCase(repo repository.MeetingRepository, issuer TokenIssuer) *AdmissionUseCase {
	return &AdmissionUseCase{Repo: repo, Issuer: issuer}
}

// RequestToJoin approves invited participants and the creator immediately and
// parks everyone else in the waiting state.
func (uc *AdmissionUseCase) RequestToJoin(ctx context.Context, requester meeting.Guest, meetingID string) (*JoinOutcome, error) {
	if requester.ID == "" || strings.TrimSpace(meetingID) == "" {
		return nil, fmt.Errorf("%w: meetingId is required", meeting.ErrInvalidMeeting)
	}
	m, err := uc.load(ctx, meetingID)
	if err != nil {
		return nil, err
	}

	if m.IsAdmin(requester.ID) || m.IsInvited(requester.ID) {
		token, err := uc.issue(m, requester)
		if err != nil {
			return nil, err
		}
		return &JoinOutcome{Decision: DecisionApproved, Token: token, Meeting: m}, nil
	}
	return &JoinOutcome{Decision: DecisionWaiting, AdminID: m.CreatedBy, Meeting: m}, nil
}

// Admit issues a credential for guest. Only the meeting creator may call it.
func (uc *AdmissionUseCase) Admit(ctx context.Context, callerID string, guest meeting.Guest, meetingID string) (string, error) {
	m, err := uc.authorizeHost(ctx, callerID, guest, meetingID)
	if err != nil {
		return "", err
	}
	return uc.issue(m, guest)
}

// Deny checks the caller is the meeting creator. The gateway owns telling the guest.
func (uc *AdmissionUseCase) Deny(ctx context.Context, callerID string, guest meeting.Guest, meetingID string) error {
	_, err := uc.authorizeHost(ctx, callerID, guest, meetingID)
	return err
}

func (uc *AdmissionUseCase) authorizeHost(ctx context.Context, callerID string, guest meeting.Guest, meetingID string) (*meeting.Meeting, error) {
	if guest.ID == "" || strings.TrimSpace(meetingID) == "" {
		return nil, fmt.Errorf("%w: guest and meetingId are required", meeting.ErrInvalidMeeting)
	}
	m, err := uc.load(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if !m.IsAdmin(callerID) {
		return nil, meeting.ErrNotMeetingAdmin
	}
	return m, nil
}

func (uc *AdmissionUseCase) load(ctx context.Context, meetingID string) (*meeting.Meeting, error) {
	m, err := uc.Repo.FindByMeetingID(ctx, strings.TrimSpace(meetingID))
	if errors.Is(err, meeting.ErrMeetingNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return m, nil
}

func (uc *AdmissionUseCase) issue(m *meeting.Meeting, g meeting.Guest) (string, error) {
	name := strings.TrimSpace(g.Name)
	if name == "" {
		name = g.ID
	}
	token, err := uc.Issuer.Issue(m.MeetingID, name)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenIssue, err)
	}
	return token, nil
}
