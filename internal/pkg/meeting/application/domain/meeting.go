package meeting

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/mail"
	"slices"
	"strings"
	"time"
)

var (
	ErrMeetingNotFound = errors.New("meeting: not found")
	ErrNotMeetingAdmin = errors.New("meeting: caller is not the meeting admin")
	ErrInvalidMeeting  = errors.New("meeting: invalid meeting")
)

// Meeting is read-only from the realtime side; only scheduling writes it.
type Meeting struct {
	ID                string     `json:"id" db:"id" bson:"_id"`
	MeetingID         string     `json:"meetingId" db:"meeting_id" bson:"meeting_id"`
	WorkspaceID       string     `json:"workspaceId" db:"workspace_id" bson:"workspace_id"`
	Title             string     `json:"title" db:"title" bson:"title"`
	CreatedBy         string     `json:"createdBy" db:"created_by" bson:"created_by"`
	Participants      []string   `json:"participants" db:"participants" bson:"participants"`
	ParticipantEmails []string   `json:"participantEmails" db:"participant_emails" bson:"participant_emails"`
	StartsAt          *time.Time `json:"startsAt,omitempty" db:"starts_at" bson:"starts_at,omitempty"`
	CreatedAt         time.Time  `json:"createdAt" db:"created_at" bson:"created_at"`
}

// Guest is a user asking to enter a meeting.
type Guest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// IsAdmin reports whether userID created the meeting.
func (m *Meeting) IsAdmin(userID string) bool {
	return m != nil && userID != "" && m.CreatedBy == userID
}

// IsInvited reports whether userID is in the invited participant set.
func (m *Meeting) IsInvited(userID string) bool {
	return m != nil && userID != "" && slices.Contains(m.Participants, userID)
}

// NewMeeting validates and normalizes a meeting before it is stored.
// Participant ids and emails are deduplicated; the creator is not added to Participants.
func NewMeeting(meetingID, workspaceID, title, createdBy string, participants, emails []string, startsAt *time.Time, now time.Time) (*Meeting, error) {
	title = strings.TrimSpace(title)
	switch {
	case strings.TrimSpace(workspaceID) == "":
		return nil, fmt.Errorf("%w: workspaceId is required", ErrInvalidMeeting)
	case title == "":
		return nil, fmt.Errorf("%w: title is required", ErrInvalidMeeting)
	case createdBy == "":
		return nil, fmt.Errorf("%w: creator is required", ErrInvalidMeeting)
	case !ValidShareableID(meetingID):
		return nil, fmt.Errorf("%w: malformed meeting id %q", ErrInvalidMeeting, meetingID)
	}

	ids := make([]string, 0, len(participants))
	for _, p := range participants {
		p = strings.TrimSpace(p)
		if p == "" || p == createdBy || slices.Contains(ids, p) {
			continue
		}
		ids = append(ids, p)
	}
	addrs := make([]string, 0, len(emails))
	for _, e := range emails {
		a, err := mail.ParseAddress(strings.TrimSpace(e))
		if err != nil {
			return nil, fmt.Errorf("%w: bad participant email %q", ErrInvalidMeeting, e)
		}
		addr := strings.ToLower(a.Address)
		if !slices.Contains(addrs, addr) {
			addrs = append(addrs, addr)
		}
	}

	return &Meeting{
		MeetingID:         meetingID,
		WorkspaceID:       strings.TrimSpace(workspaceID),
		Title:             title,
		CreatedBy:         createdBy,
		Participants:      ids,
		ParticipantEmails: addrs,
		StartsAt:          startsAt,
		CreatedAt:         now.UTC(),
	}, nil
}

const (
	shareableLetters = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	shareableDigits  = "0123456789"
)

// NewShareableID returns a human-shareable meeting id such as "ABCD-1234".
func NewShareableID() (string, error) {
	var b strings.Builder
	b.Grow(9)
	for i := 0; i < 9; i++ {
		alphabet := shareableLetters
		switch {
		case i == 4:
			b.WriteByte('-')
			continue
		case i > 4:
			alphabet = shareableDigits
		}
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", err
		}
		b.WriteByte(alphabet[n.Int64()])
	}
	return b.String(), nil
}

// ValidShareableID checks the four letters, dash, four digits shape.
func ValidShareableID(id string) bool {
	if len(id) != 9 || id[4] != '-' {
		return false
	}
	for i := 0; i < 4; i++ {
		if id[i] < 'A' || id[i] > 'Z' {
			return false
		}
	}
	for i := 5; i < 9; i++ {
		if id[i] < '0' || id[i] > '9' {
			return false
		}
	}
	return true
}
