package chat

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrConversationNotFound = errors.New("chat: conversation not found")
	ErrMessageNotFound      = errors.New("chat: message not found")
	ErrNotParticipant       = errors.New("chat: user is not a participant in the conversation")
	ErrSelfConversation     = errors.New("chat: a direct conversation needs two distinct participants")
	ErrEmptyMessage         = errors.New("chat: message content is empty")
)

// Conversation is a direct-message thread between exactly two users inside one workspace.
// At most one exists per unordered participant pair per workspace; PairKey enforces that.
type Conversation struct {
	ID             string    `json:"id" db:"id" bson:"_id"`
	WorkspaceID    string    `json:"workspaceId" db:"workspace_id" bson:"workspace_id"`
	ParticipantIDs [2]string `json:"participants" db:"-" bson:"participants"`
	PairKey        string    `json:"-" db:"pair_key" bson:"pair_key"`
	LastMessageID  *string   `json:"lastMessageId,omitempty" db:"last_message_id" bson:"last_message_id,omitempty"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at" bson:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at" bson:"updated_at"`
}

// PairKey is the order-independent key of a participant pair.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + ":" + b
}

// NewConversation builds an unsaved conversation. Participants are stored sorted.
func NewConversation(workspaceID, a, b string, now time.Time) (Conversation, error) {
	workspaceID = strings.TrimSpace(workspaceID)
	if workspaceID == "" || a == "" || b == "" {
		return Conversation{}, errors.New("chat: workspace and both participants are required")
	}
	if a == b {
		return Conversation{}, ErrSelfConversation
	}
	if b < a {
		a, b = b, a
	}
	now = now.UTC()
	return Conversation{
		WorkspaceID:    workspaceID,
		ParticipantIDs: [2]string{a, b},
		PairKey:        PairKey(a, b),
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// HasParticipant tells whether userID is part of this conversation.
func (c *Conversation) HasParticipant(userID string) bool {
	return c != nil && userID != "" && (c.ParticipantIDs[0] == userID || c.ParticipantIDs[1] == userID)
}

// Other returns the participant that is not userID, or "" if userID is not a participant.
func (c *Conversation) Other(userID string) string {
	switch {
	case !c.HasParticipant(userID):
		return ""
	case c.ParticipantIDs[0] == userID:
		return c.ParticipantIDs[1]
	default:
		return c.ParticipantIDs[0]
	}
}
