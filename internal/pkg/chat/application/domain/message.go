package chat

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// MessageStatus is the delivery state of a message.
// The order is sent < delivered < read and a message never moves backwards.
type MessageStatus int16

const (
	StatusSent      MessageStatus = 0
	StatusDelivered MessageStatus = 1
	StatusRead      MessageStatus = 2
)

func (s MessageStatus) String() string {
	switch s {
	case StatusSent:
		return "sent"
	case StatusDelivered:
		return "delivered"
	case StatusRead:
		return "read"
	default:
		return fmt.Sprintf("status(%d)", int16(s))
	}
}

// Valid reports whether s is one of the defined states.
func (s MessageStatus) Valid() bool {
	return s >= StatusSent && s <= StatusRead
}

// CanAdvanceTo reports whether moving from s to next is a forward transition.
func (s MessageStatus) CanAdvanceTo(next MessageStatus) bool {
	return next.Valid() && next > s
}

// ParseStatus maps a status name to its value.
func ParseStatus(v string) (MessageStatus, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "sent":
		return StatusSent, nil
	case "delivered":
		return StatusDelivered, nil
	case "read":
		return StatusRead, nil
	}
	return 0, fmt.Errorf("chat: unknown message status %q", v)
}

func (s MessageStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *MessageStatus) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	v, err := ParseStatus(name)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Message is one entry in a conversation.
type Message struct {
	ID             string        `json:"id" db:"id" bson:"_id"`
	ConversationID string        `json:"conversationId" db:"conversation_id" bson:"conversation_id"`
	SenderID       string        `json:"senderId" db:"sender_id" bson:"sender_id"`
	Content        string        `json:"content" db:"content" bson:"content"`
	Status         MessageStatus `json:"status" db:"status" bson:"status"`
	CreatedAt      time.Time     `json:"createdAt" db:"created_at" bson:"created_at"`
	UpdatedAt      time.Time     `json:"updatedAt" db:"updated_at" bson:"updated_at"`
}

// NewMessage validates and builds an unsaved message in the sent state.
func NewMessage(conversationID, senderID, content string, now time.Time) (*Message, error) {
	if conversationID == "" || senderID == "" {
		return nil, fmt.Errorf("chat: conversation_id and sender_id are required")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	return &Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		Status:         StatusSent,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}
