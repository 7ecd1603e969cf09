package repository

import (
	"context"

	chat "projectsync/internal/pkg/chat/application/domain"
)

// ChatRepository defines persistence operations for direct conversations and their messages.
// Status mutations are conditional at the store level so a message never moves backwards,
// even when a bulk read races a send.
type ChatRepository interface {
	FindConversationByID(ctx context.Context, id string) (*chat.Conversation, error)
	// FindOrCreateConversation returns the single conversation for the pair in the workspace,
	// creating it when absent. Concurrent callers for the same pair observe the same row.
	FindOrCreateConversation(ctx context.Context, workspaceID string, a string, b string) (*chat.Conversation, error)
	SaveMessage(ctx context.Context, m chat.Message) (string, error)
	SetLastMessage(ctx context.Context, conversationID string, messageID string) error
	// AdvanceMessageStatus moves the message to `to` only if that is forward, and returns the stored message.
	AdvanceMessageStatus(ctx context.Context, messageID string, to chat.MessageStatus) (*chat.Message, error)
	// MarkConversationRead flips every unread message authored by authorID in the conversation to read.
	MarkConversationRead(ctx context.Context, conversationID string, authorID string) (int64, error)
	GetMessagesByConversation(ctx context.Context, conversationID string, limit int, offset int) ([]chat.Message, error)
	CountUnread(ctx context.Context, conversationID string, authorID string) (int64, error)
}
