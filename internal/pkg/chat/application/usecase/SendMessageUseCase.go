package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	chat "projectsync/internal/pkg/chat/application/domain"
	repository "projectsync/internal/pkg/chat/persistence/repository/port"
)

// Presence answers whether a user currently has a live realtime session.
type Presence interface {
	IsOnline(userID string) bool
}

// SendMessageInput carries the data needed to send a new direct message.
// ConversationID is a hint; when it does not resolve to this pair's conversation the pair's
// conversation is found or created instead.
type SendMessageInput struct {
	SenderID       string
	RecipientID    string
	WorkspaceID    string
	Content        string
	ConversationID string
}

type SendMessageOutput struct {
	Message      *chat.Message
	Conversation *chat.Conversation
}

// SendMessageUseCase appends a message to the pair's conversation and promotes it to
// delivered when the recipient is online at send time.
type SendMessageUseCase struct {
	Repo     repository.ChatRepository
	Presence Presence
	Now      func() time.Time
}

func NewSendMessageUseCase(repo repository.ChatRepository, presence Presence) *SendMessageUseCase {
	return &SendMessageUseCase{Repo: repo, Presence: presence, Now: time.Now}
}

// Execute persists the message and returns it in its stored state.
func (uc *SendMessageUseCase) Execute(ctx context.Context, in SendMessageInput) (*SendMessageOutput, error) {
	if in.SenderID == "" || in.RecipientID == "" || in.WorkspaceID == "" {
		return nil, fmt.Errorf("%w: recipientId and workspaceId are required", ErrInvalidInput)
	}
	if in.SenderID == in.RecipientID {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, chat.ErrSelfConversation)
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, chat.ErrEmptyMessage)
	}

	conv, err := uc.resolveConversation(ctx, in)
	if err != nil {
		return nil, err
	}

	msg, err := chat.NewMessage(conv.ID, in.SenderID, in.Content, uc.Now())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	// Persist letting the store generate the ID
	id, err := uc.Repo.SaveMessage(ctx, *msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	msg.ID = id

	if err := uc.Repo.SetLastMessage(ctx, conv.ID, id); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	conv.LastMessageID = &id

	if uc.Presence != nil && uc.Presence.IsOnline(in.RecipientID) {
		stored, err := uc.Repo.AdvanceMessageStatus(ctx, id, chat.StatusDelivered)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		// a concurrent bulk read may already have moved it to read
		msg = stored
	}

	return &SendMessageOutput{Message: msg, Conversation: conv}, nil
}

func (uc *SendMessageUseCase) resolveConversation(ctx context.Context, in SendMessageInput) (*chat.Conversation, error) {
	if in.ConversationID != "" {
		conv, err := uc.Repo.FindConversationByID(ctx, in.ConversationID)
		switch {
		case err == nil:
			if conv.WorkspaceID == in.WorkspaceID && conv.HasParticipant(in.SenderID) && conv.HasParticipant(in.RecipientID) {
				return conv, nil
			}
		case errors.Is(err, chat.ErrConversationNotFound):
		default:
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
	}

	conv, err := uc.Repo.FindOrCreateConversation(ctx, in.WorkspaceID, in.SenderID, in.RecipientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return conv, nil
}
