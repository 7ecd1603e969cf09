package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "projectsync/internal/pkg/chat/application/domain"
	repository "projectsync/internal/pkg/chat/persistence/repository/port"
)

const maxHistoryPage = 100

// GetMessageInput carries parameters to fetch messages of a conversation
type GetMessageInput struct {
	ConversationID string
	ViewerID       string
	Limit          int
	Offset         int
}

type GetMessageOutput struct {
	Messages []chat.Message
	// Unread counts the other participant's messages the viewer has not acknowledged yet.
	Unread int64
}

// GetMessageUseCase fetches the newest-first history of a conversation for one of its participants.
type GetMessageUseCase struct {
	Repo repository.ChatRepository
}

func NewGetMessageUseCase(repo repository.ChatRepository) *GetMessageUseCase {
	return &GetMessageUseCase{Repo: repo}
}

func (uc *GetMessageUseCase) Execute(ctx context.Context, in GetMessageInput) (*GetMessageOutput, error) {
	if in.ConversationID == "" || in.ViewerID == "" {
		return nil, fmt.Errorf("%w: conversationId is required", ErrInvalidInput)
	}
	if in.Limit <= 0 || in.Limit > maxHistoryPage {
		in.Limit = 50
	}
	if in.Offset < 0 {
		in.Offset = 0
	}

	conv, err := uc.Repo.FindConversationByID(ctx, in.ConversationID)
	if err != nil {
		if errors.Is(err, chat.ErrConversationNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !conv.HasParticipant(in.ViewerID) {
		return nil, chat.ErrNotParticipant
	}

	msgs, err := uc.Repo.GetMessagesByConversation(ctx, conv.ID, in.Limit, in.Offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	unread, err := uc.Repo.CountUnread(ctx, conv.ID, conv.Other(in.ViewerID))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if msgs == nil {
		msgs = []chat.Message{}
	}
	return &GetMessageOutput{Messages: msgs, Unread: unread}, nil
}
