package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "projectsync/internal/pkg/chat/application/domain"
	repository "projectsync/internal/pkg/chat/persistence/repository/port"
)

// MarkMessagesReadInput acknowledges every message OtherUserID wrote in the conversation.
type MarkMessagesReadInput struct {
	ConversationID string
	ReaderID       string
	OtherUserID    string
}

type MarkMessagesReadOutput struct {
	Conversation *chat.Conversation
	Updated      int64
}

// MarkMessagesReadUseCase is the bulk read receipt. Messages written by the reader are never touched.
type MarkMessagesReadUseCase struct {
	Repo repository.ChatRepository
}

func NewMarkMessagesReadUseCase(repo repository.ChatRepository) *MarkMessagesReadUseCase {
	return &MarkMessagesReadUseCase{Repo: repo}
}

func (uc *MarkMessagesReadUseCase) Execute(ctx context.Context, in MarkMessagesReadInput) (*MarkMessagesReadOutput, error) {
	if in.ConversationID == "" || in.ReaderID == "" || in.OtherUserID == "" {
		return nil, fmt.Errorf("%w: conversationId and otherUserId are required", ErrInvalidInput)
	}

	conv, err := uc.Repo.FindConversationByID(ctx, in.ConversationID)
	if err != nil {
		if errors.Is(err, chat.ErrConversationNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !conv.HasParticipant(in.ReaderID) || conv.Other(in.ReaderID) != in.OtherUserID {
		return nil, chat.ErrNotParticipant
	}

	n, err := uc.Repo.MarkConversationRead(ctx, conv.ID, in.OtherUserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return &MarkMessagesReadOutput{Conversation: conv, Updated: n}, nil
}
