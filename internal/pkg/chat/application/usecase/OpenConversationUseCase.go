package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "projectsync/internal/pkg/chat/application/domain"
	repository "projectsync/internal/pkg/chat/persistence/repository/port"
)

// OpenConversationInput names the two users and the workspace of a direct conversation.
type OpenConversationInput struct {
	WorkspaceID string
	UserID      string
	PeerID      string
}

// OpenConversationUseCase returns the direct conversation for a pair, creating it if needed.
// Sending a message does the same implicitly; this exists so clients can open an empty thread.
type OpenConversationUseCase struct {
	Repo repository.ChatRepository
}

func NewOpenConversationUseCase(repo repository.ChatRepository) *OpenConversationUseCase {
	return &OpenConversationUseCase{Repo: repo}
}

func (uc *OpenConversationUseCase) Execute(ctx context.Context, in OpenConversationInput) (*chat.Conversation, error) {
	if in.WorkspaceID == "" || in.UserID == "" || in.PeerID == "" {
		return nil, fmt.Errorf("%w: workspaceId and peerId are required", ErrInvalidInput)
	}
	if in.UserID == in.PeerID {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, chat.ErrSelfConversation)
	}

	conv, err := uc.Repo.FindOrCreateConversation(ctx, in.WorkspaceID, in.UserID, in.PeerID)
	if err != nil {
		if errors.Is(err, chat.ErrSelfConversation) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return conv, nil
}
