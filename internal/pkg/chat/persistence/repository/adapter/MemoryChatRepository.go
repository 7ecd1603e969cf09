package adapter

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	chat "projectsync/internal/pkg/chat/application/domain"
	repository "projectsync/internal/pkg/chat/persistence/repository/port"
)

// MemoryChatRepository keeps conversations and messages in process memory.
// Every method holds one lock, which makes find-or-create atomic for the pair.
type MemoryChatRepository struct {
	mu            sync.Mutex
	conversations map[string]*chat.Conversation
	byPair        map[[2]string]string // (workspaceID, pairKey) -> conversation id
	messages      map[string]*storedMessage
	seq           uint64
	now           func() time.Time
}

type storedMessage struct {
	chat.Message
	seq uint64
}

func NewMemoryChatRepository() *MemoryChatRepository {
	return &MemoryChatRepository{
		conversations: make(map[string]*chat.Conversation),
		byPair:        make(map[[2]string]string),
		messages:      make(map[string]*storedMessage),
		now:           time.Now,
	}
}

var _ repository.ChatRepository = (*MemoryChatRepository)(nil)

func (r *MemoryChatRepository) FindConversationByID(ctx context.Context, id string) (*chat.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[id]
	if !ok {
		return nil, chat.ErrConversationNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *MemoryChatRepository) FindOrCreateConversation(ctx context.Context, workspaceID string, a string, b string) (*chat.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	draft, err := chat.NewConversation(workspaceID, a, b, r.now())
	if err != nil {
		return nil, err
	}
	key := [2]string{draft.WorkspaceID, draft.PairKey}

	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byPair[key]; ok {
		cp := *r.conversations[id]
		return &cp, nil
	}
	draft.ID = uuid.NewString()
	r.conversations[draft.ID] = &draft
	r.byPair[key] = draft.ID
	cp := draft
	return &cp, nil
}

func (r *MemoryChatRepository) SaveMessage(ctx context.Context, m chat.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conversations[m.ConversationID]; !ok {
		return "", chat.ErrConversationNotFound
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	r.seq++
	r.messages[m.ID] = &storedMessage{Message: m, seq: r.seq}
	return m.ID, nil
}

func (r *MemoryChatRepository) SetLastMessage(ctx context.Context, conversationID string, messageID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[conversationID]
	if !ok {
		return chat.ErrConversationNotFound
	}
	id := messageID
	c.LastMessageID = &id
	c.UpdatedAt = r.now().UTC()
	return nil
}

func (r *MemoryChatRepository) AdvanceMessageStatus(ctx context.Context, messageID string, to chat.MessageStatus) (*chat.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.messages[messageID]
	if !ok {
		return nil, chat.ErrMessageNotFound
	}
	if m.Status.CanAdvanceTo(to) {
		m.Status = to
		m.UpdatedAt = r.now().UTC()
	}
	cp := m.Message
	return &cp, nil
}

func (r *MemoryChatRepository) MarkConversationRead(ctx context.Context, conversationID string, authorID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	now := r.now().UTC()
	for _, m := range r.messages {
		if m.ConversationID == conversationID && m.SenderID == authorID && m.Status.CanAdvanceTo(chat.StatusRead) {
			m.Status = chat.StatusRead
			m.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func (r *MemoryChatRepository) GetMessagesByConversation(ctx context.Context, conversationID string, limit int, offset int) ([]chat.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	r.mu.Lock()
	matched := make([]*storedMessage, 0)
	for _, m := range r.messages {
		if m.ConversationID == conversationID {
			cp := *m
			matched = append(matched, &cp)
		}
	}
	r.mu.Unlock()

	// newest first, insertion order breaks timestamp ties
	sort.Slice(matched, func(i, j int) bool { return matched[i].seq > matched[j].seq })
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	msgs := make([]chat.Message, 0, len(matched))
	for _, m := range matched {
		msgs = append(msgs, m.Message)
	}
	return msgs, nil
}

func (r *MemoryChatRepository) CountUnread(ctx context.Context, conversationID string, authorID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, m := range r.messages {
		if m.ConversationID == conversationID && m.SenderID == authorID && m.Status < chat.StatusRead {
			n++
		}
	}
	return n, nil
}
