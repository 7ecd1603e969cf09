package adapter

import (
	"context"
	"sync"

	auth "projectsync/internal/pkg/auth/application/domain"
	repository "projectsync/internal/pkg/auth/persistence/repository/port"
)

type MemoryMembershipRepository struct {
	mu    sync.RWMutex
	roles map[[2]string]auth.Role // (workspaceID, userID) -> role
}

func NewMemoryMembershipRepository() *MemoryMembershipRepository {
	return &MemoryMembershipRepository{roles: make(map[[2]string]auth.Role)}
}

var _ repository.MembershipRepository = (*MemoryMembershipRepository)(nil)

func (r *MemoryMembershipRepository) RoleOf(ctx context.Context, workspaceID string, userID string) (auth.Role, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	role, ok := r.roles[[2]string{workspaceID, userID}]
	if !ok {
		return "", repository.ErrNotMember
	}
	return role, nil
}

func (r *MemoryMembershipRepository) Upsert(ctx context.Context, m auth.Member) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	r.roles[[2]string{m.WorkspaceID, m.UserID}] = m.Role
	r.mu.Unlock()
	return nil
}
