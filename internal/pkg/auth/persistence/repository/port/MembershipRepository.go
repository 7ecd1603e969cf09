package repository

import (
	"context"
	"errors"

	auth "projectsync/internal/pkg/auth/application/domain"
)

// ErrNotMember is returned by RoleOf when the user does not belong to the workspace.
var ErrNotMember = errors.New("auth: user is not a member of the workspace")

// MembershipRepository resolves a user's role within a workspace.
type MembershipRepository interface {
	RoleOf(ctx context.Context, workspaceID string, userID string) (auth.Role, error)
	Upsert(ctx context.Context, m auth.Member) error
}
