package adapter

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	auth "projectsync/internal/pkg/auth/application/domain"
	repository "projectsync/internal/pkg/auth/persistence/repository/port"
)

type PgMembershipRepository struct {
	pool *pgxpool.Pool
}

func NewPgMembershipRepository(pool *pgxpool.Pool) *PgMembershipRepository {
	return &PgMembershipRepository{pool: pool}
}

var _ repository.MembershipRepository = (*PgMembershipRepository)(nil)

func (r *PgMembershipRepository) RoleOf(ctx context.Context, workspaceID string, userID string) (auth.Role, error) {
	if r == nil || r.pool == nil {
		return "", errors.New("PgMembershipRepository: nil pool")
	}
	var role string
	err := r.pool.QueryRow(ctx,
		"SELECT role FROM workspace.member WHERE workspace_id = $1 AND user_id = $2",
		workspaceID, userID,
	).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", repository.ErrNotMember
	}
	if err != nil {
		return "", err
	}
	return auth.Role(role), nil
}

func (r *PgMembershipRepository) Upsert(ctx context.Context, m auth.Member) error {
	if r == nil || r.pool == nil {
		return errors.New("PgMembershipRepository: nil pool")
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO workspace.member (workspace_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (workspace_id, user_id) DO UPDATE SET role = EXCLUDED.role
	`, m.WorkspaceID, m.UserID, string(m.Role))
	return err
}
