package auth

import (
	"errors"
	"fmt"
)

// Role is a workspace membership role.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleViewer Role = "viewer"
)

// Permission is a capability token checked before a mutating operation.
type Permission string

const (
	PermWorkspaceUpdate Permission = "workspace:update"
	PermWorkspaceDelete Permission = "workspace:delete"
	PermMemberInvite    Permission = "member:invite"
	PermMemberRemove    Permission = "member:remove"
	PermMemberRole      Permission = "member:change_role"
	PermProjectCreate   Permission = "project:create"
	PermProjectUpdate   Permission = "project:update"
	PermProjectDelete   Permission = "project:delete"
	PermTaskCreate      Permission = "task:create"
	PermTaskUpdate      Permission = "task:update"
	PermTaskDelete      Permission = "task:delete"
	PermMeetingCreate   Permission = "meeting:create"
	PermMessageSend     Permission = "message:send"
	PermContentView     Permission = "content:view"
)

var (
	ErrUnauthorized = errors.New("auth: missing or invalid credential")
	ErrForbidden    = errors.New("auth: permission denied")
)

// rolePermissions is static; it is not editable at runtime.
var rolePermissions = map[Role]map[Permission]struct{}{
	RoleOwner: set(
		PermWorkspaceUpdate, PermWorkspaceDelete,
		PermMemberInvite, PermMemberRemove, PermMemberRole,
		PermProjectCreate, PermProjectUpdate, PermProjectDelete,
		PermTaskCreate, PermTaskUpdate, PermTaskDelete,
		PermMeetingCreate, PermMessageSend, PermContentView,
	),
	RoleAdmin: set(
		PermWorkspaceUpdate,
		PermMemberInvite, PermMemberRemove,
		PermProjectCreate, PermProjectUpdate, PermProjectDelete,
		PermTaskCreate, PermTaskUpdate, PermTaskDelete,
		PermMeetingCreate, PermMessageSend, PermContentView,
	),
	RoleMember: set(
		PermTaskCreate, PermTaskUpdate,
		PermMeetingCreate, PermMessageSend, PermContentView,
	),
	RoleViewer: set(PermContentView),
}

func set(perms ...Permission) map[Permission]struct{} {
	m := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		m[p] = struct{}{}
	}
	return m
}

// Authorize succeeds only when role holds every required permission.
// Unknown roles hold nothing.
func Authorize(role Role, required ...Permission) error {
	granted := rolePermissions[role]
	for _, p := range required {
		if _, ok := granted[p]; !ok {
			return fmt.Errorf("%w: role %q lacks %q", ErrForbidden, role, p)
		}
	}
	return nil
}

// Permissions returns a copy of the permissions granted to role.
func Permissions(role Role) []Permission {
	granted := rolePermissions[role]
	out := make([]Permission, 0, len(granted))
	for p := range granted {
		out = append(out, p)
	}
	return out
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := rolePermissions[r]
	return ok
}
