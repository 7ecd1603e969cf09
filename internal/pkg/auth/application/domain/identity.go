package auth

// Identity is the authenticated caller, decoded from a session credential.
type Identity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Member is a user's role within one workspace.
type Member struct {
	WorkspaceID string `db:"workspace_id" bson:"workspace_id"`
	UserID      string `db:"user_id" bson:"user_id"`
	Role        Role   `db:"role" bson:"role"`
}
