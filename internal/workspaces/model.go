package workspaces

import "time"

type Workspace struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CountryCode string    `json:"countryCode"`
	Currency    string    `json:"currency"`
	VATNumber   string    `json:"vatNumber"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Member struct {
	WorkspaceID string    `json:"workspaceId"`
	UserID      string    `json:"userId"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
}

const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

// ValidRole reports whether the role is one of the known set.
func ValidRole(role string) bool {
	return role == RoleOwner || role == RoleMember
}
