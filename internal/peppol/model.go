package peppol

import "time"

const (
	StatusNotRegistered = "not_registered"
	StatusPending       = "pending"
	StatusRegistered    = "registered"
	StatusFailed        = "failed"
)

// Registration is a workspace's presence on the Peppol network. A workspace
// holds at most one; deleting it returns the workspace to not_registered.
type Registration struct {
	WorkspaceID   string    `json:"-"`
	ParticipantID string    `json:"participantId,omitempty"`
	Scheme        string    `json:"scheme,omitempty"`
	Status        string    `json:"status"`
	LastError     string    `json:"lastError,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
