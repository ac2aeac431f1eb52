package cashflow

import "time"

const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// Entry is one booked cash movement. Entries created from a confirmed
// document keep a reference to it; one document books at most one entry.
type Entry struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"-"`
	DocumentID  string    `json:"documentId,omitempty"`
	ContactID   string    `json:"contactId,omitempty"`
	Direction   string    `json:"direction"`
	AmountCents int64     `json:"amountCents"`
	Currency    string    `json:"currency"`
	BookedOn    time.Time `json:"bookedOn"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// MonthSummary aggregates one calendar month of a workspace's cashflow.
type MonthSummary struct {
	Month    string `json:"month"`
	InCents  int64  `json:"inCents"`
	OutCents int64  `json:"outCents"`
}

// NetCents is income minus spend for the month.
func (m MonthSummary) NetCents() int64 {
	return m.InCents - m.OutCents
}
