package usage

import "time"

// Usage is a workspace's document quota snapshot for the current period.
type Usage struct {
	Plan     string    `json:"plan"`
	Limit    int       `json:"limit"`
	Used     int       `json:"used"`
	ResetsAt time.Time `json:"resetsAt"`
}

// Remaining reports how many documents the workspace can still ingest.
func (u Usage) Remaining() int {
	if u.Used >= u.Limit {
		return 0
	}
	return u.Limit - u.Used
}
