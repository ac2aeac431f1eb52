package queue

import "context"

// Client sends messages to a queue backend. A nil Client means no queue is
// configured and ingestion runs inline in the API process.
type Client interface {
	Send(ctx context.Context, msg Message) error
}
