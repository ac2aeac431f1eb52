// Package workerproc validates and dispatches ingestion queue messages. The
// worker binary and the Lambda handler share it so both classify malformed
// payloads the same way.
package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"ledgerly-backend/internal/documents"
	"ledgerly-backend/internal/queue"
)

// Processor runs one extraction attempt for a document.
type Processor interface {
	ProcessDocument(ctx context.Context, workspaceID, documentID, runID string) error
}

// MessageMeta captures payload details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

// ErrMissingDocumentID indicates a message without a document id.
type ErrMissingDocumentID struct {
	Meta      MessageMeta
	RequestID string
}

func (e ErrMissingDocumentID) Error() string { return "missing document id" }

// ErrProcess indicates processing failed after successful parsing.
type ErrProcess struct {
	DocumentID string
	RequestID  string
	Err        error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "process document"
	}
	return "process document: " + e.Err.Error()
}

func (e ErrProcess) Unwrap() error { return e.Err }

// Unrecoverable reports whether retrying the message can never succeed:
// unparseable payloads and documents that no longer exist. The caller
// deletes those instead of letting the queue redeliver them.
func Unrecoverable(err error) bool {
	switch err.(type) {
	case ErrEmptyBody, ErrDecode, ErrMissingDocumentID:
		return true
	}
	return errors.Is(err, documents.ErrNotFound)
}

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	if strings.TrimSpace(msg.DocumentID) == "" {
		return msg, meta, ErrMissingDocumentID{Meta: meta, RequestID: msg.RequestID}
	}
	return msg, meta, nil
}

type parsedMessageKey struct{}

// WithParsedMessage stores a decoded message in the context so HandleMessage
// does not parse the body twice.
func WithParsedMessage(ctx context.Context, msg queue.Message) context.Context {
	return context.WithValue(ctx, parsedMessageKey{}, msg)
}

func parsedMessageFromContext(ctx context.Context) (queue.Message, bool) {
	if ctx == nil {
		return queue.Message{}, false
	}
	msg, ok := ctx.Value(parsedMessageKey{}).(queue.Message)
	return msg, ok
}

// HandleMessage parses, validates, and processes a queue payload. The run is
// resolved by the processor: the message names only the document, and the
// document's latest run is the one to work on.
func HandleMessage(ctx context.Context, proc Processor, body string) error {
	if proc == nil {
		return errors.New("document processor not configured")
	}

	msg, ok := parsedMessageFromContext(ctx)
	if !ok {
		var err error
		msg, _, err = ParseMessage(body)
		if err != nil {
			return err
		}
	}
	if strings.TrimSpace(msg.DocumentID) == "" {
		return ErrMissingDocumentID{Meta: ComputeMeta(body), RequestID: msg.RequestID}
	}

	ctxWithRequest := documents.WithRequestID(ctx, msg.RequestID)
	if err := proc.ProcessDocument(ctxWithRequest, msg.WorkspaceID, msg.DocumentID, ""); err != nil {
		return ErrProcess{DocumentID: msg.DocumentID, RequestID: msg.RequestID, Err: err}
	}
	return nil
}
