package object

import (
	"context"
	"io"
	"time"
)

// ObjectStore defines the contract for saving and retrieving binary objects.
// Scope namespaces keys per workspace so tenants never share a prefix.
type ObjectStore interface {
	Save(ctx context.Context, scope string, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, storageKey string) error
}

// KeySaver is implemented by stores that support caller-chosen keys.
type KeySaver interface {
	SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error)
}

// Presigner is implemented by stores that can mint pre-signed URLs.
type Presigner interface {
	PresignGet(ctx context.Context, storageKey string, ttl time.Duration) (string, error)
	PresignPut(ctx context.Context, storageKey string, contentType string, ttl time.Duration) (string, error)
}
