package ports

import "context"

// BlobStore keeps attachment bytes apart from their metadata rows.
// Implementations that share the database honor the transaction in ctx.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
