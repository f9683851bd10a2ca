package catalog

import (
	"context"
	"io"
)

// ObjectStorage stores product image bytes and returns their public URL
type ObjectStorage interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}
