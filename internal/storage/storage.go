package storage

import (
	"context"
	"errors"
	"io"
)

var ErrBlobNotFound = errors.New("blob not found")

// BlobStore is the binary side of the document store. Metadata rows reference
// blobs by opaque id; the store never interprets the content.
type BlobStore interface {
	Save(ctx context.Context, id string, data io.Reader) error
	Get(ctx context.Context, id string) (io.ReadCloser, error)
	// Duplicate copies the blob under a fresh id and returns it.
	Duplicate(ctx context.Context, id string) (string, error)
	Delete(ctx context.Context, id string) error
}
