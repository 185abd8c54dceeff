// Package blob archives uploaded source documents.
package blob

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("blob not found")

// Store keeps opaque objects under slash-separated keys.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
