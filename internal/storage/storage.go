package storage

import (
	"context"
	"errors"
	"time"
)

// ErrObjectNotFound is returned by Delete when the reference points at nothing.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStore is the narrow contract the notice publisher needs from binary
// storage. References are opaque to callers.
type ObjectStore interface {
	Store(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, ref string) error
}

// ObjectInfo describes a stored object for cleanup tooling.
type ObjectInfo struct {
	Ref          string
	Size         int64
	LastModified time.Time
}

// Lister is implemented by stores that can enumerate objects under a prefix.
type Lister interface {
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
}

// URLSigner hands out time-limited download links for stored objects.
type URLSigner interface {
	PresignedGetURL(ctx context.Context, ref string, expiry time.Duration) (string, error)
}
