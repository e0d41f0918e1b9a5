// Package store writes records to an object store and reports where they
// landed. Backends: S3, MongoDB and the local filesystem.
package store

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// Writer persists one object and returns a URI naming its location.
type Writer interface {
	Put(ctx context.Context, bucket, key string, body []byte, contentType string) (string, error)
}

// Backend names accepted by configuration.
const (
	BackendS3    = "s3"
	BackendFile  = "file"
	BackendMongo = "mongo"
)

// ErrInvalidKey is returned for keys that are empty, absolute, or escape the
// bucket with "..".
var ErrInvalidKey = errors.New("invalid object key")

func validate(bucket, key string) error {
	if strings.TrimSpace(bucket) == "" {
		return errors.New("bucket is required")
	}
	if key == "" || strings.HasPrefix(key, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	if path.Clean(key) != key {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
