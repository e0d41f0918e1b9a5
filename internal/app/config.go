package app

import (
	"errors"
	"strings"
	"time"

	"github.com/hyperifyio/pagestash/internal/handler"
	"github.com/hyperifyio/pagestash/internal/store"
)

// Config holds runtime configuration for the application.
type Config struct {
	// Destination
	Bucket        string
	StoreBackend  string
	StoreDir      string
	MongoURI      string
	MongoDatabase string
	AWSRegion     string
	S3Endpoint    string
	S3PathStyle   bool

	// Fetch
	FetchTimeout time.Duration
	UserAgent    string

	// Behavior
	Verbose bool
}

const (
	DefaultStoreBackend  = store.BackendS3
	DefaultStoreDir      = ".pagestash"
	DefaultMongoDatabase = "pagestash"
	DefaultFetchTimeout  = handler.DefaultFetchTimeout
)

// ErrBucketNotConfigured reports a missing destination bucket. It is not a
// startup error: each request answers it with a 500.
var ErrBucketNotConfigured = errors.New("config: bucket is not set (CONTENT_BUCKET)")

// CheckBucket returns ErrBucketNotConfigured when no bucket is set.
func (c Config) CheckBucket() error {
	if strings.TrimSpace(c.Bucket) == "" {
		return ErrBucketNotConfigured
	}
	return nil
}

// ApplyDefaults fills zero fields with built-in defaults. It runs last, after
// flags, environment and config file.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
	if cfg.StoreBackend == "" {
		cfg.StoreBackend = DefaultStoreBackend
	}
	if cfg.StoreDir == "" {
		cfg.StoreDir = DefaultStoreDir
	}
	if cfg.MongoDatabase == "" {
		cfg.MongoDatabase = DefaultMongoDatabase
	}
	if cfg.FetchTimeout == 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
}
