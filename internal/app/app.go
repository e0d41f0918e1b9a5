package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/pagestash/internal/extract"
	"github.com/hyperifyio/pagestash/internal/fetch"
	"github.com/hyperifyio/pagestash/internal/handler"
	"github.com/hyperifyio/pagestash/internal/record"
	"github.com/hyperifyio/pagestash/internal/store"
)

// App owns the configured handler and the resources behind its store.
type App struct {
	cfg     Config
	handler *handler.Handler
	closers []func(context.Context) error
}

// New validates cfg and wires the handler with concrete collaborators. Callers
// should have applied defaults already. A missing bucket only logs a warning.
func New(ctx context.Context, cfg Config) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	a := &App{cfg: cfg}

	w, err := a.newStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("init %s store: %w", cfg.StoreBackend, err)
	}

	a.handler = &handler.Handler{
		Bucket: cfg.Bucket,
		Fetcher: &fetch.Client{
			HTTPClient: newFetchHTTPClient(),
			UserAgent:  cfg.UserAgent,
		},
		Store:        w,
		Extractor:    extract.TagStateExtractor{},
		Builder:      record.Builder{},
		FetchTimeout: cfg.FetchTimeout,
	}

	if err := cfg.CheckBucket(); err != nil {
		log.Warn().Err(err).Msg("requests will fail until a bucket is configured")
	}
	log.Debug().Str("backend", cfg.StoreBackend).Str("bucket", cfg.Bucket).Dur("fetch_timeout", cfg.FetchTimeout).Msg("app ready")
	return a, nil
}

func (a *App) newStore(ctx context.Context) (store.Writer, error) {
	switch a.cfg.StoreBackend {
	case store.BackendFile:
		return &store.FileStore{Dir: a.cfg.StoreDir}, nil
	case store.BackendMongo:
		m, err := store.NewMongo(ctx, a.cfg.MongoURI, a.cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, m.Close)
		return m, nil
	default:
		return store.NewS3(ctx, store.S3Options{
			Region:    a.cfg.AWSRegion,
			Endpoint:  a.cfg.S3Endpoint,
			PathStyle: a.cfg.S3PathStyle,
		})
	}
}

// Handler returns the wired request handler.
func (a *App) Handler() *handler.Handler { return a.handler }

// Handle processes one event with the wired handler.
func (a *App) Handle(ctx context.Context, event map[string]any) handler.Response {
	return a.handler.Handle(ctx, event)
}

// Close releases store connections.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for _, c := range a.closers {
		if err := c(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
