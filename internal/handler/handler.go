// Package handler runs one fetch-extract-store cycle per event and maps every
// outcome to a status-coded response.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/pagestash/internal/extract"
	"github.com/hyperifyio/pagestash/internal/fetch"
	"github.com/hyperifyio/pagestash/internal/record"
	"github.com/hyperifyio/pagestash/internal/store"
)

// DefaultFetchTimeout bounds the page fetch when FetchTimeout is zero.
const DefaultFetchTimeout = 30 * time.Second

// Diagnostic bodies returned for requests that never reach the network.
const (
	MsgBucketNotConfigured = "Please set CONTENT_BUCKET environment variable."
	MsgMissingURL          = "Provide 'url' in the event or as query parameter."
)

// Fetcher retrieves and decodes one page. Errors are classified with
// fetch.StatusCode and fetch.IsTransport.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Page, error)
}

// Response is the envelope returned to the invoker.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// SuccessBody is JSON-encoded into Response.Body on success.
type SuccessBody struct {
	SavedTo string  `json:"saved_to"`
	Title   *string `json:"title"`
}

// Handler holds read-only configuration and stateless collaborators, so a
// single value may serve concurrent invocations.
type Handler struct {
	// Bucket is the destination bucket. Empty means not configured.
	Bucket       string
	Fetcher      Fetcher
	Store        store.Writer
	Extractor    extract.Extractor
	Builder      record.Builder
	FetchTimeout time.Duration
}

// Handle processes one event. It never returns an error: every failure is
// reported through the response status and body.
func (h *Handler) Handle(ctx context.Context, event map[string]any) Response {
	if h.Bucket == "" {
		log.Error().Msg("content bucket not configured")
		return Response{StatusCode: http.StatusInternalServerError, Body: MsgBucketNotConfigured}
	}

	url := URLFromEvent(event)
	if url == "" {
		log.Warn().Msg("event carries no url")
		return Response{StatusCode: http.StatusBadRequest, Body: MsgMissingURL}
	}

	page, resp, ok := h.fetch(ctx, url)
	if !ok {
		return resp
	}

	ex := h.Extractor
	if ex == nil {
		ex = extract.TagStateExtractor{}
	}
	doc := ex.Extract([]byte(page.HTML))
	key, rec := h.Builder.Build(url, doc, page.BodyLength)
	log.Debug().Str("url", url).Int("bytes", len(page.HTML)).Int("chars", rec.Content.Length).Str("key", key).Msg("extracted page")

	body, err := rec.Marshal()
	if err != nil {
		return unexpected(url, err)
	}
	uri, err := h.Store.Put(ctx, h.Bucket, key, body, record.ContentType)
	if err != nil {
		log.Error().Err(err).Str("bucket", h.Bucket).Str("key", key).Msg("store failed")
		return unexpected(url, err)
	}

	out, err := json.Marshal(SuccessBody{SavedTo: uri, Title: rec.Meta.Title})
	if err != nil {
		return unexpected(url, err)
	}
	log.Info().Str("url", url).Str("saved_to", uri).Msg("stored page")
	return Response{StatusCode: http.StatusOK, Body: string(out)}
}

// fetch runs the fetch step under its own timeout. When ok is false resp is
// the terminal response.
func (h *Handler) fetch(ctx context.Context, url string) (page *fetch.Page, resp Response, ok bool) {
	timeout := h.FetchTimeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	page, err := h.Fetcher.Fetch(ctx, url)
	if err == nil {
		return page, Response{}, true
	}
	if code, has := fetch.StatusCode(err); has {
		log.Warn().Err(err).Str("url", url).Int("status", code).Msg("upstream returned error status")
		return nil, Response{StatusCode: code, Body: fmt.Sprintf("HTTPError fetching URL: %v", err)}, false
	}
	if fetch.IsTransport(err) {
		log.Warn().Err(err).Str("url", url).Msg("transport failure")
		return nil, Response{StatusCode: http.StatusBadGateway, Body: fmt.Sprintf("URLError fetching URL: %v", err)}, false
	}
	return nil, unexpected(url, err), false
}

func unexpected(url string, err error) Response {
	log.Error().Err(err).Str("url", url).Msg("unexpected error")
	return Response{StatusCode: http.StatusInternalServerError, Body: fmt.Sprintf("Unexpected error: %v", err)}
}
