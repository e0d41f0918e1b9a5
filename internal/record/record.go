// Package record names storage keys and assembles the JSON record persisted
// for each fetched page.
package record

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hyperifyio/pagestash/internal/extract"
	"github.com/hyperifyio/pagestash/internal/slug"
)

// ContentType is the media type of a marshalled Record.
const ContentType = "application/json"

// suffixLen is the number of hex characters taken from the random ID.
const suffixLen = 8

// Meta describes where and when the content was fetched.
type Meta struct {
	SourceURL string `json:"source_url"`
	// Title is nil when the page had no title.
	Title     *string `json:"title"`
	FetchedAt string  `json:"fetched_at"`
	// ContentLength is the byte length of the fetched HTML before decoding.
	ContentLength int `json:"content_length"`
}

// Content holds the extracted text.
type Content struct {
	Text string `json:"text"`
	// Length counts characters, not bytes.
	Length int `json:"length"`
}

// Record is the document stored for one successful fetch.
type Record struct {
	Meta    Meta    `json:"meta"`
	Content Content `json:"content"`
}

// Marshal encodes r as JSON without escaping HTML or non-ASCII characters.
func (r Record) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Builder derives storage keys and records. The zero value uses the wall
// clock and random v4 UUIDs.
type Builder struct {
	Now        func() time.Time
	NewID      func() uuid.UUID
	SlugMaxLen int
}

// Build returns the storage key and record for a page fetched from rawURL.
// contentLength is the byte length of the HTML as received.
// The key is {UTC date}/{host without "www."}/{slug}-{8 hex}.json.
func (b Builder) Build(rawURL string, doc extract.Document, contentLength int) (string, Record) {
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	newID := uuid.New
	if b.NewID != nil {
		newID = b.NewID
	}
	at := now().UTC()

	base := slug.Fallback
	var title *string
	if doc.HasTitle() {
		t := doc.Title
		title = &t
		base = doc.Title
	}
	key := strings.Join([]string{
		at.Format(time.DateOnly),
		Host(rawURL),
		slug.Make(base, b.SlugMaxLen) + "-" + Suffix(newID()) + ".json",
	}, "/")

	rec := Record{
		Meta: Meta{
			SourceURL:     rawURL,
			Title:         title,
			FetchedAt:     FormatTimestamp(at),
			ContentLength: contentLength,
		},
		Content: Content{
			Text:   doc.Text,
			Length: utf8.RuneCountInString(doc.Text),
		},
	}
	return key, rec
}

// Host returns the network location of rawURL (userinfo, host and port) with
// every "www." removed, wherever it occurs.
func Host(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	netloc := u.Host
	if u.User != nil {
		netloc = u.User.String() + "@" + netloc
	}
	return strings.ReplaceAll(netloc, "www.", "")
}

// Suffix returns the first 8 lowercase hex characters of id.
func Suffix(id uuid.UUID) string {
	return hex.EncodeToString(id[:suffixLen/2])
}

// FormatTimestamp renders t in UTC as ISO-8601 with a numeric offset and
// microseconds, omitting the fraction when it is zero.
func FormatTimestamp(t time.Time) string {
	t = t.UTC()
	if t.Nanosecond()/int(time.Microsecond) == 0 {
		return t.Format("2006-01-02T15:04:05-07:00")
	}
	return t.Format("2006-01-02T15:04:05.000000-07:00")
}
