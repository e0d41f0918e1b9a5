package record

import (
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hyperifyio/pagestash/internal/extract"
)

func fixedBuilder() Builder {
	return Builder{
		Now:   func() time.Time { return time.Date(2024, 3, 5, 10, 11, 12, 500_000_000, time.UTC) },
		NewID: func() uuid.UUID { return uuid.MustParse("0a1b2c3d-4e5f-4a6b-8c7d-9e0f1a2b3c4d") },
	}
}

func TestBuild_KeyAndRecord(t *testing.T) {
	html := "<html><title>My Page</title><body>Hello</body></html>"
	doc := extract.Document{Title: "My Page", Text: "Hello"}

	key, rec := fixedBuilder().Build("http://www.example.com/page", doc, len(html))
	if key != "2024-03-05/example.com/my-page-0a1b2c3d.json" {
		t.Fatalf("unexpected key %q", key)
	}
	if rec.Meta.Title == nil || *rec.Meta.Title != "My Page" {
		t.Fatalf("unexpected title %v", rec.Meta.Title)
	}
	if rec.Meta.SourceURL != "http://www.example.com/page" {
		t.Fatalf("unexpected source url %q", rec.Meta.SourceURL)
	}
	if rec.Meta.FetchedAt != "2024-03-05T10:11:12.500000+00:00" {
		t.Fatalf("unexpected fetched_at %q", rec.Meta.FetchedAt)
	}
	if rec.Meta.ContentLength != len(html) {
		t.Fatalf("content_length=%d, want %d", rec.Meta.ContentLength, len(html))
	}
	if rec.Content.Text != "Hello" || rec.Content.Length != 5 {
		t.Fatalf("unexpected content %+v", rec.Content)
	}
}

func TestBuild_NoTitle(t *testing.T) {
	key, rec := fixedBuilder().Build("https://example.org/", extract.Document{Text: "x"}, 1)
	if key != "2024-03-05/example.org/page-0a1b2c3d.json" {
		t.Fatalf("unexpected key %q", key)
	}
	if rec.Meta.Title != nil {
		t.Fatalf("expected nil title, got %q", *rec.Meta.Title)
	}
	b, err := rec.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v, ok := raw["meta"]["title"]; !ok || v != nil {
		t.Fatalf("expected explicit null title, got %v (present=%v)", v, ok)
	}
}

func TestBuild_RandomSuffix(t *testing.T) {
	pattern := regexp.MustCompile(`^\d{4}-\d{2}-\d{2}/example\.com/my-page-[0-9a-f]{8}\.json$`)
	doc := extract.Document{Title: "My Page", Text: "Hello"}
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		key, _ := Builder{}.Build("http://www.example.com/page", doc, 0)
		if !pattern.MatchString(key) {
			t.Fatalf("key %q does not match %s", key, pattern)
		}
		seen[key] = true
	}
	if len(seen) < 2 {
		t.Fatalf("expected distinct keys for repeated fetches of the same URL")
	}
}

func TestHost(t *testing.T) {
	cases := map[string]string{
		"http://www.example.com/page":     "example.com",
		"https://example.com":             "example.com",
		"https://sub.www.example.com/a":   "sub.example.com",
		"http://wwwexample.com/":          "wwwexample.com",
		"http://www.example.com:8080/x":   "example.com:8080",
		"http://user:pw@www.example.org/": "user:pw@example.org",
		"http://example.com/www.path":     "example.com",
		"http://WWW.Example.com/":         "WWW.Example.com",
	}
	for in, want := range cases {
		if got := Host(in); got != want {
			t.Errorf("Host(%q)=%q, want %q", in, got, want)
		}
	}
}

func TestFormatTimestamp(t *testing.T) {
	whole := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	if got := FormatTimestamp(whole); got != "2024-01-02T03:04:05+00:00" {
		t.Fatalf("got %q", got)
	}
	east := time.FixedZone("east", 2*60*60)
	local := time.Date(2024, 1, 2, 1, 0, 0, 123_456_789, east)
	if got := FormatTimestamp(local); got != "2024-01-01T23:00:00.123456+00:00" {
		t.Fatalf("got %q", got)
	}
}

func TestBuild_UsesUTCDate(t *testing.T) {
	b := fixedBuilder()
	west := time.FixedZone("west", -5*60*60)
	b.Now = func() time.Time { return time.Date(2024, 3, 5, 22, 0, 0, 0, west) }
	key, _ := b.Build("http://example.com/", extract.Document{Title: "T"}, 0)
	if key != "2024-03-06/example.com/t-0a1b2c3d.json" {
		t.Fatalf("expected UTC date in key, got %q", key)
	}
}

func TestRecord_MarshalKeepsUnicode(t *testing.T) {
	title := "Café <Menu>"
	rec := Record{
		Meta:    Meta{SourceURL: "http://example.com/?a=1&b=2", Title: &title, FetchedAt: "2024-01-02T03:04:05+00:00", ContentLength: 3},
		Content: Content{Text: "héllo", Length: 5},
	}
	b, err := rec.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"meta":{"source_url":"http://example.com/?a=1&b=2","title":"Café <Menu>","fetched_at":"2024-01-02T03:04:05+00:00","content_length":3},"content":{"text":"héllo","length":5}}`
	if string(b) != want {
		t.Fatalf("got  %s\nwant %s", b, want)
	}
}

func TestBuild_LengthsCountCharactersAndBytes(t *testing.T) {
	_, rec := fixedBuilder().Build("http://example.com/", extract.Document{Text: "héllo"}, 7)
	if rec.Content.Length != 5 {
		t.Fatalf("text length=%d, want 5 characters", rec.Content.Length)
	}
	if rec.Meta.ContentLength != 7 {
		t.Fatalf("content_length=%d, want the raw byte count 7", rec.Meta.ContentLength)
	}
}
