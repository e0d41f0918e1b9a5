package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestFetch_Success(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(200)
		_, _ = w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer srv.Close()

	c := &Client{PerRequestTimeout: 2 * time.Second}
	page, err := c.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.HTML != "<html><body>ok</body></html>" {
		t.Fatalf("unexpected body %q", page.HTML)
	}
	if page.StatusCode != 200 || page.Charset != "utf-8" {
		t.Fatalf("unexpected page meta: %+v", page)
	}
	if gotUA != DefaultUserAgent {
		t.Fatalf("expected default user agent, got %q", gotUA)
	}
}

func TestFetch_CustomUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := &Client{UserAgent: "pagestash-test", PerRequestTimeout: 2 * time.Second}
	if _, err := c.Fetch(context.Background(), srv.URL); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotUA != "pagestash-test" {
		t.Fatalf("got UA %q", gotUA)
	}
}

func TestFetch_DecodesDeclaredCharset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=ISO-8859-1")
		_, _ = w.Write([]byte("<p>caf\xe9</p>"))
	}))
	defer srv.Close()

	c := &Client{PerRequestTimeout: 2 * time.Second}
	page, err := c.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.HTML != "<p>café</p>" {
		t.Fatalf("expected latin-1 body decoded, got %q", page.HTML)
	}
	// 11 bytes on the wire; the decoded text is 12 bytes of UTF-8.
	if page.BodyLength != 11 {
		t.Fatalf("BodyLength=%d, want 11 raw bytes", page.BodyLength)
	}
}

func TestFetch_ReplacesInvalidBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("ok \xff end"))
	}))
	defer srv.Close()

	c := &Client{PerRequestTimeout: 2 * time.Second}
	page, err := c.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("decode must not fail: %v", err)
	}
	if page.HTML != "ok \uFFFD end" {
		t.Fatalf("expected replacement character, got %q", page.HTML)
	}
}

func TestFetch_StatusError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Path == "/boom" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := &Client{PerRequestTimeout: 2 * time.Second}
	_, err := c.Fetch(context.Background(), srv.URL+"/missing")
	code, ok := StatusCode(err)
	if !ok || code != 404 {
		t.Fatalf("expected status 404, got %d (%v)", code, err)
	}
	if err.Error() != "HTTP Error 404: Not Found" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if IsTransport(err) {
		t.Fatalf("status error must not be a transport error")
	}

	// 5xx is not retried.
	_, err = c.Fetch(context.Background(), srv.URL+"/boom")
	if code, _ := StatusCode(err); code != 500 {
		t.Fatalf("expected 500, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("expected exactly one request per fetch, got %d", n)
	}
}

func TestFetch_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	c := &Client{PerRequestTimeout: 2 * time.Second}
	_, err := c.Fetch(context.Background(), addr)
	if err == nil {
		t.Fatalf("expected error for closed server")
	}
	if !IsTransport(err) {
		t.Fatalf("expected transport error, got %T: %v", err, err)
	}
	if _, ok := StatusCode(err); ok {
		t.Fatalf("transport error must not carry a status")
	}
}

func TestFetch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		_, _ = w.Write([]byte("late"))
	}))
	defer srv.Close()

	c := &Client{PerRequestTimeout: 50 * time.Millisecond}
	_, err := c.Fetch(context.Background(), srv.URL)
	if !IsTransport(err) {
		t.Fatalf("expected timeout as transport error, got %v", err)
	}
}

func TestFetch_RejectsNonHTTP(t *testing.T) {
	c := &Client{PerRequestTimeout: 1 * time.Second}
	for _, u := range []string{"file:///etc/hosts", "example.com/no-scheme", "http://[::1"} {
		_, err := c.Fetch(context.Background(), u)
		if err == nil {
			t.Fatalf("expected error for %q", u)
		}
		if IsTransport(err) {
			t.Fatalf("%q: expected a non-transport error, got %v", u, err)
		}
		if _, ok := StatusCode(err); ok {
			t.Fatalf("%q: unexpected status", u)
		}
	}
}

func TestFetch_FollowsRedirects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			http.Redirect(w, r, "/final", http.StatusFound)
			return
		}
		_, _ = w.Write([]byte("done"))
	}))
	defer srv.Close()

	c := &Client{PerRequestTimeout: 2 * time.Second}
	page, err := c.Fetch(context.Background(), srv.URL+"/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(page.URL, "/final") || page.HTML != "done" {
		t.Fatalf("unexpected page %+v", page)
	}
}

func TestFetch_RedirectLimit(t *testing.T) {
	// Every path redirects; with RedirectMaxHops=1 the first redirect is already refused
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, r.URL.Path+"x", http.StatusFound)
	}))
	defer srv.Close()

	c := &Client{PerRequestTimeout: 2 * time.Second, RedirectMaxHops: 1}
	_, err := c.Fetch(context.Background(), srv.URL+"/")
	if code, ok := StatusCode(err); !ok || code != http.StatusFound {
		t.Fatalf("expected redirect limit reported as 302, got %v", err)
	}
}

func TestCharsetLabel(t *testing.T) {
	cases := map[string]string{
		"":                                 "utf-8",
		"text/html":                        "utf-8",
		"text/html; charset=Shift_JIS":     "Shift_JIS",
		`text/html; charset="windows-1251"`: "windows-1251",
		"text/html;; charset=koi8-r; x":    "koi8-r",
	}
	for in, want := range cases {
		if got := charsetLabel(in); got != want {
			t.Errorf("charsetLabel(%q)=%q, want %q", in, got, want)
		}
	}
}

func TestDecodeBody_UnknownCharsetFallsBack(t *testing.T) {
	got, name := decodeBody([]byte("plain"), "text/html; charset=no-such-charset")
	if got != "plain" || name != "utf-8" {
		t.Fatalf("got %q (%s)", got, name)
	}
}
