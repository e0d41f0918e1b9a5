package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultUserAgent identifies pagestash to the sites it fetches.
const DefaultUserAgent = "pagestash/1.0 (+https://github.com/hyperifyio/pagestash)"

const defaultRedirectMaxHops = 10

// Page is a successfully fetched and decoded HTML document.
type Page struct {
	// URL is the final URL after redirects.
	URL         string
	StatusCode  int
	ContentType string
	// Charset is the canonical name of the encoding used to decode the body.
	Charset string
	HTML    string

	// BodyLength is the byte length of the body as received, before decoding.
	BodyLength int
}

// Client wraps http.Client and performs exactly one GET per call. It does not
// retry; callers decide what a failure means.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// PerRequestTimeout bounds the whole exchange, body included.
	PerRequestTimeout time.Duration
	// RedirectMaxHops caps redirect following. Zero means default (10).
	RedirectMaxHops int
}

func (c *Client) getHTTPClient() *http.Client {
	if c.HTTPClient != nil {
		// Clone to attach our redirect policy without mutating caller's client
		base := *c.HTTPClient
		base.CheckRedirect = c.checkRedirectFunc()
		return &base
	}
	return &http.Client{Timeout: c.PerRequestTimeout, CheckRedirect: c.checkRedirectFunc()}
}

// Fetch issues a single GET for rawURL and decodes the body using the charset
// declared in the Content-Type header.
//
// Failures are classified: *StatusError for non-2xx responses, *TransportError
// when the exchange itself failed, and a plain error for anything else (for
// example a malformed URL).
func (c *Client) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	// Reject non-HTTP(S) schemes early
	if !isHTTPScheme(req.URL) {
		return nil, fmt.Errorf("unsupported URL scheme: %q", req.URL.String())
	}
	ua := c.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)

	if c.PerRequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(req.Context(), c.PerRequestTimeout)
		defer cancel()
		req = req.WithContext(ctx)
	}

	resp, err := c.getHTTPClient().Do(req)
	if err != nil {
		// The redirect policy reports refused redirects as status errors.
		var se *StatusError
		if errors.As(err, &se) {
			return nil, se
		}
		return nil, &TransportError{URL: rawURL, Err: unwrapURLError(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newStatusError(rawURL, resp)
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: fmt.Errorf("read body: %w", err)}
	}
	contentType := resp.Header.Get("Content-Type")
	text, name := decodeBody(b, contentType)

	final := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}
	return &Page{
		URL:         final,
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Charset:     name,
		HTML:        text,
		BodyLength:  len(b),
	}, nil
}

func (c *Client) checkRedirectFunc() func(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = defaultRedirectMaxHops
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			if req.Response != nil {
				return newStatusError(via[0].URL.String(), req.Response)
			}
			return errors.New("too many redirects")
		}
		// Only allow http/https during redirects
		if !isHTTPScheme(req.URL) {
			return errors.New("redirect to unsupported scheme")
		}
		return nil
	}
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

// unwrapURLError drops the *url.Error envelope; TransportError already
// carries the URL.
func unwrapURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) && ue.Err != nil {
		return ue.Err
	}
	return err
}
