package fetch

import (
	"mime"
	"strings"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/unicode"
)

const defaultCharset = "utf-8"

// decodeBody converts body to UTF-8 using the charset declared in contentType.
// A missing or unknown charset means UTF-8. Undecodable bytes become U+FFFD;
// decoding never fails.
func decodeBody(body []byte, contentType string) (string, string) {
	enc, name := charset.Lookup(charsetLabel(contentType))
	if enc == nil {
		enc, name = unicode.UTF8, defaultCharset
	}
	out, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return strings.ToValidUTF8(string(body), "\uFFFD"), defaultCharset
	}
	return string(out), name
}

// charsetLabel extracts the charset parameter from a Content-Type header
// value, tolerating headers that mime.ParseMediaType rejects.
func charsetLabel(contentType string) string {
	if _, params, err := mime.ParseMediaType(contentType); err == nil {
		if cs := strings.TrimSpace(params["charset"]); cs != "" {
			return cs
		}
		return defaultCharset
	}
	for _, part := range strings.Split(contentType, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if ok && strings.EqualFold(strings.TrimSpace(k), "charset") {
			if cs := strings.Trim(strings.TrimSpace(v), `"'`); cs != "" {
				return cs
			}
		}
	}
	return defaultCharset
}
