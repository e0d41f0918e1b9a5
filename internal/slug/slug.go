// Package slug derives short, URL and filesystem safe identifiers from text.
package slug

import (
    "regexp"
    "strings"
)

// DefaultMaxLen bounds the slug length when callers pass a non-positive max.
const DefaultMaxLen = 60

// Fallback is returned when nothing usable survives slugification.
const Fallback = "page"

var (
    // Whitespace: ASCII space, \t through \r, the information separators
    // U+001C-U+001F, NEL and every rune in category Z.
    whitespaceRuns = regexp.MustCompile(`[\s\v\x{1c}-\x{1f}\x{85}\p{Z}]+`)
    disallowed     = regexp.MustCompile(`[^a-z0-9\-]+`)
)

// Make lowercases and strips text, turns each whitespace run into a single
// hyphen, drops anything outside [a-z0-9-], truncates to maxLen and trims
// hyphens from both ends. An empty result becomes Fallback.
func Make(text string, maxLen int) string {
    if maxLen <= 0 { maxLen = DefaultMaxLen }
    s := strings.ToLower(strings.TrimSpace(text))
    s = whitespaceRuns.ReplaceAllString(s, "-")
    s = disallowed.ReplaceAllString(s, "")
    // Only ASCII remains, so byte length equals character length.
    if len(s) > maxLen { s = s[:maxLen] }
    s = strings.Trim(s, "-")
    if s == "" { s = Fallback }
    return s
}
