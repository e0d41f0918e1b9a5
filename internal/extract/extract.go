package extract

import (
	"bytes"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Document is the title and visible text extracted from a page.
type Document struct {
	// Title is the first non-empty <title> text. Empty means the page has none.
	Title string
	Text  string
}

// HasTitle reports whether a title was captured.
func (d Document) HasTitle() bool { return d.Title != "" }

var blankRuns = regexp.MustCompile(`\n{3,}`)

// cdataTags are the elements whose content is raw text up to the matching
// end tag.
var cdataTags = map[string]bool{"script": true, "style": true}

// FromHTML extracts the page title and the visible text of input. It never
// fails: the tokenizer is tolerant, so malformed markup degrades to literal
// text or is skipped.
//
// Text nodes inside <script>, <style> and <noscript> are dropped. Every other
// non-blank text node is stripped and kept in document order, one per line.
func FromHTML(input []byte) Document {
	var st tagState
	z := html.NewTokenizer(bytes.NewReader(input))
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF at the end of input; the reader cannot fail otherwise.
			return st.document()
		case html.StartTagToken:
			name, _ := z.TagName()
			if !cdataTags[string(name)] {
				// Only script and style hold unparsed text; title, iframe,
				// textarea and the like are tokenized as ordinary markup.
				z.NextIsNotRawText()
			}
			st.set(string(name), true)
		case html.SelfClosingTagToken:
			// The tokenizer enters raw-text mode before it sees "/>", so
			// <script src="x.js"/> would otherwise swallow the rest of the
			// page. A self-closing element opens and closes at once.
			z.NextIsNotRawText()
			name, _ := z.TagName()
			st.set(string(name), true)
			st.set(string(name), false)
		case html.EndTagToken:
			name, _ := z.TagName()
			st.set(string(name), false)
		case html.TextToken:
			st.text(string(z.Text()))
		}
	}
}

// tagState tracks which suppressing elements the tokenizer is inside of.
// Flags are not nested: any end tag clears its flag.
type tagState struct {
	inScript   bool
	inStyle    bool
	inNoscript bool
	inTitle    bool

	title string
	parts []string
}

// set toggles the flag for name. Tag names from the tokenizer are already
// lower-cased.
func (s *tagState) set(name string, on bool) {
	switch strings.ToLower(name) {
	case "script":
		s.inScript = on
	case "style":
		s.inStyle = on
	case "noscript":
		s.inNoscript = on
	case "title":
		s.inTitle = on
	}
}

func (s *tagState) text(data string) {
	if s.inScript || s.inStyle || s.inNoscript {
		return
	}
	trimmed := strings.TrimSpace(data)
	if s.inTitle {
		// First non-empty title wins and is never replaced.
		if trimmed != "" && s.title == "" {
			s.title = trimmed
		}
		return
	}
	if trimmed != "" {
		s.parts = append(s.parts, trimmed)
	}
}

func (s *tagState) document() Document {
	text := strings.Join(s.parts, "\n")
	text = blankRuns.ReplaceAllString(text, "\n\n")
	return Document{Title: s.title, Text: strings.TrimSpace(text)}
}
