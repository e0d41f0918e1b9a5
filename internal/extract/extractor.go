package extract

// Extractor defines a minimal interface for content extraction strategies.
// Implementations must be deterministic and never fail on malformed input.
type Extractor interface {
	// Extract converts raw HTML into a Document.
	Extract(input []byte) Document
}

// TagStateExtractor is the Extractor backed by FromHTML.
type TagStateExtractor struct{}

func (TagStateExtractor) Extract(input []byte) Document {
	return FromHTML(input)
}
