package pagelens

// Rendering holds the renditions produced from a captured page.
type Rendering struct {
	// Document is the self-contained styled HTML document.
	Document string `json:"rendered"`

	// PlainText is the de-noised text of the page body.
	PlainText string `json:"text"`

	// Outline is an HTML listing of the text of the page's block elements.
	// Empty when no OutlineRenderer is configured.
	Outline string `json:"outline,omitempty"`

	// Markdown is the de-noised body converted to Markdown.
	// Empty when no Converter is configured or conversion failed.
	Markdown string `json:"markdown,omitempty"`
}

// Renderer reassembles a captured page into a self-contained HTML document.
type Renderer interface {
	// Render never fails: HTML without recognizable structure is wrapped
	// as body content. Output is deterministic for identical input.
	Render(page *CapturedPage) string
}

// TextExtractor produces a de-noised rendition of captured HTML.
type TextExtractor interface {
	// ExtractText returns the cleaned plain text of the page body.
	ExtractText(html string) string

	// CleanHTML returns the body HTML with noise elements removed.
	CleanHTML(html string) string
}

// OutlineRenderer renders the text of a page's block elements as HTML.
type OutlineRenderer interface {
	RenderOutline(html string) string
}

// Converter converts HTML to Markdown.
type Converter interface {
	// Convert transforms HTML content into Markdown.
	// The input should be clean HTML (e.g., from a TextExtractor).
	Convert(html string) (string, error)
}
