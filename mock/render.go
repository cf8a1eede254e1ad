package mock

import "github.com/fwojciec/pagelens"

var _ pagelens.Renderer = (*Renderer)(nil)

// Renderer is a mock implementation of pagelens.Renderer.
type Renderer struct {
	RenderFn func(page *pagelens.CapturedPage) string
}

func (r *Renderer) Render(page *pagelens.CapturedPage) string {
	return r.RenderFn(page)
}

var _ pagelens.TextExtractor = (*TextExtractor)(nil)

// TextExtractor is a mock implementation of pagelens.TextExtractor.
type TextExtractor struct {
	ExtractTextFn func(html string) string
	CleanHTMLFn   func(html string) string
}

func (e *TextExtractor) ExtractText(html string) string {
	return e.ExtractTextFn(html)
}

func (e *TextExtractor) CleanHTML(html string) string {
	return e.CleanHTMLFn(html)
}

var _ pagelens.OutlineRenderer = (*OutlineRenderer)(nil)

// OutlineRenderer is a mock implementation of pagelens.OutlineRenderer.
type OutlineRenderer struct {
	RenderOutlineFn func(html string) string
}

func (r *OutlineRenderer) RenderOutline(html string) string {
	return r.RenderOutlineFn(html)
}
