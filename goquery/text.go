package goquery

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/fwojciec/pagelens"
)

// Ensure TextExtractor implements pagelens.TextExtractor at compile time.
var _ pagelens.TextExtractor = (*TextExtractor)(nil)

// DefaultNoiseSelectors match elements removed before text extraction:
// metadata, a site-specific logout link, stray buttons, a footer banner
// image, scripts and styles.
var DefaultNoiseSelectors = []string{
	"meta",
	`a[onclick="ChkRet_nosess();"]`,
	"input.btnCommon",
	`img[src="/egp2procmainWeb/images/pagefooter.gif"]`,
	"script",
	"style",
}

// TextExtractor removes noise elements from captured HTML and extracts the
// remaining body text.
type TextExtractor struct {
	noise []cascadia.Selector
}

// TextOption configures a TextExtractor.
type TextOption func(*TextExtractor)

// WithNoiseSelectors adds compiled selectors to the noise list.
// Use CompileNoiseSelectors to build them from configuration.
func WithNoiseSelectors(sels ...cascadia.Selector) TextOption {
	return func(e *TextExtractor) {
		e.noise = append(e.noise, sels...)
	}
}

// NewTextExtractor creates a TextExtractor that removes DefaultNoiseSelectors
// plus any configured extras.
func NewTextExtractor(opts ...TextOption) *TextExtractor {
	defaults, err := CompileNoiseSelectors(DefaultNoiseSelectors)
	if err != nil {
		panic(err) // DefaultNoiseSelectors are static and valid
	}
	e := &TextExtractor{noise: defaults}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CompileNoiseSelectors compiles CSS selectors, returning EINVALID for the
// first one that does not parse.
func CompileNoiseSelectors(selectors []string) ([]cascadia.Selector, error) {
	sels := make([]cascadia.Selector, 0, len(selectors))
	for _, s := range selectors {
		sel, err := cascadia.Compile(s)
		if err != nil {
			return nil, pagelens.Errorf(pagelens.EINVALID, "invalid noise selector %q: %v", s, err)
		}
		sels = append(sels, sel)
	}
	return sels, nil
}

// ExtractText returns the cleaned text content of the body.
func (e *TextExtractor) ExtractText(html string) string {
	doc := e.clean(html)
	if doc == nil {
		return ""
	}
	return pagelens.CleanText(doc.Find("body").Text())
}

// CleanHTML returns the inner HTML of the body with noise elements removed.
func (e *TextExtractor) CleanHTML(html string) string {
	doc := e.clean(html)
	if doc == nil {
		return ""
	}
	body, err := doc.Find("body").First().Html()
	if err != nil {
		return ""
	}
	return body
}

// clean parses html and removes every noise element.
func (e *TextExtractor) clean(html string) *goquery.Document {
	doc, err := parseDocument(html)
	if err != nil {
		return nil
	}
	for _, sel := range e.noise {
		doc.FindMatcher(sel).Remove()
	}
	return doc
}
