package goquery

import (
	"maps"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/fwojciec/pagelens"
)

// Ensure FieldExtractor implements pagelens.FieldExtractor at compile time.
var _ pagelens.FieldExtractor = (*FieldExtractor)(nil)

// FieldExtractor extracts field values using CSS selectors.
type FieldExtractor struct {
	onError pagelens.SelectorErrorFunc
}

// FieldOption configures a FieldExtractor.
type FieldOption func(*FieldExtractor)

// WithSelectorErrorFunc sets a callback for selectors that fail to compile
// or match nothing.
func WithSelectorErrorFunc(fn pagelens.SelectorErrorFunc) FieldOption {
	return func(e *FieldExtractor) {
		e.onError = fn
	}
}

// NewFieldExtractor creates a new FieldExtractor.
func NewFieldExtractor(opts ...FieldOption) *FieldExtractor {
	e := &FieldExtractor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractFields returns the text content of the first element matching each
// selector. Fields are processed in name order.
func (e *FieldExtractor) ExtractFields(html string, selectors pagelens.FieldSelectors) pagelens.ExtractionResult {
	result := make(pagelens.ExtractionResult, len(selectors))
	for field := range selectors {
		result[field] = nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		for _, field := range slices.Sorted(maps.Keys(selectors)) {
			e.report(field, selectors[field], err)
		}
		return result
	}

	for _, field := range slices.Sorted(maps.Keys(selectors)) {
		selector := selectors[field]

		matcher, err := cascadia.Compile(selector)
		if err != nil {
			e.report(field, selector, err)
			continue
		}

		match := doc.FindMatcher(matcher).First()
		if match.Length() == 0 {
			e.report(field, selector, pagelens.ErrNoMatch)
			continue
		}

		text := match.Text()
		result[field] = &text
	}

	return result
}

func (e *FieldExtractor) report(field, selector string, err error) {
	if e.onError == nil {
		return
	}
	e.onError(&pagelens.SelectorError{Field: field, Selector: selector, Err: err})
}
