// Package htmlquery extracts field values from HTML using XPath expressions.
package htmlquery

import (
	"maps"
	"slices"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/fwojciec/pagelens"
)

// Ensure FieldExtractor implements pagelens.FieldExtractor at compile time.
var _ pagelens.FieldExtractor = (*FieldExtractor)(nil)

// FieldExtractor extracts field values using XPath expressions. Selectors
// may carry the pagelens.XPathPrefix; it is stripped before evaluation.
type FieldExtractor struct {
	onError pagelens.SelectorErrorFunc
}

// Option configures a FieldExtractor.
type Option func(*FieldExtractor)

// WithSelectorErrorFunc sets a callback for expressions that fail to compile
// or match nothing.
func WithSelectorErrorFunc(fn pagelens.SelectorErrorFunc) Option {
	return func(e *FieldExtractor) {
		e.onError = fn
	}
}

// NewFieldExtractor creates a new FieldExtractor.
func NewFieldExtractor(opts ...Option) *FieldExtractor {
	e := &FieldExtractor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractFields returns the inner text of the first node matching each
// expression. Attribute expressions such as //a/@href yield the attribute
// value.
func (e *FieldExtractor) ExtractFields(html string, selectors pagelens.FieldSelectors) pagelens.ExtractionResult {
	result := make(pagelens.ExtractionResult, len(selectors))
	for field := range selectors {
		result[field] = nil
	}

	fields := slices.Sorted(maps.Keys(selectors))

	doc, err := htmlquery.Parse(strings.NewReader(html))
	if err != nil {
		for _, field := range fields {
			e.report(field, selectors[field], err)
		}
		return result
	}

	for _, field := range fields {
		selector := selectors[field]
		_, expr := pagelens.ParseSelector(selector)

		node, err := htmlquery.Query(doc, expr)
		if err != nil {
			e.report(field, selector, err)
			continue
		}
		if node == nil {
			e.report(field, selector, pagelens.ErrNoMatch)
			continue
		}

		text := htmlquery.InnerText(node)
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
