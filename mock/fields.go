package mock

import "github.com/fwojciec/pagelens"

var _ pagelens.FieldExtractor = (*FieldExtractor)(nil)

// FieldExtractor is a mock implementation of pagelens.FieldExtractor.
type FieldExtractor struct {
	ExtractFieldsFn func(html string, selectors pagelens.FieldSelectors) pagelens.ExtractionResult
}

func (e *FieldExtractor) ExtractFields(html string, selectors pagelens.FieldSelectors) pagelens.ExtractionResult {
	return e.ExtractFieldsFn(html, selectors)
}
