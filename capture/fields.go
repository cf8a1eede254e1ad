package capture

import (
	"maps"

	"github.com/fwojciec/pagelens"
)

var _ pagelens.FieldExtractor = (*FieldRouter)(nil)

// FieldRouter sends CSS selectors to one extractor and XPath selectors to
// another, merging their results.
type FieldRouter struct {
	CSS   pagelens.FieldExtractor
	XPath pagelens.FieldExtractor
}

// ExtractFields implements pagelens.FieldExtractor. XPath fields are nil
// when no XPath extractor is configured.
func (r *FieldRouter) ExtractFields(html string, selectors pagelens.FieldSelectors) pagelens.ExtractionResult {
	css, xpath := selectors.Split()

	result := make(pagelens.ExtractionResult, len(selectors))
	if len(css) > 0 {
		maps.Copy(result, r.CSS.ExtractFields(html, css))
	}
	if len(xpath) > 0 {
		if r.XPath == nil {
			for field := range xpath {
				result[field] = nil
			}
		} else {
			maps.Copy(result, r.XPath.ExtractFields(html, xpath))
		}
	}
	return result
}
