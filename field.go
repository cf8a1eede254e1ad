package pagelens

import (
	"errors"
	"fmt"
	"strings"
)

// XPathPrefix marks a field selector as an XPath expression.
const XPathPrefix = "xpath:"

// ErrNoMatch is reported when a selector matches no element.
var ErrNoMatch = errors.New("no matching element")

// FieldSelectors maps field names to selectors. Selectors are CSS unless
// prefixed with XPathPrefix.
type FieldSelectors map[string]string

// ExtractionResult maps field names to the text of the first element their
// selector matched. A nil value means no element matched or the selector
// could not be evaluated.
type ExtractionResult map[string]*string

// Value returns the extracted text for a field and whether it was found.
func (r ExtractionResult) Value(field string) (string, bool) {
	v, ok := r[field]
	if !ok || v == nil {
		return "", false
	}
	return *v, true
}

// FieldExtractor extracts field values from HTML using selectors.
type FieldExtractor interface {
	// ExtractFields evaluates every selector independently against html and
	// returns one entry per field. A failing selector yields a nil entry and
	// never aborts the batch.
	ExtractFields(html string, selectors FieldSelectors) ExtractionResult
}

// SelectorErrorFunc is called for every field whose selector failed.
type SelectorErrorFunc func(err *SelectorError)

// SelectorError reports a selector that failed to evaluate or matched nothing.
type SelectorError struct {
	Field    string
	Selector string
	Err      error
}

// Error implements the error interface.
func (e *SelectorError) Error() string {
	return fmt.Sprintf("field %q selector %q: %v", e.Field, e.Selector, e.Err)
}

// Unwrap returns the underlying cause.
func (e *SelectorError) Unwrap() error {
	return e.Err
}

// SelectorKind identifies the selector language.
type SelectorKind int

// Selector languages.
const (
	SelectorCSS SelectorKind = iota
	SelectorXPath
)

// ParseSelector returns the selector language and the bare expression.
func ParseSelector(selector string) (SelectorKind, string) {
	if expr, ok := strings.CutPrefix(selector, XPathPrefix); ok {
		return SelectorXPath, strings.TrimSpace(expr)
	}
	return SelectorCSS, selector
}

// Split partitions selectors by language.
func (s FieldSelectors) Split() (css, xpath FieldSelectors) {
	css, xpath = FieldSelectors{}, FieldSelectors{}
	for field, selector := range s {
		kind, expr := ParseSelector(selector)
		if kind == SelectorXPath {
			xpath[field] = expr
			continue
		}
		css[field] = expr
	}
	return css, xpath
}

// Validate returns an error if the selectors cannot be used.
func (s FieldSelectors) Validate() error {
	if len(s) == 0 {
		return Errorf(EINVALID, "at least one selector required")
	}
	for field, selector := range s {
		if field == "" {
			return Errorf(EINVALID, "field name required")
		}
		if strings.TrimSpace(selector) == "" {
			return Errorf(EINVALID, "selector required for field %q", field)
		}
	}
	return nil
}
