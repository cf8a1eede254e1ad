package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	xhtml "golang.org/x/net/html"
)

// parseDocument parses html the way a scripting-disabled DOMParser does:
// <noscript> content becomes elements rather than raw text.
func parseDocument(html string) (*goquery.Document, error) {
	root, err := xhtml.ParseWithOptions(strings.NewReader(html), xhtml.ParseOptionEnableScripting(false))
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromNode(root), nil
}
