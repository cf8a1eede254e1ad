package goquery

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/pagelens"
	xhtml "golang.org/x/net/html"
)

// Ensure OutlineRenderer implements pagelens.OutlineRenderer at compile time.
var _ pagelens.OutlineRenderer = (*OutlineRenderer)(nil)

const (
	outlineRemove = "script, style, meta, link"
	outlineBlocks = "h1, h2, h3, h4, h5, h6, p, div, section, article, main, header, footer, aside, nav"
	outlineHeader = `<div style="font-family: sans-serif;">
<div style="background-color: #f0f0f0; padding: 10px; margin-bottom: 15px; border-radius: 4px;">
<h2 style="margin: 0; color: #333;">Text from the page</h2>
<p style="margin: 5px 0 0; font-size: 12px; color: #666;">Text extracted from the HTML, one block per element.</p>
</div>
`
)

// outlineSkip lists child elements the outline never descends into.
var outlineSkip = map[string]bool{
	"script": true, "style": true, "meta": true, "link": true,
	"svg": true, "path": true, "img": true,
}

// OutlineRenderer lists the text of a page's block elements, one labelled
// block per element with text, nested elements included.
type OutlineRenderer struct{}

// NewOutlineRenderer creates a new OutlineRenderer.
func NewOutlineRenderer() *OutlineRenderer {
	return &OutlineRenderer{}
}

// RenderOutline returns the outline as an HTML fragment.
// Returns an empty string when html has no body.
func (r *OutlineRenderer) RenderOutline(html string) string {
	doc, err := parseDocument(html)
	if err != nil {
		return ""
	}
	doc.Find(outlineRemove).Remove()

	body := doc.Find("body").First()
	if body.Length() == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(outlineHeader)

	blocks := doc.Find(outlineBlocks)
	if blocks.Length() == 0 {
		writeOutline(&b, body.Get(0))
	} else {
		important := make(map[*xhtml.Node]bool, blocks.Length())
		for _, n := range blocks.Nodes {
			important[n] = true
		}
		for _, n := range blocks.Nodes {
			if !hasMarkedAncestor(n, important) {
				writeOutline(&b, n)
			}
		}
	}

	b.WriteString("</div>")
	return b.String()
}

// writeOutline writes a block for n when it has text, then recurses into
// its element children.
func writeOutline(b *strings.Builder, n *xhtml.Node) {
	sel := goquery.NewDocumentFromNode(n).Selection
	if text := strings.TrimSpace(sel.Text()); text != "" {
		tag := n.Data
		b.WriteString(`<div class="extracted-text ` + tag + `-text" style="margin-bottom: 10px; padding: 8px; border-left: 3px solid #007bff;">`)
		b.WriteString(`<span style="font-size: 10px; color: #666; display: block; margin-bottom: 4px;">` + tag + `</span>`)
		b.WriteString(`<div style="font-size: 14px;">` + html.EscapeString(text) + "</div></div>\n")
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != xhtml.ElementNode || outlineSkip[c.Data] {
			continue
		}
		writeOutline(b, c)
	}
}

func hasMarkedAncestor(n *xhtml.Node, marked map[*xhtml.Node]bool) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if marked[p] {
			return true
		}
	}
	return false
}
