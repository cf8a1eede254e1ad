package goquery

import (
	"strings"

	"github.com/fwojciec/pagelens"
)

// Ensure Renderer implements pagelens.Renderer at compile time.
var _ pagelens.Renderer = (*Renderer)(nil)

// injectedStyle controls how images and substituted placeholders display.
const injectedStyle = `<style>
img {
  max-width: 100%;
  height: auto;
  border: 1px solid #eee;
  padding: 2px;
  margin: 5px;
}
img[data-original-src] {
  border: 1px dashed #ff9800;
}
img:hover {
  box-shadow: 0 0 5px rgba(0,0,0,0.3);
}
.img-replaced {
  position: relative;
}
.img-replaced::before {
  content: "\26A0";
  position: absolute;
  top: 0;
  left: 0;
  background: rgba(255, 152, 0, 0.7);
  color: white;
  padding: 2px 6px;
  font-size: 10px;
  border-radius: 3px;
}
</style>
`

const noticeBanner = `<div class="image-notice" style="background: #fff8e1; padding: 10px; margin-bottom: 15px; border-left: 4px solid #ff9800; color: #333;">
<strong>About images:</strong> some images were replaced with placeholders sized to match the originals because their sources were relative or could not be loaded. Click a placeholder to see its original source.
</div>
`

const revealScript = `<script>
document.querySelectorAll('img[data-original-src]').forEach(function (img) {
  img.classList.add('img-replaced');
  img.addEventListener('click', function () {
    alert('Original image source: ' + this.getAttribute('data-original-src'));
  });
});
</script>
`

// Renderer reassembles captured pages into self-contained HTML documents.
type Renderer struct{}

// NewRenderer creates a new Renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render returns a standalone document combining the injected image styles,
// the captured styles in order, the original head content, a notice banner
// and the body with relative and missing images replaced by placeholders.
func (r *Renderer) Render(page *pagelens.CapturedPage) string {
	head, body := splitDocument(page.HTML)

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	b.WriteString(`<meta charset="UTF-8">` + "\n")
	b.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1.0">` + "\n")
	b.WriteString(injectedStyle)
	for _, style := range page.Styles {
		b.WriteString("<style>")
		b.WriteString(style)
		b.WriteString("</style>\n")
	}
	b.WriteString(head)
	b.WriteString("\n</head>\n<body>\n")
	b.WriteString(noticeBanner)
	b.WriteString(body)
	b.WriteString("\n")
	b.WriteString(revealScript)
	b.WriteString("</body>\n</html>\n")
	return b.String()
}

// splitDocument parses html once and serializes the head and body contents
// separately, substituting placeholders for images in the body. Input the
// parser cannot structure is returned unmodified as the body.
func splitDocument(html string) (head, body string) {
	doc, err := parseDocument(html)
	if err != nil {
		return "", html
	}

	bodySel := doc.Find("body").First()
	if bodySel.Length() == 0 {
		return "", html
	}

	substituteImages(bodySel.Find("img"))

	if body, err = bodySel.Html(); err != nil {
		return "", html
	}
	head, err = doc.Find("head").First().Html()
	if err != nil {
		head = ""
	}
	return head, body
}
