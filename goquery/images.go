package goquery

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/pagelens"
)

// substituteImages replaces relative and missing image sources with sized
// placeholders, in document order. The original relative source is kept in
// data-original-src. Every image gets the client-side load error handler.
func substituteImages(imgs *goquery.Selection) {
	imgs.Each(func(_ int, img *goquery.Selection) {
		src := img.AttrOr("src", "")
		d := pagelens.DescribeImage(src, img.AttrOr("width", ""), img.AttrOr("height", ""))

		switch {
		case d.IsRelative:
			img.SetAttr("data-original-src", src)
			img.SetAttr("src", d.Placeholder().URL())
			img.SetAttr("title", "Original src: "+src)
		case d.IsMissing:
			img.SetAttr("src", d.Placeholder().URL())
			img.SetAttr("title", "Missing image source")
		}

		img.SetAttr("onerror", pagelens.ImageErrorHandler)
	})
}
