package pagelens

import (
	"fmt"
	"strings"
)

// Placeholder image dimensions. The placeholder service only renders sizes
// within [MinImageSize, MaxImageSize].
const (
	DefaultImageWidth  = 300
	DefaultImageHeight = 200
	MinImageSize       = 10
	MaxImageSize       = 4000
)

// PlaceholderBaseURL is the placeholder image service.
const PlaceholderBaseURL = "https://placehold.co"

// MissingSourceLabel labels placeholders for images without a source.
const MissingSourceLabel = "No source"

// maxLabelSource is the number of characters of the original source shown
// on a placeholder.
const maxLabelSource = 20

// Palette is a placeholder background/foreground color pair in hex.
type Palette struct {
	Background string
	Foreground string
}

// Placeholder palettes.
var (
	// PaletteNeutral is used for substituted images.
	PaletteNeutral = Palette{Background: "f0f0f0", Foreground: "333333"}

	// PaletteAlert is used client-side when a placeholder itself fails to load.
	PaletteAlert = Palette{Background: "f8d7da", Foreground: "721c24"}
)

// ImageDescriptor describes an <img> element found during reconstruction.
type ImageDescriptor struct {
	OriginalSrc string
	Width       int
	Height      int
	IsRelative  bool
	IsMissing   bool
}

// DescribeImage classifies an image by its src attribute and resolves its
// placeholder size from the width and height attribute values.
//
// Sources starting with "http" or "data:" are absolute; any other non-empty
// source is relative; an empty source is missing.
func DescribeImage(src, width, height string) ImageDescriptor {
	d := ImageDescriptor{
		OriginalSrc: src,
		Width:       placeholderSize(parseDimension(width), DefaultImageWidth),
		Height:      placeholderSize(parseDimension(height), DefaultImageHeight),
	}
	switch {
	case src == "":
		d.IsMissing = true
	case !strings.HasPrefix(src, "http") && !strings.HasPrefix(src, "data:"):
		d.IsRelative = true
	}
	return d
}

// NeedsPlaceholder reports whether the image should be replaced.
func (d ImageDescriptor) NeedsPlaceholder() bool {
	return d.IsRelative || d.IsMissing
}

// Placeholder returns the placeholder that stands in for the image.
func (d ImageDescriptor) Placeholder() PlaceholderSpec {
	if d.IsMissing {
		return NewPlaceholderSpec(d.Width, d.Height, MissingSourceLabel)
	}
	return NewPlaceholderSpec(d.Width, d.Height, d.OriginalSrc)
}

// PlaceholderSpec describes a generated placeholder image.
type PlaceholderSpec struct {
	Width  int
	Height int
	Label  string
}

// NewPlaceholderSpec builds a placeholder of the given size. Sizes are clamped
// to the supported range. When source is non-empty, its first 20 characters
// are included in the label.
func NewPlaceholderSpec(width, height int, source string) PlaceholderSpec {
	width = ClampImageSize(width)
	height = ClampImageSize(height)

	label := fmt.Sprintf("Image:+%dx%d", width, height)
	if source != "" {
		label += "+(" + truncateRunes(source, maxLabelSource) + ")"
	}

	return PlaceholderSpec{Width: width, Height: height, Label: label}
}

// URL returns the placeholder image URL in the neutral palette.
func (p PlaceholderSpec) URL() string {
	return p.URLWithPalette(PaletteNeutral)
}

// URLWithPalette returns the placeholder image URL in the given palette.
func (p PlaceholderSpec) URLWithPalette(pal Palette) string {
	return fmt.Sprintf("%s/%dx%d/%s/%s?text=%s",
		PlaceholderBaseURL,
		ClampImageSize(p.Width), ClampImageSize(p.Height),
		pal.Background, pal.Foreground,
		EncodeURIComponent(p.Label),
	)
}

// ClampImageSize limits n to [MinImageSize, MaxImageSize].
func ClampImageSize(n int) int {
	return min(max(n, MinImageSize), MaxImageSize)
}

// ImageErrorHandler is the inline onerror script attached to images in the
// rendered document. When an image fails to load it swaps in an
// alert-palette placeholder sized from the rendered element and marks the
// element with the img-replaced class.
var ImageErrorHandler = fmt.Sprintf(
	"this.onerror=null;"+
		"var w=this.width||%d;var h=this.height||%d;"+
		"var o=this.getAttribute('data-original-src')||this.src;"+
		"this.src='%s/'+w+'x'+h+'/%s/%s?text=Load+Error:+'+encodeURIComponent(o.substring(0,15)+'...');"+
		"this.title='Failed to load: '+o;"+
		"this.classList.add('img-replaced');",
	DefaultImageWidth, DefaultImageHeight,
	PlaceholderBaseURL, PaletteAlert.Background, PaletteAlert.Foreground,
)

// placeholderSize applies the default when n is too small to be a real size.
func placeholderSize(n, def int) int {
	if n < MinImageSize {
		n = def
	}
	return ClampImageSize(n)
}

// parseDimension parses the leading digits of an HTML width or height
// attribute ("50", " 50px", "50.5"). Values without leading digits,
// including negative values, parse as 0.
func parseDimension(s string) int {
	s = strings.TrimLeft(s, " \t\n\f\r")
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
		if n > MaxImageSize {
			return MaxImageSize + 1
		}
	}
	return n
}

// truncateRunes returns the first n characters of s, followed by "..." when
// anything was cut off.
func truncateRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos] + "..."
		}
		i++
	}
	return s
}

// EncodeURIComponent percent-encodes s the way JavaScript's
// encodeURIComponent does: everything except A-Z a-z 0-9 - _ . ! ~ * ' ( )
// is escaped as UTF-8 bytes.
func EncodeURIComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isURIComponentSafe(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isURIComponentSafe(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}
