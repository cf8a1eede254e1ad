package goquery_test

import (
	"testing"

	"github.com/fwojciec/pagelens"
	"github.com/fwojciec/pagelens/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Ensure TextExtractor implements pagelens.TextExtractor at compile time.
var _ pagelens.TextExtractor = (*goquery.TextExtractor)(nil)

func TestTextExtractor_ExtractText(t *testing.T) {
	t.Parallel()

	t.Run("removes logout link and cleans lines", func(t *testing.T) {
		t.Parallel()

		html := `<body><a onclick="ChkRet_nosess();">Logout</a>
  Hello
	World  </body>`

		text := goquery.NewTextExtractor().ExtractText(html)

		assert.Equal(t, "Hello\nWorld", text)
	})

	t.Run("drops script and style content", func(t *testing.T) {
		t.Parallel()

		html := `<html><head><style>.hidden{display:none}</style></head>
<body><p>Visible</p><script>var secret = 1;</script><style>.x{color:red}</style></body></html>`

		text := goquery.NewTextExtractor().ExtractText(html)

		assert.Equal(t, "Visible", text)
		assert.NotContains(t, text, "secret")
		assert.NotContains(t, text, "color")
	})

	t.Run("extracts noscript content as text without markup", func(t *testing.T) {
		t.Parallel()

		html := `<html><body><noscript><p>Enable JS</p><img src="/p.gif"></noscript>
<p>hi</p></body></html>`

		text := goquery.NewTextExtractor().ExtractText(html)

		assert.Equal(t, "Enable JS\nhi", text)
		assert.NotContains(t, text, "<")
	})

	t.Run("keeps markup out of noscript and template text", func(t *testing.T) {
		t.Parallel()

		html := `<body><noscript><div><b>No JS</b></div></noscript>
<template><span>tpl</span></template>
<p>End</p></body>`

		text := goquery.NewTextExtractor().ExtractText(html)

		assert.NotContains(t, text, "<b>")
		assert.NotContains(t, text, "<span>")
		assert.Contains(t, text, "No JS")
		assert.Contains(t, text, "End")
	})

	t.Run("keeps text in document order", func(t *testing.T) {
		t.Parallel()

		html := `<body>
<h1>  Title </h1>

<div><p>First</p>
<p>Second</p></div>
</body>`

		text := goquery.NewTextExtractor().ExtractText(html)

		assert.Equal(t, "Title\nFirst\nSecond", text)
	})

	t.Run("removes tabs inside lines", func(t *testing.T) {
		t.Parallel()

		text := goquery.NewTextExtractor().ExtractText("<body><p>Para\tgraph</p></body>")

		assert.Equal(t, "Paragraph", text)
	})

	t.Run("treats input without body tag as body content", func(t *testing.T) {
		t.Parallel()

		text := goquery.NewTextExtractor().ExtractText("<p>hi</p>")

		assert.Equal(t, "hi", text)
	})

	t.Run("returns empty string for empty input", func(t *testing.T) {
		t.Parallel()

		assert.Empty(t, goquery.NewTextExtractor().ExtractText(""))
	})

	t.Run("is idempotent on its own output", func(t *testing.T) {
		t.Parallel()

		e := goquery.NewTextExtractor()
		first := e.ExtractText(`<body><h2>Orders</h2>
		<ul>
<li> One </li>
<li>Two</li></ul>
		<script>track()</script></body>`)

		second := e.ExtractText("<html><body>" + first + "</body></html>")

		assert.Equal(t, "Orders\nOne\nTwo", first)
		assert.Equal(t, first, second)
	})

	t.Run("removes configured noise selectors", func(t *testing.T) {
		t.Parallel()

		extra, err := goquery.CompileNoiseSelectors([]string{".ad", "#cookie-banner"})
		require.NoError(t, err)
		e := goquery.NewTextExtractor(goquery.WithNoiseSelectors(extra...))

		text := e.ExtractText(`<body><div class="ad">Buy now</div><p>Article</p><div id="cookie-banner">Accept</div></body>`)

		assert.Equal(t, "Article", text)
	})
}

func TestTextExtractor_CleanHTML(t *testing.T) {
	t.Parallel()

	t.Run("removes default noise elements", func(t *testing.T) {
		t.Parallel()

		html := `<body>
<meta name="robots" content="noindex">
<input class="btnCommon" type="button" value="Back">
<img src="/egp2procmainWeb/images/pagefooter.gif">
<img src="/logo.png">
<p>Content</p>
</body>`

		cleaned := goquery.NewTextExtractor().CleanHTML(html)

		assert.NotContains(t, cleaned, "<meta")
		assert.NotContains(t, cleaned, "btnCommon")
		assert.NotContains(t, cleaned, "pagefooter.gif")
		assert.Contains(t, cleaned, `<img src="/logo.png"/>`)
		assert.Contains(t, cleaned, "<p>Content</p>")
	})

	t.Run("keeps buttons without the noise class", func(t *testing.T) {
		t.Parallel()

		cleaned := goquery.NewTextExtractor().CleanHTML(`<body><input class="btnPrimary" type="submit"></body>`)

		assert.Contains(t, cleaned, "btnPrimary")
	})
}

func TestCompileNoiseSelectors(t *testing.T) {
	t.Parallel()

	t.Run("compiles valid selectors", func(t *testing.T) {
		t.Parallel()

		sels, err := goquery.CompileNoiseSelectors([]string{"nav", "footer .links"})

		require.NoError(t, err)
		assert.Len(t, sels, 2)
	})

	t.Run("rejects invalid selector", func(t *testing.T) {
		t.Parallel()

		_, err := goquery.CompileNoiseSelectors([]string{"nav", "a["})

		require.Error(t, err)
		assert.Equal(t, pagelens.EINVALID, pagelens.ErrorCode(err))
		assert.Contains(t, pagelens.ErrorMessage(err), `"a["`)
	})

	t.Run("default selectors compile", func(t *testing.T) {
		t.Parallel()

		sels, err := goquery.CompileNoiseSelectors(goquery.DefaultNoiseSelectors)

		require.NoError(t, err)
		assert.Len(t, sels, len(goquery.DefaultNoiseSelectors))
	})
}
