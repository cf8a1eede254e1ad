package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/fwojciec/pagelens"
	pagelenshttp "github.com/fwojciec/pagelens/http"
	"github.com/fwojciec/pagelens/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time verification that Fetcher implements both adapter interfaces.
var (
	_ pagelens.Fetcher  = (*pagelenshttp.Fetcher)(nil)
	_ pagelens.Capturer = (*pagelenshttp.Fetcher)(nil)
)

func TestFetcher_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("returns HTML body from server", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html><body>Hello World</body></html>"))
		}))
		defer server.Close()

		fetcher := pagelenshttp.NewFetcher()
		defer fetcher.Close()

		html, err := fetcher.Fetch(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, "<html><body>Hello World</body></html>", html)
	})

	t.Run("decodes declared charset to UTF-8", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
			_, _ = w.Write([]byte("<p>caf\xe9</p>"))
		}))
		defer server.Close()

		html, err := pagelenshttp.NewFetcher().Fetch(context.Background(), server.URL)

		require.NoError(t, err)
		assert.Equal(t, "<p>café</p>", html)
	})

	t.Run("decodes meta charset to UTF-8", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html><head><meta charset=\"windows-1251\"></head><body>\xcf\xf0\xe8\xe2\xe5\xf2</body></html>"))
		}))
		defer server.Close()

		html, err := pagelenshttp.NewFetcher().Fetch(context.Background(), server.URL)

		require.NoError(t, err)
		assert.Contains(t, html, "Привет")
	})

	t.Run("respects custom timeout option", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
			_, _ = w.Write([]byte("response"))
		}))
		defer server.Close()

		fetcher := pagelenshttp.NewFetcher(pagelenshttp.WithTimeout(10 * time.Millisecond))
		defer fetcher.Close()

		_, err := fetcher.Fetch(context.Background(), server.URL)
		require.Error(t, err)
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
			_, _ = w.Write([]byte("response"))
		}))
		defer server.Close()

		fetcher := pagelenshttp.NewFetcher()
		defer fetcher.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := fetcher.Fetch(ctx, server.URL)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("returns error for non-existent host", func(t *testing.T) {
		t.Parallel()

		fetcher := pagelenshttp.NewFetcher(pagelenshttp.WithTimeout(100 * time.Millisecond))
		defer fetcher.Close()

		_, err := fetcher.Fetch(context.Background(), "http://non-existent-host.invalid/page")
		require.Error(t, err)
	})

	t.Run("returns error for non-200 status codes", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte("404 Not Found"))
		}))
		defer server.Close()

		fetcher := pagelenshttp.NewFetcher()
		defer fetcher.Close()

		_, err := fetcher.Fetch(context.Background(), server.URL)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "404")
	})
}

func TestFetcher_Capture(t *testing.T) {
	t.Parallel()

	t.Run("collects inline styles then linked stylesheets in order", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<html><head>
<link rel="stylesheet" href="/css/a.css">
<style>body{color:red}</style>
<link rel="stylesheet" href="b.css">
<link rel="stylesheet" href="/gone.css">
<link rel="icon" href="/favicon.ico">
</head><body><p>Hi</p></body></html>`))
		})
		mux.HandleFunc("/css/a.css", func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(20 * time.Millisecond)
			_, _ = w.Write([]byte(".a{}"))
		})
		mux.HandleFunc("/b.css", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(".b{}"))
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		page, err := pagelenshttp.NewFetcher().Capture(context.Background(), server.URL+"/page")

		require.NoError(t, err)
		assert.Contains(t, page.HTML, "<p>Hi</p>")
		assert.Equal(t, []string{"body{color:red}", ".a{}", ".b{}"}, page.Styles)
	})

	t.Run("delegates stylesheet downloads", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<link rel="stylesheet" href="/s.css"><link rel="stylesheet" href="data:text/css,a{}">`))
		}))
		defer server.Close()

		var got []string
		fetcher := pagelenshttp.NewFetcher(pagelenshttp.WithStylesheetFetcher(&mock.StylesheetFetcher{
			FetchStylesheetsFn: func(_ context.Context, urls []string) []string {
				got = urls
				return []string{"s{}"}
			},
		}))

		page, err := fetcher.Capture(context.Background(), server.URL)

		require.NoError(t, err)
		assert.Equal(t, []string{server.URL + "/s.css"}, got)
		assert.Equal(t, []string{"s{}"}, page.Styles)
	})

	t.Run("returns empty styles for unstyled page", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<p>plain</p>`))
		}))
		defer server.Close()

		page, err := pagelenshttp.NewFetcher().Capture(context.Background(), server.URL)

		require.NoError(t, err)
		assert.NotNil(t, page.Styles)
		assert.Empty(t, page.Styles)
	})
}

func TestDiscoverStyles(t *testing.T) {
	t.Parallel()

	t.Run("resolves links against base URL", func(t *testing.T) {
		t.Parallel()

		base, _ := url.Parse("https://example.com/docs/page.html")

		sources, err := pagelenshttp.DiscoverStyles(`<link rel="stylesheet" href="../main.css"><link rel="stylesheet" href="https://cdn.example.com/x.css">`, base)

		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.com/main.css", "https://cdn.example.com/x.css"}, sources.External)
	})

	t.Run("honours base element", func(t *testing.T) {
		t.Parallel()

		base, _ := url.Parse("https://example.com/a/b")

		sources, err := pagelenshttp.DiscoverStyles(`<head><base href="https://static.example.com/v2/"><link rel="stylesheet" href="site.css"></head>`, base)

		require.NoError(t, err)
		assert.Equal(t, []string{"https://static.example.com/v2/site.css"}, sources.External)
	})

	t.Run("skips links without href", func(t *testing.T) {
		t.Parallel()

		sources, err := pagelenshttp.DiscoverStyles(`<link rel="stylesheet"><link rel="stylesheet" href="  ">`, nil)

		require.NoError(t, err)
		assert.Empty(t, sources.External)
	})
}
