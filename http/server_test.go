package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fwojciec/pagelens"
	pagelenshttp "github.com/fwojciec/pagelens/http"
	"github.com/fwojciec/pagelens/mock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot() *pagelens.Snapshot {
	return &pagelens.Snapshot{
		URL:  "https://example.com",
		Page: &pagelens.CapturedPage{HTML: "<p>raw</p>", Styles: []string{"p{}"}},
		Rendering: &pagelens.Rendering{
			Document:  "<!DOCTYPE html><p>doc</p>",
			PlainText: "raw",
		},
	}
}

func capturing(fn func(ctx context.Context, url string) (*pagelens.Snapshot, error)) *mock.PageService {
	return &mock.PageService{CaptureFn: fn}
}

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestServer_Scrape(t *testing.T) {
	t.Parallel()

	t.Run("returns captured page and renditions", func(t *testing.T) {
		t.Parallel()

		var gotURL string
		s := pagelenshttp.NewServer(capturing(func(_ context.Context, url string) (*pagelens.Snapshot, error) {
			gotURL = url
			return snapshot(), nil
		}))

		rec := do(t, s, httptest.NewRequest(http.MethodPost, "/api/scrape", strings.NewReader(`{"url":"https://example.com"}`)))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.Equal(t, "https://example.com", gotURL)
		body := decode(t, rec)
		assert.Equal(t, "<p>raw</p>", body["html"])
		assert.Equal(t, []any{"p{}"}, body["styles"])
		assert.Equal(t, "<!DOCTYPE html><p>doc</p>", body["rendered"])
		assert.Equal(t, "raw", body["text"])
		assert.NotContains(t, body, "markdown")
	})

	t.Run("extracts fields when selectors are given", func(t *testing.T) {
		t.Parallel()

		title := "Title"
		var got pagelens.FieldSelectors
		s := pagelenshttp.NewServer(&mock.PageService{
			ExtractFn: func(_ context.Context, _ string, selectors pagelens.FieldSelectors) (pagelens.ExtractionResult, error) {
				got = selectors
				return pagelens.ExtractionResult{"title": &title, "price": nil}, nil
			},
		})

		rec := do(t, s, httptest.NewRequest(http.MethodPost, "/api/scrape",
			strings.NewReader(`{"url":"https://example.com","selectors":{"title":"h1","price":"#price"}}`)))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, pagelens.FieldSelectors{"title": "h1", "price": "#price"}, got)
		assert.JSONEq(t, `{"data":{"title":"Title","price":null}}`, rec.Body.String())
	})

	t.Run("requires URL", func(t *testing.T) {
		t.Parallel()

		s := pagelenshttp.NewServer(&mock.PageService{})

		rec := do(t, s, httptest.NewRequest(http.MethodPost, "/api/scrape", strings.NewReader(`{"url":""}`)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"URL is required"}`, rec.Body.String())
	})

	t.Run("rejects invalid JSON", func(t *testing.T) {
		t.Parallel()

		s := pagelenshttp.NewServer(&mock.PageService{})

		rec := do(t, s, httptest.NewRequest(http.MethodPost, "/api/scrape", strings.NewReader(`{`)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("maps capture errors to bad gateway with details", func(t *testing.T) {
		t.Parallel()

		s := pagelenshttp.NewServer(capturing(func(context.Context, string) (*pagelens.Snapshot, error) {
			return nil, pagelens.Errorf(pagelens.ECAPTURE, "navigation timeout")
		}))

		rec := do(t, s, httptest.NewRequest(http.MethodPost, "/api/scrape", strings.NewReader(`{"url":"https://slow.example.com"}`)))

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.JSONEq(t, `{"error":"Failed to scrape the URL","details":"navigation timeout"}`, rec.Body.String())
	})

	t.Run("hides internal errors", func(t *testing.T) {
		t.Parallel()

		s := pagelenshttp.NewServer(capturing(func(context.Context, string) (*pagelens.Snapshot, error) {
			return nil, assert.AnError
		}))

		rec := do(t, s, httptest.NewRequest(http.MethodPost, "/api/scrape", strings.NewReader(`{"url":"https://example.com"}`)))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"Internal error"}`, rec.Body.String())
	})
}

func TestServer_View(t *testing.T) {
	t.Parallel()

	s := pagelenshttp.NewServer(capturing(func(context.Context, string) (*pagelens.Snapshot, error) {
		return snapshot(), nil
	}))

	t.Run("serves rendered view by default", func(t *testing.T) {
		t.Parallel()

		rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/view?url=https://example.com", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Equal(t, "<!DOCTYPE html><p>doc</p>", rec.Body.String())
		assert.NotEmpty(t, rec.Header().Get("ETag"))
	})

	t.Run("serves text view as plain text", func(t *testing.T) {
		t.Parallel()

		rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/view?url=https://example.com&view=text", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Equal(t, "raw", rec.Body.String())
	})

	t.Run("returns not modified for matching ETag", func(t *testing.T) {
		t.Parallel()

		first := do(t, s, httptest.NewRequest(http.MethodGet, "/api/view?url=https://example.com&view=raw", nil))
		etag := first.Header().Get("ETag")
		require.NotEmpty(t, etag)

		req := httptest.NewRequest(http.MethodGet, "/api/view?url=https://example.com&view=raw", nil)
		req.Header.Set("If-None-Match", etag)
		rec := do(t, s, req)

		assert.Equal(t, http.StatusNotModified, rec.Code)
		assert.Empty(t, rec.Body.String())
	})

	t.Run("ETag differs between views", func(t *testing.T) {
		t.Parallel()

		raw := do(t, s, httptest.NewRequest(http.MethodGet, "/api/view?url=https://example.com&view=raw", nil))
		text := do(t, s, httptest.NewRequest(http.MethodGet, "/api/view?url=https://example.com&view=text", nil))

		assert.NotEqual(t, raw.Header().Get("ETag"), text.Header().Get("ETag"))
	})

	t.Run("rejects unknown view", func(t *testing.T) {
		t.Parallel()

		rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/view?url=https://example.com&view=pdf", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("returns not found for views that were not produced", func(t *testing.T) {
		t.Parallel()

		rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/view?url=https://example.com&view=markdown", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("requires URL", func(t *testing.T) {
		t.Parallel()

		rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/view", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestServer_Middleware(t *testing.T) {
	t.Parallel()

	t.Run("assigns request ID", func(t *testing.T) {
		t.Parallel()

		s := pagelenshttp.NewServer(&mock.PageService{})

		rec := do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, rec.Header().Get(pagelenshttp.RequestIDHeader), 36)
	})

	t.Run("propagates incoming request ID", func(t *testing.T) {
		t.Parallel()

		s := pagelenshttp.NewServer(&mock.PageService{})
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set(pagelenshttp.RequestIDHeader, "abc-123")

		rec := do(t, s, req)

		assert.Equal(t, "abc-123", rec.Header().Get(pagelenshttp.RequestIDHeader))
	})

	t.Run("logs requests", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		s := pagelenshttp.NewServer(&mock.PageService{},
			pagelenshttp.WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))

		do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Contains(t, buf.String(), "path=/healthz")
		assert.Contains(t, buf.String(), "status=200")
		assert.Contains(t, buf.String(), "request_id=")
	})

	t.Run("applies extra middleware to API routes", func(t *testing.T) {
		t.Parallel()

		var seen []string
		s := pagelenshttp.NewServer(capturing(func(context.Context, string) (*pagelens.Snapshot, error) {
			return snapshot(), nil
		}), pagelenshttp.WithMiddleware(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = append(seen, r.URL.Path)
				next.ServeHTTP(w, r)
			})
		}))

		do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		do(t, s, httptest.NewRequest(http.MethodGet, "/api/view?url=https://example.com", nil))

		assert.Equal(t, []string{"/api/view"}, seen)
	})

	t.Run("exposes metrics when configured", func(t *testing.T) {
		t.Parallel()

		reg := prometheus.NewRegistry()
		counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "pagelens_test_total", Help: "test"})
		reg.MustRegister(counter)
		counter.Inc()

		s := pagelenshttp.NewServer(&mock.PageService{}, pagelenshttp.WithMetrics(reg))

		rec := do(t, s, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "pagelens_test_total 1")
	})

	t.Run("has no metrics route by default", func(t *testing.T) {
		t.Parallel()

		s := pagelenshttp.NewServer(&mock.PageService{})

		rec := do(t, s, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestServer_Open(t *testing.T) {
	t.Parallel()

	s := pagelenshttp.NewServer(&mock.PageService{})
	require.NoError(t, s.Open("127.0.0.1:0"))
	defer s.Close(context.Background())

	resp, err := http.Get("http://" + s.Addr() + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
