package main_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/fwojciec/pagelens"
	main "github.com/fwojciec/pagelens/cmd/pagelens"
	"github.com/fwojciec/pagelens/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain_Run(t *testing.T) {
	t.Parallel()

	t.Run("shows help and fails without arguments", func(t *testing.T) {
		t.Parallel()

		stdout := &bytes.Buffer{}
		err := main.NewMain().Run(context.Background(), nil, stdout, &bytes.Buffer{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "no command specified")
		assert.Contains(t, stdout.String(), "capture")
	})

	t.Run("shows help", func(t *testing.T) {
		t.Parallel()

		stdout := &bytes.Buffer{}
		err := main.NewMain().Run(context.Background(), []string{"--help"}, stdout, &bytes.Buffer{})

		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "extract")
		assert.Contains(t, stdout.String(), "serve")
	})

	t.Run("runs capture with an injected service", func(t *testing.T) {
		t.Parallel()

		m := main.NewMain()
		m.Service = &mock.PageService{
			CaptureFn: func(_ context.Context, url string) (*pagelens.Snapshot, error) {
				return testSnapshot(url), nil
			},
		}
		stdout := &bytes.Buffer{}

		err := m.Run(context.Background(), []string{"capture", "https://example.com", "--view", "raw"}, stdout, &bytes.Buffer{})

		require.NoError(t, err)
		assert.Equal(t, "<html><body><p>Hi</p></body></html>\n", stdout.String())
	})

	t.Run("runs extract with repeated selectors", func(t *testing.T) {
		t.Parallel()

		var got pagelens.FieldSelectors
		m := main.NewMain()
		m.Service = &mock.PageService{
			ExtractFn: func(_ context.Context, _ string, selectors pagelens.FieldSelectors) (pagelens.ExtractionResult, error) {
				got = selectors
				return pagelens.ExtractionResult{}, nil
			},
		}

		err := m.Run(context.Background(),
			[]string{"extract", "https://example.com", "-s", "title=h1", "-s", "next=xpath://a[@rel='next']/@href"},
			&bytes.Buffer{}, &bytes.Buffer{})

		require.NoError(t, err)
		assert.Equal(t, pagelens.FieldSelectors{"title": "h1", "next": "xpath://a[@rel='next']/@href"}, got)
	})

	t.Run("rejects unknown view", func(t *testing.T) {
		t.Parallel()

		m := main.NewMain()
		m.Service = &mock.PageService{}

		err := m.Run(context.Background(), []string{"capture", "https://example.com", "--view", "pdf"}, &bytes.Buffer{}, &bytes.Buffer{})

		require.Error(t, err)
	})

	t.Run("reports invalid config", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "bogus: 1\n")
		m := main.NewMain()
		m.Service = &mock.PageService{}
		stderr := &bytes.Buffer{}

		err := m.Run(context.Background(), []string{"--config", path, "capture", "https://example.com"}, &bytes.Buffer{}, stderr)

		require.Error(t, err)
		assert.Equal(t, pagelens.EINVALID, pagelens.ErrorCode(err))
		assert.Contains(t, stderr.String(), "error: invalid config")
	})

	t.Run("serves until cancelled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		m := main.NewMain()
		m.Service = &mock.PageService{}
		stdout := &bytes.Buffer{}

		err := m.Run(ctx, []string{"serve", "--addr", "127.0.0.1:0"}, stdout, &bytes.Buffer{})

		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "Listening on")
	})
}
