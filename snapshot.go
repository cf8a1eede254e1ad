package pagelens

import (
	"context"
	"time"
)

// View identifies one rendition of a snapshot.
type View string

// Supported views.
const (
	ViewRaw      View = "raw"
	ViewRendered View = "rendered"
	ViewText     View = "text"
	ViewOutline  View = "outline"
	ViewMarkdown View = "markdown"
)

// Views lists every supported view.
func Views() []View {
	return []View{ViewRaw, ViewRendered, ViewText, ViewOutline, ViewMarkdown}
}

// ContentType returns the MIME type of the view's content.
func (v View) ContentType() string {
	switch v {
	case ViewText:
		return "text/plain; charset=utf-8"
	case ViewMarkdown:
		return "text/markdown; charset=utf-8"
	default:
		return "text/html; charset=utf-8"
	}
}

// Snapshot is a captured page together with its rendering.
type Snapshot struct {
	URL        string
	CapturedAt time.Time
	Page       *CapturedPage
	Rendering  *Rendering
}

// View returns the content of the requested view.
// Returns EINVALID for unknown views and ENOTFOUND when the view was not
// produced for this snapshot.
func (s *Snapshot) View(v View) (string, error) {
	var content string
	switch v {
	case ViewRaw:
		content = s.Page.HTML
	case ViewRendered:
		content = s.Rendering.Document
	case ViewText:
		return s.Rendering.PlainText, nil
	case ViewOutline:
		content = s.Rendering.Outline
	case ViewMarkdown:
		content = s.Rendering.Markdown
	default:
		return "", Errorf(EINVALID, "unknown view %q", v)
	}
	if content == "" {
		return "", Errorf(ENOTFOUND, "view %q not available", v)
	}
	return content, nil
}

// SnapshotStore persists snapshots with atomic update semantics.
// Saved snapshots become visible only after Commit.
type SnapshotStore interface {
	// Save writes every available view of the snapshot.
	Save(ctx context.Context, snap *Snapshot) error

	// Commit publishes everything saved so far.
	Commit() error

	// Abort discards everything saved since the store was created.
	Abort() error
}
