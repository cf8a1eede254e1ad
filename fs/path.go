// Package fs stores captured snapshots on the local filesystem.
package fs

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/pagelens"
)

// SnapshotDir converts a page URL to the relative directory its views are
// written to: the host followed by the URL path.
// Example: https://shop.example.com/items/42 → shop.example.com/items/42
//
// The root path becomes "index". A query string is folded into a hashed
// suffix on the last segment so that pages differing only by query do not
// collide. Fragments are ignored.
func SnapshotDir(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", pagelens.WrapError(pagelens.EINVALID, err, "invalid URL %q", rawURL)
	}
	if u.Host == "" {
		return "", pagelens.Errorf(pagelens.EINVALID, "URL %q has no host", rawURL)
	}

	for _, seg := range strings.Split(u.Path, "/") {
		if seg == ".." {
			return "", pagelens.Errorf(pagelens.EINVALID, "path traversal in URL %q", rawURL)
		}
	}

	p := strings.Trim(path.Clean("/"+u.Path), "/")
	if p == "" {
		p = "index"
	}
	if u.RawQuery != "" {
		p = fmt.Sprintf("%s_%016x", p, xxhash.Sum64String(u.RawQuery))
	}

	host := strings.ReplaceAll(u.Host, ":", "_")
	return host + "/" + p, nil
}

// ViewFile returns the file name a view is stored under.
func ViewFile(v pagelens.View) string {
	switch v {
	case pagelens.ViewText:
		return "text.txt"
	case pagelens.ViewMarkdown:
		return "markdown.md"
	default:
		return string(v) + ".html"
	}
}
