package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fwojciec/pagelens"
	"github.com/goccy/go-yaml"
)

// ManifestFile is the name of the per-snapshot metadata file.
const ManifestFile = "snapshot.yaml"

// Manifest describes a stored snapshot.
type Manifest struct {
	URL        string    `yaml:"url"`
	CapturedAt time.Time `yaml:"captured_at"`
	Views      []string  `yaml:"views"`
	Styles     int       `yaml:"styles"`
	Bytes      int       `yaml:"bytes"`
}

// Ensure SnapshotStore implements pagelens.SnapshotStore at compile time.
var _ pagelens.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore implements pagelens.SnapshotStore with atomic update semantics.
// Snapshots are saved to a temporary directory, then moved atomically on Commit.
type SnapshotStore struct {
	baseDir string
	name    string
}

// NewSnapshotStore creates a new SnapshotStore.
// Files are saved to baseDir/name.tmp and moved to baseDir/name on Commit.
func NewSnapshotStore(baseDir, name string) *SnapshotStore {
	return &SnapshotStore{
		baseDir: baseDir,
		name:    name,
	}
}

func (s *SnapshotStore) tempDir() string {
	return filepath.Join(s.baseDir, s.name+".tmp")
}

func (s *SnapshotStore) finalDir() string {
	return filepath.Join(s.baseDir, s.name)
}

// Save writes every available view, each stylesheet as styles/NNN.css and
// a manifest into the snapshot's directory.
func (s *SnapshotStore) Save(ctx context.Context, snap *pagelens.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if snap == nil || snap.Page == nil || snap.Rendering == nil {
		return pagelens.Errorf(pagelens.EINVALID, "snapshot is incomplete")
	}

	rel, err := SnapshotDir(snap.URL)
	if err != nil {
		return err
	}
	dir := filepath.Join(s.tempDir(), filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Join(dir, "styles"), 0755); err != nil {
		return err
	}

	m := Manifest{
		URL:        snap.URL,
		CapturedAt: snap.CapturedAt.UTC(),
		Views:      []string{},
		Styles:     len(snap.Page.Styles),
		Bytes:      len(snap.Page.HTML),
	}

	for _, v := range pagelens.Views() {
		content, err := snap.View(v)
		if pagelens.ErrorCode(err) == pagelens.ENOTFOUND {
			continue
		} else if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, ViewFile(v)), []byte(content), 0644); err != nil {
			return err
		}
		m.Views = append(m.Views, string(v))
	}

	for i, css := range snap.Page.Styles {
		name := fmt.Sprintf("%03d.css", i)
		if err := os.WriteFile(filepath.Join(dir, "styles", name), []byte(css), 0644); err != nil {
			return err
		}
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, ManifestFile), data, 0644)
}

// ReadManifest loads the manifest stored in a snapshot directory.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if os.IsNotExist(err) {
		return nil, pagelens.Errorf(pagelens.ENOTFOUND, "no snapshot in %s", dir)
	} else if err != nil {
		return nil, err
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	return &m, nil
}

func (s *SnapshotStore) Commit() error {
	// Remove existing final directory if present
	if err := os.RemoveAll(s.finalDir()); err != nil {
		return err
	}

	return os.Rename(s.tempDir(), s.finalDir())
}

func (s *SnapshotStore) Abort() error {
	return os.RemoveAll(s.tempDir())
}
