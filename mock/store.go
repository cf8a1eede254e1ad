package mock

import (
	"context"

	"github.com/fwojciec/pagelens"
)

var _ pagelens.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore is a mock implementation of pagelens.SnapshotStore.
type SnapshotStore struct {
	SaveFn   func(ctx context.Context, snap *pagelens.Snapshot) error
	CommitFn func() error
	AbortFn  func() error
}

func (s *SnapshotStore) Save(ctx context.Context, snap *pagelens.Snapshot) error {
	return s.SaveFn(ctx, snap)
}

func (s *SnapshotStore) Commit() error {
	return s.CommitFn()
}

func (s *SnapshotStore) Abort() error {
	return s.AbortFn()
}
