// Package snapshots keeps an append-only log of portfolio overview
// snapshots, one per successful sync, for the dashboard stream.
package snapshots

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"github.com/elobry/cryptofolio/internal/domain"
)

const (
	defaultSnapshotDir   = "./wal/portfolio"
	snapshotSegmentLimit = 1000
	snapshotMaxSegments  = 100
	snapshotKey          = "portfolio_snapshot"
)

// WALStore persists portfolio snapshots in a WAL for recovery/streaming purposes.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore initializes a WAL-backed snapshot store under the provided directory.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = defaultSnapshotDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "snapshot_",
		SegmentThreshold: snapshotSegmentLimit,
		MaxSegments:      snapshotMaxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init portfolio snapshot WAL")
	}

	return &WALStore{wal: wal}, nil
}

// Save appends the snapshot to the log.
func (s *WALStore) Save(snapshot domain.PortfolioSnapshot) error {
	if s == nil || s.wal == nil {
		return errors.New("portfolio snapshot store is not initialized")
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return errors.Wrap(err, "marshal portfolio snapshot")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, snapshotKey, payload)
}

// SnapshotsAfter returns all snapshots written after the provided log index.
func (s *WALStore) SnapshotsAfter(index uint64) ([]domain.PortfolioSnapshotRecord, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("portfolio snapshot store is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	if current <= index {
		return nil, nil
	}

	records := make([]domain.PortfolioSnapshotRecord, 0, current-index)
	for idx := index + 1; idx <= current; idx++ {
		key, payload, err := s.wal.Get(idx)
		if err != nil || !strings.HasPrefix(key, snapshotKey) {
			continue
		}
		var snapshot domain.PortfolioSnapshot
		if err := json.Unmarshal(payload, &snapshot); err != nil {
			return nil, errors.Wrap(err, "decode portfolio snapshot")
		}
		records = append(records, domain.PortfolioSnapshotRecord{
			Index:    idx,
			Snapshot: snapshot,
		})
	}

	return records, nil
}

// CurrentIndex returns the latest log index stored.
func (s *WALStore) CurrentIndex() uint64 {
	if s == nil || s.wal == nil {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.wal.CurrentIndex()
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("portfolio snapshot store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
