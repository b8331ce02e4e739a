// Package klines keeps the most recent candle set fetched for each market in a write-ahead log,
// so analysis can fall back to it when an exchange is unreachable.
package klines

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"
	"github.com/vadiminshakov/merx/internal/domain"
)

const (
	DefaultDir   = "./wal/klines"
	segmentLimit = 100
	maxSegments  = 10

	snapshotKeyPrefix = "klines_"
)

// ErrNoSnapshot is returned when nothing was stored for a market.
var ErrNoSnapshot = errors.New("no kline snapshot")

// Snapshot is a stored candle set.
type Snapshot struct {
	Platform string         `json:"platform"`
	Pair     string         `json:"pair"`
	Interval string         `json:"interval"`
	SavedAt  time.Time      `json:"saved_at"`
	Candles  domain.Candles `json:"candles"`
}

// WALStore persists kline snapshots in a WAL.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore initializes a WAL-backed snapshot store.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = DefaultDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "klines_",
		SegmentThreshold: segmentLimit,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init klines WAL")
	}

	return &WALStore{wal: wal}, nil
}

func snapshotKey(platform string, pair domain.Pair, interval string) string {
	return fmt.Sprintf("%s%s_%s_%s", snapshotKeyPrefix, platform, pair.String(), interval)
}

// Save appends the candle set for a market.
func (s *WALStore) Save(platform string, pair domain.Pair, interval string, candles domain.Candles) error {
	if s == nil || s.wal == nil {
		return errors.New("klines store is not initialized")
	}
	if len(candles) == 0 {
		return errors.New("refusing to store an empty kline snapshot")
	}

	payload, err := json.Marshal(Snapshot{
		Platform: platform,
		Pair:     pair.String(),
		Interval: interval,
		SavedAt:  time.Now().UTC(),
		Candles:  candles,
	})
	if err != nil {
		return errors.Wrap(err, "marshal kline snapshot")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, snapshotKey(platform, pair, interval), payload)
}

// Latest returns the most recently saved snapshot for a market.
func (s *WALStore) Latest(platform string, pair domain.Pair, interval string) (Snapshot, error) {
	if s == nil || s.wal == nil {
		return Snapshot{}, errors.New("klines store is not initialized")
	}

	key := snapshotKey(platform, pair, interval)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		payload []byte
		found   bool
	)
	for msg := range s.wal.Iterator() {
		if msg.Key == key {
			payload = msg.Value
			found = true
		}
	}
	if !found {
		return Snapshot{}, errors.Wrapf(ErrNoSnapshot, "%s", key)
	}

	var snap Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return Snapshot{}, errors.Wrap(err, "decode kline snapshot")
	}
	return snap, nil
}

// CurrentIndex returns the latest WAL index stored.
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
		return errors.New("klines store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
