// Package storage is the in-process wide-column engine backing the memory driver and the
// store server.
//
// Every table is split into a fixed number of shards. A row key always hashes to the same shard
// (FNV-1a), and each shard has its own lock, so writes to different rows rarely contend:
//
//	table -> shard -> row -> family -> qualifier -> []version
//
// Versions are kept newest first. A delete never erases data in place: it appends a delete marker
// that hides every version at or before its timestamp. The reaper physically removes hidden
// versions once the marker has outlived the tombstone TTL.
//
// Prefix scans are the expensive case: row keys carry no ordering across shards, so a scan
// snapshots the matching keys of every shard, sorts them, and then materializes rows lazily.
//
// Durability is optional. When a directory is configured, every mutation is appended to the WAL
// before it is applied, and periodic snapshots of all tables allow the WAL to be truncated.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/litetable/widecolumn/internal/storage/reaper"
	"github.com/litetable/widecolumn/internal/wal"
	"github.com/litetable/widecolumn/pkg/model"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog/log"
)

const (
	snapshotDir = ".snapshots"
)

var (
	defaultShardCount       = 4
	defaultMaxVersions      = 3
	defaultTombstoneTTL     = time.Hour
	defaultGCInterval       = time.Minute
	defaultSnapshotInterval = 5 * time.Minute
	defaultSnapshotLimit    = 10
)

// State is the lifecycle state of a table.
type State int

const (
	StateAbsent State = iota
	StateEnabled
	StateDisabled
)

func (s State) String() string {
	switch s {
	case StateEnabled:
		return "enabled"
	case StateDisabled:
		return "disabled"
	default:
		return "absent"
	}
}

// Manager owns every table of the store.
type Manager struct {
	tables *xsync.MapOf[string, *table]

	// schemaMu serializes table creation and removal.
	schemaMu sync.Mutex
	// persistMu is held for reading by every mutation and for writing while a snapshot is taken,
	// so a snapshot and the WAL reset after it always agree.
	persistMu sync.RWMutex

	clock   atomic.Int64
	started atomic.Bool

	shardCount                int
	maxVersions               int
	familyDropRequiresDisable bool
	tombstoneTTL              time.Duration

	reaper *reaper.Reaper
	wal    *wal.Manager

	snapshotDir      string
	snapshotInterval time.Duration
	maxSnapshotLimit int

	procCtx   context.Context
	ctxCancel context.CancelFunc
	done      chan struct{}
}

type Config struct {
	// Dir enables durability (WAL and snapshots) when set.
	Dir string
	// ShardCount is the number of shards per table.
	ShardCount int
	// MaxVersions is the number of versions retained per column for new tables.
	MaxVersions int
	// FamilyDropRequiresDisable makes DeleteFamily fail with model.ErrTableEnabled on an
	// enabled table.
	FamilyDropRequiresDisable bool
	// TombstoneTTL is how long a delete marker keeps hidden versions readable.
	TombstoneTTL time.Duration
	// GCInterval is how often the reaper looks for expired markers.
	GCInterval time.Duration
	// SnapshotInterval is how often a full snapshot is written when Dir is set.
	SnapshotInterval time.Duration
	// MaxSnapshotLimit is how many snapshot files are kept on disk.
	MaxSnapshotLimit int
}

func (c *Config) validate() error {
	var errGrp []error
	if c.ShardCount < 0 || c.ShardCount > 64 {
		errGrp = append(errGrp, fmt.Errorf("shard count must be between 1 and 64"))
	}
	if c.MaxVersions < 0 {
		errGrp = append(errGrp, fmt.Errorf("max versions cannot be negative"))
	}
	if c.TombstoneTTL < 0 {
		errGrp = append(errGrp, fmt.Errorf("tombstone ttl cannot be negative"))
	}
	if c.GCInterval < 0 {
		errGrp = append(errGrp, fmt.Errorf("gc interval cannot be negative"))
	}
	if c.SnapshotInterval < 0 {
		errGrp = append(errGrp, fmt.Errorf("snapshot interval cannot be negative"))
	}
	if c.MaxSnapshotLimit < 0 || c.MaxSnapshotLimit > 50 {
		errGrp = append(errGrp, fmt.Errorf("max snapshot limit must be between 1 and 50"))
	}
	return errors.Join(errGrp...)
}

// New creates a storage manager. Zero config values fall back to defaults.
func New(cfg *Config) (*Manager, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.ShardCount == 0 {
		cfg.ShardCount = defaultShardCount
	}
	if cfg.MaxVersions == 0 {
		cfg.MaxVersions = defaultMaxVersions
	}
	if cfg.TombstoneTTL == 0 {
		cfg.TombstoneTTL = defaultTombstoneTTL
	}
	if cfg.GCInterval == 0 {
		cfg.GCInterval = defaultGCInterval
	}
	if cfg.SnapshotInterval == 0 {
		cfg.SnapshotInterval = defaultSnapshotInterval
	}
	if cfg.MaxSnapshotLimit == 0 {
		cfg.MaxSnapshotLimit = defaultSnapshotLimit
	}

	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		tables:                    xsync.NewMapOf[string, *table](),
		shardCount:                cfg.ShardCount,
		maxVersions:               cfg.MaxVersions,
		familyDropRequiresDisable: cfg.FamilyDropRequiresDisable,
		tombstoneTTL:              cfg.TombstoneTTL,
		snapshotInterval:          cfg.SnapshotInterval,
		maxSnapshotLimit:          cfg.MaxSnapshotLimit,
		procCtx:                   ctx,
		ctxCancel:                 cancel,
		done:                      make(chan struct{}),
	}

	r, err := reaper.New(&reaper.Config{
		Purger:     m,
		GCInterval: cfg.GCInterval,
	})
	if err != nil {
		cancel()
		return nil, err
	}
	m.reaper = r

	if cfg.Dir != "" {
		snapDir := filepath.Join(cfg.Dir, snapshotDir)
		if err = os.MkdirAll(snapDir, 0750); err != nil {
			cancel()
			return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
		}
		m.snapshotDir = snapDir

		m.wal, err = wal.New(&wal.Config{Path: cfg.Dir})
		if err != nil {
			cancel()
			return nil, err
		}
	}

	return m, nil
}

// Start restores persisted state, reschedules pending delete markers and starts the
// background reaper and snapshot loop.
func (m *Manager) Start() error {
	start := time.Now()
	if m.snapshotDir != "" {
		if err := m.loadFromLatestSnapshot(); err != nil {
			return err
		}
	}
	if m.wal != nil {
		if err := m.wal.Replay(m.replay); err != nil {
			return err
		}
	}
	m.rescheduleTombstones()
	log.Debug().Str("duration", time.Since(start).String()).Msgf("storage loaded %d tables",
		m.tables.Size())

	if err := m.reaper.Start(); err != nil {
		return err
	}

	m.started.Store(true)
	go func() {
		defer close(m.done)
		if m.snapshotDir == "" {
			<-m.procCtx.Done()
			return
		}

		ticker := time.NewTicker(m.snapshotInterval)
		defer ticker.Stop()
		for {
			select {
			case <-m.procCtx.Done():
				return
			case <-ticker.C:
				if err := m.Snapshot(); err != nil {
					log.Error().Err(err).Msg("failed to save snapshot")
				}
				m.maintainSnapshotLimit()
			}
		}
	}()
	return nil
}

// Stop halts background work and, when durable, writes a final snapshot.
func (m *Manager) Stop() error {
	if m.ctxCancel != nil {
		m.ctxCancel()
	}

	var errs []error
	if m.started.Load() {
		<-m.done
		if err := m.reaper.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	if m.snapshotDir != "" {
		if err := m.Snapshot(); err != nil {
			errs = append(errs, err)
		}
	}
	if m.wal != nil {
		if err := m.wal.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) Name() string {
	return "Storage"
}

// Capabilities describes the engine's behavior to drivers.
func (m *Manager) Capabilities() model.Capabilities {
	return model.Capabilities{
		TableStates:               true,
		RetainsDeletedVersions:    true,
		FamilyDropRequiresDisable: m.familyDropRequiresDisable,
	}
}

// CollectGarbage runs the reaper as if the clock read now.
func (m *Manager) CollectGarbage(now time.Time) int {
	return m.reaper.Collect(now)
}

// now returns a strictly increasing timestamp.
func (m *Manager) now() model.Timestamp {
	for {
		last := m.clock.Load()
		next := time.Now().UnixMicro()
		if next <= last {
			next = last + 1
		}
		if m.clock.CompareAndSwap(last, next) {
			return model.Timestamp(next)
		}
	}
}

// observe moves the clock past ts so store-assigned timestamps stay ahead of replayed or
// caller-supplied ones.
func (m *Manager) observe(ts model.Timestamp) {
	for {
		last := m.clock.Load()
		if int64(ts) <= last || m.clock.CompareAndSwap(last, int64(ts)) {
			return
		}
	}
}

// record writes e to the WAL when durability is enabled.
func (m *Manager) record(e *wal.Entry) error {
	if m.wal == nil {
		return nil
	}
	return m.wal.Apply(e)
}
