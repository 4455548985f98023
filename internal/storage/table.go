package storage

import (
	"hash/fnv"
	"sort"
	"sync"

	"github.com/litetable/widecolumn/pkg/model"
)

// version is one stored cell version or delete marker.
type version struct {
	Value     []byte          `json:"value,omitempty"`
	Timestamp model.Timestamp `json:"timestamp"`
	Tombstone bool            `json:"tombstone,omitempty"`
}

// qualifiers maps a column qualifier to its versions, newest first.
type qualifiers map[string][]version

// row maps a family name to its columns.
type row map[string]qualifiers

// shard is a lock-protected slice of a table's rows.
type shard struct {
	mutex sync.RWMutex
	rows  map[string]row
}

// table is a named set of families and sharded rows.
type table struct {
	name string

	// mutex guards families and state. Data operations hold it for reading so a disable or
	// schema change waits for in-flight writes.
	mutex       sync.RWMutex
	families    map[string]struct{}
	state       State
	maxVersions int

	shards []*shard
}

func newTable(name string, families []string, maxVersions, shardCount int) *table {
	t := &table{
		name:        name,
		families:    make(map[string]struct{}, len(families)),
		state:       StateEnabled,
		maxVersions: maxVersions,
		shards:      make([]*shard, shardCount),
	}
	for _, f := range families {
		t.families[f] = struct{}{}
	}
	for i := range t.shards {
		t.shards[i] = &shard{rows: make(map[string]row)}
	}
	return t
}

// shardFor determines which shard a particular row key belongs to. It uses FNV-1a so keys are
// spread evenly and always land on the same shard.
func (t *table) shardFor(key []byte) *shard {
	if len(t.shards) == 1 {
		return t.shards[0]
	}
	h := fnv.New32a()
	_, _ = h.Write(key)
	return t.shards[h.Sum32()%uint32(len(t.shards))]
}

// familyNames returns the table's families in ascending order. Callers hold t.mutex.
func (t *table) familyNames() []string {
	out := make([]string, 0, len(t.families))
	for f := range t.families {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func (t *table) hasFamily(family string) bool {
	_, ok := t.families[family]
	return ok
}

// insert places v among versions keeping newest-first order. Equal timestamps keep insertion
// order, newest write first.
func insert(versions []version, v version) []version {
	i := sort.Search(len(versions), func(i int) bool {
		return versions[i].Timestamp <= v.Timestamp
	})
	versions = append(versions, version{})
	copy(versions[i+1:], versions[i:])
	versions[i] = v
	return versions
}

// retain trims values beyond the newest n. Delete markers are never trimmed: the reaper owns them.
func retain(versions []version, n int) []version {
	if n <= 0 {
		return versions
	}
	kept := versions[:0]
	var values int
	for _, v := range versions {
		if v.Tombstone {
			kept = append(kept, v)
			continue
		}
		if values < n {
			kept = append(kept, v)
			values++
		}
	}
	return kept
}
