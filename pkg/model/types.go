// Package model holds the values exchanged between the widecolumn facade, its drivers and the
// store engine: rows, cells, mutations and scan descriptions.
package model

import (
	"bytes"
	"time"
)

// Timestamp is a cell version in microseconds since the Unix epoch.
type Timestamp int64

// Now returns the current time as a Timestamp.
func Now() Timestamp {
	return Timestamp(time.Now().UnixMicro())
}

// Time converts the Timestamp to a time.Time.
func (t Timestamp) Time() time.Time {
	return time.UnixMicro(int64(t))
}

// Cell is a single version of a value stored at (row, family, qualifier, timestamp).
type Cell struct {
	Family    string    `json:"family"`
	Qualifier string    `json:"qualifier"`
	Value     []byte    `json:"value"`
	Timestamp Timestamp `json:"timestamp"`
	// Deleted is only set by reads with ReadOptions.IncludeDeleted: the version is hidden from
	// regular reads by a delete marker.
	Deleted bool `json:"deleted,omitempty"`
}

// Row is a materialized snapshot of the cells stored under one row key.
//
// Example:
//
//	Row{
//	  Key: []byte("u1"),
//	  Cells: []Cell{
//	    {Family: "orders", Qualifier: "x1", Value: []byte("x1NewData"), Timestamp: 1700000000000002},
//	    {Family: "profile", Qualifier: "name", Value: []byte("pippo"), Timestamp: 1700000000000001},
//	  },
//	}
//
// Cells are ordered by family, then qualifier, then timestamp descending.
type Row struct {
	Key   []byte `json:"key"`
	Cells []Cell `json:"cells"`
}

// Mutation is a single cell write. A zero Timestamp lets the store assign one.
type Mutation struct {
	Qualifier string    `json:"qualifier"`
	Value     []byte    `json:"value"`
	Timestamp Timestamp `json:"timestamp,omitempty"`
}

// ReadOptions control version-aware reads.
type ReadOptions struct {
	// MaxVersions is the number of versions returned per column. Zero means one.
	MaxVersions int `json:"maxVersions,omitempty"`
	// IncludeDeleted returns versions hidden by delete markers, flagged with Cell.Deleted.
	IncludeDeleted bool `json:"includeDeleted,omitempty"`
}

// Versions returns the effective number of versions requested.
func (o ReadOptions) Versions() int {
	if o.MaxVersions <= 0 {
		return 1
	}
	return o.MaxVersions
}

// ColumnValueFilter keeps rows whose latest visible value of Family:Qualifier equals Value.
// Rows lacking the column are excluded.
type ColumnValueFilter struct {
	Family    string `json:"family"`
	Qualifier string `json:"qualifier"`
	Value     []byte `json:"value"`
}

// Matches reports whether the row's latest visible value for the filtered column equals Value.
func (f *ColumnValueFilter) Matches(r *Row) bool {
	v, ok := r.Value(f.Family, f.Qualifier)
	return ok && bytes.Equal(v, f.Value)
}

// Scan describes an ordered traversal over a table. Zero values mean "no restriction".
type Scan struct {
	Family string             `json:"family,omitempty"`
	Prefix []byte             `json:"prefix,omitempty"`
	Filter *ColumnValueFilter `json:"filter,omitempty"`
	ReadOptions
}

// Capabilities describe behavior that differs between backing stores.
type Capabilities struct {
	// TableStates is true when the store models enabled/disabled tables.
	TableStates bool `json:"tableStates"`
	// RetainsDeletedVersions is true when delete markers hide versions instead of erasing them.
	RetainsDeletedVersions bool `json:"retainsDeletedVersions"`
	// FamilyDropRequiresDisable is true when a family can only be dropped from a disabled table.
	FamilyDropRequiresDisable bool `json:"familyDropRequiresDisable"`
}
