package reaper

import (
	"time"

	"github.com/rs/zerolog/log"
)

// GCParams are the required parameters for the Reapers Garbage Collection process.
type GCParams struct {
	Table      string    `json:"table"`
	RowKey     []byte    `json:"rowKey"`
	Family     string    `json:"family"`
	Qualifiers []string  `json:"qualifiers"`
	Timestamp  int64     `json:"timestamp"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// Reap schedules p for collection once p.ExpiresAt has passed. It never blocks the writer.
func (r *Reaper) Reap(p *GCParams) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.pending = append(r.pending, *p)
}

// Pending returns the number of markers waiting to expire.
func (r *Reaper) Pending() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.pending)
}

// Collect purges every pending marker that expired at or before now and returns how many
// purges removed data.
func (r *Reaper) Collect(now time.Time) int {
	r.mutex.Lock()
	var expired []GCParams
	active := r.pending[:0]
	for _, p := range r.pending {
		if !now.Before(p.ExpiresAt) {
			expired = append(expired, p)
		} else {
			active = append(active, p)
		}
	}
	r.pending = active
	r.mutex.Unlock()

	var removed int
	for i := range expired {
		if r.purger.Purge(&expired[i]) {
			removed++
		}
	}

	if len(expired) > 0 {
		log.Debug().Msgf("garbage collection complete: processed %d markers, removed %d",
			len(expired), removed)
	}
	return removed
}
