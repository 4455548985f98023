// Package reaper compacts delete markers. Every delete marker written by the store is handed to
// the Reaper with an expiry; once it expires, the marker and every version it hides are
// physically removed, and rows left without cells disappear.
package reaper

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

//go:generate mockgen -destination=./reaper_mock.go -package=reaper -source=reaper.go

// purger is the store surface the Reaper needs to reclaim hidden versions.
type purger interface {
	// Purge removes every version at or before p.Timestamp for the qualifiers in p. It reports
	// whether anything was removed.
	Purge(p *GCParams) bool
}

type Reaper struct {
	purger purger

	mutex   sync.Mutex
	pending []GCParams

	reapInterval time.Duration

	procCtx context.Context
	cancel  context.CancelFunc
	started atomic.Bool
	done    chan struct{}
}

type Config struct {
	Purger     purger
	GCInterval time.Duration
}

func (c *Config) validate() error {
	var errGrp []error
	if c.Purger == nil {
		errGrp = append(errGrp, errors.New("purger cannot be nil"))
	}
	if c.GCInterval <= 0 {
		errGrp = append(errGrp, errors.New("GCInterval must be greater than 0"))
	}
	return errors.Join(errGrp...)
}

// New creates a new Reaper.
func New(cfg *Config) (*Reaper, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// create a cancel context to ensure all garbage collection processes are shut down gracefully
	ctx, cancel := context.WithCancel(context.Background())

	return &Reaper{
		purger:       cfg.Purger,
		pending:      make([]GCParams, 0),
		reapInterval: cfg.GCInterval,
		procCtx:      ctx,
		cancel:       cancel,
		done:         make(chan struct{}),
	}, nil
}

func (r *Reaper) Start() error {
	if !r.started.CompareAndSwap(false, true) {
		return errors.New("reaper already started")
	}
	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.reapInterval)
		defer ticker.Stop()
		for {
			select {
			case <-r.procCtx.Done():
				return
			case now := <-ticker.C:
				r.Collect(now)
			}
		}
	}()
	return nil
}

func (r *Reaper) Stop() error {
	if r.cancel != nil {
		r.cancel()
	}
	if r.started.Load() {
		<-r.done
	}
	return nil
}

func (r *Reaper) Name() string {
	return "Reaper"
}
