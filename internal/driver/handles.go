package driver

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/litetable/widecolumn/pkg/model"
)

// ErrReleased is returned when a handle is closed twice.
var ErrReleased = errors.New("handle already closed")

// Tracker counts the handles a driver has handed out.
type Tracker struct {
	open   atomic.Int64
	closed atomic.Bool
}

// Acquire checks that the driver is usable and returns a counted handle.
func (t *Tracker) Acquire(ctx context.Context) (*Handle, error) {
	if err := t.Usable(ctx); err != nil {
		return nil, err
	}
	t.open.Add(1)
	return &Handle{t: t}, nil
}

// Usable fails once the driver is shut down or ctx is done.
func (t *Tracker) Usable(ctx context.Context) error {
	if t.closed.Load() {
		return model.ErrHandleClosed
	}
	return ctx.Err()
}

// Shutdown marks the driver closed. It returns false when it already was.
func (t *Tracker) Shutdown() bool {
	return t.closed.CompareAndSwap(false, true)
}

// Open is the number of handles not yet released.
func (t *Tracker) Open() int64 {
	return t.open.Load()
}

// Handle is embedded by every admin, table and scanner a driver returns.
type Handle struct {
	t        *Tracker
	released atomic.Bool
}

// Release gives the handle back. A second call fails with ErrReleased.
func (h *Handle) Release() error {
	if !h.released.CompareAndSwap(false, true) {
		return ErrReleased
	}
	h.t.open.Add(-1)
	return nil
}

// Released reports whether Release was called.
func (h *Handle) Released() bool {
	return h.released.Load()
}

// Check fails when the handle or its driver is closed, or ctx is done.
func (h *Handle) Check(ctx context.Context) error {
	if h.released.Load() {
		return model.ErrHandleClosed
	}
	return h.t.Usable(ctx)
}
