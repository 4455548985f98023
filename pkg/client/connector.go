package client

import (
	"context"
	"sync"
)

// Connector opens a Handle on first use and hands the same one to every later caller.
type Connector struct {
	src  SettingsSource
	opts []Option

	mu     sync.Mutex
	handle *Handle
}

// NewConnector returns a Connector reading its settings from src on first Acquire.
func NewConnector(src SettingsSource, opts ...Option) *Connector {
	return &Connector{src: src, opts: opts}
}

// Acquire returns the shared Handle, opening it if needed. Failures are not remembered: the
// next call reads the settings and tries again.
func (c *Connector) Acquire(ctx context.Context) (*Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handle != nil {
		return c.handle, nil
	}

	s, err := c.src.Settings()
	if err != nil {
		return nil, &ConfigurationError{Setting: "source", Err: err}
	}
	h, err := Open(ctx, s, c.opts...)
	if err != nil {
		return nil, err
	}
	c.handle = h
	return h, nil
}

// Close closes the shared Handle, if one was opened. A later Acquire opens a new one.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handle == nil {
		return nil
	}
	err := c.handle.Close()
	c.handle = nil
	return err
}
