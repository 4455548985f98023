package client

import (
	"errors"
	"fmt"
	"time"
)

// DriverKind selects the backing store.
type DriverKind string

const (
	// DriverMemory runs the store engine in-process.
	DriverMemory DriverKind = "memory"
	// DriverRemote connects to a `widecolumn serve` instance.
	DriverRemote DriverKind = "remote"
	// DriverBigtable connects to Cloud Bigtable or its emulator.
	DriverBigtable DriverKind = "bigtable"
)

// Settings are the connection settings of a Handle.
type Settings struct {
	// Driver defaults to DriverMemory.
	Driver DriverKind
	// QuorumHost and QuorumPort locate the cluster's coordination endpoint.
	QuorumHost string
	QuorumPort int
	// MasterAddress identifies the cluster master. For Bigtable it is
	// projects/<project>/instances/<instance>.
	MasterAddress string

	// MaxVersions is the number of versions retained per column. Zero uses the store default.
	MaxVersions int
	// FamilyDropRequiresDisable makes the in-process store refuse family drops on enabled
	// tables, the way region servers do.
	FamilyDropRequiresDisable bool
	// Plaintext connects without TLS.
	Plaintext bool
	// DialTimeout bounds the connection check. Zero uses the driver default.
	DialTimeout time.Duration
}

func (s *Settings) driver() DriverKind {
	if s.Driver == "" {
		return DriverMemory
	}
	return s.Driver
}

// validate returns a ConfigurationError per offending setting, joined.
func (s *Settings) validate() error {
	var errGrp []error
	invalid := func(setting string, err error) {
		errGrp = append(errGrp, &ConfigurationError{Setting: setting, Err: err})
	}

	switch s.driver() {
	case DriverMemory, DriverRemote, DriverBigtable:
	default:
		invalid("driver", fmt.Errorf("%w: %q", ErrUnsupportedStore, s.Driver))
	}
	if s.QuorumHost == "" {
		invalid("quorum_host", errors.New("required"))
	}
	if s.QuorumPort <= 0 || s.QuorumPort > 65535 {
		invalid("quorum_port", fmt.Errorf("out of range: %d", s.QuorumPort))
	}
	if s.MasterAddress == "" {
		invalid("master_address", errors.New("required"))
	}
	if s.MaxVersions < 0 {
		invalid("max_versions", fmt.Errorf("cannot be negative: %d", s.MaxVersions))
	}
	if s.DialTimeout < 0 {
		invalid("dial_timeout", fmt.Errorf("cannot be negative: %s", s.DialTimeout))
	}
	return errors.Join(errGrp...)
}

// SettingsSource supplies Settings on demand, typically from files and the environment.
type SettingsSource interface {
	Settings() (Settings, error)
}

// SettingsFunc adapts a function to SettingsSource.
type SettingsFunc func() (Settings, error)

func (f SettingsFunc) Settings() (Settings, error) {
	return f()
}

// StaticSettings is a SettingsSource that always returns itself.
type StaticSettings Settings

func (s StaticSettings) Settings() (Settings, error) {
	return Settings(s), nil
}
