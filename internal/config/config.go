// Package config loads process settings from flags, WIDECOLUMN_* environment variables, .env
// files and an optional config file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/litetable/widecolumn/pkg/client"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "widecolumn"

// Setting keys. Flags use the same names.
const (
	KeyDriver                    = "driver"
	KeyQuorumHost                = "quorum-host"
	KeyQuorumPort                = "quorum-port"
	KeyMasterAddress             = "master-address"
	KeyMaxVersions               = "max-versions"
	KeyFamilyDropRequiresDisable = "family-drop-requires-disable"
	KeyPlaintext                 = "plaintext"
	KeyDialTimeout               = "dial-timeout"

	KeyListenAddress    = "listen-address"
	KeyListenPort       = "listen-port"
	KeyMetricsAddress   = "metrics-address"
	KeyMetricsPort      = "metrics-port"
	KeyDataDir          = "data-dir"
	KeyShardCount       = "shard-count"
	KeyTombstoneTTL     = "tombstone-ttl"
	KeyGCInterval       = "gc-interval"
	KeySnapshotInterval = "snapshot-interval"
	KeyMaxSnapshotLimit = "max-snapshot-limit"
	KeyStopTimeout      = "stop-timeout"

	KeyLogLevel = "log-level"
)

var defaults = map[string]any{
	KeyDriver:           string(client.DriverMemory),
	KeyQuorumHost:       "localhost",
	KeyQuorumPort:       2181,
	KeyMasterAddress:    "localhost:16000",
	KeyPlaintext:        true,
	KeyDialTimeout:      10 * time.Second,
	KeyListenAddress:    "127.0.0.1",
	KeyListenPort:       2181,
	KeyMetricsAddress:   "127.0.0.1",
	KeyMetricsPort:      9090,
	KeyTombstoneTTL:     time.Hour,
	KeyGCInterval:       time.Minute,
	KeySnapshotInterval: 5 * time.Minute,
	KeyMaxSnapshotLimit: 3,
	KeyStopTimeout:      5 * time.Second,
	KeyLogLevel:         "info",
}

// legacyKeys maps keys of hbaseconf-style property files onto setting keys.
var legacyKeys = map[string]string{
	"zookeeper_host": KeyQuorumHost,
	"zookeeper_port": KeyQuorumPort,
}

// Config is everything a widecolumn process is configured with.
type Config struct {
	Client   client.Settings
	Server   Server
	LogLevel zerolog.Level
}

// Server configures `widecolumn serve`.
type Server struct {
	ListenAddress    string
	ListenPort       int
	MetricsAddress   string
	MetricsPort      int
	DataDir          string
	ShardCount       int
	TombstoneTTL     time.Duration
	GCInterval       time.Duration
	SnapshotInterval time.Duration
	MaxSnapshotLimit int
	StopTimeout      time.Duration
}

// Loader reads settings through its own viper instance.
type Loader struct {
	v *viper.Viper
}

// New returns a Loader with defaults set and the environment bound.
func New() *Loader {
	v := viper.New()

	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	// the names every HBase client understands
	_ = v.BindEnv(KeyQuorumHost, "WIDECOLUMN_QUORUM_HOST", "ZOOKEEPER_HOST")
	_ = v.BindEnv(KeyQuorumPort, "WIDECOLUMN_QUORUM_PORT", "ZOOKEEPER_PORT")

	return &Loader{v: v}
}

// LoadEnvFiles exports the variables of each file that exists, without overriding the
// environment.
func LoadEnvFiles(files ...string) {
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// BindFlags makes flags take precedence over every other source.
func (l *Loader) BindFlags(fs *pflag.FlagSet) error {
	return l.v.BindPFlags(fs)
}

// ReadFile merges a config file into the settings. Java-style .properties files, such as
// hbaseconf.properties, are read as key=value lines; other extensions go through viper.
func (l *Loader) ReadFile(path string) error {
	if filepath.Ext(path) != ".properties" {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		return nil
	}

	props, err := godotenv.Read(path)
	if err != nil {
		return fmt.Errorf("failed to read properties file %s: %w", path, err)
	}
	settings := make(map[string]any, len(props))
	for k, val := range props {
		key, ok := legacyKeys[strings.ToLower(k)]
		if !ok {
			key = strings.ReplaceAll(strings.ToLower(k), "_", "-")
		}
		settings[key] = val
	}
	return l.v.MergeConfigMap(settings)
}

// Load resolves every setting.
func (l *Loader) Load() (*Config, error) {
	level, err := zerolog.ParseLevel(l.v.GetString(KeyLogLevel))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", KeyLogLevel, err)
	}

	cfg := &Config{
		Client: client.Settings{
			Driver:                    client.DriverKind(strings.ToLower(l.v.GetString(KeyDriver))),
			QuorumHost:                l.v.GetString(KeyQuorumHost),
			QuorumPort:                l.v.GetInt(KeyQuorumPort),
			MasterAddress:             l.v.GetString(KeyMasterAddress),
			MaxVersions:               l.v.GetInt(KeyMaxVersions),
			FamilyDropRequiresDisable: l.v.GetBool(KeyFamilyDropRequiresDisable),
			Plaintext:                 l.v.GetBool(KeyPlaintext),
			DialTimeout:               l.v.GetDuration(KeyDialTimeout),
		},
		Server: Server{
			ListenAddress:    l.v.GetString(KeyListenAddress),
			ListenPort:       l.v.GetInt(KeyListenPort),
			MetricsAddress:   l.v.GetString(KeyMetricsAddress),
			MetricsPort:      l.v.GetInt(KeyMetricsPort),
			DataDir:          l.v.GetString(KeyDataDir),
			ShardCount:       l.v.GetInt(KeyShardCount),
			TombstoneTTL:     l.v.GetDuration(KeyTombstoneTTL),
			GCInterval:       l.v.GetDuration(KeyGCInterval),
			SnapshotInterval: l.v.GetDuration(KeySnapshotInterval),
			MaxSnapshotLimit: l.v.GetInt(KeyMaxSnapshotLimit),
			StopTimeout:      l.v.GetDuration(KeyStopTimeout),
		},
		LogLevel: level,
	}
	if err = cfg.Server.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Settings satisfies client.SettingsSource.
func (l *Loader) Settings() (client.Settings, error) {
	cfg, err := l.Load()
	if err != nil {
		return client.Settings{}, err
	}
	return cfg.Client, nil
}

func (s *Server) validate() error {
	var errGrp []error
	if s.ListenPort < 0 || s.ListenPort > 65535 {
		errGrp = append(errGrp, fmt.Errorf("%s out of range: %d", KeyListenPort, s.ListenPort))
	}
	if s.MetricsPort < 0 || s.MetricsPort > 65535 {
		errGrp = append(errGrp, fmt.Errorf("%s out of range: %d", KeyMetricsPort, s.MetricsPort))
	}
	if s.StopTimeout <= 0 {
		errGrp = append(errGrp, fmt.Errorf("%s must be positive", KeyStopTimeout))
	}
	return errors.Join(errGrp...)
}
