package config

import (
	"time"

	"github.com/spf13/pflag"
)

// ClientFlags registers the connection settings shared by every command.
func ClientFlags(fs *pflag.FlagSet) {
	key := KeyDriver
	fs.String(key, defaults[key].(string), "Backing store: memory, remote or bigtable")

	key = KeyQuorumHost
	fs.String(key, defaults[key].(string), "Host of the cluster coordination endpoint")

	key = KeyQuorumPort
	fs.Int(key, defaults[key].(int), "Port of the cluster coordination endpoint")

	key = KeyMasterAddress
	fs.String(key, defaults[key].(string),
		"Cluster master address (projects/<project>/instances/<instance> for bigtable)")

	key = KeyMaxVersions
	fs.Int(key, 0, "Versions retained per column; 0 uses the store default")

	key = KeyFamilyDropRequiresDisable
	fs.Bool(key, false, "Only drop column families from disabled tables (memory store)")

	key = KeyPlaintext
	fs.Bool(key, defaults[key].(bool), "Connect without TLS")

	key = KeyDialTimeout
	fs.Duration(key, defaults[key].(time.Duration), "Timeout of the initial connection check")

	key = KeyLogLevel
	fs.String(key, defaults[key].(string), "Log level (debug, info, warn, error)")
}

// ServerFlags registers the settings of `widecolumn serve`.
func ServerFlags(fs *pflag.FlagSet) {
	key := KeyListenAddress
	fs.String(key, defaults[key].(string), "Address the store server listens on")

	key = KeyListenPort
	fs.Int(key, defaults[key].(int), "Port the store server listens on")

	key = KeyMetricsAddress
	fs.String(key, defaults[key].(string), "Address of the /metrics endpoint")

	key = KeyMetricsPort
	fs.Int(key, defaults[key].(int), "Port of the /metrics endpoint")

	key = KeyDataDir
	fs.String(key, "", "Directory for the write-ahead log and snapshots; empty keeps data in memory")

	key = KeyShardCount
	fs.Int(key, 0, "Shards per table; 0 uses the store default")

	key = KeyTombstoneTTL
	fs.Duration(key, defaults[key].(time.Duration),
		"How long deleted versions stay readable before compaction")

	key = KeyGCInterval
	fs.Duration(key, defaults[key].(time.Duration), "How often compaction runs")

	key = KeySnapshotInterval
	fs.Duration(key, defaults[key].(time.Duration), "How often a snapshot is written")

	key = KeyMaxSnapshotLimit
	fs.Int(key, defaults[key].(int), "Snapshots kept on disk")

	key = KeyStopTimeout
	fs.Duration(key, defaults[key].(time.Duration), "Time allowed for a graceful shutdown")
}
