package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/litetable/widecolumn/pkg/client"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoader_Defaults(t *testing.T) {
	req := require.New(t)
	cfg, err := New().Load()
	req.NoError(err)

	req.Equal(client.Settings{
		Driver:        client.DriverMemory,
		QuorumHost:    "localhost",
		QuorumPort:    2181,
		MasterAddress: "localhost:16000",
		Plaintext:     true,
		DialTimeout:   10 * time.Second,
	}, cfg.Client)
	req.Equal("127.0.0.1", cfg.Server.ListenAddress)
	req.Equal(2181, cfg.Server.ListenPort)
	req.Equal(time.Hour, cfg.Server.TombstoneTTL)
	req.Equal(zerolog.InfoLevel, cfg.LogLevel)
}

func TestLoader_ReadFile(t *testing.T) {
	tests := map[string]struct {
		name     string
		content  string
		expected client.Settings
		wantErr  bool
	}{
		"properties with legacy keys": {
			name: "hbaseconf.properties",
			content: "# cluster\n" +
				"zookeeper_host=zk1.example.com\n" +
				"zookeeper_port=2182\n" +
				"master_address=master.example.com:16000\n",
			expected: client.Settings{
				Driver:        client.DriverMemory,
				QuorumHost:    "zk1.example.com",
				QuorumPort:    2182,
				MasterAddress: "master.example.com:16000",
				Plaintext:     true,
				DialTimeout:   10 * time.Second,
			},
		},
		"yaml": {
			name: "widecolumn.yaml",
			content: "driver: remote\n" +
				"quorum-host: store.internal\n" +
				"quorum-port: 2200\n" +
				"master-address: master.internal:16000\n" +
				"plaintext: false\n" +
				"dial-timeout: 3s\n" +
				"max-versions: 5\n",
			expected: client.Settings{
				Driver:        client.DriverRemote,
				QuorumHost:    "store.internal",
				QuorumPort:    2200,
				MasterAddress: "master.internal:16000",
				MaxVersions:   5,
				DialTimeout:   3 * time.Second,
			},
		},
		"missing file": {
			name:    "absent.yaml",
			wantErr: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			req := require.New(t)
			path := filepath.Join(t.TempDir(), tc.name)
			if tc.content != "" {
				path = writeFile(t, tc.name, tc.content)
			}

			l := New()
			err := l.ReadFile(path)
			if tc.wantErr {
				req.Error(err)
				return
			}
			req.NoError(err)

			s, err := l.Settings()
			req.NoError(err)
			req.Equal(tc.expected, s)
		})
	}
}

func TestLoader_Precedence(t *testing.T) {
	req := require.New(t)
	path := writeFile(t, "hbaseconf.properties",
		"zookeeper_host=from-file\nzookeeper_port=1000\nmaster_address=file:16000\n")

	t.Setenv("ZOOKEEPER_HOST", "from-legacy-env")
	t.Setenv("WIDECOLUMN_QUORUM_PORT", "2000")
	t.Setenv("WIDECOLUMN_LOG_LEVEL", "debug")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String(KeyMasterAddress, "", "")
	req.NoError(fs.Parse([]string{"--master-address=flag:16000"}))

	l := New()
	req.NoError(l.ReadFile(path))
	req.NoError(l.BindFlags(fs))

	cfg, err := l.Load()
	req.NoError(err)
	req.Equal("from-legacy-env", cfg.Client.QuorumHost)
	req.Equal(2000, cfg.Client.QuorumPort)
	req.Equal("flag:16000", cfg.Client.MasterAddress)
	req.Equal(zerolog.DebugLevel, cfg.LogLevel)
}

func TestLoadEnvFiles(t *testing.T) {
	req := require.New(t)
	path := writeFile(t, ".env", "WIDECOLUMN_DRIVER=bigtable\n")
	t.Setenv("WIDECOLUMN_DRIVER", "")
	req.NoError(os.Unsetenv("WIDECOLUMN_DRIVER"))

	LoadEnvFiles(path, filepath.Join(t.TempDir(), ".env.local"))
	s, err := New().Settings()
	req.NoError(err)
	req.Equal(client.DriverBigtable, s.Driver)
}

func TestLoader_Invalid(t *testing.T) {
	tests := map[string]struct {
		env   string
		value string
	}{
		"log level": {
			env:   "WIDECOLUMN_LOG_LEVEL",
			value: "loud",
		},
		"listen port": {
			env:   "WIDECOLUMN_LISTEN_PORT",
			value: "70000",
		},
		"stop timeout": {
			env:   "WIDECOLUMN_STOP_TIMEOUT",
			value: "0s",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv(tc.env, tc.value)
			_, err := New().Load()
			require.Error(t, err)
		})
	}
}

func TestFlags(t *testing.T) {
	req := require.New(t)
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	ClientFlags(fs)
	ServerFlags(fs)
	req.NoError(fs.Parse([]string{
		"--driver=remote",
		"--quorum-port=2300",
		"--listen-port=2300",
		"--tombstone-ttl=10m",
		"--data-dir=/var/lib/widecolumn",
	}))

	l := New()
	req.NoError(l.BindFlags(fs))
	cfg, err := l.Load()
	req.NoError(err)

	req.Equal(client.DriverRemote, cfg.Client.Driver)
	req.Equal(2300, cfg.Client.QuorumPort)
	req.Equal("localhost", cfg.Client.QuorumHost)
	req.Equal(2300, cfg.Server.ListenPort)
	req.Equal(10*time.Minute, cfg.Server.TombstoneTTL)
	req.Equal(time.Minute, cfg.Server.GCInterval)
	req.Equal("/var/lib/widecolumn", cfg.Server.DataDir)
}
