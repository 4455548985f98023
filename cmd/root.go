// Package cmd is the widecolumn command line.
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/litetable/widecolumn/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	Version = "0.4.0"
)

var (
	// cfgFile is an optional config file merged under flags and the environment.
	cfgFile string
	// loader and settings are set by processConfig before any command runs.
	loader   *config.Loader
	settings *config.Config

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "widecolumn",
		Short: "sparse, versioned, column-family store client",
		Long: fmt.Sprintf(`widecolumn (v%s)

Client and server for a sparse, multi-version, column-family oriented
key-value store. Settings come from flags, WIDECOLUMN_* environment
variables, .env files and an optional config file.`, Version),
		SilenceUsage:      true,
		PersistentPreRunE: processConfig,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of widecolumn",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("widecolumn v%s\n", Version)
		},
	}
)

func init() {
	key := "config"
	RootCmd.PersistentFlags().StringVar(&cfgFile, key, "",
		"Config file: .yaml, .json, .toml or a hbaseconf-style .properties file")
	config.ClientFlags(RootCmd.PersistentFlags())

	RootCmd.AddCommand(versionCmd, serveCmd, demoCmd, schemaCmd)
}

// processConfig resolves the settings of every command and sets up logging.
func processConfig(cmd *cobra.Command, _ []string) error {
	config.LoadEnvFiles(".env", ".env.local")

	loader = config.New()
	if cfgFile != "" {
		if err := loader.ReadFile(cfgFile); err != nil {
			return err
		}
	}
	if err := loader.BindFlags(cmd.Flags()); err != nil {
		return err
	}

	cfg, err := loader.Load()
	if err != nil {
		return err
	}
	settings = cfg

	zerolog.SetGlobalLevel(cfg.LogLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	return nil
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
