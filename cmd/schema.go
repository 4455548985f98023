package cmd

import (
	"fmt"

	"github.com/litetable/widecolumn/pkg/client"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	schemaCmd = &cobra.Command{
		Use:   "schema",
		Short: "Inspect table schemas",
	}
	describeCmd = &cobra.Command{
		Use:   "describe <table>",
		Short: "Print the column families of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHandle(cmd, func(h *client.Handle) error {
				families, err := h.DescribeSchema(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				for _, f := range families {
					fmt.Fprintln(cmd.OutOrStdout(), f)
				}
				return nil
			})
		},
	}
	listCmd = &cobra.Command{
		Use:   "list",
		Short: "Print every table name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withHandle(cmd, func(h *client.Handle) error {
				tables, err := h.ListTables(cmd.Context())
				if err != nil {
					return err
				}
				for _, t := range tables {
					fmt.Fprintln(cmd.OutOrStdout(), t)
				}
				return nil
			})
		},
	}
)

func init() {
	schemaCmd.AddCommand(describeCmd, listCmd)
}

// withHandle opens a handle with the resolved settings for the duration of fn.
func withHandle(cmd *cobra.Command, fn func(h *client.Handle) error) error {
	h, err := client.Open(cmd.Context(), settings.Client, client.WithLogger(log.Logger))
	if err != nil {
		return err
	}
	defer func() {
		if err := h.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close the store connection")
		}
	}()
	return fn(h)
}
