package cmd

import (
	"context"
	"errors"

	"github.com/litetable/widecolumn/pkg/client"
	"github.com/litetable/widecolumn/pkg/model"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Walk through the schema and data operations",
	Long: `Create, alter and drop a table, then store customers and their orders to
show sparse rows, multiple versions, delete markers and the scan variants.
Runs against the configured driver; the in-process memory store by default.`,
	RunE: runDemo,
}

func runDemo(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	log.Info().Msg("Configuring the store connection...")
	connector := client.NewConnector(loader, client.WithLogger(log.Logger))
	defer func() {
		if err := connector.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close the store connection")
		}
	}()
	h, err := connector.Acquire(ctx)
	if err != nil {
		return err
	}
	log.Info().Msg("Configuration completed")

	log.Info().Msg("### Schema operations ###")
	schemaErr := schemaDemo(ctx, h)
	if schemaErr != nil {
		log.Error().Err(schemaErr).Msg("schema walk-through failed")
	}

	log.Info().Msg("### Data operations ###")
	dataErr := dataDemo(ctx, h)
	if dataErr != nil {
		log.Error().Err(dataErr).Msg("data walk-through failed")
	}
	return errors.Join(schemaErr, dataErr)
}

func schemaDemo(ctx context.Context, h *client.Handle) error {
	const table = "DemoTable"

	log.Info().Msgf("Creating table %s with column families: family1, family2, familyToBeDeleted...", table)
	if err := h.CreateTable(ctx, table, "family1", "family2", "familyToBeDeleted"); err != nil {
		return err
	}
	log.Info().Msg("Table created")

	log.Info().Msg("Adding column family family3...")
	if err := h.AddColumnFamily(ctx, table, "family3"); err != nil {
		return err
	}
	log.Info().Msg("Deleting column family familyToBeDeleted...")
	if err := h.DeleteColumnFamily(ctx, table, "familyToBeDeleted"); err != nil {
		return err
	}

	families, err := h.DescribeSchema(ctx, table)
	if err != nil {
		return err
	}
	log.Info().Str("table", table).Strs("families", families).Msg("Current schema")

	return deleteTable(ctx, h, table)
}

func dataDemo(ctx context.Context, h *client.Handle) error {
	const table = "Customers"

	log.Info().Msgf("Creating table %s with families: profile and orders...", table)
	if err := h.CreateTable(ctx, table, "profile", "orders"); err != nil {
		return err
	}

	log.Info().Msg("Inserting three customers with profile information...")
	profile := []string{"name", "billingAddress", "payment", "born"}
	customers := map[string][]string{
		"u1": {"pippo", "Parco della Vittoria, 3", "VISA", "1993"},
		"u2": {"pluto", "Via Marco Polo, 4", "American Express", "1990"},
		"a1": {"paperino", "Vicolo Corto, 1", "VISA", "1993"},
	}
	for key, values := range customers {
		if err := h.PutColumns(ctx, table, []byte(key), "profile", profile, bytesOf(values...)); err != nil {
			return err
		}
	}
	if err := printScan(h.ScanTable(ctx, table)); err != nil {
		return err
	}

	log.Info().Msg("Rows are sparse: adding orders x1, x2 to pippo and order y1 to pluto...")
	if err := h.PutColumns(ctx, table, []byte("u1"), "orders", []string{"x1", "x2"},
		bytesOf("x1Data", "x2Data")); err != nil {
		return err
	}
	if err := h.PutColumns(ctx, table, []byte("u2"), "orders", []string{"y1"},
		bytesOf("y1Data")); err != nil {
		return err
	}
	log.Info().Msg("Retrieving customers and orders...")
	if err := printScan(h.ScanFamily(ctx, table, "orders")); err != nil {
		return err
	}

	log.Info().Msg("Customers whose key starts with u...")
	if err := printScan(h.ScanByPrefix(ctx, table, []byte("u"))); err != nil {
		return err
	}
	log.Info().Msg("Customers whose key starts with a and born in 1993...")
	if err := printScan(h.ScanByColumnValue(ctx, table, []byte("a"), "profile", "born",
		[]byte("1993"))); err != nil {
		return err
	}

	log.Info().Msg("Setting order x1 of pippo to a new value...")
	if err := h.PutColumns(ctx, table, []byte("u1"), "orders", []string{"x1"},
		bytesOf("x1NewData")); err != nil {
		return err
	}
	log.Info().Msg("Scanning table (note the new timestamp of x1)...")
	if err := printScan(h.ScanTable(ctx, table)); err != nil {
		return err
	}

	log.Info().Msg("Deleting order x1...")
	if err := h.DeleteColumns(ctx, table, []byte("u1"), "orders", []string{"x1"}); err != nil {
		return err
	}
	log.Info().Msg("Retrieving u1...")
	row, err := h.GetRow(ctx, table, []byte("u1"))
	if err != nil {
		return err
	}
	printRow(row)

	if h.Capabilities().RetainsDeletedVersions {
		log.Info().Msg("Versions are kept until compaction: retrieving u1 with deleted versions...")
		row, err = h.GetRowVersions(ctx, table, []byte("u1"),
			model.ReadOptions{MaxVersions: 3, IncludeDeleted: true})
		if err != nil {
			return err
		}
		printRow(row)
	}

	return deleteTable(ctx, h, table)
}

func deleteTable(ctx context.Context, h *client.Handle, table string) error {
	log.Info().Msgf("Deleting table %s...", table)
	outcome, err := h.DeleteTable(ctx, table)
	if err != nil {
		log.Warn().Str("outcome", outcome.String()).Msg("table not fully deleted")
		return err
	}
	log.Info().Msg("Table deleted")
	return nil
}

func bytesOf(values ...string) [][]byte {
	out := make([][]byte, len(values))
	for i, v := range values {
		out[i] = []byte(v)
	}
	return out
}

// printScan logs every row of a scan and releases it.
func printScan(rows *client.Rows, err error) error {
	if err != nil {
		return err
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		printRow(rows.Row())
		n++
	}
	if err = rows.Err(); err != nil {
		return err
	}
	log.Info().Int("rows", n).Msg("scan complete")
	return nil
}

func printRow(row *model.Row) {
	if row.IsEmpty() {
		log.Info().Str("row", string(row.Key)).Msg("keyvalues=NONE")
		return
	}
	for _, c := range row.Cells {
		log.Info().
			Str("row", string(row.Key)).
			Str("column", c.Family+":"+c.Qualifier).
			Bytes("value", c.Value).
			Time("timestamp", c.Timestamp.Time()).
			Bool("deleted", c.Deleted).
			Send()
	}
}
