package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/katworks/vitrina/pkg/types"
)

// ingestCmd upserts archive metadata from a JSON file. File scanning
// and thumbnailing live in separate tooling; this command only feeds
// their output into the catalog.
var ingestCmd = &cobra.Command{
	Use:   "ingest <metadata.json>",
	Short: "Upsert archive metadata from a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read metadata file: %w", err)
		}

		var data types.UpsertArchiveData
		if err := json.Unmarshal(raw, &data); err != nil {
			return fmt.Errorf("failed to parse metadata file: %w", err)
		}

		client, db, err := openCatalog()
		if err != nil {
			return err
		}
		defer db.Close()

		id, err := client.UpsertArchive(cmd.Context(), data)
		if err != nil {
			return err
		}

		fmt.Fprintln(os.Stdout, id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
