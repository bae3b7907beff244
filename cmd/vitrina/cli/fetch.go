package cli

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <id>",
	Short: "Fetch one archive with its relations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return err
		}

		client, db, err := openCatalog()
		if err != nil {
			return err
		}
		defer db.Close()

		detail, err := client.FetchArchive(cmd.Context(), id)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(detail)
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
