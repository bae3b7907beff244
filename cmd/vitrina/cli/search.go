package cli

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/katworks/vitrina/pkg/search"
)

var (
	searchSort      string
	searchOrder     string
	searchPage      int
	searchSeed      string
	searchBlacklist []string

	searchCmd = &cobra.Command{
		Use:   "search [query]",
		Short: "Search the catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, db, err := openCatalog()
			if err != nil {
				return err
			}
			defer db.Close()

			var value string
			if len(args) > 0 {
				value = args[0]
			}

			items, total, err := client.Search(cmd.Context(), search.Query{
				Value:     value,
				Blacklist: searchBlacklist,
				Sort:      search.Sort(searchSort),
				Order:     search.Order(searchOrder),
				Page:      searchPage,
				Seed:      searchSeed,
			})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"items": items,
				"total": total,
			})
		},
	}
)

func init() {
	searchCmd.Flags().StringVar(&searchSort, "sort", string(search.SortRelevance), "sort key (relevance, released_at, created_at, title, pages, random)")
	searchCmd.Flags().StringVar(&searchOrder, "order", string(search.OrderDesc), "sort direction (asc, desc)")
	searchCmd.Flags().IntVar(&searchPage, "page", 1, "1-based page number")
	searchCmd.Flags().StringVar(&searchSeed, "seed", "", "seed for random ordering")
	searchCmd.Flags().StringSliceVar(&searchBlacklist, "blacklist", nil, "namespace:id pairs to exclude (a/c/m/e/ps/p/t)")

	rootCmd.AddCommand(searchCmd)
}
