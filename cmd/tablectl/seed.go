package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/tableside-backend/internal/catalog"
)

func newSeedCommand(rootOpts *rootOptions) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "seed <catalog.yaml>",
		Short: "Load a YAML restaurant catalog into the configured store",
		Long: `Load restaurants, menu categories, items, add-ons and deals from a YAML
file. The whole file is written in one transaction; any invalid entry
leaves the store untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := catalog.LoadSeedFile(args[0])
			if err != nil {
				return err
			}
			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is valid: %d restaurant(s), %d global deal(s)\n", args[0], len(file.Restaurants), len(file.Deals))
				return nil
			}

			cfg, platform, err := rootOpts.openPlatform(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer platform.Close()
			if !cfg.Store.UsesSQL() {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: memory store selected, seeded data is discarded on exit")
			}

			result, err := catalog.Seed(cmd.Context(), platform.Store, file)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "only parse and validate the file")
	return cmd
}
