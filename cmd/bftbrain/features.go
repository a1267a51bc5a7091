package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/demonshower/BFTBrain/internal/features"
	"github.com/demonshower/BFTBrain/internal/handlers"
)

func featuresCommand() *cobra.Command {
	var asJSON bool

	c := &cobra.Command{
		Use:   "features",
		Short: "Prints the feature index registry",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			out := c.OutOrStdout()
			registry := handlers.Registry()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"dimension": features.Dimension,
					"features":  registry,
				})
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "INDEX\tNAME\tCOLUMN\tBINARY")
			for _, entry := range registry {
				_, _ = fmt.Fprintf(tw, "%d\t%s\t%t\t%t\n", entry.Index, entry.Name, entry.Column, entry.Binary)
			}
			_, _ = fmt.Fprintf(tw, "\ndimension: %d\n", features.Dimension)
			return tw.Flush()
		},
	}
	c.Flags().BoolVar(&asJSON, "json", false, "Print the registry as JSON")
	return c
}
