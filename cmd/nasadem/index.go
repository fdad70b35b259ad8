package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// indexCmd represents the index command
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Download the tile index",
	Long: `Download the list of available tiles unless it is already cached, and
print the number of tiles. With --list, print every tile id.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := LoadConfig(cmd)
		em, err := cfg.CreateElevationMap()
		if err != nil {
			return err
		}
		ix, err := em.Index(context.Background())
		if err != nil {
			return err
		}

		if list, _ := cmd.Flags().GetBool("list"); list {
			for _, id := range ix.IDs() {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d tiles\n", ix.Len())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().Bool("list", false, "Print every tile id")
}
