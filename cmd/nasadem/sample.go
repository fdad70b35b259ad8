package main

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// sampleCmd represents the sample command
var sampleCmd = &cobra.Command{
	Use:   "sample LON,LAT...",
	Short: "Print terrain elevation at locations",
	Long: `Print the terrain elevation in metres at one or more lon/lat locations.

Examples:
  nasadem sample 8.3124,61.6363
  nasadem sample 10.5,60.1 -179.5,-16.2 --fill 0

Locations without data print the fill value, NaN by default.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lon, lat, err := parsePoints(args)
		if err != nil {
			return err
		}
		fill, _ := cmd.Flags().GetFloat64("fill")

		cfg := LoadConfig(cmd)
		em, err := cfg.CreateElevationMap()
		if err != nil {
			return err
		}

		elev, err := em.Sample(context.Background(), lon, lat, fill)
		if err != nil {
			return fmt.Errorf("failed to sample elevation: %w", err)
		}
		for k := range elev {
			fmt.Fprintf(cmd.OutOrStdout(), "%.6f\t%.6f\t%.2f\n", lon[k], lat[k], elev[k])
		}
		return nil
	},
}

// parsePoints parses arguments of the form "lon,lat".
func parsePoints(args []string) (lon, lat []float64, err error) {
	for _, a := range args {
		parts := strings.Split(a, ",")
		if len(parts) != 2 {
			return nil, nil, fmt.Errorf("invalid location %q, want LON,LAT", a)
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid longitude in %q: %w", a, err)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid latitude in %q: %w", a, err)
		}
		lon = append(lon, x)
		lat = append(lat, y)
	}
	return lon, lat, nil
}

func init() {
	rootCmd.AddCommand(sampleCmd)
	sampleCmd.Flags().Float64("fill", math.NaN(), "Value printed for locations without data")
}
