package main

import (
	"context"
	"fmt"
	"image/png"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/larschri/nasadem/render"
)

// reliefCmd represents the relief command
var reliefCmd = &cobra.Command{
	Use:   "relief",
	Short: "Render a shaded colour relief PNG",
	Long: `Render a shaded colour relief image of a lon/lat rectangle.

Example:
  nasadem relief --west 6 --south 61 --east 9 --north 62.5 --width 1200 --height 600 -o jotunheimen.png`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var v render.View
		v.West, _ = cmd.Flags().GetFloat64("west")
		v.South, _ = cmd.Flags().GetFloat64("south")
		v.East, _ = cmd.Flags().GetFloat64("east")
		v.North, _ = cmd.Flags().GetFloat64("north")
		v.Width, _ = cmd.Flags().GetInt("width")
		v.Height, _ = cmd.Flags().GetInt("height")
		v.Supersample, _ = cmd.Flags().GetInt("supersample")
		out, _ := cmd.Flags().GetString("output")

		cfg := LoadConfig(cmd)
		em, err := cfg.CreateElevationMap()
		if err != nil {
			return err
		}

		img, err := render.CreateImage(context.Background(), v, em)
		if err != nil {
			return fmt.Errorf("failed to render relief: %w", err)
		}

		f, err := os.Create(out)
		if err != nil {
			return err
		}
		if err := png.Encode(f, img); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		log.Info().Str("file", out).Msg("wrote relief")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reliefCmd)
	reliefCmd.Flags().Float64("west", 0, "West edge in degrees (required)")
	reliefCmd.Flags().Float64("south", 0, "South edge in degrees (required)")
	reliefCmd.Flags().Float64("east", 0, "East edge in degrees (required)")
	reliefCmd.Flags().Float64("north", 0, "North edge in degrees (required)")
	reliefCmd.Flags().Int("width", 800, "Image width in pixels")
	reliefCmd.Flags().Int("height", 600, "Image height in pixels")
	reliefCmd.Flags().Int("supersample", 1, "Samples per pixel along each axis")
	reliefCmd.Flags().StringP("output", "o", "relief.png", "Output file")
	for _, name := range []string{"west", "south", "east", "north"} {
		_ = reliefCmd.MarkFlagRequired(name)
	}
}
