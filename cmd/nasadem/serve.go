package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/larschri/nasadem/server"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP API server",
	Long: `Start an HTTP server that provides:
  - /elevation?lon=..&lat=.. - Terrain elevation at comma separated locations
  - /relief.png?west=..&south=..&east=..&north=.. - Shaded colour relief
  - /health - Health check endpoint`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := LoadConfig(cmd)
		em, err := cfg.CreateElevationMap()
		if err != nil {
			return err
		}

		addr := getConfigString(cmd, "addr", "ADDR", ":8080")
		l, err := net.Listen("tcp", addr)
		if err != nil {
			return err
		}

		log.Info().
			Str("cache_dir", cfg.CacheDir).
			Str("base_url", cfg.BaseURL).
			Str("reader", cfg.Reader).
			Msg("starting server")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := &server.Server{
			ElevationMap: em,
			Listener:     l,
			Logger:       log.Logger,
		}
		return srv.Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", ":8080", "Address to listen on")
}
