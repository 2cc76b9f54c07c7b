package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/ledgerctl/internal/config"
	"github.com/danmuck/ledgerctl/internal/observability"
	"github.com/danmuck/ledgerctl/internal/server"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	observability.InitLogger("ledgerd")
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal().Err(err).Msg("ledgerd stopped")
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:           "ledgerd",
		Short:         "Serve extrinsic decoding over HTTP",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", os.Getenv("LEDGERD_CONFIG"), "server config file")
	return cmd
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.LoadServerConfig(configPath)
	if err != nil {
		return err
	}
	log.Info().Str("path", configPath).Str("hash", cfg.Hash).Msg("loaded server config")

	rt, err := config.BuildRuntime(cfg.Runtime, cfg.MaxExtrinsicBytes, cfg.Versions)
	if err != nil {
		return err
	}
	log.Info().Int("calls", rt.Registry().Len()).Msg("runtime ready")

	gin.SetMode(gin.ReleaseMode)
	srv, err := server.New(cfg, rt)
	if err != nil {
		return err
	}
	return srv.Serve(ctx)
}
