package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xff16/vesta"
	"github.com/xff16/vesta/internal/app"
	"github.com/xff16/vesta/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run HTTP server",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	cfg, err := vesta.LoadConfig(configPath())
	if err != nil {
		return err
	}

	log := logger.New(cfg.Debug, zap.String("app", cfg.Name), zap.String("version", cfg.Version))
	defer log.Sync() //nolint:errcheck // stderr sync fails on some platforms

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server, err := app.NewServer(cfg, log)
	if err != nil {
		return err
	}

	if err = server.Run(ctx); err != nil {
		log.Error("server error", zap.Error(err))
		return err
	}

	log.Info("server stopped")

	return nil
}
