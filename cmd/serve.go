package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/firi/lsp-broker/internal/commands"
	"github.com/firi/lsp-broker/internal/config"
	"github.com/firi/lsp-broker/internal/controller"
	"github.com/firi/lsp-broker/internal/logging"
	"github.com/firi/lsp-broker/internal/peer"
	"github.com/firi/lsp-broker/internal/store"
	"github.com/firi/lsp-broker/internal/supervisor"
	"github.com/firi/lsp-broker/internal/transport"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the broker, reading the Editor's JSON-RPC stream on stdin",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level := logLevel
	if cfg.Log.Level != "" && logLevel == "info" {
		level = cfg.Log.Level
	}
	output := logFile
	if output == "" {
		output = cfg.Log.Output
	}

	logger, err := logging.New(level, output)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	docStore := store.New()
	sup := supervisor.New(cfg.Servers, logger)
	cmdRegistry := commands.NewRegistry()

	editorPeer := peer.New(ctx, peer.Identity{Role: peer.RoleEditor}, transport.NewStdioStream(), logger)
	ctrl := controller.New(cfg, docStore, sup, cmdRegistry, editorPeer, logger)

	defer sup.StopAll(context.Background())

	if err := ctrl.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("controller: %w", err)
	}
	return nil
}
