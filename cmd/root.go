// Package cmd provides the CLI commands for the broker.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
	logFile  string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "lsp-broker",
	Short: "An editor-agnostic LSP broker",
	Long: `lsp-broker mediates between a single editor JSON-RPC peer over stdio
and one or more language server child processes, one per language_id.

It is designed to be launched by an editor plugin the way an editor launches
clangd or rust-analyzer directly, except it speaks a small extension
protocol (the vlc/* and vlc#* methods) on top of standard LSP so one editor
integration can drive many language servers through a single connection.

Example usage with a Vim/Neovim plugin:
  lsp-broker serve --config ~/.config/lsp-broker/config.yaml`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "path to log file (defaults to stderr)")
}
