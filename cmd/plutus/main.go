// Package main provides the plutus CLI entry point.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/richinex/plutus/cli"
	"github.com/richinex/plutus/config"
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	// Logs go to stderr as JSON; stdout stays clean for chat output.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	rootCmd := &cobra.Command{
		Use:   "plutus",
		Short: "Streaming financial assistant backed by market-data tools",
		Long: `A conversational financial assistant. An LLM agent answers questions by
calling live market-data tools (price snapshots, historical series, balance
sheets, company news, web search), streaming its answer token by token.

Run it as an HTTP backend with 'serve' or talk to it directly with 'chat'.`,
	}

	rootCmd.AddCommand(serveCmd(logger))
	rootCmd.AddCommand(chatCmd(logger))
	rootCmd.AddCommand(toolsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd(logger *slog.Logger) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the streaming chat HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load()
			if err != nil {
				return err
			}
			if addr != "" {
				settings.Server.Addr = addr
			}
			return cli.Serve(settings, logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides SERVER_ADDR)")

	return cmd
}

func chatCmd(logger *slog.Logger) *cobra.Command {
	var threadID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load()
			if err != nil {
				return err
			}
			return cli.Chat(context.Background(), settings, threadID, logger)
		},
	}

	cmd.Flags().StringVar(&threadID, "thread", "", "Thread ID to resume (defaults to a fresh one)")

	return cmd
}

func toolsCmd() *cobra.Command {
	var verboseTools bool

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List available tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.ListTools(verboseTools)
		},
	}

	cmd.Flags().BoolVarP(&verboseTools, "verbose", "V", false, "Show tool parameters")

	return cmd
}
