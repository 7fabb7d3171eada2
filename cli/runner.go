// Command execution for CLI commands.
//
// Information Hiding:
// - Command dispatch logic hidden
// - Agent setup hidden
// - Output formatting hidden

package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/richinex/plutus/agent"
	"github.com/richinex/plutus/config"
	"github.com/richinex/plutus/marketdata"
	"github.com/richinex/plutus/search"
	"github.com/richinex/plutus/server"
	"github.com/richinex/plutus/tools"
)

// Serve composes the agent and runs the HTTP server. Blocks until the
// listener fails.
func Serve(settings config.Settings, logger *slog.Logger) error {
	a, err := BuildAgent(settings, logger)
	if err != nil {
		return err
	}
	defer closeStore(a)

	logger.Info("agent ready",
		"provider", a.Provider().Name(),
		"model", a.Provider().Model(),
		"tools", a.Registry().Names())

	srv := server.New(a, settings.Server.CORSOrigins, logger)
	return srv.Run(settings.Server.Addr)
}

// Chat starts an interactive session against a single conversation thread.
func Chat(ctx context.Context, settings config.Settings, threadID string, logger *slog.Logger) error {
	a, err := BuildAgent(settings, logger)
	if err != nil {
		return err
	}
	defer closeStore(a)

	if threadID == "" {
		threadID = uuid.NewString()
	}
	fmt.Printf("Chat with %s (%s) on thread %s. Type 'exit' to quit.\n\n",
		a.Provider().Name(), a.Provider().Model(), threadID)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}

		streamTurn(ctx, a, threadID, input)
	}
	return scanner.Err()
}

// streamTurn runs one chat turn, printing deltas as they arrive and a usage
// summary after completion.
func streamTurn(ctx context.Context, a *agent.Agent, threadID, input string) {
	for event := range a.Run(ctx, threadID, input) {
		switch event.Kind {
		case agent.EventText:
			fmt.Print(event.Delta)
		case agent.EventToolStart:
			fmt.Printf("\n[%s]\n", event.Tool)
		case agent.EventDone:
			if event.Usage != nil {
				fmt.Printf("\n\n(%d tokens, %.1fs)\n\n",
					event.Usage.TotalTokens, event.Elapsed.Seconds())
			} else {
				fmt.Printf("\n\n(%.1fs)\n\n", event.Elapsed.Seconds())
			}
		case agent.EventError:
			fmt.Fprintf(os.Stderr, "\nError: %v\n\n", event.Err)
		}
	}
}

// ListTools prints the registered tool catalog. Tool construction needs no
// credentials, so this works without configuration.
func ListTools(verbose bool) error {
	registry, err := tools.WithDefaults(
		marketdata.NewClient(marketdata.Options{}),
		search.NewClient(search.Options{}),
		nil,
	)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Println(registry.Description())
		return nil
	}
	for _, meta := range registry.List() {
		fmt.Printf("%-24s %s\n", meta.Name, meta.Description)
	}
	return nil
}

// closeStore releases conversation storage if the backend holds resources.
func closeStore(a *agent.Agent) {
	if closer, ok := a.Store().(io.Closer); ok {
		_ = closer.Close()
	}
}
