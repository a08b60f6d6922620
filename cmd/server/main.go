// Command msgly runs the chat backend: REST API, websocket presence and
// realtime message delivery.
//
//	msgly serve --port 8080 --db msgly.db
//
// Configuration comes from the environment (PORT, DB_PATH, REDIS_URL,
// JWT_SECRET, JWT_TTL, COOKIE_NAME, COOKIE_SECURE, CLIENT_URL, LOG_LEVEL,
// LOG_FORMAT); flags override it.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Populated by ldflags.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "msgly",
		Short:        "Realtime 1:1 chat server",
		SilenceUsage: true,
	}

	root.AddCommand(newServeCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "msgly %s (%s)\n", version, commit)
		},
	}
}
