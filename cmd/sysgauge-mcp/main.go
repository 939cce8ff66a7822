// sysgauge-mcp exposes a persisted sysgauge raw log as an MCP stdio server
// for interactive query by an LLM client.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cassian-oss/sysgauge/internal/mcpquery"
)

var version = "0.1.0"

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <raw-log-path>\n", os.Args[0])
		os.Exit(1)
	}

	srv, err := mcpquery.NewServer(version, os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "sysgauge-mcp: %v\n", err)
		os.Exit(1)
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "sysgauge-mcp: %v\n", err)
		os.Exit(1)
	}
}
