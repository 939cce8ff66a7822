// Package mcpquery exposes a persisted raw log (internal/rawlog) over MCP
// tools: a server.NewMCPServer + registerTools + stdio-transport shape,
// with a tool set built for log replay instead of live collection.
package mcpquery

import (
	"context"
	"io"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/cassian-oss/sysgauge/internal/rawlog"
)

// Server wraps the MCP server instance bound to one open raw log.
type Server struct {
	mcpServer *server.MCPServer
	reader    *rawlog.Reader
}

// NewServer opens path and registers the query tools against it.
func NewServer(version, path string) (*Server, error) {
	reader, err := rawlog.Open(path)
	if err != nil {
		return nil, err
	}

	// SeekRecord only accepts indices already visited by Next, so the
	// offset table is primed with one eager forward pass before any tool
	// can seek to an arbitrary index.
	for {
		if _, err := reader.Next(); err != nil {
			if err != io.EOF {
				reader.Close()
				return nil, err
			}
			break
		}
	}
	if len(reader.Offsets()) > 0 {
		if err := reader.SeekRecord(0); err != nil {
			reader.Close()
			return nil, err
		}
	}

	s := server.NewMCPServer("sysgauge-mcp", version, server.WithLogging())
	srv := &Server{mcpServer: s, reader: reader}
	srv.registerTools()
	return srv, nil
}

// Start runs the server in stdio mode (blocking).
func (s *Server) Start(ctx context.Context) error {
	stdioServer := server.NewStdioServer(s.mcpServer)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// Close releases the underlying raw log file.
func (s *Server) Close() error {
	return s.reader.Close()
}

func (s *Server) registerTools() {
	listTool := mcp.NewTool("list_cycles",
		mcp.WithDescription("List every cycle's epoch, interval, exit and overflow counts in the open raw log."),
	)
	s.mcpServer.AddTool(listTool, s.handleListCycles)

	getTool := mcp.NewTool("get_cycle",
		mcp.WithDescription("Decode one cycle by its index (0-based, in file order) and return its full deviation bundle as JSON."),
		mcp.WithNumber("index",
			mcp.Required(),
			mcp.Description("0-based cycle index, from list_cycles"),
		),
	)
	s.mcpServer.AddTool(getTool, s.handleGetCycle)

	tailTool := mcp.NewTool("tail_cycles",
		mcp.WithDescription("Decode the last N cycles in the log as JSON, most recent last."),
		mcp.WithNumber("count",
			mcp.Description("how many trailing cycles to return"),
			mcp.DefaultNumber(10),
		),
	)
	s.mcpServer.AddTool(tailTool, s.handleTailCycles)
}
