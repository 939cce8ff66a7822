package mcpquery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/cassian-oss/sysgauge/internal/model"
)

type cycleSummary struct {
	Index     int   `json:"index"`
	Epoch     int64 `json:"epoch"`
	Interval  int64 `json:"interval"`
	NTasks    int   `json:"n_tasks"`
	NExit     int   `json:"n_exit"`
	NOverflow int   `json:"n_overflow"`
}

// handleListCycles decodes every cycle once (the format carries no
// separate lightweight index) and returns a summary per cycle.
func (s *Server) handleListCycles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if len(s.reader.Offsets()) == 0 {
		return jsonResult([]cycleSummary{})
	}
	if err := s.reader.SeekRecord(0); err != nil {
		return errResult(fmt.Sprintf("seek failed: %v", err)), nil
	}

	var summaries []cycleSummary
	for i := 0; ; i++ {
		cycle, err := s.reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errResult(fmt.Sprintf("decode failed at index %d: %v", i, err)), nil
		}
		summaries = append(summaries, summarize(i, cycle))
	}

	return jsonResult(summaries)
}

// handleGetCycle decodes and returns one cycle's full deviation bundle.
func (s *Server) handleGetCycle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := getArgs(request)
	idx := intArg(args, "index", -1)
	if idx < 0 {
		return errResult("index is required and must be >= 0"), nil
	}

	if err := s.reader.SeekRecord(idx); err != nil {
		return errResult(fmt.Sprintf("seek failed: %v", err)), nil
	}
	cycle, err := s.reader.Next()
	if err != nil {
		return errResult(fmt.Sprintf("decode failed: %v", err)), nil
	}
	return jsonResult(cycle)
}

// handleTailCycles decodes the last N cycles in file order.
func (s *Server) handleTailCycles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := getArgs(request)
	count := intArg(args, "count", 10)
	if count <= 0 {
		return errResult("count must be > 0"), nil
	}

	offsets := s.reader.Offsets()
	start := len(offsets) - count
	if start < 0 {
		start = 0
	}

	if err := s.reader.SeekRecord(start); err != nil {
		return errResult(fmt.Sprintf("seek failed: %v", err)), nil
	}

	var cycles []*model.Cycle
	for i := start; ; i++ {
		cycle, err := s.reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errResult(fmt.Sprintf("decode failed at index %d: %v", i, err)), nil
		}
		cycles = append(cycles, cycle)
	}
	return jsonResult(cycles)
}

func summarize(idx int, cycle *model.Cycle) cycleSummary {
	sum := cycleSummary{
		Index:     idx,
		Epoch:     cycle.Epoch,
		Interval:  cycle.Interval,
		NExit:     cycle.NExit,
		NOverflow: cycle.NOverflow,
	}
	if cycle.Deviation != nil {
		sum.NTasks = len(cycle.Deviation.AllTasks)
	}
	return sum
}

func getArgs(request mcp.CallToolRequest) map[string]interface{} {
	if request.Params.Arguments == nil {
		return map[string]interface{}{}
	}
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return map[string]interface{}{}
	}
	return args
}

func intArg(args map[string]interface{}, key string, defaultVal int) int {
	val, ok := args[key]
	if !ok || val == nil {
		return defaultVal
	}
	f, ok := val.(float64)
	if !ok {
		return defaultVal
	}
	return int(f)
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errResult(fmt.Sprintf("json marshal failed: %v", err)), nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(data)}},
	}, nil
}

func errResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: msg}},
	}
}
