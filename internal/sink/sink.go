// Package sink defines the polymorphic consumer boundary of the sampling
// loop: a consumer of finished cycles (JSONSink here) implements Sink. The
// raw log writer is driven by the loop directly and the MCP query server
// reads a raw log on its own; neither of them is a Sink.
package sink

import "github.com/cassian-oss/sysgauge/internal/model"

// Command is returned by a Sink after each callback to steer the loop:
// continue sampling, reset the PDB and start a fresh series, quit, or (when
// replaying a persisted log rather than driving a live loop) step through
// history.
type Command int

const (
	CmdContinue Command = iota
	CmdReset
	CmdQuit
	CmdStepForward
	CmdStepBackward
	CmdBranchToEpoch
)

// Sink consumes cycles produced by the sampling loop or replayed from a raw
// log. BranchEpoch is only meaningful when the last returned Command was
// CmdBranchToEpoch.
type Sink interface {
	// OnSample delivers one completed cycle.
	OnSample(cycle *model.Cycle) Command

	// OnError reports a non-fatal subsystem error for the cycle in progress
	// (e.g. accounting stream briefly unavailable). Returning CmdQuit
	// aborts the run; anything else continues.
	OnError(err error) Command

	// OnEnd is called once, after the loop has stopped for any reason
	// (Sink-requested quit, signal, or end of a replayed log).
	OnEnd()

	// BranchEpoch reports the epoch requested by the most recent
	// CmdBranchToEpoch, for a replay-driving Sink (e.g. interactive
	// step-back-then-jump navigation).
	BranchEpoch() int64

	// UsageHelp returns a short description of this Sink's own flags, if
	// any, appended to the CLI's usage text.
	UsageHelp() string
}
