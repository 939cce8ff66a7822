package sink

import (
	"encoding/json"
	"io"

	"github.com/cassian-oss/sysgauge/internal/model"
)

// JSONSink is a minimal reference consumer: it encodes each cycle as one
// JSON-lines record to an io.Writer. It exists to exercise the Sink
// boundary and for tests, not as a full-featured rendering layer — that
// is left to an external collaborator.
type JSONSink struct {
	w       io.Writer
	enc     *json.Encoder
	lastErr error
}

// NewJSONSink wraps w with a JSON-lines encoder.
func NewJSONSink(w io.Writer) *JSONSink {
	return &JSONSink{w: w, enc: json.NewEncoder(w)}
}

func (s *JSONSink) OnSample(cycle *model.Cycle) Command {
	if err := s.enc.Encode(cycle); err != nil {
		s.lastErr = err
		return CmdQuit
	}
	return CmdContinue
}

func (s *JSONSink) OnError(err error) Command {
	s.lastErr = err
	return CmdContinue
}

func (s *JSONSink) OnEnd() {}

func (s *JSONSink) BranchEpoch() int64 { return 0 }

func (s *JSONSink) UsageHelp() string { return "" }

// LastError reports the last encoding error observed by OnSample/OnError,
// for callers that want to distinguish a Sink-requested quit from a clean
// end of input.
func (s *JSONSink) LastError() error { return s.lastErr }
