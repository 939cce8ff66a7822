package loop

// trigger multiplexes every source the sampling loop can wake up from: the
// interval timer, an explicit "sample now" request, an explicit "one more
// sample then stop" request, and process termination.
// Each is a plain channel rather than a raw OS signal handler so the rest
// of the loop stays free of async-signal-safety constraints — the only
// code that runs in a signal context is the one-line channel send that
// wakes this select.
type trigger struct {
	sampleNow    chan struct{}
	lastThenExit chan struct{}
	stop         chan struct{}
}

func newTrigger() *trigger {
	return &trigger{
		sampleNow:    make(chan struct{}, 1),
		lastThenExit: make(chan struct{}, 1),
		stop:         make(chan struct{}, 1),
	}
}

// SampleNow requests an immediate out-of-band sample, aborting any pending
// interval wait.
func (t *trigger) SampleNow() {
	select {
	case t.sampleNow <- struct{}{}:
	default:
	}
}

// LastThenExit requests the loop take exactly one more sample and then
// stop cleanly.
func (t *trigger) LastThenExit() {
	select {
	case t.lastThenExit <- struct{}{}:
	default:
	}
}

// Stop requests immediate termination without an extra sample.
func (t *trigger) Stop() {
	select {
	case t.stop <- struct{}{}:
	default:
	}
}
