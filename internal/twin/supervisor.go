// Package twin implements the twin-mode supervisor: a live viewing
// experience backed by a persisted raw log, split across two cooperating
// processes rather than a forked child — Go has no raw fork primitive, so
// the "child" here is a re-exec of the same binary with an environment
// variable marking it as the writer half and --write naming the shared log. The two halves never share memory; they
// communicate exclusively through the append-only log file and an
// fsnotify watch on it.
package twin

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/cassian-oss/sysgauge/internal/errs"
	"github.com/cassian-oss/sysgauge/internal/rawlog"
	"github.com/cassian-oss/sysgauge/internal/sink"
	"github.com/cassian-oss/sysgauge/internal/sysgaugelog"
)

// ChildEnvVar marks a re-exec'd process as the twin-mode writer half.
// cmd/sysgauge does not read it: the child runs as an ordinary sampler
// because its arguments carry --write and no --twin.
const ChildEnvVar = "SYSGAUGE_TWIN_WRITER"

// maxDirPathLen bounds the configurable twin directory's path length,
// matching the length a typical install-path validator accepts.
const maxDirPathLen = 1024

// CheckPrerequisites rejects twin mode when it is combined with an
// explicit raw-log writer or reader path, a non-terminal stdout, or a twin
// directory path that is too long.
func CheckPrerequisites(dir, writePath, readPath string) error {
	if writePath != "" || readPath != "" {
		return errs.Usage("twin mode cannot be combined with --write or --read")
	}
	if len(dir) > maxDirPathLen {
		return errs.Usage("twin directory path exceeds %d bytes", maxDirPathLen)
	}
	info, err := os.Stdout.Stat()
	if err != nil {
		return errs.Usage("cannot stat stdout: %v", err)
	}
	if info.Mode()&os.ModeCharDevice == 0 {
		return errs.Usage("twin mode requires an interactive terminal on stdout")
	}
	return nil
}

// Supervisor owns the parent half of twin mode: it creates the shared log
// file, spawns the writer child, and replays records to a Sink as the
// child appends them.
type Supervisor struct {
	dir  string
	log  *sysgaugelog.Logger
	args []string // arguments to re-exec the binary with, writer path appended
}

// New creates a Supervisor rooted at dir (created if absent), re-execing
// the current binary with args plus an injected --write flag to produce
// the writer child.
func New(dir string, log *sysgaugelog.Logger, args []string) (*Supervisor, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errs.Directory(err)
	}
	return &Supervisor{dir: dir, log: log, args: args}, nil
}

// Run spawns the writer child, watches the shared log, and feeds decoded
// cycles to snk until ctx is cancelled, the child exits, or snk requests
// CmdQuit. The temp file and the child process are both cleaned up on
// every return path.
func (s *Supervisor) Run(ctx context.Context, snk sink.Sink) error {
	logPath := filepath.Join(s.dir, "sysgauge-twin-"+uuid.New().String()+".raw")

	f, err := os.Create(logPath)
	if err != nil {
		return errs.Directory(err)
	}
	f.Close()
	defer os.Remove(logPath)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errs.Fatal(err)
	}
	defer watcher.Close()
	if err := watcher.Add(logPath); err != nil {
		return errs.Fatal(err)
	}

	childArgs := append(append([]string{}, s.args...), "--write", logPath)
	cmd := exec.CommandContext(ctx, os.Args[0], childArgs...)
	cmd.Env = append(os.Environ(), ChildEnvVar+"=1")
	cmd.Stdout = os.Stderr // the writer child never owns the terminal
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return errs.Fatal(fmt.Errorf("spawning twin writer: %w", err))
	}
	defer func() {
		if cmd.Process != nil {
			cmd.Process.Kill()
		}
		cmd.Wait()
	}()

	s.log.Log("twin mode: waiting for writer to create %s", logPath)
	if err := s.waitForWrite(ctx, watcher); err != nil {
		return err
	}

	reader, err := s.openWithRetry(ctx, logPath, watcher)
	if err != nil {
		return err
	}
	defer reader.Close()

	childDone := make(chan error, 1)
	go func() { childDone <- cmd.Wait() }()

	for {
		cycle, rerr := reader.Next()
		switch {
		case rerr == nil:
			switch snk.OnSample(cycle) {
			case sink.CmdQuit:
				snk.OnEnd()
				return nil
			}
			continue
		case rerr == io.EOF:
			// Caught up with the writer: wait for the next append or exit.
		default:
			if snk.OnError(errs.RawRead(rerr)) == sink.CmdQuit {
				snk.OnEnd()
				return errs.RawRead(rerr)
			}
		}

		select {
		case <-ctx.Done():
			snk.OnEnd()
			return nil
		case cerr := <-childDone:
			s.drainRemaining(reader, snk)
			snk.OnEnd()
			return cerr
		case <-watcher.Events:
		case werr := <-watcher.Errors:
			s.log.Warn("twin watch error: %v", werr)
		case <-time.After(time.Second):
			// Fallback poll: some filesystems coalesce rapid writes into a
			// single notification the watcher already delivered.
		}
	}
}

// drainRemaining reads every record the writer flushed before exiting so a
// clean shutdown never drops the final cycle.
func (s *Supervisor) drainRemaining(r *rawlog.Reader, snk sink.Sink) {
	for {
		cycle, err := r.Next()
		if err != nil {
			return
		}
		snk.OnSample(cycle)
	}
}

func (s *Supervisor) waitForWrite(ctx context.Context, watcher *fsnotify.Watcher) error {
	select {
	case <-watcher.Events:
		return nil
	case err := <-watcher.Errors:
		return errs.Fatal(err)
	case <-ctx.Done():
		return nil
	case <-time.After(10 * time.Second):
		return errs.Fatal(fmt.Errorf("twin writer did not produce a header in time"))
	}
}

// openWithRetry opens the raw log once the writer has had a chance to
// flush its header; a writer that has only just created the file may not
// have written the header yet, so a single failed Open retries after the
// next notification rather than failing the whole session.
func (s *Supervisor) openWithRetry(ctx context.Context, path string, watcher *fsnotify.Watcher) (*rawlog.Reader, error) {
	for {
		r, err := rawlog.Open(path)
		if err == nil {
			return r, nil
		}
		select {
		case <-watcher.Events:
		case <-ctx.Done():
			return nil, errs.RawRead(err)
		case <-time.After(2 * time.Second):
			return nil, errs.RawRead(err)
		}
	}
}
