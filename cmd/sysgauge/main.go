// sysgauge — continuous sampling and deviation engine for Linux system and
// process activity, backed by a binary raw log and an optional twin-mode
// live viewer.
package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/cassian-oss/sysgauge/internal/errs"
	"github.com/cassian-oss/sysgauge/internal/loop"
	"github.com/cassian-oss/sysgauge/internal/rawlog"
	"github.com/cassian-oss/sysgauge/internal/sink"
	"github.com/cassian-oss/sysgauge/internal/sysgaugelog"
	"github.com/cassian-oss/sysgauge/internal/twin"
)

var version = "0.1.0"

func main() {
	os.Exit(run())
}

func run() int {
	// A re-exec'd twin writer runs this same root command with the parent's
	// flags minus --twin and plus --write (see the note after the flags).
	cfg := loop.DefaultConfig()

	var (
		writePath   string
		readPath    string
		beginStr    string
		endStr      string
		twinDir     string
		twinEnabled bool
		all         bool
		psize       bool
		wchan       bool
		quiet       bool
	)

	rootCmd := &cobra.Command{
		Use:     "sysgauge",
		Short:   "Sample, deviate, and persist Linux system and process activity",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := sysgaugelog.New(!quiet)
			twinEnabled = cmd.Flags().Changed("twin")
			cfg.Quiet = quiet
			cfg.RawLogPath = writePath

			ctx := context.Background()

			if twinEnabled {
				if err := twin.CheckPrerequisites(twinDir, writePath, readPath); err != nil {
					return err
				}
				sup, err := twin.New(twinDir, log, reExecArgs(cmd))
				if err != nil {
					return err
				}
				return sup.Run(ctx, sink.NewJSONSink(os.Stdout))
			}

			if readPath != "" {
				return replay(readPath, beginStr, endStr, sink.NewJSONSink(os.Stdout))
			}

			snk := sink.NewJSONSink(os.Stdout)
			sampler, err := loop.NewSampler(cfg, log)
			if err != nil {
				return err
			}
			defer sampler.Close()
			return sampler.Run(ctx, snk)
		},
	}

	rootCmd.Flags().DurationVar(&cfg.Interval, "interval", cfg.Interval, "time between samples, as a duration such as 10s")
	rootCmd.Flags().IntVar(&cfg.Count, "samples", cfg.Count, "stop after N samples (0 = unbounded)")
	rootCmd.Flags().BoolVar(&cfg.StopAtMidnight, "midnight", false, "stop at local midnight")
	rootCmd.Flags().StringVar(&writePath, "write", "", "write every cycle to this raw log path")
	rootCmd.Flags().StringVar(&readPath, "read", "", `replay a raw log ("-" for stdin)`)
	rootCmd.Flags().StringVar(&beginStr, "begin", "", "replay window start (RFC3339)")
	rootCmd.Flags().StringVar(&endStr, "end", "", "replay window end (RFC3339)")
	rootCmd.Flags().StringVar(&twinDir, "twin", "", "enable twin mode, writer temp file under this directory")
	rootCmd.Flags().Lookup("twin").NoOptDefVal = os.TempDir()
	rootCmd.Flags().BoolVar(&all, "all", false, "include inactive tasks in sink output (accepted; the JSON sink writes inactive tasks either way)")
	rootCmd.Flags().BoolVar(&psize, "psize", false, "include proportional set size per task (accepted; task sampling does not read PSS)")
	rootCmd.Flags().BoolVar(&wchan, "wchan", false, "include kernel wait-channel string per thread (accepted; task sampling does not read wchan)")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress output")
	rootCmd.Flags().StringVar(&cfg.ProcRoot, "procroot", cfg.ProcRoot, "procfs mount point")
	rootCmd.Flags().StringVar(&cfg.SysRoot, "sysroot", cfg.SysRoot, "sysfs mount point")
	rootCmd.Flags().StringVar(&cfg.AcctPath, "acctfile", cfg.AcctPath, "kernel process accounting file (empty disables it)")
	rootCmd.Flags().IntVar(&cfg.AcctMax, "acctmax", cfg.AcctMax, "max accounting records drained per cycle")
	rootCmd.Flags().IntVar(&cfg.GPUDaemonPort, "gpuport", cfg.GPUDaemonPort, "GPU stat daemon loopback port (0 disables)")
	rootCmd.Flags().IntVar(&cfg.NetProcDaemonPort, "netprocport", cfg.NetProcDaemonPort, "per-process network daemon loopback port (0 disables)")
	rootCmd.Flags().DurationVar(&cfg.DaemonTimeout, "daemontimeout", cfg.DaemonTimeout, "daemon socket read timeout")

	// A re-exec'd twin writer (SYSGAUGE_TWIN_WRITER=1 in its environment,
	// set by internal/twin.Supervisor.Run) is just another invocation of
	// this same root command with --write pointing at the shared log and
	// --twin stripped: no separate subcommand is needed, it falls through
	// to the ordinary sampler branch above.

	if err := rootCmd.Execute(); err != nil {
		return errs.ExitCode(err)
	}
	return 0
}

// reExecArgs rebuilds the argument list the twin writer child should run
// with: every flag the user actually set, minus --twin (the child is
// always the writer half, never another supervisor).
func reExecArgs(cmd *cobra.Command) []string {
	var out []string
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if f.Name == "twin" {
			return
		}
		out = append(out, "--"+f.Name, f.Value.String())
	})
	return out
}

func replay(path, beginStr, endStr string, snk sink.Sink) error {
	if path == "-" {
		path = "/dev/stdin"
	}
	r, err := rawlog.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	if beginStr != "" || endStr != "" {
		begin, end, werr := parseWindow(beginStr, endStr)
		if werr != nil {
			return errs.Usage("%v", werr)
		}
		r.SetWindow(begin, end)
	}

	for {
		cycle, rerr := r.Next()
		if rerr != nil {
			break
		}
		if snk.OnSample(cycle) == sink.CmdQuit {
			break
		}
	}
	snk.OnEnd()
	return nil
}

func parseWindow(beginStr, endStr string) (begin, end time.Time, err error) {
	if beginStr != "" {
		begin, err = time.Parse(time.RFC3339, beginStr)
		if err != nil {
			return
		}
	}
	if endStr != "" {
		end, err = time.Parse(time.RFC3339, endStr)
	}
	return
}
