package loop

import (
	"context"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/cassian-oss/sysgauge/internal/acct"
	"github.com/cassian-oss/sysgauge/internal/cgroup"
	"github.com/cassian-oss/sysgauge/internal/daemon"
	"github.com/cassian-oss/sysgauge/internal/deviate"
	"github.com/cassian-oss/sysgauge/internal/model"
	"github.com/cassian-oss/sysgauge/internal/pdb"
	"github.com/cassian-oss/sysgauge/internal/procfs"
	"github.com/cassian-oss/sysgauge/internal/rawlog"
	"github.com/cassian-oss/sysgauge/internal/sink"
	"github.com/cassian-oss/sysgauge/internal/sysgaugelog"
)

// Sampler runs the per-cycle procedure: wait for a trigger, read every
// counter source, compute deviations against the task database, hand the
// result to a Sink, and repeat until the Sink or a signal ends it.
type Sampler struct {
	cfg Config
	log *sysgaugelog.Logger

	procFS procfs.FS
	sysFS  procfs.FS

	pdb *pdb.DB

	acctReader *acct.Reader
	gpuClient  *daemon.GPUClient
	netClient  *daemon.NetProcClient

	rawWriter *rawlog.Writer

	trig *trigger

	prevSys     model.SystemSnapshot
	prevCgroups *cgroup.Chain
	havePrev    bool
	prevWall    time.Time
}

// NewSampler wires every counter source named in cfg. Every optional
// subsystem that fails to open (accounting file absent, daemon not
// listening) is logged and left disabled rather than aborting startup —
// each source is independently optional.
func NewSampler(cfg Config, log *sysgaugelog.Logger) (*Sampler, error) {
	sp := &Sampler{
		cfg:    cfg,
		log:    log,
		procFS: procfs.NewOSFileSystem(cfg.ProcRoot),
		sysFS:  procfs.NewOSFileSystem(cfg.SysRoot),
		pdb:    pdb.New(),
		trig:   newTrigger(),
	}

	if cfg.AcctPath != "" {
		r, err := acct.Open(cfg.AcctPath)
		if err != nil {
			log.Warn("accounting disabled: %v", err)
		} else {
			sp.acctReader = r
		}
	}

	if cfg.GPUDaemonPort != 0 {
		if c, err := daemon.Dial(cfg.GPUDaemonPort, cfg.DaemonTimeout); err != nil {
			log.Warn("gpu daemon disabled: %v", err)
		} else {
			sp.gpuClient = daemon.NewGPUClient(c)
		}
	}
	if cfg.NetProcDaemonPort != 0 {
		if c, err := daemon.Dial(cfg.NetProcDaemonPort, cfg.DaemonTimeout); err != nil {
			log.Warn("per-process network daemon disabled: %v", err)
		} else {
			sp.netClient = daemon.NewNetProcClient(c)
		}
	}

	if cfg.RawLogPath != "" {
		w, err := rawlog.Create(cfg.RawLogPath, uint16(clockHertz()))
		if err != nil {
			return nil, err
		}
		sp.rawWriter = w
	}

	return sp, nil
}

// Trigger exposes the manual wake controls (an explicit sample-now request,
// a last-then-exit request, and immediate stop) to whatever owns the
// process's signal handling — normally Run itself, via signal.NotifyContext,
// but exposed here too for a Sink-driven interactive mode.
func (s *Sampler) Trigger() *trigger { return s.trig }

// Run drives cycles until ctx is cancelled, cfg.Count is exhausted, or the
// Sink requests CmdQuit. It installs its own SIGINT/SIGTERM handling via
// signal.NotifyContext layered under whatever ctx the caller passed in.
func (s *Sampler) Run(ctx context.Context, snk sink.Sink) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer snk.OnEnd()

	count := 0
	for {
		if s.cfg.Count > 0 && count >= s.cfg.Count {
			return nil
		}

		if stopped := s.wait(ctx); stopped {
			return nil
		}

		cycle, err := s.sampleOnce()
		if err != nil {
			if cmd := snk.OnError(err); cmd == sink.CmdQuit {
				return nil
			}
			continue
		}
		count++

		switch snk.OnSample(cycle) {
		case sink.CmdQuit:
			return nil
		case sink.CmdReset:
			s.reset()
		}

		select {
		case <-s.trig.lastThenExit:
			return nil
		default:
		}
	}
}

// wait blocks until the interval elapses, a manual trigger fires, the
// midnight boundary is crossed (if configured), or ctx is cancelled. This
// includes the very first cycle: with Interval == 0, no cycle (not even the
// baseline one) is produced until a manual-trigger signal arrives.
func (s *Sampler) wait(ctx context.Context) (stopped bool) {
	var timer *time.Timer
	if s.cfg.Interval > 0 {
		timer = time.NewTimer(s.cfg.Interval)
		defer timer.Stop()
	}

	var midnight <-chan time.Time
	if s.cfg.StopAtMidnight {
		midnight = time.After(durationUntilMidnight())
	}

	var tick <-chan time.Time
	if timer != nil {
		tick = timer.C
	}

	select {
	case <-ctx.Done():
		return true
	case <-s.trig.stop:
		return true
	case <-midnight:
		return true
	case <-s.trig.sampleNow:
	case <-tick:
	}
	return false
}

func (s *Sampler) reset() {
	s.pdb = pdb.New()
	s.havePrev = false
	s.prevCgroups = nil
}

// sampleOnce implements the full per-cycle sampling procedure.
func (s *Sampler) sampleOnce() (*model.Cycle, error) {
	now := time.Now()
	interval := int64(0)
	if s.havePrev {
		interval = int64(now.Sub(s.prevWall).Round(time.Second) / time.Second)
	}

	s.pdb.BeginCycle()

	curSys := procfs.ReadSystem(s.procFS, !s.havePrev)
	curCgroups, cgErr := procfs.ReadCgroups(s.sysFS)
	if cgErr != nil {
		s.log.Warn("cgroup walk failed: %v", cgErr)
	}

	var sysDev model.SystemDeviation
	if s.havePrev {
		sysDev = deviate.System(curSys, s.prevSys)
	} else {
		sysDev = deviate.System(curSys, curSys)
	}

	tasks, err := procfs.ReadTasks(s.procFS, hertzFromCPU(curSys))
	if err != nil {
		return nil, err
	}

	var gpuPerPID map[int]model.TaskGPU
	var netPerPID map[int]model.TaskNet
	if s.gpuClient != nil {
		if _, pp, gerr := s.gpuClient.Stat(); gerr == nil {
			gpuPerPID = pp
		} else {
			s.log.Warn("gpu stat failed: %v", gerr)
		}
	}
	if s.netClient != nil {
		if pp, nerr := s.netClient.Stat(); nerr == nil {
			netPerPID = pp
		} else {
			s.log.Warn("per-process network stat failed: %v", nerr)
		}
	}

	var exits []model.ExitRecord
	nOverflow := 0
	if s.acctReader != nil {
		ex, nov, aerr := s.acctReader.Drain(s.cfg.AcctMax)
		if aerr != nil {
			s.log.Warn("accounting drain failed, reopening: %v", aerr)
			s.acctReader.Close()
			s.acctReader = nil
			if r, oerr := acct.Open(s.cfg.AcctPath); oerr != nil {
				s.log.Warn("accounting disabled: %v", oerr)
			} else {
				s.acctReader = r
			}
		}
		exits, nOverflow = ex, nov
	}

	bundle := &model.DeviationBundle{}
	leaderIdx := make(map[int]int)       // tgid -> index of its leader entry in bundle.Tasks
	leaderInactive := make(map[int]bool) // tgid -> was the leader itself inactive
	tgidHasActiveThread := make(map[int]bool)

	for i := range tasks {
		t := tasks[i]
		if gpuPerPID != nil {
			if g, ok := gpuPerPID[t.Identity.PID]; ok {
				t.GPU = g
			}
		}
		if netPerPID != nil {
			if n, ok := netPerPID[t.Identity.PID]; ok {
				t.Net = n
			}
		}

		key := t.Identity.Key()
		baseline, had := s.pdb.Get(key)
		if !had {
			if collided, ok := s.pdb.Insert(key, t); ok {
				_ = collided // disappeared without a resolvable exit record
			}
		} else {
			s.pdb.Update(key, t)
		}

		dev := deviate.Task(t, baseline, had)
		idx := len(bundle.Tasks)
		bundle.Tasks = append(bundle.Tasks, dev)
		bundle.AllTasks = append(bundle.AllTasks, idx)

		if !dev.Inactive {
			tgidHasActiveThread[t.Identity.TGID] = true
		}

		if t.Identity.IsProc {
			bundle.Processes = append(bundle.Processes, idx)
			leaderIdx[t.Identity.TGID] = idx
			leaderInactive[t.Identity.TGID] = dev.Inactive
			if !dev.Inactive {
				bundle.ActiveProcesses = append(bundle.ActiveProcesses, idx)
			}
			switch dev.State {
			case model.StateRunning:
				bundle.TotRun++
			case model.StateSleepIntr:
				bundle.TotSlpI++
			case model.StateSleepUninf:
				bundle.TotSlpU++
			case model.StateZombie:
				bundle.TotZombie++
			}
		}
	}

	// A thread-group leader that was itself byte-identical to its baseline
	// is promoted back into ActiveProcesses if any of its threads changed,
	// so a process is never reported idle while one of its threads is busy.
	var promoted []int
	for tgid, idx := range leaderIdx {
		if leaderInactive[tgid] && tgidHasActiveThread[tgid] {
			promoted = append(promoted, idx)
		}
	}
	sort.Ints(promoted)
	bundle.ActiveProcesses = append(bundle.ActiveProcesses, promoted...)

	for _, exit := range exits {
		if baseline, ok := s.pdb.ResolveExit(exit); ok {
			dev := deviate.Exited(exit, baseline)
			bundle.Tasks = append(bundle.Tasks, dev)
			bundle.AllTasks = append(bundle.AllTasks, len(bundle.Tasks)-1)
		}
	}

	s.pdb.EndCycle()

	var cgDevs []*model.CgroupDeviation
	if curCgroups != nil {
		if s.prevCgroups != nil {
			cgDevs = deviate.Cgroups(curCgroups, s.prevCgroups)
		} else {
			cgDevs = deviate.Cgroups(curCgroups, curCgroups)
		}
	}

	flags := model.CycleFlags(0)
	if !s.havePrev {
		flags |= model.FlagBoot
	}
	if s.acctReader != nil {
		flags |= model.FlagAcctActive
	}
	if curCgroups != nil {
		flags |= model.FlagCgroupV2
	}
	if s.gpuClient != nil {
		flags |= model.FlagGPUStat
	}
	if s.netClient != nil {
		flags |= model.FlagNetATopD
	}

	cycle := &model.Cycle{
		Epoch:     now.Unix(),
		Interval:  interval,
		Deviation: bundle,
		System:    &sysDev,
		Cgroups:   cgDevs,
		NExit:     len(exits),
		NOverflow: nOverflow,
		Flags:     flags,
	}

	if s.rawWriter != nil {
		pids := make(map[int64][]int, len(cgDevs))
		if curCgroups != nil {
			for _, e := range curCgroups.Entries {
				pids[e.NameHash] = e.PIDs
			}
		}
		if werr := s.rawWriter.WriteCycle(cycle, cgDevs, pids); werr != nil {
			s.log.Warn("raw log write failed: %v", werr)
		}
	}

	s.prevSys = curSys
	s.prevCgroups = curCgroups
	s.prevWall = now
	s.havePrev = true

	return cycle, nil
}

// Close releases every subsystem handle the sampler opened.
func (s *Sampler) Close() error {
	if s.acctReader != nil {
		s.acctReader.Close()
	}
	if s.rawWriter != nil {
		s.rawWriter.Close()
	}
	return nil
}

func hertzFromCPU(sys model.SystemSnapshot) int {
	return int(clockHertz())
}

// clockHertz reads the kernel clock tick rate. Linux fixes this at compile
// time and exposes no portable /proc knob for it, so the standard
// USER_HZ value of 100 is assumed.
func clockHertz() int64 { return 100 }

func durationUntilMidnight() time.Duration {
	now := time.Now()
	y, m, d := now.Date()
	next := time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
	return next.Sub(now)
}
