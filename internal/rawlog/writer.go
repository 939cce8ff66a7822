package rawlog

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"io"
	"os"

	"github.com/klauspost/compress/flate"

	"github.com/cassian-oss/sysgauge/internal/errs"
	"github.com/cassian-oss/sysgauge/internal/model"
)

// Writer appends cycles to a raw log file. Each segment is compressed
// independently (rather than the record as a whole) so a reader can skip a
// segment it has no use for — e.g. an MCP query tool that only wants task
// deviations never has to inflate the cgroup pidlist segment.
type Writer struct {
	f      *os.File
	hertz  uint16
	closed bool
}

// Create truncates or creates path and writes the file header. hertz is the
// clock-tick rate used to interpret cumulative CPU counters, carried in the
// header so a reader on a different host (or a different CONFIG_HZ kernel)
// can still interpret the log correctly.
func Create(path string, hertz uint16) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errs.Directory(err)
	}

	hdr := rawHeader{
		Magic:        Magic,
		Version:      CreatorVersion | versionMSB,
		HeaderLen:    uint16(binary.Size(rawHeader{})),
		RecordLen:    uint16(binary.Size(rawRecord{})),
		Hertz:        hertz,
		PageSize:     uint32(os.Getpagesize()),
		SupportFlags: uint32(model.FlagCgroupV2 | model.FlagContainerStat | model.FlagGPUStat),
	}
	if err := binary.Write(f, binary.BigEndian, hdr); err != nil {
		f.Close()
		return nil, errs.RawWrite(err)
	}
	return &Writer{f: f, hertz: hertz}, nil
}

func deflate(v interface{}) ([]byte, error) {
	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(v); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	zw, err := flate.NewWriter(&out, flate.DefaultCompression)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(raw.Bytes()); err != nil {
		zw.Close()
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// WriteCycle appends one cycle. cgroups and pids may be nil when cgroup v2
// is not in use on the host: the segment then holds an encoded empty value
// and is never omitted, so the record layout stays fixed.
func (w *Writer) WriteCycle(cycle *model.Cycle, cgroups []*model.CgroupDeviation, pids map[int64][]int) error {
	sysBuf, err := deflate(cycle.System)
	if err != nil {
		return errs.RawWrite(err)
	}
	taskBuf, err := deflate(cycle.Deviation)
	if err != nil {
		return errs.RawWrite(err)
	}
	cgBuf, err := deflate(cgroups)
	if err != nil {
		return errs.RawWrite(err)
	}
	pidBuf, err := deflate(pids)
	if err != nil {
		return errs.RawWrite(err)
	}

	rec := rawRecord{
		CurTime:     cycle.Epoch,
		Flags:       uint16(cycle.Flags),
		SysCompLen:  uint32(len(sysBuf)),
		TaskCompLen: uint32(len(taskBuf)),
		CgCompLen:   uint32(len(cgBuf)),
		PidCompLen:  uint32(len(pidBuf)),
		Interval:    uint32(cycle.Interval),
		NExit:       uint32(cycle.NExit),
		NOverflow:   uint32(cycle.NOverflow),
	}
	if cycle.Deviation != nil {
		rec.NDeviat = uint32(len(cycle.Deviation.Tasks))
		rec.NActProc = uint32(len(cycle.Deviation.ActiveProcesses))
		rec.NTask = uint32(len(cycle.Deviation.AllTasks))
		rec.TotProc = uint32(len(cycle.Deviation.Processes))
		rec.TotRun = uint32(cycle.Deviation.TotRun)
		rec.TotSlpI = uint32(cycle.Deviation.TotSlpI)
		rec.TotSlpU = uint32(cycle.Deviation.TotSlpU)
		rec.TotZomb = uint32(cycle.Deviation.TotZombie)
	}

	// One gathered write: the record header and all four segments must
	// land contiguously, or a concurrent twin-mode reader could observe a
	// record whose segments are still in flight.
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.BigEndian, rec); err != nil {
		return errs.RawWrite(err)
	}
	buf.Write(sysBuf)
	buf.Write(taskBuf)
	buf.Write(cgBuf)
	buf.Write(pidBuf)

	off, err := w.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return errs.RawWrite(err)
	}
	if _, err := w.f.Write(buf.Bytes()); err != nil {
		// Truncate back to the last good record boundary rather than leave
		// a partially written one a reader could trip over.
		w.f.Truncate(off)
		return errs.RawWrite(err)
	}
	return nil
}

// Sync flushes the file to stable storage.
func (w *Writer) Sync() error {
	return w.f.Sync()
}

func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.f.Close()
}
