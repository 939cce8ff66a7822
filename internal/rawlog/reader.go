package rawlog

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"io"
	"os"
	"time"

	"github.com/klauspost/compress/flate"

	"github.com/cassian-oss/sysgauge/internal/errs"
	"github.com/cassian-oss/sysgauge/internal/model"
)

// Reader replays a raw log written by Writer, one cycle at a time.
type Reader struct {
	f        *os.File
	header   rawHeader
	seekable bool

	offsets []int64 // byte offset of each record read so far, grows as Next is called

	begin, end time.Time // zero means unbounded
}

// Open validates the file header and prepares for sequential reads. A pipe
// (such as /dev/stdin) is accepted too: seek support is probed once and
// Offsets/SeekRecord become unavailable if it is absent.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.RawRead(err)
	}

	r := &Reader{f: f}
	if _, err := f.Seek(0, io.SeekCurrent); err == nil {
		r.seekable = true
	}

	if err := binary.Read(f, binary.BigEndian, &r.header); err != nil {
		f.Close()
		return nil, errs.RawRead(err)
	}
	if r.header.Magic != Magic {
		f.Close()
		return nil, errs.RawFormat(errBadMagic)
	}
	if r.header.Version&versionMSB == 0 {
		f.Close()
		return nil, errs.RawFormat(errNoMSB)
	}
	if r.header.HeaderLen != uint16(binary.Size(rawHeader{})) || r.header.RecordLen != uint16(binary.Size(rawRecord{})) {
		f.Close()
		return nil, errs.RawFormat(errStructSize)
	}
	return r, nil
}

// SetWindow restricts Next to cycles whose CurTime falls in [begin, end].
// A zero time.Time on either end leaves that side unbounded.
func (r *Reader) SetWindow(begin, end time.Time) {
	r.begin, r.end = begin, end
}

func inflate(compressed []byte, v interface{}) error {
	if len(compressed) == 0 {
		return nil
	}
	zr := flate.NewReader(bytes.NewReader(compressed))
	defer zr.Close()
	return gob.NewDecoder(zr).Decode(v)
}

// Next reads and decodes the following cycle, skipping any that fall
// outside the configured time window. It returns io.EOF once the file is
// exhausted.
func (r *Reader) Next() (*model.Cycle, error) {
	for {
		var off int64
		if r.seekable {
			o, err := r.f.Seek(0, io.SeekCurrent)
			if err != nil {
				return nil, errs.RawRead(err)
			}
			off = o
		}

		var rec rawRecord
		if err := binary.Read(r.f, binary.BigEndian, &rec); err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, errs.RawRead(err)
		}
		// Re-reading after SeekRecord must not record an offset twice.
		if r.seekable && (len(r.offsets) == 0 || off > r.offsets[len(r.offsets)-1]) {
			r.offsets = append(r.offsets, off)
		}

		sysBuf, err := r.readSegment(rec.SysCompLen)
		if err != nil {
			return nil, err
		}
		taskBuf, err := r.readSegment(rec.TaskCompLen)
		if err != nil {
			return nil, err
		}
		cgBuf, err := r.readSegment(rec.CgCompLen)
		if err != nil {
			return nil, err
		}
		pidBuf, err := r.readSegment(rec.PidCompLen)
		if err != nil {
			return nil, err
		}

		curTime := time.Unix(rec.CurTime, 0)
		if !r.begin.IsZero() && curTime.Before(r.begin) {
			continue
		}
		if !r.end.IsZero() && curTime.After(r.end) {
			return nil, io.EOF
		}

		var sys model.SystemDeviation
		if err := inflate(sysBuf, &sys); err != nil {
			return nil, errs.RawFormat(err)
		}
		var deviation model.DeviationBundle
		if err := inflate(taskBuf, &deviation); err != nil {
			return nil, errs.RawFormat(err)
		}

		cycle := &model.Cycle{
			Epoch:     rec.CurTime,
			Interval:  int64(rec.Interval),
			Deviation: &deviation,
			System:    &sys,
			NExit:     int(rec.NExit),
			NOverflow: int(rec.NOverflow),
			Flags:     model.CycleFlags(rec.Flags),
		}

		if len(cgBuf) > 0 {
			var cg []*model.CgroupDeviation
			if err := inflate(cgBuf, &cg); err != nil {
				return nil, errs.RawFormat(err)
			}
			cycle.Cgroups = cg
		}
		_ = pidBuf // the pidlist segment is read past but not decoded; Cycle has no field for it

		return cycle, nil
	}
}

func (r *Reader) readSegment(n uint32) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.f, buf); err != nil {
		return nil, errs.RawRead(err)
	}
	return buf, nil
}

// Offsets reports the byte offset of every record read so far, for a
// replay-driving Sink's step-backward support. Empty on a non-seekable
// source (a pipe).
func (r *Reader) Offsets() []int64 {
	out := make([]int64, len(r.offsets))
	copy(out, r.offsets)
	return out
}

// SeekRecord repositions to the start of the idx'th record previously read
// via Next, for step-backward / branch-to-epoch navigation.
func (r *Reader) SeekRecord(idx int) error {
	if !r.seekable {
		return errs.RawRead(errNotSeekable)
	}
	if idx < 0 || idx >= len(r.offsets) {
		return errs.RawRead(errOutOfRange)
	}
	_, err := r.f.Seek(r.offsets[idx], io.SeekStart)
	return err
}

func (r *Reader) Close() error {
	return r.f.Close()
}

// Hertz reports the clock-tick rate the writer recorded, needed to convert
// CPU tick deviations into wall-clock time.
func (r *Reader) Hertz() uint16 { return r.header.Hertz }
