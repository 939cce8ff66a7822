package acct

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"time"

	"github.com/cassian-oss/sysgauge/internal/model"
)

// Reason codes for Open/Activate failures, surfaced to the Sink's OnError
// and to the sampling loop's "accounting active" flag.
var (
	ErrNoPermission  = errors.New("acct: insufficient privilege to read accounting stream")
	ErrNotConfigured = errors.New("acct: accounting directory not configured on this host")
	ErrUnsupported   = errors.New("acct: unrecognized record format")
)

const recordSize = 64 // both v2 and v3 records are padded to one fixed size on disk

// Reader drains exit records appended to the kernel accounting stream
// since the last call.
type Reader struct {
	f      *os.File
	offset int64
}

// Open activates accounting by opening path for reading. It never creates
// or enables accounting itself — that is a privileged one-time host
// configuration step outside this module's scope — it only reports why the
// stream could not be read when it cannot.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, ErrNoPermission
		}
		if os.IsNotExist(err) {
			return nil, ErrNotConfigured
		}
		return nil, err
	}
	return &Reader{f: f}, nil
}

// Drain decodes up to max exit records appended since the last Drain call.
// Any records beyond max are skipped by repositioning the stream offset
// rather than decoded, and noverflow reports how many were skipped so the
// cycle can carry a visible discontinuity indicator.
func (r *Reader) Drain(max int) (exits []model.ExitRecord, noverflow int, err error) {
	if _, err := r.f.Seek(r.offset, io.SeekStart); err != nil {
		return nil, 0, err
	}

	buf := make([]byte, recordSize)
	for {
		n, readErr := io.ReadFull(r.f, buf)
		if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
			break
		}
		if readErr != nil {
			return exits, noverflow, readErr
		}
		r.offset += int64(n)

		if len(exits) >= max {
			noverflow++
			continue
		}

		rec, decErr := decodeRecord(buf)
		if decErr != nil {
			// An unrecognized record format stops this drain but does not
			// invalidate records already decoded.
			return exits, noverflow, nil
		}
		exits = append(exits, rec)
	}
	return exits, noverflow, nil
}

func decodeRecord(buf []byte) (model.ExitRecord, error) {
	versionByte := buf[1]
	tagged := versionByte&acctByteOrder != 0
	order := binary.ByteOrder(nativeOrder)
	if tagged {
		order = binary.BigEndian
	}

	version := versionByte &^ acctByteOrder
	br := bytes.NewReader(buf)

	switch version {
	case formatV2:
		var rec recordV2
		if err := binary.Read(br, order, &rec); err != nil {
			return model.ExitRecord{}, err
		}
		return model.ExitRecord{
			PID:        int(rec.PID),
			Name:       cString(rec.Comm[:]),
			StartTime:  time.Unix(int64(rec.BTime), 0),
			UTime:      model.Count(rec.UTime.decode()),
			STime:      model.Count(rec.STime.decode()),
			MinFlt:     model.Count(rec.MinFlt.decode()),
			MajFlt:     model.Count(rec.MajFlt.decode()),
			ReadBytes:  model.Count(rec.IO.decode()),
			WriteBytes: 0,
			ExitCode:   normalizeExitCode(int(rec.ExitVal)),
		}, nil

	case formatV3:
		var rec recordV3
		if err := binary.Read(br, order, &rec); err != nil {
			return model.ExitRecord{}, err
		}
		return model.ExitRecord{
			PID:        int(rec.PID),
			Name:       cString(rec.Comm[:]),
			StartTime:  time.Unix(int64(rec.BTime), 0),
			UTime:      model.Count(rec.UTime.decode()),
			STime:      model.Count(rec.STime.decode()),
			MinFlt:     model.Count(rec.MinFlt.decode()),
			MajFlt:     model.Count(rec.MajFlt.decode()),
			ReadBytes:  model.Count(rec.IO.decode()),
			WriteBytes: 0,
			ExitCode:   normalizeExitCode(int(rec.ExitVal)),
		}, nil

	default:
		return model.ExitRecord{}, ErrUnsupported
	}
}

// normalizeExitCode applies the same exit-code rule the deviation engine
// uses: signal+256 if the process was killed by a signal, otherwise the
// low 8 bits of the kernel wait-status exit code.
func normalizeExitCode(waitStatus int) int {
	if waitStatus&0x7f != 0 {
		return (waitStatus & 0x7f) + 256
	}
	return (waitStatus >> 8) & 0xff
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

func (r *Reader) Close() error { return r.f.Close() }
