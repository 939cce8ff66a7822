package acct

import (
	"bytes"
	"encoding/binary"
	"os"
	"testing"
)

func fakeV2Record(t *testing.T, pid uint16, utime comp_t) []byte {
	t.Helper()
	rec := recordV2{
		Flag:    formatV2,
		Version: formatV2,
		PID:     pid,
		UTime:   utime,
		Comm:    [17]byte{'w', 'o', 'r', 'k', 'e', 'r'},
	}
	var buf bytes.Buffer
	if err := binary.Write(&buf, nativeOrder, rec); err != nil {
		t.Fatalf("binary.Write: %v", err)
	}
	out := make([]byte, recordSize)
	copy(out, buf.Bytes())
	return out
}

func TestReader_DrainDecodesRecords(t *testing.T) {
	path := filepathJoin(t)
	var all []byte
	all = append(all, fakeV2Record(t, 10, 500)...)
	all = append(all, fakeV2Record(t, 11, 700)...)
	if err := os.WriteFile(path, all, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	exits, noverflow, err := r.Drain(10)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if noverflow != 0 {
		t.Errorf("noverflow = %d, want 0", noverflow)
	}
	if len(exits) != 2 {
		t.Fatalf("got %d exits, want 2", len(exits))
	}
	if exits[0].PID != 10 || exits[1].PID != 11 {
		t.Errorf("pids = %d, %d, want 10, 11", exits[0].PID, exits[1].PID)
	}
	if exits[0].Name != "worker" {
		t.Errorf("name = %q, want worker", exits[0].Name)
	}
}

func TestReader_DrainOverflow(t *testing.T) {
	path := filepathJoin(t)
	var all []byte
	for i := 0; i < 3; i++ {
		all = append(all, fakeV2Record(t, uint16(20+i), 100)...)
	}
	if err := os.WriteFile(path, all, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	exits, noverflow, err := r.Drain(2)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if len(exits) != 2 {
		t.Fatalf("got %d exits, want 2", len(exits))
	}
	if noverflow != 1 {
		t.Errorf("noverflow = %d, want 1", noverflow)
	}
}

func fakeV3Record(t *testing.T, pid uint32, utime comp_t, order binary.ByteOrder, tagged bool) []byte {
	t.Helper()
	version := uint8(formatV3)
	if tagged {
		version |= acctByteOrder
	}
	rec := recordV3{
		Flag:    formatV3,
		Version: version,
		PID:     pid,
		UTime:   utime,
		Comm:    [16]byte{'w', 'o', 'r', 'k', 'e', 'r'},
	}
	var buf bytes.Buffer
	if err := binary.Write(&buf, order, rec); err != nil {
		t.Fatalf("binary.Write: %v", err)
	}
	out := make([]byte, recordSize)
	n := copy(out, buf.Bytes())
	if n != recordSize {
		t.Fatalf("encoded v3 record is %d bytes, want %d", n, recordSize)
	}
	return out
}

func TestReader_DrainDecodesV3Records(t *testing.T) {
	path := filepathJoin(t)
	var all []byte
	all = append(all, fakeV3Record(t, 30, 500, nativeOrder, false)...)
	all = append(all, fakeV3Record(t, 31, 700, nativeOrder, false)...)
	if err := os.WriteFile(path, all, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	exits, noverflow, err := r.Drain(10)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if noverflow != 0 {
		t.Errorf("noverflow = %d, want 0", noverflow)
	}
	if len(exits) != 2 {
		t.Fatalf("got %d exits, want 2", len(exits))
	}
	if exits[0].PID != 30 || exits[1].PID != 31 {
		t.Errorf("pids = %d, %d, want 30, 31", exits[0].PID, exits[1].PID)
	}
	if exits[0].Name != "worker" {
		t.Errorf("name = %q, want worker", exits[0].Name)
	}
}

func TestReader_DrainDecodesByteOrderTaggedV3Record(t *testing.T) {
	path := filepathJoin(t)
	all := fakeV3Record(t, 40, 900, binary.BigEndian, true)
	if err := os.WriteFile(path, all, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	exits, _, err := r.Drain(10)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if len(exits) != 1 {
		t.Fatalf("got %d exits, want 1", len(exits))
	}
	if exits[0].PID != 40 {
		t.Errorf("pid = %d, want 40 (big-endian tagged record misdecoded)", exits[0].PID)
	}
	if exits[0].UTime != 900 {
		t.Errorf("utime = %d, want 900", exits[0].UTime)
	}
}

func TestOpen_MissingFileReportsNotConfigured(t *testing.T) {
	_, err := Open("/nonexistent/acct/pacct")
	if err != ErrNotConfigured {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
}

func filepathJoin(t *testing.T) string {
	t.Helper()
	return t.TempDir() + "/pacct"
}
