package daemon

import (
	"encoding/binary"
	"net"
	"testing"
	"time"
)

// startFakeDaemon listens on an ephemeral loopback port and replies to
// every request with respBody, mimicking the atopgpud-style handshake.
func startFakeDaemon(t *testing.T, respBody string) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		req := make([]byte, 2)
		if _, err := conn.Read(req); err != nil {
			return
		}

		body := []byte(respBody)
		var prelude [4]byte
		binary.BigEndian.PutUint32(prelude[:], (uint32(APIVersion)<<24)|uint32(len(body)))
		conn.Write(prelude[:])
		conn.Write(body)
	}()

	return ln.Addr().(*net.TCPAddr).Port
}

func TestClient_Request(t *testing.T) {
	port := startFakeDaemon(t, "2@")

	c, err := Dial(port, time.Second)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	buf, err := c.Request('T')
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if string(buf) != "2@" {
		t.Errorf("response = %q, want %q", buf, "2@")
	}
}

func TestGPUClient_Stat(t *testing.T) {
	// One GPU: busy=50 membusy=30 total=8192 used=4096, with two
	// per-process entries.
	body := "50 30 8192 4096#100 20 1024#200 10 512"
	port := startFakeDaemon(t, body)

	c, err := Dial(port, time.Second)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	gc := NewGPUClient(c)
	gpus, perPID, err := gc.Stat()
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if len(gpus) != 1 {
		t.Fatalf("got %d gpus, want 1", len(gpus))
	}
	if gpus[0].GPUBusyPct != 50 || gpus[0].MemTotal != 8192 {
		t.Errorf("gpu stats = %+v, want busy=50 total=8192", gpus[0])
	}
	if len(perPID) != 2 {
		t.Fatalf("got %d per-pid entries, want 2", len(perPID))
	}
	if perPID[100].GPUBusyPct != 20 {
		t.Errorf("pid 100 busy = %d, want 20", perPID[100].GPUBusyPct)
	}
}

func TestGPUClient_Stat_MalformedHeaderFailsWholeResponse(t *testing.T) {
	// First section malformed (missing fields), second is valid: the
	// whole response must fail rather than silently dropping the first.
	body := "oops@50 30 8192 4096"
	port := startFakeDaemon(t, body)

	c, err := Dial(port, time.Second)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	gc := NewGPUClient(c)
	gpus, perPID, err := gc.Stat()
	if err == nil {
		t.Fatalf("Stat: got nil error, want failure on malformed header")
	}
	if gpus != nil || perPID != nil {
		t.Errorf("Stat on error: got gpus=%v perPID=%v, want nil, nil", gpus, perPID)
	}
}

func TestGPUClient_Stat_MalformedPIDEntryFailsWholeResponse(t *testing.T) {
	// Valid GPU header, but its one pid entry is missing a field.
	body := "50 30 8192 4096#100 20"
	port := startFakeDaemon(t, body)

	c, err := Dial(port, time.Second)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	gc := NewGPUClient(c)
	if _, _, err := gc.Stat(); err == nil {
		t.Fatalf("Stat: got nil error, want failure on malformed pid entry")
	}
}
