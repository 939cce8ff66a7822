package daemon

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cassian-oss/sysgauge/internal/model"
)

const (
	opcodeGPUTypes = 'T'
	opcodeGPUStat  = 'S'

	gpuDelim = '@'
	pidDelim = '#'
)

// GPUClient talks to the per-GPU utilization daemon.
type GPUClient struct {
	c *Client
}

// NewGPUClient wraps an established connection.
func NewGPUClient(c *Client) *GPUClient { return &GPUClient{c: c} }

// Types requests the daemon's GPU inventory (bus ids / device names), used
// once at startup to size the per-cycle GPU table.
func (g *GPUClient) Types() (int, error) {
	buf, err := g.c.Request(opcodeGPUTypes)
	if err != nil {
		return 0, err
	}
	s := strings.TrimSpace(string(buf))
	head, _, _ := strings.Cut(s, string(gpuDelim))
	n, convErr := strconv.Atoi(strings.TrimSpace(head))
	if convErr != nil {
		return 0, fmt.Errorf("daemon: malformed gpu type response %q", s)
	}
	return n, nil
}

// Stat requests one cycle's GPU busy/memory statistics plus the
// per-process GPU usage breakdown, keyed by pid.
//
// Each '@'-delimited section describes one GPU: "<busy> <membusy> <total>
// <used>" followed by zero or more '#'-delimited "<pid> <busy> <mem>"
// per-process entries. A section missing positional fields is not
// recoverable mid-stream (gpustat_parse/pidparse fail the whole response
// in the wire protocol this mirrors), so Stat fails the entire request and
// the caller marks GPU unavailable for the cycle rather than returning a
// partial table.
func (g *GPUClient) Stat() ([]model.PerGPUStat, map[int]model.TaskGPU, error) {
	buf, err := g.c.Request(opcodeGPUStat)
	if err != nil {
		return nil, nil, err
	}

	text := strings.TrimRight(string(buf), " \t\r\n")
	sections := strings.Split(text, string(gpuDelim))

	var gpus []model.PerGPUStat
	perPID := make(map[int]model.TaskGPU)

	for devID, section := range sections {
		section = strings.TrimSpace(section)
		if section == "" {
			continue
		}
		parts := strings.Split(section, string(pidDelim))
		gpuFields := strings.Fields(parts[0])
		if len(gpuFields) < 4 {
			return nil, nil, fmt.Errorf("daemon: malformed gpu header %q", parts[0])
		}
		busy, err1 := strconv.ParseUint(gpuFields[0], 10, 64)
		memBusy, err2 := strconv.ParseUint(gpuFields[1], 10, 64)
		total, err3 := strconv.ParseUint(gpuFields[2], 10, 64)
		used, err4 := strconv.ParseUint(gpuFields[3], 10, 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			return nil, nil, fmt.Errorf("daemon: malformed gpu header %q", parts[0])
		}
		gpus = append(gpus, model.PerGPUStat{
			DeviceID:   devID,
			GPUBusyPct: model.Count(busy),
			MemBusyPct: model.Count(memBusy),
			MemTotal:   model.Count(total),
			MemUsed:    model.Count(used),
		})

		for _, pidSection := range parts[1:] {
			fields := strings.Fields(pidSection)
			if len(fields) < 3 {
				return nil, nil, fmt.Errorf("daemon: malformed gpu pid entry %q", pidSection)
			}
			pid, perr := strconv.Atoi(fields[0])
			if perr != nil {
				return nil, nil, fmt.Errorf("daemon: malformed gpu pid entry %q", pidSection)
			}
			pbusy, berr := strconv.ParseUint(fields[1], 10, 64)
			pmem, merr := strconv.ParseUint(fields[2], 10, 64)
			if berr != nil || merr != nil {
				return nil, nil, fmt.Errorf("daemon: malformed gpu pid entry %q", pidSection)
			}

			g := perPID[pid]
			g.DeviceMask |= 1 << uint(devID)
			g.GPUBusyPct += model.Count(pbusy)
			g.MemBusy += model.Count(pmem)
			perPID[pid] = g
		}
	}

	return gpus, perPID, nil
}
