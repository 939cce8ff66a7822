package daemon

import (
	"strconv"
	"strings"

	"github.com/cassian-oss/sysgauge/internal/model"
)

const opcodeNetProcStat = 'N'

// NetProcClient talks to the per-process network accounting daemon: the
// kernel's own per-socket counters cannot be attributed to a pid without
// a namespace-aware eBPF probe, so this data arrives pre-aggregated from an
// external daemon instead — attribution happens in that daemon, not
// in-process.
type NetProcClient struct {
	c *Client
}

func NewNetProcClient(c *Client) *NetProcClient { return &NetProcClient{c: c} }

// Stat requests per-process TCP/UDP byte and packet counters since the
// daemon's own last drain. Each '#'-delimited entry is
// "<pid> <tcp_snd_bytes> <tcp_snd_pkts> <tcp_rcv_bytes> <tcp_rcv_pkts>
// <udp_snd_bytes> <udp_snd_pkts> <udp_rcv_bytes> <udp_rcv_pkts>".
func (n *NetProcClient) Stat() (map[int]model.TaskNet, error) {
	buf, err := n.c.Request(opcodeNetProcStat)
	if err != nil {
		return nil, err
	}

	out := make(map[int]model.TaskNet)
	text := strings.TrimRight(string(buf), " \t\r\n")
	for _, entry := range strings.Split(text, string(pidDelim)) {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		fields := strings.Fields(entry)
		if len(fields) != 9 {
			continue // a partial entry is discarded, not fatal to the rest
		}
		pid, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}

		vals := make([]uint64, 8)
		ok := true
		for i := 0; i < 8; i++ {
			v, perr := strconv.ParseUint(fields[i+1], 10, 64)
			if perr != nil {
				ok = false
				break
			}
			vals[i] = v
		}
		if !ok {
			continue
		}

		out[pid] = model.TaskNet{
			TCP: model.TaskNetProto{
				SndBytes: model.Count(vals[0]), SndPackets: model.Count(vals[1]),
				RcvBytes: model.Count(vals[2]), RcvPackets: model.Count(vals[3]),
			},
			UDP: model.TaskNetProto{
				SndBytes: model.Count(vals[4]), SndPackets: model.Count(vals[5]),
				RcvBytes: model.Count(vals[6]), RcvPackets: model.Count(vals[7]),
			},
		}
	}
	return out, nil
}
