package procfs

import (
	"strconv"
	"strings"

	"github.com/cassian-oss/sysgauge/internal/model"
)

// ReadNetwork parses /proc/net/dev for per-interface counters and
// /proc/net/snmp for the IPv4/TCP/UDP/ICMP protocol tables. IPv6 is read
// from /proc/net/snmp6, whose key format differs (no "Ip:"-style header
// line), hence the separate parser.
func ReadNetwork(fs FS) (model.NetworkStat, error) {
	var out model.NetworkStat

	if data, err := fs.ReadFile("net/dev"); err == nil {
		out.Interfaces = parseNetDev(string(data))
	}
	if data, err := fs.ReadFile("net/snmp"); err == nil {
		ip, tcp, udp, icmp := parseSNMP(string(data))
		out.IPv4, out.TCP, out.UDPv4, out.ICMPv4 = ip, tcp, udp, icmp
	}
	if data, err := fs.ReadFile("net/snmp6"); err == nil {
		out.IPv6, out.UDPv6, out.ICMPv6 = parseSNMP6(string(data))
	}
	return out, nil
}

// parseNetDev reads the "Inter-|   Receive  ...|  Transmit ..." table.
// A rename between samples shows up here simply as a new key appearing
// and an old one disappearing; the deviate package's by-name matching
// already treats that as a new interface, so no special resync
// bookkeeping is needed at this layer.
func parseNetDev(data string) []model.PerInterfaceStat {
	var out []model.PerInterfaceStat
	lines := strings.Split(data, "\n")
	for _, line := range lines {
		if !strings.Contains(line, ":") {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		name := strings.TrimSpace(parts[0])
		if name == "" || name == "lo" {
			continue
		}
		fields := strings.Fields(parts[1])
		if len(fields) < 16 {
			continue
		}
		get := func(i int) model.Count {
			v, _ := strconv.ParseUint(fields[i], 10, 64)
			return model.Count(v)
		}
		out = append(out, model.PerInterfaceStat{
			Name:     name,
			RBytes:   get(0),
			RPackets: get(1),
			RErrs:    get(2),
			RDrop:    get(3),
			SBytes:   get(8),
			SPackets: get(9),
			SErrs:    get(10),
			SDrop:    get(11),
		})
	}
	return out
}

// parseSNMP reads /proc/net/snmp's paired header/value line format: each
// protocol has a "Proto: Field1 Field2 ..." header line immediately
// followed by a "Proto: v1 v2 ..." value line.
func parseSNMP(data string) (model.IPStat, model.TCPStat, model.UDPStat, model.ICMPStat) {
	var ip model.IPStat
	var tcp model.TCPStat
	var udp model.UDPStat
	var icmp model.ICMPStat

	rows := snmpRows(data)
	if v, ok := rows["Ip"]; ok {
		ip.InReceives = v["InReceives"]
		ip.InDelivers = v["InDelivers"]
		ip.OutRequests = v["OutRequests"]
		ip.ForwDatagrams = v["ForwDatagrams"]
		ip.ReasmOKs = v["ReasmOKs"]
		ip.FragOKs = v["FragOKs"]
	}
	if v, ok := rows["Tcp"]; ok {
		tcp.ActiveOpens = v["ActiveOpens"]
		tcp.PassiveOpens = v["PassiveOpens"]
		tcp.AttemptFails = v["AttemptFails"]
		tcp.EstabResets = v["EstabResets"]
		tcp.CurrEstab = v["CurrEstab"]
		tcp.InSegs = v["InSegs"]
		tcp.OutSegs = v["OutSegs"]
		tcp.RetransSegs = v["RetransSegs"]
		tcp.InErrs = v["InErrs"]
		tcp.OutRsts = v["OutRsts"]
	}
	if v, ok := rows["Udp"]; ok {
		udp.InDatagrams = v["InDatagrams"]
		udp.OutDatagrams = v["OutDatagrams"]
		udp.NoPorts = v["NoPorts"]
		udp.InErrors = v["InErrors"]
	}
	if v, ok := rows["Icmp"]; ok {
		icmp.InMsgs = v["InMsgs"]
		icmp.OutMsgs = v["OutMsgs"]
		icmp.InErrors = v["InErrors"]
	}
	return ip, tcp, udp, icmp
}

func parseSNMP6(data string) (model.IPStat, model.UDPStat, model.ICMPStat) {
	var ip model.IPStat
	var udp model.UDPStat
	var icmp model.ICMPStat

	for _, line := range strings.Split(data, "\n") {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		v, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			continue
		}
		switch fields[0] {
		case "Ip6InReceives":
			ip.InReceives = model.Count(v)
		case "Ip6OutRequests":
			ip.OutRequests = model.Count(v)
		case "Udp6InDatagrams":
			udp.InDatagrams = model.Count(v)
		case "Udp6OutDatagrams":
			udp.OutDatagrams = model.Count(v)
		case "Icmp6InMsgs":
			icmp.InMsgs = model.Count(v)
		case "Icmp6OutMsgs":
			icmp.OutMsgs = model.Count(v)
		}
	}
	return ip, udp, icmp
}

// snmpRows groups /proc/net/snmp's header/value line pairs by protocol
// name into protocol -> field -> value maps.
func snmpRows(data string) map[string]map[string]model.Count {
	out := make(map[string]map[string]model.Count)
	lines := strings.Split(data, "\n")
	for i := 0; i+1 < len(lines); i += 2 {
		header := strings.Fields(lines[i])
		values := strings.Fields(lines[i+1])
		if len(header) == 0 || len(values) != len(header) {
			continue
		}
		proto := strings.TrimSuffix(header[0], ":")
		if proto != strings.TrimSuffix(values[0], ":") {
			continue
		}
		row := make(map[string]model.Count, len(header)-1)
		for j := 1; j < len(header); j++ {
			v, err := strconv.ParseUint(values[j], 10, 64)
			if err != nil {
				continue
			}
			row[header[j]] = model.Count(v)
		}
		out[proto] = row
	}
	return out
}
