package deviate

import "github.com/cassian-oss/sysgauge/internal/model"

// System computes the per-cycle difference of every cumulative counter in a
// SystemSnapshot. Configuration-only fields (link speed, forwarding flags,
// rto bounds, pressure averages) are copied from cur untouched; only
// running totals are subtracted.
func System(cur, prev model.SystemSnapshot) model.SystemDeviation {
	return model.SystemDeviation{
		CPU:        cpuDev(cur.CPU, prev.CPU),
		Memory:     memDev(cur.Memory, prev.Memory),
		Pressure:   pressureDev(cur.Pressure, prev.Pressure),
		Paging:     pagingDev(cur.Paging, prev.Paging),
		Swap:       swapDev(cur.Swap, prev.Swap),
		Disks:      diskDev(cur.Disks, prev.Disks),
		Interfaces: netDev(cur.Interfaces, prev.Interfaces),
		NFS:        nfsDev(cur.NFS, prev.NFS),
		Container:  containerDev(cur.Container, prev.Container),
		GPU:        cur.GPU, // busy percentages are already instantaneous
		IB:         ibDev(cur.IB, prev.IB),
		LLC:        cur.LLC, // occupancy/bandwidth are instantaneous gauges
	}
}

// memDev copies the memory gauges and subtracts the cumulative fault
// counters.
func memDev(cur, prev model.MemoryStat) model.MemoryStat {
	cur.MinFault = Subcount(cur.MinFault, prev.MinFault)
	cur.MajFault = Subcount(cur.MajFault, prev.MajFault)
	return cur
}

// pressureDev copies each pressure line's averages and subtracts its
// cumulative TotalMicros.
func pressureDev(cur, prev model.PressureStat) model.PressureStat {
	line := func(c, p model.PressureLine) model.PressureLine {
		c.TotalMicros = Subcount(c.TotalMicros, p.TotalMicros)
		return c
	}
	res := func(c, p model.PressureResource) model.PressureResource {
		return model.PressureResource{Some: line(c.Some, p.Some), Full: line(c.Full, p.Full)}
	}
	return model.PressureStat{CPU: res(cur.CPU, prev.CPU), Mem: res(cur.Mem, prev.Mem), IO: res(cur.IO, prev.IO)}
}

func cpuTimesDev(cur, prev model.CPUTimes) model.CPUTimes {
	return model.CPUTimes{
		UTime:    Subcount(cur.UTime, prev.UTime),
		NTime:    Subcount(cur.NTime, prev.NTime),
		STime:    Subcount(cur.STime, prev.STime),
		ITime:    Subcount(cur.ITime, prev.ITime),
		WTime:    Subcount(cur.WTime, prev.WTime),
		IRQTime:  Subcount(cur.IRQTime, prev.IRQTime),
		SIRQTime: Subcount(cur.SIRQTime, prev.SIRQTime),
		Steal:    Subcount(cur.Steal, prev.Steal),
		Guest:    Subcount(cur.Guest, prev.Guest),
		Instr:    Subcount(cur.Instr, prev.Instr),
	}
}

func cpuDev(cur, prev model.CPUStat) model.CPUStat {
	out := model.CPUStat{
		NrCPU:   cur.NrCPU,
		All:     cpuTimesDev(cur.All, prev.All),
		DevInt:  Subcount(cur.DevInt, prev.DevInt),
		CSwitch: Subcount(cur.CSwitch, prev.CSwitch),
		NrProcs: Subcount(cur.NrProcs, prev.NrProcs),
		Freq:    cur.Freq, // time-in-state tables are reported cumulative already
	}

	prevByID := make(map[int]model.CPUTimes, len(prev.PerCPU))
	for _, p := range prev.PerCPU {
		prevByID[p.CPUID] = p.Times
	}
	out.PerCPU = make([]model.PerCPUTimes, len(cur.PerCPU))
	for i, c := range cur.PerCPU {
		out.PerCPU[i] = model.PerCPUTimes{CPUID: c.CPUID, Times: cpuTimesDev(c.Times, prevByID[c.CPUID])}
	}
	return out
}

func pagingDev(cur, prev model.PagingStat) model.PagingStat {
	return model.PagingStat{
		PageIn:  Subcount(cur.PageIn, prev.PageIn),
		PageOut: Subcount(cur.PageOut, prev.PageOut),
		SwapIn:  Subcount(cur.SwapIn, prev.SwapIn),
		SwapOut: Subcount(cur.SwapOut, prev.SwapOut),
	}
}

func swapDev(cur, prev model.SwapStat) model.SwapStat {
	return model.SwapStat{
		SwapIn:  Subcount(cur.SwapIn, prev.SwapIn),
		SwapOut: Subcount(cur.SwapOut, prev.SwapOut),
	}
}

func perDiskDev(cur, prev model.PerDiskStat) model.PerDiskStat {
	return model.PerDiskStat{
		Name:  cur.Name,
		Class: cur.Class,

		NumReads:       Subcount(cur.NumReads, prev.NumReads),
		NumWrites:      Subcount(cur.NumWrites, prev.NumWrites),
		SectorsRead:    Subcount(cur.SectorsRead, prev.SectorsRead),
		SectorsWrite:   Subcount(cur.SectorsWrite, prev.SectorsWrite),
		IOMillis:       Subcount(cur.IOMillis, prev.IOMillis),
		WeightedMillis: Subcount(cur.WeightedMillis, prev.WeightedMillis),
		InFlight:       cur.InFlight, // instantaneous queue depth, not cumulative
	}
}

func diskListDev(cur, prev []model.PerDiskStat) []model.PerDiskStat {
	prevByName := make(map[string]model.PerDiskStat, len(prev))
	for _, p := range prev {
		prevByName[p.Name] = p
	}
	out := make([]model.PerDiskStat, len(cur))
	for i, c := range cur {
		out[i] = perDiskDev(c, prevByName[c.Name])
	}
	return out
}

func diskDev(cur, prev model.DiskStat) model.DiskStat {
	return model.DiskStat{
		Disks: diskListDev(cur.Disks, prev.Disks),
		MDs:   diskListDev(cur.MDs, prev.MDs),
		LVs:   diskListDev(cur.LVs, prev.LVs),
	}
}

func perIfaceDev(cur, prev model.PerInterfaceStat) model.PerInterfaceStat {
	return model.PerInterfaceStat{
		Name:       cur.Name,
		SpeedMbit:  cur.SpeedMbit,
		FullDuplex: cur.FullDuplex,

		RBytes:   Subcount(cur.RBytes, prev.RBytes),
		RPackets: Subcount(cur.RPackets, prev.RPackets),
		RErrs:    Subcount(cur.RErrs, prev.RErrs),
		RDrop:    Subcount(cur.RDrop, prev.RDrop),
		SBytes:   Subcount(cur.SBytes, prev.SBytes),
		SPackets: Subcount(cur.SPackets, prev.SPackets),
		SErrs:    Subcount(cur.SErrs, prev.SErrs),
		SDrop:    Subcount(cur.SDrop, prev.SDrop),
	}
}

func ipDev(cur, prev model.IPStat) model.IPStat {
	return model.IPStat{
		InReceives:    Subcount(cur.InReceives, prev.InReceives),
		InDelivers:    Subcount(cur.InDelivers, prev.InDelivers),
		OutRequests:   Subcount(cur.OutRequests, prev.OutRequests),
		ForwDatagrams: Subcount(cur.ForwDatagrams, prev.ForwDatagrams),
		ReasmOKs:      Subcount(cur.ReasmOKs, prev.ReasmOKs),
		FragOKs:       Subcount(cur.FragOKs, prev.FragOKs),
		Forwarding:    cur.Forwarding,
	}
}

func tcpDev(cur, prev model.TCPStat) model.TCPStat {
	return model.TCPStat{
		ActiveOpens:  Subcount(cur.ActiveOpens, prev.ActiveOpens),
		PassiveOpens: Subcount(cur.PassiveOpens, prev.PassiveOpens),
		AttemptFails: Subcount(cur.AttemptFails, prev.AttemptFails),
		EstabResets:  Subcount(cur.EstabResets, prev.EstabResets),
		CurrEstab:    cur.CurrEstab, // gauge
		InSegs:       Subcount(cur.InSegs, prev.InSegs),
		OutSegs:      Subcount(cur.OutSegs, prev.OutSegs),
		RetransSegs:  Subcount(cur.RetransSegs, prev.RetransSegs),
		InErrs:       Subcount(cur.InErrs, prev.InErrs),
		OutRsts:      Subcount(cur.OutRsts, prev.OutRsts),
		RtoMin:       cur.RtoMin,
		RtoMax:       cur.RtoMax,
	}
}

func udpDev(cur, prev model.UDPStat) model.UDPStat {
	return model.UDPStat{
		InDatagrams:  Subcount(cur.InDatagrams, prev.InDatagrams),
		OutDatagrams: Subcount(cur.OutDatagrams, prev.OutDatagrams),
		NoPorts:      Subcount(cur.NoPorts, prev.NoPorts),
		InErrors:     Subcount(cur.InErrors, prev.InErrors),
	}
}

func icmpDev(cur, prev model.ICMPStat) model.ICMPStat {
	return model.ICMPStat{
		InMsgs:   Subcount(cur.InMsgs, prev.InMsgs),
		OutMsgs:  Subcount(cur.OutMsgs, prev.OutMsgs),
		InErrors: Subcount(cur.InErrors, prev.InErrors),
	}
}

func netDev(cur, prev model.NetworkStat) model.NetworkStat {
	prevByName := make(map[string]model.PerInterfaceStat, len(prev.Interfaces))
	for _, p := range prev.Interfaces {
		prevByName[p.Name] = p
	}
	ifaces := make([]model.PerInterfaceStat, len(cur.Interfaces))
	for i, c := range cur.Interfaces {
		ifaces[i] = perIfaceDev(c, prevByName[c.Name])
	}

	return model.NetworkStat{
		Interfaces:  ifaces,
		IPv4:        ipDev(cur.IPv4, prev.IPv4),
		IPv6:        ipDev(cur.IPv6, prev.IPv6),
		TCP:         tcpDev(cur.TCP, prev.TCP),
		UDPv4:       udpDev(cur.UDPv4, prev.UDPv4),
		UDPv6:       udpDev(cur.UDPv6, prev.UDPv6),
		ICMPv4:      icmpDev(cur.ICMPv4, prev.ICMPv4),
		ICMPv6:      icmpDev(cur.ICMPv6, prev.ICMPv6),
		RawSockRcv:  Subcount(cur.RawSockRcv, prev.RawSockRcv),
		RawSockDrop: Subcount(cur.RawSockDrop, prev.RawSockDrop),
	}
}

func nfsDev(cur, prev model.NFSStat) model.NFSStat {
	prevByMount := make(map[string]model.NFSMountStat, len(prev.Mounts))
	for _, p := range prev.Mounts {
		prevByMount[p.Mount] = p
	}
	mounts := make([]model.NFSMountStat, len(cur.Mounts))
	for i, c := range cur.Mounts {
		mounts[i] = model.NFSMountStat{Mount: c.Mount, Bytes: Subcount(c.Bytes, prevByMount[c.Mount].Bytes)}
	}

	return model.NFSStat{
		Client: model.NFSClientStat{
			RPCCnt:     Subcount(cur.Client.RPCCnt, prev.Client.RPCCnt),
			RPCRetrans: Subcount(cur.Client.RPCRetrans, prev.Client.RPCRetrans),
		},
		Server: model.NFSServerStat{
			RPCCnt:    Subcount(cur.Server.RPCCnt, prev.Server.RPCCnt),
			RPCBadFmt: Subcount(cur.Server.RPCBadFmt, prev.Server.RPCBadFmt),
			NetCnt:    Subcount(cur.Server.NetCnt, prev.Server.NetCnt),
			NetTCPCnt: Subcount(cur.Server.NetTCPCnt, prev.Server.NetTCPCnt),
		},
		Mounts: mounts,
	}
}

func containerDev(cur, prev model.ContainerStat) model.ContainerStat {
	return model.ContainerStat{
		NumContainer: cur.NumContainer,
		System:       Subcount(cur.System, prev.System),
		User:         Subcount(cur.User, prev.User),
		NrProcs:      cur.NrProcs, // gauge
		PhysPages:    cur.PhysPages,
		VirtPages:    cur.VirtPages,
	}
}

func ibDev(cur, prev model.IBStat) model.IBStat {
	prevByPort := make(map[string]model.IBPortStat, len(prev.Ports))
	for _, p := range prev.Ports {
		prevByPort[p.Port] = p
	}
	ports := make([]model.IBPortStat, len(cur.Ports))
	for i, c := range cur.Ports {
		p := prevByPort[c.Port]
		ports[i] = model.IBPortStat{
			Port:       c.Port,
			Lanes:      c.Lanes,
			RateGbs:    c.RateGbs,
			RcvBytes:   Subcount(c.RcvBytes, p.RcvBytes),
			SndBytes:   Subcount(c.SndBytes, p.SndBytes),
			RcvPackets: Subcount(c.RcvPackets, p.RcvPackets),
			SndPackets: Subcount(c.SndPackets, p.SndPackets),
		}
	}
	return model.IBStat{Ports: ports}
}
