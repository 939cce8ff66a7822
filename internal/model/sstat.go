package model

// SystemSnapshot is the flat, fixed-size-array aggregate captured once per
// cycle (sstat). Every variable-length sub-table is a slice that carries its
// own length (PerCPU, NUMA, ...) rather than relying on a sentinel terminator, so the table can
// be grown and shrunk between cycles without reallocation games at the call
// site.
type SystemSnapshot struct {
	Boot bool // true only for the very first sample after boot (RRBOOT)

	CPU        CPUStat
	Memory     MemoryStat
	Pressure   PressureStat
	Paging     PagingStat
	Swap       SwapStat
	Disks      DiskStat
	Interfaces NetworkStat
	NFS        NFSStat
	Container  ContainerStat
	GPU        GPUStat
	IB         IBStat
	LLC        LLCStat
}

// --- CPU ---

type CPUStat struct {
	NrCPU int // number of CPUs configured

	All CPUTimes // aggregate across all CPUs

	PerCPU []PerCPUTimes // len == NrCPU, Ncpu carried by len(PerCPU)

	DevInt  Count // device interrupts
	CSwitch Count // context switches
	NrProcs Count // number of forks since boot

	// Frequency: either a cumulative (Count, Ticks) time-in-state pair when
	// Ticks > 0, or an instantaneous Count (current kHz) otherwise. MaxFreq
	// is 0 when unknown.
	Freq []CPUFreq // len == NrCPU
}

type CPUTimes struct {
	UTime    Count // user
	NTime    Count // nice
	STime    Count // system
	ITime    Count // idle
	WTime    Count // iowait
	IRQTime  Count // irq
	SIRQTime Count // softirq
	Steal    Count
	Guest    Count
	Instr    Count // instructions retired, if available, else 0
}

type PerCPUTimes struct {
	CPUID int
	Times CPUTimes
}

// CPUFreq is self-describing: Ticks > 0 means (Count, Ticks) form a
// cumulative time-in-state ratio; Ticks == 0 means Count is an instantaneous
// current-frequency sample in kHz.
type CPUFreq struct {
	CPUID   int
	Count   Count
	Ticks   Count
	MaxFreq Count
}

// --- Memory ---

type MemoryStat struct {
	TotMem    Count // kB, as /proc/meminfo reports it
	FreeMem   Count
	BufferMem Count
	CacheMem  Count
	DirtyMem  Count
	SlabMem   Count

	ShMem    Count
	ShMemRss Count

	SwapTotal Count
	SwapFree  Count

	MinFault Count
	MajFault Count

	HugePagesTotal Count
	HugePagesFree  Count
	HugePageSizeKB Count

	KSMShared  Count
	KSMSharing Count

	ZSwapStored     Count
	ZSwapCompressed Count

	ZFSArcSize Count

	BalloonCurrent Count

	NUMA []NUMANode
}

type NUMANode struct {
	NodeID   int
	TotMem   Count
	FreeMem  Count
	Filepage Count
	Dirtymem Count
}

// --- Pressure Stall Information ---

type PressureLine struct {
	Supported   bool
	Avg10       float64
	Avg60       float64
	Avg300      float64
	TotalMicros Count
}

type PressureResource struct {
	Some PressureLine
	Full PressureLine
}

type PressureStat struct {
	CPU PressureResource
	Mem PressureResource
	IO  PressureResource
}

// --- Paging / Swap ---

type PagingStat struct {
	PageIn  Count
	PageOut Count
	SwapIn  Count
	SwapOut Count
}

type SwapStat struct {
	SwapIn  Count
	SwapOut Count
}

// --- Disk ---

// DiskClass classifies a block device: whole-device, logical volume,
// software RAID, or filtered out entirely.
type DiskClass int

const (
	DiskIgnored DiskClass = iota
	DiskWhole             // DSK
	DiskMDRaid            // MDD
	DiskLVM               // LVM
)

type PerDiskStat struct {
	Name  string
	Class DiskClass

	NumReads       Count
	NumWrites      Count
	SectorsRead    Count
	SectorsWrite   Count
	IOMillis       Count // time spent doing I/O
	WeightedMillis Count
	InFlight       Count
}

type DiskStat struct {
	Disks []PerDiskStat // whole devices (DSK)
	MDs   []PerDiskStat // mdraid arrays (MDD)
	LVs   []PerDiskStat // logical volumes (LVM)
}

// --- Network ---

type PerInterfaceStat struct {
	Name string

	SpeedMbit  int
	FullDuplex bool

	RBytes, RPackets, RErrs, RDrop Count
	SBytes, SPackets, SErrs, SDrop Count
}

type IPStat struct {
	InReceives, InDelivers, OutRequests, ForwDatagrams, ReasmOKs, FragOKs Count
	Forwarding                                                            int // configuration, copied not deviated
}

type TCPStat struct {
	ActiveOpens, PassiveOpens, AttemptFails, EstabResets, CurrEstab Count
	InSegs, OutSegs, RetransSegs, InErrs, OutRsts                   Count
	RtoMin, RtoMax                                                  int // configuration, copied not deviated
}

type UDPStat struct {
	InDatagrams, OutDatagrams, NoPorts, InErrors Count
}

type ICMPStat struct {
	InMsgs, OutMsgs, InErrors Count
}

type NetworkStat struct {
	Interfaces []PerInterfaceStat

	IPv4   IPStat
	IPv6   IPStat
	TCP    TCPStat
	UDPv4  UDPStat
	UDPv6  UDPStat
	ICMPv4 ICMPStat
	ICMPv6 ICMPStat

	RawSockRcv, RawSockDrop Count
}

// --- NFS ---

type NFSClientStat struct {
	RPCCnt, RPCRetrans Count
}

type NFSServerStat struct {
	RPCCnt, RPCBadFmt Count
	NetCnt, NetTCPCnt Count
}

type NFSMountStat struct {
	Mount string
	Bytes Count
}

type NFSStat struct {
	Client NFSClientStat
	Server NFSServerStat
	Mounts []NFSMountStat
}

// --- Container (cgroup v1-style UBC aggregate) ---

type ContainerStat struct {
	NumContainer int
	System       Count // system time consumed by containers
	User         Count
	NrProcs      Count
	PhysPages    Count
	VirtPages    Count
}

// --- GPU ---

type PerGPUStat struct {
	DeviceID int
	BusID    string
	Name     string

	GPUBusyPct Count
	MemBusyPct Count
	MemTotal   Count // KiB
	MemUsed    Count // KiB

	SampleCount int
}

type GPUStat struct {
	NrGPUs int
	GPUs   []PerGPUStat
}

// --- InfiniBand ---

type IBPortStat struct {
	Port       string
	Lanes      int
	RateGbs    float64
	RcvBytes   Count
	SndBytes   Count
	RcvPackets Count
	SndPackets Count
}

type IBStat struct {
	Ports []IBPortStat
}

// --- LLC ---

type LLCStat struct {
	OccupancyKB Count
	BandwidthMB Count
}
