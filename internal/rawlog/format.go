// Package rawlog implements the persisted sample log: a fixed rawHeader
// once per file, then one rawRecord plus four independently
// deflate-compressed payload segments per cycle (system stats, task
// deviations, cgroup stats, cgroup pid lists — the latter two are this
// module's cgroup-v2 extension over a plain two-segment layout).
package rawlog

import "time"

// Magic identifies a sysgauge raw log file.
const Magic uint32 = 0xfeedbeef

// CreatorVersion is OR'd with versionMSB and stored in rawHeader.Version.
// Open rejects a header without the versionMSB tag; the version number
// itself is not compared with this reader's CreatorVersion.
const CreatorVersion uint16 = 1
const versionMSB uint16 = 0x8000

// rawHeader opens the file. HeaderLen and RecordLen record the struct sizes
// the writer used; Open refuses a file whose sizes differ from its own.
type rawHeader struct {
	Magic   uint32
	Version uint16 // CreatorVersion | versionMSB

	HeaderLen uint16 // size of rawHeader as written
	RecordLen uint16 // size of rawRecord as written

	Hertz uint16 // clock ticks per second on the writing host

	PageSize     uint32
	SupportFlags uint32 // which optional subsystems this writer could read
}

// rawRecord precedes each cycle's compressed segments.
type rawRecord struct {
	CurTime int64 // unix seconds
	Flags   uint16

	SysCompLen  uint32 // length of the compressed system-stats segment
	TaskCompLen uint32 // length of the compressed task-deviations segment
	CgCompLen   uint32 // length of the compressed cgroup-stats segment
	PidCompLen  uint32 // length of the compressed cgroup-pidlist segment

	Interval  uint32 // seconds since the previous record
	NDeviat   uint32 // tasks in this record's deviation list
	NActProc  uint32
	NTask     uint32
	TotProc   uint32
	TotRun    uint32
	TotSlpI   uint32
	TotSlpU   uint32
	TotZomb   uint32
	NExit     uint32
	NOverflow uint32
}

func epochTime(t int64) time.Time { return time.Unix(t, 0) }
