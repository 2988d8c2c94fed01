package app

import (
	"runtime"
	"time"

	"golang.org/x/sys/unix"
)

var (
	lastCPUWall   time.Time
	lastCPUProc   time.Duration
	haveCPUSample bool
)

// sampleMemoryAndCPU reads process heap, resident set, and CPU usage since
// the previous sample for the TUI's engine line.
func sampleMemoryAndCPU() (mem struct{ heap, rss uint64 }, cpu float64) {
	var rusage unix.Rusage
	_ = unix.Getrusage(unix.RUSAGE_SELF, &rusage)
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	mem.heap = ms.HeapAlloc
	mem.rss = uint64(rusage.Maxrss * 1024)

	nowWall := time.Now()
	user := time.Duration(rusage.Utime.Sec)*time.Second + time.Duration(rusage.Utime.Usec)*time.Microsecond
	sys := time.Duration(rusage.Stime.Sec)*time.Second + time.Duration(rusage.Stime.Usec)*time.Microsecond
	nowProc := user + sys
	if haveCPUSample {
		wallDiff := nowWall.Sub(lastCPUWall)
		procDiff := nowProc - lastCPUProc
		if wallDiff > 0 {
			cpu = procDiff.Seconds() / wallDiff.Seconds() * 100
			if cpu < 0 {
				cpu = 0
			}
		}
	}
	lastCPUWall = nowWall
	lastCPUProc = nowProc
	haveCPUSample = true
	return
}
