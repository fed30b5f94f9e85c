// Package system holds process-level helpers: file descriptor limits,
// resource statistics for performance reports and the mask pool.
package system

import (
	"fmt"
	"os"
	"runtime"
	"syscall"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/ivlev/motionpath/internal/logx"
)

// InitResourceLimits raises the open file limit so parallel frame writers
// do not run out of descriptors.
func InitResourceLimits() {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		logx.Logger().Warn("cannot read open file limit", "err", err)
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	err = syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		logx.Logger().Warn("cannot raise open file limit", "err", err)
	} else {
		logx.Logger().Debug("open file limit raised", "limit", rLimit.Cur)
	}
}

// ResourceStats is a snapshot of process and host resource usage.
type ResourceStats struct {
	RSS        uint64
	CPUPercent float64
	HostTotal  uint64
	HostUsed   float64
	Goroutines int
}

// Stats samples the current process and host. Fields that cannot be read
// on this platform are left zero.
func Stats() (ResourceStats, error) {
	st := ResourceStats{Goroutines: runtime.NumGoroutine()}

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return st, fmt.Errorf("system: open process: %w", err)
	}
	if mi, err := proc.MemoryInfo(); err == nil {
		st.RSS = mi.RSS
	}
	if pct, err := proc.CPUPercent(); err == nil {
		st.CPUPercent = pct
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		st.HostTotal = vm.Total
		st.HostUsed = vm.UsedPercent
	}
	return st, nil
}

// String formats the snapshot for the performance report.
func (s ResourceStats) String() string {
	return fmt.Sprintf("RSS: %.1f MiB | CPU: %.1f%% | Host memory: %.1f%% of %.1f GiB | Goroutines: %d",
		float64(s.RSS)/(1<<20), s.CPUPercent, s.HostUsed, float64(s.HostTotal)/(1<<30), s.Goroutines)
}
