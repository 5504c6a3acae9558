package system

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// ProcessStats is a resource snapshot of the running process.
type ProcessStats struct {
	RSS           uint64
	CPUPercent    float64
	Threads       int32
	Goroutines    int
	HeapAlloc     uint64
	SystemTotal   uint64
	SystemUsedPct float64
	Canvases      PoolStats
}

// CollectStats samples the current process and the host memory.
func CollectStats(ctx context.Context) (ProcessStats, error) {
	var st ProcessStats

	proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		return st, fmt.Errorf("inspect process: %w", err)
	}
	if info, err := proc.MemoryInfoWithContext(ctx); err == nil {
		st.RSS = info.RSS
	}
	if pct, err := proc.CPUPercentWithContext(ctx); err == nil {
		st.CPUPercent = pct
	}
	if n, err := proc.NumThreadsWithContext(ctx); err == nil {
		st.Threads = n
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return st, fmt.Errorf("read host memory: %w", err)
	}
	st.SystemTotal = vm.Total
	st.SystemUsedPct = vm.UsedPercent

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	st.HeapAlloc = ms.HeapAlloc
	st.Goroutines = runtime.NumGoroutine()
	st.Canvases = CanvasStats()
	return st, nil
}

// FormatBytes renders n with a binary unit.
func FormatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
