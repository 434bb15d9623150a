//go:build !windows

package handler

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

var (
	cpuMu          sync.Mutex
	lastCPUTime    time.Duration
	lastWallTime   time.Time
	cpuInitialized bool
)

// getDiskStats returns disk usage statistics for the given path.
func getDiskStats(path string) (total, free, used int64, usedPct float64) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return
	}
	total = int64(st.Blocks) * int64(st.Bsize)
	free = int64(st.Bavail) * int64(st.Bsize)
	used = total - free
	if total > 0 {
		usedPct = float64(used) / float64(total) * 100
	}
	return
}

// getCPUUsage returns the process CPU percentage since the previous call,
// capped at one core.
func getCPUUsage() float64 {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return 0
	}
	total := time.Duration(ru.Utime.Nano()) + time.Duration(ru.Stime.Nano())
	now := time.Now()

	cpuMu.Lock()
	defer cpuMu.Unlock()

	if !cpuInitialized {
		lastCPUTime, lastWallTime, cpuInitialized = total, now, true
		return 0
	}

	cpuDelta := total - lastCPUTime
	wallDelta := now.Sub(lastWallTime)
	lastCPUTime, lastWallTime = total, now

	if wallDelta <= 0 {
		return 0
	}
	pct := float64(cpuDelta) / float64(wallDelta) * 100
	return min(max(pct, 0), 100)
}
