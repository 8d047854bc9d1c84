// Package observability collects process-level stats for the periodic stats
// worker and the health endpoint.
package observability

import (
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/process"
)

// Stats is one point-in-time snapshot of the process.
type Stats struct {
	Connections int     `json:"connections"`
	Goroutines  int     `json:"goroutines"`
	AllocMemMb  uint64  `json:"alloc_mem_mb"`
	NumGC       uint32  `json:"num_gc"`
	CPUPercent  float64 `json:"cpu_percent"`
	RssMb       uint64  `json:"rss_mb"`
	UptimeSec   int64   `json:"uptime_sec"`
}

// Collector samples the current process. The connections callback keeps the
// registry out of this package; it must be safe for concurrent use.
type Collector struct {
	proc        *process.Process
	started     time.Time
	connections func() int
}

func NewCollector(connections func() int) (*Collector, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	return &Collector{proc: p, started: time.Now(), connections: connections}, nil
}

// Snapshot gathers one Stats sample. gopsutil failures degrade to zeroed
// fields rather than failing the snapshot: the health endpoint must answer
// even when process inspection is unavailable.
func (c *Collector) Snapshot() Stats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	stats := Stats{
		Connections: c.connections(),
		Goroutines:  runtime.NumGoroutine(),
		AllocMemMb:  mem.Alloc / 1024 / 1024,
		NumGC:       mem.NumGC,
		UptimeSec:   int64(time.Since(c.started).Seconds()),
	}

	if cpu, err := c.proc.CPUPercent(); err == nil {
		stats.CPUPercent = cpu
	}
	if info, err := c.proc.MemoryInfo(); err == nil {
		stats.RssMb = info.RSS / 1024 / 1024
	}
	return stats
}
