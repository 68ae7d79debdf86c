package profiler

import (
	"fmt"
	"runtime"
	"time"

	"github.com/DurnezG/ruby-go/common"
	"github.com/DurnezG/ruby-go/engine/renderer"
)

// Report is one interval's worth of frame and memory statistics.
type Report struct {
	// FPS is loop iterations per second over the interval, presented or not.
	FPS float64
	// Presented, Skipped and Recreations are the renderer counter deltas over the interval.
	Presented   uint64
	Skipped     uint64
	Recreations uint64
	// Generation is the swapchain generation at the end of the interval.
	Generation uint64

	HeapMB      float64
	AllocRateMB float64
	GCCount     uint32
	LastPauseUs uint64
	MaxPauseUs  uint64
	SysMB       float64
}

// String formats the report as the single-line profiler summary.
func (r Report) String() string {
	return fmt.Sprintf("[Profiler] FPS: %.2f | Presented: %d | Skipped: %d | Recreations: %d (gen %d) | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (last: %d µs, max: %d µs) | Sys: %.2f MB",
		r.FPS, r.Presented, r.Skipped, r.Recreations, r.Generation, r.HeapMB, r.AllocRateMB, r.GCCount, r.LastPauseUs, r.MaxPauseUs, r.SysMB)
}

// Profiler tracks frame rate, renderer counters and memory statistics for performance monitoring.
// Outputs a Report through the package logger at a configurable interval.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	lastStats      renderer.FrameStats
	last           Report
	now            func() time.Time
}

// NewProfiler creates a new Profiler. Update interval defaults to 1 second.
//
// Parameters:
//   - options: optional profiler configuration
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		now:            time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// Tick should be called once per frame loop iteration with the renderer's current counters.
// Logs a Report when the update interval has elapsed.
//
// Parameters:
//   - stats: the renderer counters after this iteration
//
// Returns:
//   - bool: true if a report was produced this tick, false otherwise
func (p *Profiler) Tick(stats renderer.FrameStats) bool {
	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval || elapsed <= 0 {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	r := Report{
		FPS:         float64(p.frameCount) / elapsed.Seconds(),
		Presented:   stats.Presented - p.lastStats.Presented,
		Skipped:     stats.Skipped - p.lastStats.Skipped,
		Recreations: stats.Recreations - p.lastStats.Recreations,
		Generation:  stats.Generation,
		HeapMB:      float64(p.memStats.Alloc) / 1024 / 1024,
		SysMB:       float64(p.memStats.Sys) / 1024 / 1024,
		AllocRateMB: float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds(),
		GCCount:     p.memStats.NumGC,
	}

	if gcCount := p.memStats.NumGC; gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 pauses.
		r.LastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000

		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			if pause := p.memStats.PauseNs[i%256] / 1000; pause > r.MaxPauseUs {
				r.MaxPauseUs = pause
			}
		}
	}

	common.Logger().Info(r.String(),
		"fps", r.FPS,
		"presented", r.Presented,
		"skipped", r.Skipped,
		"recreations", r.Recreations,
		"heapMB", r.HeapMB)

	p.last = r
	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = r.GCCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	p.lastStats = stats
	return true
}

// Last returns the most recent report, or the zero Report before the first interval elapses.
//
// Returns:
//   - Report: the last report
func (p *Profiler) Last() Report {
	return p.last
}
