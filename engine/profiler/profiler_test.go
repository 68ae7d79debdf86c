package profiler

import (
	"strings"
	"testing"
	"time"

	"github.com/DurnezG/ruby-go/engine/renderer"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func TestTickReportsOncePerInterval(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	p := NewProfiler(WithClock(clock.now), WithUpdateInterval(time.Second))

	for i := 0; i < 9; i++ {
		clock.advance(100 * time.Millisecond)
		if p.Tick(renderer.FrameStats{Presented: uint64(i + 1)}) {
			t.Fatalf("tick %d reported before the interval elapsed", i)
		}
	}
	clock.advance(100 * time.Millisecond)
	if !p.Tick(renderer.FrameStats{Presented: 10, Skipped: 1, Recreations: 2, Generation: 3}) {
		t.Fatal("expected a report once the interval elapsed")
	}

	r := p.Last()
	if r.FPS != 10 {
		t.Errorf("FPS = %v, want 10", r.FPS)
	}
	if r.Presented != 10 || r.Skipped != 1 || r.Recreations != 2 || r.Generation != 3 {
		t.Errorf("counters = %+v", r)
	}
}

func TestTickReportsCounterDeltas(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	p := NewProfiler(WithClock(clock.now))

	clock.advance(time.Second)
	p.Tick(renderer.FrameStats{Presented: 60, Recreations: 1, Generation: 1})

	clock.advance(2 * time.Second)
	if !p.Tick(renderer.FrameStats{Presented: 100, Skipped: 3, Recreations: 4, Generation: 4}) {
		t.Fatal("expected a second report")
	}

	r := p.Last()
	if r.Presented != 40 || r.Skipped != 3 || r.Recreations != 3 {
		t.Errorf("deltas = presented %d skipped %d recreations %d, want 40 3 3", r.Presented, r.Skipped, r.Recreations)
	}
	if r.Generation != 4 {
		t.Errorf("Generation = %d, want 4", r.Generation)
	}
	if r.FPS != 0.5 {
		t.Errorf("FPS = %v, want 0.5 (one tick over two seconds)", r.FPS)
	}
}

func TestOptionsIgnoreInvalidValues(t *testing.T) {
	p := NewProfiler(WithUpdateInterval(0), WithUpdateInterval(-time.Second), WithClock(nil))
	if p.updateInterval != time.Second {
		t.Errorf("updateInterval = %v, want default", p.updateInterval)
	}
	if p.now == nil {
		t.Error("clock was cleared by a nil option")
	}
}

func TestReportString(t *testing.T) {
	s := Report{FPS: 59.5, Presented: 59, Skipped: 1, Recreations: 1, Generation: 2}.String()
	for _, want := range []string{"[Profiler]", "FPS: 59.50", "Presented: 59", "Skipped: 1", "gen 2"} {
		if !strings.Contains(s, want) {
			t.Errorf("report %q missing %q", s, want)
		}
	}
}
