package command

import (
	"testing"
	"time"

	"github.com/DurnezG/ruby-go/engine/renderer/device"
	"github.com/DurnezG/ruby-go/engine/renderer/device/devicetest"
	"github.com/pkg/errors"
)

func newTestPool(t *testing.T, dev *devicetest.Device, opts ...PoolBuilderOption) Pool {
	t.Helper()
	p, err := NewPool(dev, opts...)
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}
	return p
}

func TestNewPool(t *testing.T) {
	dev := devicetest.NewDevice()
	p := newTestPool(t, dev, WithFrameCount(3))

	if p.FrameCount() != 3 {
		t.Errorf("FrameCount() = %d, want 3", p.FrameCount())
	}
	if dev.Count("create-pool pool#1 resettable=true") != 1 {
		t.Errorf("pool should be created resettable, events = %v", dev.Events())
	}
	if got := dev.Live("cmd"); got != 3 {
		t.Errorf("live command buffers = %d, want 3", got)
	}
	if p.FrameBuffer(0) == p.FrameBuffer(1) {
		t.Error("frame buffers must be distinct")
	}

	p.Destroy()
	p.Destroy()
	if got := dev.Live(""); got != 0 {
		t.Errorf("live objects after Destroy = %d, want 0", got)
	}
}

func TestNewPoolErrors(t *testing.T) {
	if _, err := NewPool(devicetest.NewDevice(), WithFrameCount(0)); err == nil {
		t.Error("NewPool() with zero frames should fail")
	}

	dev := devicetest.NewDevice()
	dev.AllocateErr = device.ErrFailed
	if _, err := NewPool(dev); !errors.Is(err, device.ErrFailed) {
		t.Errorf("NewPool() error = %v, want ErrFailed", err)
	}
	if got := dev.Live(""); got != 0 {
		t.Errorf("live objects after failed NewPool = %d, want 0", got)
	}
}

func TestBufferLifecycle(t *testing.T) {
	dev := devicetest.NewDevice()
	p := newTestPool(t, dev)
	buf := p.FrameBuffer(0)

	if err := buf.End(); !errors.Is(err, ErrNotRecording) {
		t.Errorf("End() before Begin error = %v, want ErrNotRecording", err)
	}
	if err := buf.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if err := buf.Begin(true); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if !buf.Recording() {
		t.Error("Recording() = false after Begin")
	}
	buf.PipelineBarrier(device.ImageBarrier{Image: "img", NewLayout: device.ImageLayoutTransferDst})
	buf.ClearColorImage("img", device.ImageLayoutTransferDst, [4]float32{1, 0, 0, 1})
	if err := buf.End(); err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if buf.Recording() {
		t.Error("Recording() = true after End")
	}
	if got := len(dev.Barriers()); got != 1 {
		t.Errorf("recorded %d barriers, want 1", got)
	}
	if dev.Count("clear img") != 1 {
		t.Errorf("clear not recorded, events = %v", dev.Events())
	}
}

func TestImmediate(t *testing.T) {
	dev := devicetest.NewDevice()
	p := newTestPool(t, dev)

	recorded := false
	err := p.Immediate(func(buf *Buffer) error {
		recorded = buf.Recording()
		buf.ClearColorImage("img", device.ImageLayoutGeneral, [4]float32{})
		return nil
	})
	if err != nil {
		t.Fatalf("Immediate() error = %v", err)
	}
	if !recorded {
		t.Error("record callback should see an open buffer")
	}
	if dev.Count("begin-cmd") != 1 || dev.Count("submit") != 1 || dev.Count("wait-fence") != 1 {
		t.Errorf("unexpected immediate events: %v", dev.Events())
	}
	if dev.Count("begin-cmd cmd#4 once=true") != 1 {
		t.Errorf("immediate buffer should be one-time submit, events = %v", dev.Events())
	}
	if got := dev.Live("cmd"); got != p.FrameCount() {
		t.Errorf("live command buffers = %d, want only the %d frame buffers", got, p.FrameCount())
	}
	if got := dev.Live("fence"); got != 0 {
		t.Errorf("live fences = %d, want 0", got)
	}
	if len(dev.Violations()) != 0 {
		t.Errorf("violations: %v", dev.Violations())
	}
}

func TestImmediateReleasesOnFailure(t *testing.T) {
	recordErr := errors.New("record failed")

	for _, tc := range []struct {
		name    string
		setup   func(dev *devicetest.Device)
		record  func(buf *Buffer) error
		wantErr error
	}{
		{
			name:    "record error",
			record:  func(*Buffer) error { return recordErr },
			wantErr: recordErr,
		},
		{
			name:    "submit error",
			setup:   func(dev *devicetest.Device) { dev.SubmitErr = device.ErrDeviceLost },
			record:  func(*Buffer) error { return nil },
			wantErr: device.ErrDeviceLost,
		},
		{
			name:    "timeout",
			setup:   func(dev *devicetest.Device) { dev.HangFences = true },
			record:  func(*Buffer) error { return nil },
			wantErr: device.ErrTimeout,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			dev := devicetest.NewDevice()
			p := newTestPool(t, dev, WithImmediateTimeout(time.Millisecond))
			if tc.setup != nil {
				tc.setup(dev)
			}

			if err := p.Immediate(tc.record); !errors.Is(err, tc.wantErr) {
				t.Fatalf("Immediate() error = %v, want %v", err, tc.wantErr)
			}
			if got := dev.Live("cmd"); got != p.FrameCount() {
				t.Errorf("live command buffers = %d, want %d", got, p.FrameCount())
			}
			if got := dev.Live("fence"); got != 0 {
				t.Errorf("live fences = %d, want 0", got)
			}
			if len(dev.Violations()) != 0 {
				t.Errorf("violations: %v", dev.Violations())
			}
		})
	}
}
