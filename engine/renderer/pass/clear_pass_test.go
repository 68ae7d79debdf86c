package pass

import (
	"image/color"
	"testing"

	"github.com/DurnezG/ruby-go/engine/renderer/command"
	"github.com/DurnezG/ruby-go/engine/renderer/device"
	"github.com/DurnezG/ruby-go/engine/renderer/device/devicetest"
	"github.com/DurnezG/ruby-go/engine/renderer/swapchain"
	"golang.org/x/image/colornames"
)

func newRecordingContext(t *testing.T, dev *devicetest.Device) Context {
	t.Helper()
	sc, err := swapchain.NewSwapchain(devicetest.NewSurface(800, 600), dev)
	if err != nil {
		t.Fatalf("NewSwapchain() error = %v", err)
	}
	pool, err := command.NewPool(dev)
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}
	t.Cleanup(func() {
		pool.Destroy()
		sc.Destroy()
	})

	buf := pool.FrameBuffer(0)
	if err := buf.Begin(true); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	return Context{Device: dev, Commands: buf, Swapchain: sc, Image: sc.Image(0)}
}

func TestClearPassRecord(t *testing.T) {
	dev := devicetest.NewDevice()
	ctx := newRecordingContext(t, dev)
	p := NewClearPass(WithClearColor(colornames.Cornflowerblue))

	if err := p.Record(ctx, 0); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := p.Record(ctx, 0); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	barriers := dev.Barriers()
	if len(barriers) != 1 {
		t.Fatalf("recorded %d barriers, want 1 for two clears in the same state", len(barriers))
	}
	if barriers[0].OldLayout != device.ImageLayoutUndefined || barriers[0].NewLayout != device.ImageLayoutTransferDst {
		t.Errorf("barrier = %d->%d, want Undefined->TransferDst", barriers[0].OldLayout, barriers[0].NewLayout)
	}
	if got := dev.Count("clear "); got != 2 {
		t.Errorf("recorded %d clears, want 2", got)
	}
	if got := ctx.Swapchain.Image(0).State(); got != transferDst {
		t.Errorf("image state = %+v, want %+v", got, transferDst)
	}
}

func TestClearPassRecordBadIndex(t *testing.T) {
	ctx := newRecordingContext(t, devicetest.NewDevice())
	if err := NewClearPass().Record(ctx, 42); err == nil {
		t.Error("Record() with an out of range index should fail")
	}
}

func TestClearPassRecreate(t *testing.T) {
	dev := devicetest.NewDevice()
	ctx := newRecordingContext(t, dev)
	p := NewClearPass()

	dev.SetExtent(1280, 720)
	if err := ctx.Swapchain.Recreate(); err != nil {
		t.Fatalf("Recreate() error = %v", err)
	}
	if err := p.Recreate(ctx.Swapchain); err != nil {
		t.Fatalf("ClearPass.Recreate() error = %v", err)
	}
	if p.Extent().Width != 1280 || p.Extent().Height != 720 {
		t.Errorf("Extent() = %+v, want 1280x720", p.Extent())
	}
	if p.Generation() != 1 {
		t.Errorf("Generation() = %d, want 1", p.Generation())
	}
}

func TestClearValue(t *testing.T) {
	grey := color.NRGBA{R: 128, G: 128, B: 128, A: 255}

	unorm := clearValue(grey, device.FormatB8G8R8A8Unorm)
	if unorm[0] != float32(128)/255 || unorm[3] != 1 {
		t.Errorf("UNORM clear value = %v", unorm)
	}

	srgb := clearValue(grey, device.FormatB8G8R8A8Srgb)
	if srgb[0] < 0.21 || srgb[0] > 0.22 {
		t.Errorf("sRGB clear value red = %f, want about 0.216", srgb[0])
	}
	if srgb[3] != 1 {
		t.Errorf("alpha = %f, want 1", srgb[3])
	}

	if got := clearValue(nil, device.FormatB8G8R8A8Unorm); got != [4]float32{0, 0, 0, 1} {
		t.Errorf("nil color clear value = %v, want opaque black", got)
	}
}

func TestFuncPass(t *testing.T) {
	var nilPass FuncPass
	if err := nilPass.Record(Context{}, 0); err != nil {
		t.Errorf("zero FuncPass Record() error = %v", err)
	}
	if err := nilPass.Recreate(nil); err != nil {
		t.Errorf("zero FuncPass Recreate() error = %v", err)
	}

	var gotIndex uint32
	p := FuncPass{RecordFunc: func(_ Context, idx uint32) error {
		gotIndex = idx
		return nil
	}}
	if err := p.Record(Context{}, 7); err != nil || gotIndex != 7 {
		t.Errorf("Record() = %v, index %d", err, gotIndex)
	}
}
