package swapchain

import (
	"testing"

	"github.com/DurnezG/ruby-go/engine/renderer/device"
)

type barrierLog []device.ImageBarrier

func (b *barrierLog) PipelineBarrier(barrier device.ImageBarrier) {
	*b = append(*b, barrier)
}

var (
	transferWrite = device.AccessState{
		Access: device.AccessTransferWrite,
		Stage:  device.PipelineStageTransfer,
		Layout: device.ImageLayoutTransferDst,
	}
	colorWrite = device.AccessState{
		Access: device.AccessColorAttachmentWrite,
		Stage:  device.PipelineStageColorAttachmentOutput,
		Layout: device.ImageLayoutColorAttachmentOptimal,
	}
	present = device.AccessState{
		Access: device.AccessNone,
		Stage:  device.PipelineStageBottomOfPipe,
		Layout: device.ImageLayoutPresentSrc,
	}
)

func TestTransitionRecordsOnlyRequiredBarriers(t *testing.T) {
	img := newPresentableImage(0, "img", "view", device.FormatB8G8R8A8Srgb)
	var log barrierLog

	if !img.Transition(&log, colorWrite) {
		t.Fatal("first transition out of Undefined should record a barrier")
	}
	if img.Transition(&log, colorWrite) {
		t.Error("repeating a write in the same state should not record a barrier")
	}
	if !img.Transition(&log, transferWrite) {
		t.Error("layout change should record a barrier")
	}
	if !img.Transition(&log, present) {
		t.Error("transition to PresentSrc should record a barrier")
	}
	if len(log) != 3 {
		t.Fatalf("recorded %d barriers, want 3", len(log))
	}

	b := log[1]
	if b.OldLayout != device.ImageLayoutColorAttachmentOptimal || b.NewLayout != device.ImageLayoutTransferDst {
		t.Errorf("barrier layouts = %d->%d", b.OldLayout, b.NewLayout)
	}
	if b.SrcAccess != device.AccessColorAttachmentWrite || b.DstAccess != device.AccessTransferWrite {
		t.Errorf("barrier access = %#x->%#x", b.SrcAccess, b.DstAccess)
	}
	if img.State() != present {
		t.Errorf("state = %+v, want %+v", img.State(), present)
	}
}

func TestNeedsTransitionSameLayout(t *testing.T) {
	img := newPresentableImage(0, "img", "view", device.FormatB8G8R8A8Srgb)
	img.state = device.AccessState{
		Access: device.AccessShaderRead,
		Stage:  device.PipelineStageFragmentShader,
		Layout: device.ImageLayoutGeneral,
	}
	readAgain := device.AccessState{
		Access: device.AccessShaderRead,
		Stage:  device.PipelineStageFragmentShader,
		Layout: device.ImageLayoutGeneral,
	}
	if img.NeedsTransition(readAgain) {
		t.Error("read after read in the same layout needs no barrier")
	}

	img.state.Access = device.AccessShaderWrite
	if !img.NeedsTransition(readAgain) {
		t.Error("read after write needs a barrier even in the same layout")
	}
}

func TestTransitionWriteAfterReadSameLayout(t *testing.T) {
	img := newPresentableImage(0, "img", "view", device.FormatB8G8R8A8Srgb)
	read := device.AccessState{
		Access: device.AccessShaderRead,
		Stage:  device.PipelineStageFragmentShader,
		Layout: device.ImageLayoutGeneral,
	}
	write := device.AccessState{
		Access: device.AccessTransferWrite,
		Stage:  device.PipelineStageTransfer,
		Layout: device.ImageLayoutGeneral,
	}
	var log barrierLog

	img.Transition(&log, read)
	if !img.Transition(&log, write) {
		t.Fatal("write after read in the same layout should record a barrier")
	}
	if len(log) != 2 {
		t.Fatalf("recorded %d barriers, want 2", len(log))
	}
	b := log[1]
	if b.SrcAccess != device.AccessShaderRead || b.DstAccess != device.AccessTransferWrite {
		t.Errorf("barrier access = %#x->%#x", b.SrcAccess, b.DstAccess)
	}
	if b.SrcStage != device.PipelineStageFragmentShader || b.DstStage != device.PipelineStageTransfer {
		t.Errorf("barrier stages = %#x->%#x", b.SrcStage, b.DstStage)
	}
}

func TestMarkAcquiredKeepsLayout(t *testing.T) {
	img := newPresentableImage(1, "img", "view", device.FormatB8G8R8A8Srgb)
	img.state = present
	img.MarkAcquired()

	got := img.State()
	if got.Layout != device.ImageLayoutPresentSrc {
		t.Errorf("layout = %d, want PresentSrc", got.Layout)
	}
	if got.Access != device.AccessNone || got.Stage != device.PipelineStageColorAttachmentOutput {
		t.Errorf("state after acquire = %+v", got)
	}

	var log barrierLog
	img.Transition(&log, transferWrite)
	if len(log) != 1 || log[0].SrcStage != device.PipelineStageColorAttachmentOutput {
		t.Errorf("first barrier after acquire = %+v", log)
	}
}
