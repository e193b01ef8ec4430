package renderer

import (
	"errors"
	"fmt"
	"io"
	"log"
	"testing"
	"unsafe"

	"github.com/google/uuid"

	"vkcad/internal/config"
	"vkcad/internal/graphics/scene"
)

type fakeWindow struct{ w, h int }

func (f fakeWindow) GetFramebufferSize() (int, int) { return f.w, f.h }
func (f fakeWindow) GetRequiredInstanceExtensions() []string { return nil }
func (f fakeWindow) CreateWindowSurface(interface{}, unsafe.Pointer) (uintptr, error) {
	return 0, nil
}

// fakeCore records calls and returns scripted DrawFrame errors.
type fakeCore struct {
	extent      Extent
	recreates   []Extent
	recreateErr error
	draws       int
	drawErrs    []error
	pick        scene.PickResult
	picks       [][2]int
	destroyed   bool
}

func (f *fakeCore) RecreateSwapchain(e Extent) error {
	if f.recreateErr != nil {
		return f.recreateErr
	}
	f.recreates = append(f.recreates, e)
	f.extent = e
	return nil
}

func (f *fakeCore) DrawFrame(*scene.FrameSubmission) error {
	f.draws++
	if len(f.drawErrs) == 0 {
		return nil
	}
	err := f.drawErrs[0]
	f.drawErrs = f.drawErrs[1:]
	return err
}

func (f *fakeCore) SwapchainExtent() Extent { return f.extent }
func (f *fakeCore) RequestPick(x, y int) { f.picks = append(f.picks, [2]int{x, y}) }
func (f *fakeCore) LastPick() scene.PickResult { return f.pick }
func (f *fakeCore) GPUName() string { return "fake" }
func (f *fakeCore) AvailableGPUs() []string { return []string{"fake", "other"} }
func (f *fakeCore) Destroy() { f.destroyed = true }

var quiet = NewLogger(log.New(io.Discard, "", 0), false)

func newWithFake(t *testing.T) (*Renderer, *fakeCore) {
	t.Helper()
	core := &fakeCore{}
	factory := func(w Window, e Extent, s config.RenderSettings, l Logger) (FrameCore, error) {
		core.extent = e
		return core, nil
	}
	r := New(config.Default(), factory, quiet)
	if err := r.Initialize(fakeWindow{800, 600}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return r, core
}

func TestRenderBeforeInitialize(t *testing.T) {
	r := New(config.Default(), nil, quiet)
	err := r.Render(scene.NewFrameSubmission())
	if !errors.Is(err, ErrNotReady) {
		t.Errorf("Render before Initialize = %v, want NotReady", err)
	}
	if res := r.PickAt(1, 1); res.Hit() {
		t.Errorf("PickAt before Initialize hit")
	}
	if r.GPUName() != "" || r.AvailableGPUs() != nil {
		t.Errorf("device info before Initialize")
	}
}

func TestInitializeZeroSurface(t *testing.T) {
	r := New(config.Default(), func(Window, Extent, config.RenderSettings, Logger) (FrameCore, error) {
		t.Fatal("factory called for a zero surface")
		return nil, nil
	}, quiet)
	if err := r.Initialize(fakeWindow{0, 600}); KindOf(err) != KindSurfaceTooSmall {
		t.Errorf("Initialize = %v, want SurfaceTooSmall", err)
	}
}

func TestInitializeFactoryError(t *testing.T) {
	want := Initialization("no suitable GPU found among %d devices", 0)
	r := New(config.Default(), func(Window, Extent, config.RenderSettings, Logger) (FrameCore, error) {
		return nil, want
	}, quiet)
	if err := r.Initialize(fakeWindow{10, 10}); KindOf(err) != KindInitialization {
		t.Errorf("Initialize = %v, want Initialization", err)
	}
	if err := r.Render(scene.NewFrameSubmission()); KindOf(err) != KindNotReady {
		t.Errorf("Render after failed Initialize = %v", err)
	}
}

func TestResizeDeferredToRender(t *testing.T) {
	r, core := newWithFake(t)
	r.Resize(1024, 768)
	if len(core.recreates) != 0 {
		t.Fatalf("Resize recreated immediately")
	}
	if e, ok := r.PendingExtent(); !ok || e != (Extent{1024, 768}) {
		t.Errorf("pending = %v %v", e, ok)
	}
	if err := r.Render(scene.NewFrameSubmission()); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(core.recreates) != 1 || core.recreates[0] != (Extent{1024, 768}) {
		t.Errorf("recreates = %v", core.recreates)
	}
	if _, ok := r.PendingExtent(); ok {
		t.Errorf("pending extent not cleared")
	}
}

func TestResizeTwiceRecreatesOnce(t *testing.T) {
	r, core := newWithFake(t)
	r.Resize(640, 480)
	r.Resize(640, 480)
	if err := r.Render(scene.NewFrameSubmission()); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(core.recreates) != 1 {
		t.Errorf("recreates = %d, want 1", len(core.recreates))
	}
}

func TestResizeZeroClearsPending(t *testing.T) {
	r, core := newWithFake(t)
	r.Resize(640, 480)
	r.Resize(0, 0)
	if err := r.Render(scene.NewFrameSubmission()); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(core.recreates) != 0 {
		t.Errorf("zero resize recreated %v", core.recreates)
	}
	r.Resize(-5, 100)
	if _, ok := r.PendingExtent(); ok {
		t.Errorf("negative size left a pending extent")
	}
}

func TestRenderAbsorbsRecoverableErrors(t *testing.T) {
	r, core := newWithFake(t)
	core.drawErrs = []error{ErrSwapchainOutOfDate, ErrSurfaceTooSmall}

	if err := r.Render(scene.NewFrameSubmission()); err != nil {
		t.Fatalf("out-of-date frame: %v", err)
	}
	if e, ok := r.PendingExtent(); !ok || e != (Extent{800, 600}) {
		t.Errorf("out-of-date should schedule recreation at the current extent, got %v %v", e, ok)
	}
	if err := r.Render(scene.NewFrameSubmission()); err != nil {
		t.Fatalf("too-small frame: %v", err)
	}
	if len(core.recreates) != 1 {
		t.Errorf("recreates = %d, want 1", len(core.recreates))
	}
}

func TestRenderSkipsRecreateOnMinimizedSurface(t *testing.T) {
	r, core := newWithFake(t)
	r.Resize(1024, 768)
	core.recreateErr = ErrSurfaceTooSmall

	if err := r.Render(scene.NewFrameSubmission()); err != nil {
		t.Fatalf("Render on a minimized surface: %v", err)
	}
	if core.draws != 0 {
		t.Errorf("frame drawn while the surface has no area")
	}
	if e, ok := r.PendingExtent(); !ok || e != (Extent{1024, 768}) {
		t.Errorf("pending = %v %v, want the resize kept", e, ok)
	}

	core.recreateErr = nil
	if err := r.Render(scene.NewFrameSubmission()); err != nil {
		t.Fatalf("Render after restore: %v", err)
	}
	if len(core.recreates) != 1 || core.draws != 1 {
		t.Errorf("recreates=%v draws=%d after restore", core.recreates, core.draws)
	}
	if _, ok := r.PendingExtent(); ok {
		t.Errorf("pending extent not cleared after restore")
	}
}

func TestRenderPropagatesFatalErrors(t *testing.T) {
	r, core := newWithFake(t)
	r.Resize(640, 480)
	core.recreateErr = VkError(-4, fmt.Errorf("device lost"))
	if err := r.Render(scene.NewFrameSubmission()); KindOf(err) != KindVk {
		t.Errorf("Render with failing recreation = %v, want Vk error", err)
	}
	core.recreateErr = nil
	r.Resize(0, 0)

	fatal := VkError(-4, fmt.Errorf("device lost"))
	core.drawErrs = []error{fatal}
	err := r.Render(scene.NewFrameSubmission())
	if KindOf(err) != KindVk {
		t.Errorf("Render = %v, want Vk error", err)
	}
	if IsRecoverable(err) {
		t.Errorf("device loss reported recoverable")
	}
}

func TestPickForwarding(t *testing.T) {
	r, core := newWithFake(t)
	id := uuid.New()
	core.pick = scene.PickResult{BodyID: &id, Depth: 0.5}
	r.RequestPick(12, 34)
	if len(core.picks) != 1 || core.picks[0] != [2]int{12, 34} {
		t.Errorf("picks = %v", core.picks)
	}
	if res := r.PickAt(12, 34); !res.Hit() || *res.BodyID != id {
		t.Errorf("PickAt = %s", res)
	}
	if r.GPUName() != "fake" || len(r.AvailableGPUs()) != 2 {
		t.Errorf("device info not forwarded")
	}
}

func TestDisposeAllowsReinitialize(t *testing.T) {
	r, core := newWithFake(t)
	r.Dispose()
	if !core.destroyed {
		t.Fatalf("core not destroyed")
	}
	if err := r.Render(scene.NewFrameSubmission()); KindOf(err) != KindNotReady {
		t.Errorf("Render after Dispose = %v", err)
	}
	if err := r.Initialize(fakeWindow{10, 10}); err != nil {
		t.Errorf("re-Initialize: %v", err)
	}
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		err         error
		kind        ErrorKind
		recoverable bool
	}{
		{ErrNotReady, KindNotReady, false},
		{ErrSurfaceTooSmall, KindSurfaceTooSmall, true},
		{fmt.Errorf("acquire: %w", ErrSwapchainOutOfDate), KindSwapchainOutOfDate, true},
		{UnsupportedPlatform("no loader"), KindUnsupportedPlatform, false},
		{Initialization("no depth format"), KindInitialization, false},
		{VkError(-3, nil), KindVk, false},
		{errors.New("plain"), 0, false},
		{nil, 0, false},
	}
	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.kind {
			t.Errorf("KindOf(%v) = %v, want %v", tt.err, got, tt.kind)
		}
		if got := IsRecoverable(tt.err); got != tt.recoverable {
			t.Errorf("IsRecoverable(%v) = %v", tt.err, got)
		}
	}
	if !errors.Is(Initialization("a"), Initialization("b")) {
		t.Errorf("errors.Is should match by kind")
	}
	if got := VkError(-3, errors.New("out of device memory")).Error(); got != "vulkan error: out of device memory (VkResult -3)" {
		t.Errorf("Error() = %q", got)
	}
}
