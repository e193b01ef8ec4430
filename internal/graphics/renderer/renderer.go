package renderer

import (
	"vkcad/internal/config"
	"vkcad/internal/graphics/scene"
	"vkcad/internal/profiling"
)

// FrameCore is a fully initialized GPU stack. Renderer owns exactly one and
// drives swapchain recreation through it.
type FrameCore interface {
	RecreateSwapchain(extent Extent) error
	DrawFrame(frame *scene.FrameSubmission) error
	SwapchainExtent() Extent
	RequestPick(x, y int)
	LastPick() scene.PickResult
	GPUName() string
	AvailableGPUs() []string
	Destroy()
}

// CoreFactory builds a FrameCore for a window at its initial extent.
type CoreFactory func(w Window, extent Extent, settings config.RenderSettings, log Logger) (FrameCore, error)

// Renderer implements Backend on top of a FrameCore. Resizes and stale
// swapchains are deferred to the start of the next Render call.
type Renderer struct {
	settings config.RenderSettings
	newCore  CoreFactory
	log      Logger

	core    FrameCore
	pending *Extent
}

// New creates an uninitialized renderer.
func New(settings config.RenderSettings, factory CoreFactory, log Logger) *Renderer {
	return &Renderer{settings: settings, newCore: factory, log: log}
}

// Initialize creates the core for w. Calling it again is a no-op.
func (r *Renderer) Initialize(w Window) error {
	if r.core != nil {
		return nil
	}
	extent := ExtentOf(w.GetFramebufferSize())
	if extent.Zero() {
		return ErrSurfaceTooSmall
	}
	r.log.Infof("initializing renderer (validation_layers=%v, msaa=%d)",
		r.settings.PreferValidationLayers, r.settings.MSAASamples)
	core, err := r.newCore(w, extent, r.settings, r.log)
	if err != nil {
		return err
	}
	r.core = core
	return nil
}

// Render draws one frame. Out-of-date swapchains and zero-area surfaces are
// absorbed here; every other error is returned and should stop the loop.
// A recreation skipped for a zero-area surface stays pending and the frame
// is dropped.
func (r *Renderer) Render(frame *scene.FrameSubmission) error {
	defer profiling.Track("renderer.Render")()
	if frame.UI != nil {
		r.log.Debugf("ui output: %d primitives, %d texture ops", len(frame.UI.Primitives), frame.UI.TextureOps())
	}
	if err := r.ensureSwapchain(); err != nil {
		if KindOf(err) == KindSurfaceTooSmall {
			return nil
		}
		return err
	}
	err := r.core.DrawFrame(frame)
	switch KindOf(err) {
	case KindSwapchainOutOfDate:
		e := r.core.SwapchainExtent()
		r.pending = &e
		return nil
	case KindSurfaceTooSmall:
		return nil
	}
	return err
}

func (r *Renderer) ensureSwapchain() error {
	if r.core == nil {
		return ErrNotReady
	}
	if r.pending == nil {
		return nil
	}
	if r.pending.Zero() {
		return nil
	}
	if err := r.core.RecreateSwapchain(*r.pending); err != nil {
		return err
	}
	r.pending = nil
	return nil
}

// Resize schedules swapchain recreation at the new size. A zero size clears
// any pending request.
func (r *Renderer) Resize(width, height int) {
	e := ExtentOf(width, height)
	if e.Zero() {
		r.pending = nil
		return
	}
	r.pending = &e
}

// PendingExtent reports the recreation scheduled for the next frame, if any.
func (r *Renderer) PendingExtent() (Extent, bool) {
	if r.pending == nil {
		return Extent{}, false
	}
	return *r.pending, true
}

// PickAt returns the result of the most recently serviced pick request.
func (r *Renderer) PickAt(x, y int) scene.PickResult {
	if r.core == nil {
		return scene.PickResult{}
	}
	return r.core.LastPick()
}

// RequestPick queues a pick at window pixel (x, y) for the next frame.
func (r *Renderer) RequestPick(x, y int) {
	if r.core != nil {
		r.core.RequestPick(x, y)
	}
}

func (r *Renderer) GPUName() string {
	if r.core == nil {
		return ""
	}
	return r.core.GPUName()
}

func (r *Renderer) AvailableGPUs() []string {
	if r.core == nil {
		return nil
	}
	return r.core.AvailableGPUs()
}

// Dispose releases the core. The renderer can be initialized again afterwards.
func (r *Renderer) Dispose() {
	if r.core != nil {
		r.core.Destroy()
		r.core = nil
	}
	r.pending = nil
}
