// Package software is a headless CPU implementation of the frame core. It
// rasterizes only the pick attachments, which is enough to drive the
// renderer wrapper and the pick protocol without a GPU.
package software

import (
	"unsafe"

	"vkcad/internal/config"
	"vkcad/internal/graphics/renderer"
	"vkcad/internal/graphics/scene"
	"vkcad/internal/profiling"
)

const deviceName = "software rasterizer"

// Window is a fixed-size headless window.
type Window struct {
	Width, Height int
}

func (w *Window) GetFramebufferSize() (int, int) { return w.Width, w.Height }

func (w *Window) GetRequiredInstanceExtensions() []string { return nil }

func (w *Window) CreateWindowSurface(instance interface{}, allocCallbacks unsafe.Pointer) (uintptr, error) {
	return 0, renderer.UnsupportedPlatform("headless window has no surface")
}

// Stats counts target allocations so tests can check resize behaviour.
type Stats struct {
	// Generation increments every time the targets are rebuilt.
	Generation int
	// Live is the number of target sets currently allocated.
	Live int
	// Frames is the number of frames drawn.
	Frames int
	// Triangles is how many triangles covered a sample in the last frame.
	Triangles int
}

// Core implements renderer.FrameCore on the CPU.
type Core struct {
	log     renderer.Logger
	extent  renderer.Extent
	targets *targets
	stats   Stats

	capture     scene.PickCapture
	pickRequest *[2]int
	lastPick    scene.PickResult
	destroyed   bool
}

var _ renderer.FrameCore = (*Core)(nil)

// NewCore is a renderer.CoreFactory.
func NewCore(w renderer.Window, extent renderer.Extent, settings config.RenderSettings, log renderer.Logger) (renderer.FrameCore, error) {
	return New(extent, log)
}

// New creates a core with targets sized to extent.
func New(extent renderer.Extent, log renderer.Logger) (*Core, error) {
	if extent.Zero() {
		return nil, renderer.ErrSurfaceTooSmall
	}
	c := &Core{log: log}
	c.build(extent)
	log.Infof("using GPU %s (%dx%d)", deviceName, extent.Width, extent.Height)
	return c, nil
}

func (c *Core) build(extent renderer.Extent) {
	c.targets = newTargets(int(extent.Width), int(extent.Height))
	c.extent = extent
	c.stats.Generation++
	c.stats.Live = 1
}

// RecreateSwapchain reallocates the targets. A zero extent is skipped.
func (c *Core) RecreateSwapchain(extent renderer.Extent) error {
	if c.destroyed {
		return renderer.ErrNotReady
	}
	if extent.Zero() {
		return nil
	}
	c.targets = nil
	c.stats.Live = 0
	c.build(extent)
	c.log.Debugf("targets recreated at %dx%d (generation %d)", extent.Width, extent.Height, c.stats.Generation)
	return nil
}

// DrawFrame runs the pick pass and then services a pending pick against
// the capture of that pass.
func (c *Core) DrawFrame(frame *scene.FrameSubmission) error {
	if c.destroyed || c.targets == nil {
		return renderer.ErrNotReady
	}
	defer profiling.Track("software.draw")()
	vp := frame.ViewportOr(c.extent.Width, c.extent.Height)
	c.targets.clear()
	c.capture = scene.PickCapture{ViewProj: frame.ViewProj, Viewport: vp}
	c.stats.Triangles = 0
	if !vp.Empty() {
		c.stats.Triangles = c.targets.drawBodies(frame.Bodies, frame.ViewProj, vp)
	}
	c.stats.Frames++
	c.servicePick()
	return nil
}

func (c *Core) servicePick() {
	if c.pickRequest == nil {
		return
	}
	x, y := c.pickRequest[0], c.pickRequest[1]
	c.pickRequest = nil
	words, depth, ok := c.targets.at(x, y)
	if !ok {
		c.lastPick = scene.PickResult{}
		return
	}
	c.lastPick = scene.ResolvePick(float32(x), float32(y), words, depth, c.capture)
	if c.lastPick.Hit() {
		c.log.Debugf("pick at (%d, %d): %s", x, y, c.lastPick)
	}
}

func (c *Core) SwapchainExtent() renderer.Extent { return c.extent }

// RequestPick schedules a readback after the next frame.
func (c *Core) RequestPick(x, y int) { c.pickRequest = &[2]int{x, y} }

func (c *Core) LastPick() scene.PickResult { return c.lastPick }

func (c *Core) GPUName() string { return deviceName }

func (c *Core) AvailableGPUs() []string { return []string{deviceName} }

// Stats reports allocation and frame counters.
func (c *Core) Stats() Stats { return c.stats }

func (c *Core) Destroy() {
	c.targets = nil
	c.stats.Live = 0
	c.destroyed = true
}
