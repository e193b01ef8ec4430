package renderer

import (
	"unsafe"

	"vkcad/internal/graphics/scene"
)

// Window is what a backend needs from the windowing layer. *glfw.Window
// satisfies it.
type Window interface {
	GetFramebufferSize() (width, height int)
	GetRequiredInstanceExtensions() []string
	CreateWindowSurface(instance interface{}, allocCallbacks unsafe.Pointer) (uintptr, error)
}

// Backend is the renderer contract consumed by the application shell.
type Backend interface {
	Initialize(w Window) error
	Render(frame *scene.FrameSubmission) error
	Resize(width, height int)
	// PickAt returns the most recent pick result. Picks are serviced
	// asynchronously; see RequestPick.
	PickAt(x, y int) scene.PickResult
}

// Picker accepts pick requests that are serviced after the next frame's pick pass.
type Picker interface {
	RequestPick(x, y int)
}

// DeviceInfo exposes the selected GPU and the alternatives for settings UIs.
type DeviceInfo interface {
	GPUName() string
	AvailableGPUs() []string
}

// Extent is a surface size in physical pixels.
type Extent struct {
	Width, Height uint32
}

// Zero reports whether the extent has no area.
func (e Extent) Zero() bool {
	return e.Width == 0 || e.Height == 0
}

// ExtentOf converts signed window sizes, clamping negatives to zero.
func ExtentOf(width, height int) Extent {
	return Extent{Width: uint32(max(width, 0)), Height: uint32(max(height, 0))}
}
