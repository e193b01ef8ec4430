package scene

import (
	"fmt"

	"vkcad/internal/graphics/ui"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// BodyID identifies a body across frames and is written verbatim into the pick buffer.
type BodyID = uuid.UUID

// HighlightState controls the color blend applied to a body at upload time.
type HighlightState int

const (
	HighlightNone HighlightState = iota
	HighlightHovered
	HighlightSelected
	HighlightHoveredAndSelected
)

func (h HighlightState) String() string {
	switch h {
	case HighlightNone:
		return "none"
	case HighlightHovered:
		return "hovered"
	case HighlightSelected:
		return "selected"
	case HighlightHoveredAndSelected:
		return "hovered+selected"
	}
	return fmt.Sprintf("HighlightState(%d)", int(h))
}

// Mesh is a triangle list. Normals may be shorter than Positions; missing
// entries default to +Y. Empty Indices means the positions are drawn in order.
type Mesh struct {
	Positions [][3]float32
	Normals   [][3]float32
	Indices   []uint32
}

// IndexCount returns how many indices the mesh contributes to a draw.
// Without Indices only whole triangles of Positions are drawn.
func (m *Mesh) IndexCount() int {
	if len(m.Indices) > 0 {
		return len(m.Indices)
	}
	return len(m.Positions) / 3 * 3
}

// BodySubmission is a render-ready body for a single frame.
type BodySubmission struct {
	ID        BodyID
	Mesh      Mesh
	Color     [3]float32
	Highlight HighlightState
}

func (b BodySubmission) String() string {
	return fmt.Sprintf("body %s (%d vertices, %s)", b.ID, len(b.Mesh.Positions), b.Highlight)
}

// ViewportRect is the window sub-region, in physical pixels, that receives 3D content.
type ViewportRect struct {
	X, Y          uint32
	Width, Height uint32
}

// Empty reports whether the rect has no area.
func (r ViewportRect) Empty() bool {
	return r.Width == 0 || r.Height == 0
}

// FrameSubmission carries everything needed to emit one frame. Callers build a
// fresh one every frame.
type FrameSubmission struct {
	Bodies    []BodySubmission
	ViewProj  mgl32.Mat4
	CameraPos mgl32.Vec3
	Lighting  LightingData
	UI        *ui.Submission
	Overlays  []ui.Overlay
	Viewport  *ViewportRect
}

// NewFrameSubmission returns a submission with an identity view-projection,
// the camera five units down +Z and the default light rig.
func NewFrameSubmission() *FrameSubmission {
	return &FrameSubmission{
		ViewProj:  mgl32.Ident4(),
		CameraPos: mgl32.Vec3{0, 0, 5},
		Lighting:  DefaultLighting(),
	}
}

// ViewportOr returns the submission's viewport, or a rect covering the full
// width x height target when none was given.
func (f *FrameSubmission) ViewportOr(width, height uint32) ViewportRect {
	if f.Viewport != nil {
		return *f.Viewport
	}
	return ViewportRect{Width: width, Height: height}
}

// PickResult is the outcome of a pick query. The zero value means nothing
// was under the cursor.
type PickResult struct {
	BodyID        *BodyID
	WorldPosition *mgl32.Vec3
	Depth         float32
}

// Hit reports whether a body was found.
func (p PickResult) Hit() bool {
	return p.BodyID != nil
}

func (p PickResult) String() string {
	if p.BodyID == nil {
		return "no hit"
	}
	if p.WorldPosition == nil {
		return fmt.Sprintf("%s depth=%.4f", p.BodyID, p.Depth)
	}
	w := *p.WorldPosition
	return fmt.Sprintf("%s at (%.3f, %.3f, %.3f) depth=%.4f", p.BodyID, w[0], w[1], w[2], p.Depth)
}
