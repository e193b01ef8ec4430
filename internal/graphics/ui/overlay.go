package ui

import "math"

// Overlay is a constant-thickness screen-space line. Start and End are in
// pixels relative to the 3D viewport origin.
type Overlay struct {
	Start     [2]float32
	End       [2]float32
	Color     [3]float32
	Thickness float32
}

// TessellateOverlays turns overlay lines into one white-textured primitive.
// originX/originY is the viewport origin in window pixels and clip is the
// viewport in points; lines are emitted in points so they share the UI
// pipeline. Degenerate lines are dropped. The boolean is false when nothing
// was produced.
func TessellateOverlays(overlays []Overlay, originX, originY, pixelsPerPoint float32, clip Rect) (ClippedPrimitive, bool) {
	if pixelsPerPoint <= 0 {
		pixelsPerPoint = 1
	}
	var mesh Mesh
	mesh.Texture = WhiteTexture
	for _, o := range overlays {
		dx := o.End[0] - o.Start[0]
		dy := o.End[1] - o.Start[1]
		length := float32(math.Hypot(float64(dx), float64(dy)))
		if length == 0 || o.Thickness <= 0 {
			continue
		}
		half := o.Thickness / 2
		nx := -dy / length * half
		ny := dx / length * half

		color := [4]uint8{toByte(o.Color[0]), toByte(o.Color[1]), toByte(o.Color[2]), 255}
		sx, sy := originX+o.Start[0], originY+o.Start[1]
		ex, ey := originX+o.End[0], originY+o.End[1]
		corners := [4][2]float32{
			{sx + nx, sy + ny},
			{ex + nx, ey + ny},
			{ex - nx, ey - ny},
			{sx - nx, sy - ny},
		}
		base := uint32(len(mesh.Vertices))
		for _, c := range corners {
			mesh.Vertices = append(mesh.Vertices, Vertex{
				Pos:   [2]float32{c[0] / pixelsPerPoint, c[1] / pixelsPerPoint},
				Color: color,
			})
		}
		mesh.Indices = append(mesh.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	if len(mesh.Indices) == 0 {
		return ClippedPrimitive{}, false
	}
	return ClippedPrimitive{ClipRect: clip, Mesh: mesh}, true
}

func toByte(f float32) uint8 {
	f = clampf(f, 0, 1)
	return uint8(f*255 + 0.5)
}
